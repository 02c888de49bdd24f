package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jerneif/lotto-api/internal/api/handler/v1/response"
	"github.com/jerneif/lotto-api/internal/api/middleware"
	"github.com/jerneif/lotto-api/internal/domain"
)

var errNoPrincipal = errors.New("request is not authenticated")

// HandleHealthcheck answers once the router is serving.
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getPrincipal(ctx *gin.Context) (domain.Principal, *response.Err) {
	p, ok := middleware.GetPrincipal(ctx)
	if !ok {
		return domain.Principal{}, response.ErrUnauthorized(errNoPrincipal)
	}

	return p, nil
}

func uuidParam(ctx *gin.Context, name string) (uuid.UUID, *response.Err) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		return uuid.Nil, response.ErrInvalidUUID(name)
	}

	return id, nil
}
