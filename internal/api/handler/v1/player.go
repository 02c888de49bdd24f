package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jerneif/lotto-api/internal/api/handler/v1/request"
	"github.com/jerneif/lotto-api/internal/api/handler/v1/response"
	"github.com/jerneif/lotto-api/internal/domain"
)

var errNotSelf = errors.New("players can only read their own profile")

type PlayerService interface {
	RegisterPlayer(ctx context.Context, fullName, email string) (domain.Player, error)
	GetPlayer(ctx context.Context, playerID uuid.UUID) (domain.Player, error)
	SetPlayerActive(ctx context.Context, playerID uuid.UUID, active bool) (domain.Player, error)
}

type PlayerHandler struct {
	svc PlayerService
}

func NewPlayerHandler(svc PlayerService) *PlayerHandler {
	return &PlayerHandler{
		svc: svc,
	}
}

// HandleRegisterPlayer creates an inactive player.
func (h *PlayerHandler) HandleRegisterPlayer(ctx *gin.Context) {
	var req request.RegisterPlayerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	player, err := h.svc.RegisterPlayer(ctx.Request.Context(), req.FullName, req.Email)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, player)
}

// HandleGetPlayer lets players read their own profile and admins any.
func (h *PlayerHandler) HandleGetPlayer(ctx *gin.Context) {
	p, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	playerID, respErr := uuidParam(ctx, "playerID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	if playerID != p.PlayerID && !p.IsAdmin() {
		response.RenderErr(ctx, response.ErrPermissionDenied(errNotSelf))
		return
	}

	player, err := h.svc.GetPlayer(ctx.Request.Context(), playerID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, player)
}

// HandleSetPlayerActive activates or deactivates a player.
func (h *PlayerHandler) HandleSetPlayerActive(ctx *gin.Context) {
	playerID, respErr := uuidParam(ctx, "playerID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.SetActiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	player, err := h.svc.SetPlayerActive(ctx.Request.Context(), playerID, *req.IsActive)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, player)
}
