package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jerneif/lotto-api/internal/api/handler/v1/response"
	"github.com/jerneif/lotto-api/internal/domain"
	"github.com/jerneif/lotto-api/internal/pkg/jwthelper"
)

const principalKey = "principal"

var (
	errMissingToken = errors.New("missing bearer token")
	errNotAdmin     = errors.New("admin role required")
	errUnknownRole  = errors.New("unknown role")
)

type Authenticator struct {
	signingKey []byte
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
	}
}

// VerifyJWT accepts the token from the Authorization header, or from the
// access_token query parameter for websocket clients that can't set headers.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		playerID, role, err := jwthelper.ParseToken(a.signingKey, token)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			return
		}
		if role != domain.RolePlayer && role != domain.RoleAdmin {
			response.RenderErr(ctx, response.ErrUnauthorized(errUnknownRole))
			return
		}

		SetPrincipal(ctx, domain.Principal{PlayerID: playerID, Role: role})
		ctx.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		p, ok := GetPrincipal(ctx)
		if !ok || !p.IsAdmin() {
			response.RenderErr(ctx, response.ErrPermissionDenied(errNotAdmin))
			return
		}

		ctx.Next()
	}
}

func SetPrincipal(ctx *gin.Context, p domain.Principal) {
	ctx.Set(principalKey, p)
}

func GetPrincipal(ctx *gin.Context) (domain.Principal, bool) {
	v, ok := ctx.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}

	p, ok := v.(domain.Principal)
	if !ok || p.PlayerID == uuid.Nil {
		return domain.Principal{}, false
	}

	return p, true
}

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ctx.Query("access_token")
}
