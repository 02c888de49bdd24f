package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jerneif/lotto-api/internal/api/handler/v1/request"
	"github.com/jerneif/lotto-api/internal/api/handler/v1/response"
	"github.com/jerneif/lotto-api/internal/domain"
)

type GameService interface {
	GetOrActivateOpenGame(ctx context.Context) (domain.Game, error)
	EndGame(ctx context.Context, gameID uuid.UUID, w domain.WinningNumbers) (domain.Game, error)
	GetGame(ctx context.Context, gameID uuid.UUID) (domain.Game, error)
	GetGameHistory(ctx context.Context) ([]domain.Game, error)
	GetGameAdminOverview(ctx context.Context, gameID uuid.UUID) (domain.GameOverview, error)
	GetAllGameStats(ctx context.Context) ([]domain.GameStats, error)
	GetGameStats(ctx context.Context, gameID uuid.UUID) (domain.GameStats, error)
}

type RenewalService interface {
	ProcessRenewals(ctx context.Context, gameID uuid.UUID) (domain.RenewalReport, error)
}

type GameHandler struct {
	svc     GameService
	renewer RenewalService
}

func NewGameHandler(svc GameService, renewer RenewalService) *GameHandler {
	return &GameHandler{
		svc:     svc,
		renewer: renewer,
	}
}

// HandleGetActiveGame returns the open game, activating this week's game
// when none is open.
func (h *GameHandler) HandleGetActiveGame(ctx *gin.Context) {
	game, err := h.svc.GetOrActivateOpenGame(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, game)
}

// HandleGetGame returns a game by id.
func (h *GameHandler) HandleGetGame(ctx *gin.Context) {
	gameID, respErr := uuidParam(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	game, err := h.svc.GetGame(ctx.Request.Context(), gameID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, game)
}

// HandleGetGameHistory lists every game, newest first.
func (h *GameHandler) HandleGetGameHistory(ctx *gin.Context) {
	games, err := h.svc.GetGameHistory(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, games)
}

// HandleGetAllGameStats returns board counts for the open game and every
// ended one.
func (h *GameHandler) HandleGetAllGameStats(ctx *gin.Context) {
	stats, err := h.svc.GetAllGameStats(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// HandleGetGameStats returns board counts for one game.
func (h *GameHandler) HandleGetGameStats(ctx *gin.Context) {
	gameID, respErr := uuidParam(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	stats, err := h.svc.GetGameStats(ctx.Request.Context(), gameID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// HandleEndGame publishes the winning numbers. Admin only.
func (h *GameHandler) HandleEndGame(ctx *gin.Context) {
	gameID, respErr := uuidParam(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.EndGameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	w := domain.WinningNumbers{req.WinningNumbers[0], req.WinningNumbers[1], req.WinningNumbers[2]}
	game, err := h.svc.EndGame(ctx.Request.Context(), gameID, w)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err, zap.Stringer("gameID", gameID)))
		return
	}

	ctx.JSON(http.StatusOK, game)
}

// HandleGetGameOverview returns a game with all its boards and winners.
func (h *GameHandler) HandleGetGameOverview(ctx *gin.Context) {
	gameID, respErr := uuidParam(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	overview, err := h.svc.GetGameAdminOverview(ctx.Request.Context(), gameID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, overview)
}

// HandleProcessRenewals reruns renewals for a game, e.g. after a run that
// skipped busy players.
func (h *GameHandler) HandleProcessRenewals(ctx *gin.Context) {
	gameID, respErr := uuidParam(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	report, err := h.renewer.ProcessRenewals(ctx.Request.Context(), gameID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err, zap.Stringer("gameID", gameID)))
		return
	}

	ctx.JSON(http.StatusOK, report)
}
