package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jerneif/lotto-api/internal/api/handler/v1/request"
	"github.com/jerneif/lotto-api/internal/api/handler/v1/response"
	"github.com/jerneif/lotto-api/internal/domain"
)

var (
	errNotBoardOwner = errors.New("board belongs to another player")
	errNumberCount   = errors.New("count must be a number")
)

type BoardService interface {
	Purchase(ctx context.Context, gameID, playerID uuid.UUID, numbers []int) (domain.Board, int, error)
	CanAcceptNewBoards(ctx context.Context, gameID uuid.UUID) (bool, error)
	CanPlayerAffordBoard(ctx context.Context, playerID uuid.UUID, numberCount int) (bool, error)
	GetBoard(ctx context.Context, boardID uuid.UUID) (domain.Board, error)
	GetPlayerBoards(ctx context.Context, playerID uuid.UUID, gameID *uuid.UUID) ([]domain.Board, error)
	GetPlayerWinningBoards(ctx context.Context, playerID uuid.UUID) ([]domain.Board, error)
	GetBoardsForGame(ctx context.Context, gameID uuid.UUID) ([]domain.Board, error)
	GetWinningBoardsForGame(ctx context.Context, gameID uuid.UUID) ([]domain.Board, error)
	DeleteBoard(ctx context.Context, boardID, adminID uuid.UUID) error
}

type BoardHandler struct {
	svc BoardService
}

func NewBoardHandler(svc BoardService) *BoardHandler {
	return &BoardHandler{
		svc: svc,
	}
}

// HandlePurchaseBoard buys a board in the given game for the caller and
// answers with the board and the balance left.
func (h *BoardHandler) HandlePurchaseBoard(ctx *gin.Context) {
	p, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.PurchaseBoardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	gameID := uuid.MustParse(req.GameID)
	board, balance, err := h.svc.Purchase(ctx.Request.Context(), gameID, p.PlayerID, req.Numbers)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err,
			zap.Stringer("gameID", gameID), zap.Stringer("playerID", p.PlayerID)))
		return
	}

	ctx.JSON(http.StatusCreated, response.PurchaseBoardResponse{
		Board:   board,
		Balance: balance,
	})
}

// HandleCanAcceptNewBoards reports whether the game still takes boards.
func (h *BoardHandler) HandleCanAcceptNewBoards(ctx *gin.Context) {
	gameID, respErr := uuidParam(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ok, err := h.svc.CanAcceptNewBoards(ctx.Request.Context(), gameID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.CanAcceptResponse{CanAccept: ok})
}

// HandleCanAffordBoard reports whether the caller's balance covers a board
// with count numbers. The answer is advisory.
func (h *BoardHandler) HandleCanAffordBoard(ctx *gin.Context) {
	p, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	count, err := strconv.Atoi(ctx.Query("count"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errNumberCount))
		return
	}

	ok, err := h.svc.CanPlayerAffordBoard(ctx.Request.Context(), p.PlayerID, count)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.CanAffordResponse{CanAfford: ok})
}

// HandleGetBoard lets players read their own boards and admins any board.
func (h *BoardHandler) HandleGetBoard(ctx *gin.Context) {
	p, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	boardID, respErr := uuidParam(ctx, "boardID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	board, err := h.svc.GetBoard(ctx.Request.Context(), boardID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}
	if board.PlayerID != p.PlayerID && !p.IsAdmin() {
		response.RenderErr(ctx, response.ErrPermissionDenied(errNotBoardOwner))
		return
	}

	ctx.JSON(http.StatusOK, board)
}

// HandleGetMyBoards accepts an optional game_id query parameter.
func (h *BoardHandler) HandleGetMyBoards(ctx *gin.Context) {
	p, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var gameID *uuid.UUID
	if raw := ctx.Query("game_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RenderErr(ctx, response.ErrInvalidUUID("game_id"))
			return
		}
		gameID = &id
	}

	boards, err := h.svc.GetPlayerBoards(ctx.Request.Context(), p.PlayerID, gameID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, boards)
}

// HandleGetMyWinningBoards lists the caller's winning boards across games.
func (h *BoardHandler) HandleGetMyWinningBoards(ctx *gin.Context) {
	p, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	boards, err := h.svc.GetPlayerWinningBoards(ctx.Request.Context(), p.PlayerID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, boards)
}

// HandleGetWinningBoardsForGame is empty until the game has ended.
func (h *BoardHandler) HandleGetWinningBoardsForGame(ctx *gin.Context) {
	gameID, respErr := uuidParam(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	boards, err := h.svc.GetWinningBoardsForGame(ctx.Request.Context(), gameID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, boards)
}

// HandleGetBoardsForGame lists every board of a game.
func (h *BoardHandler) HandleGetBoardsForGame(ctx *gin.Context) {
	gameID, respErr := uuidParam(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	boards, err := h.svc.GetBoardsForGame(ctx.Request.Context(), gameID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, boards)
}

// HandleDeleteBoard removes a board and refunds its owner.
func (h *BoardHandler) HandleDeleteBoard(ctx *gin.Context) {
	p, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	boardID, respErr := uuidParam(ctx, "boardID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.DeleteBoard(ctx.Request.Context(), boardID, p.PlayerID); err != nil {
		response.RenderErr(ctx, response.FromError(err, zap.Stringer("boardID", boardID)))
		return
	}

	ctx.Status(http.StatusNoContent)
}
