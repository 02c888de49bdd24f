package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jerneif/lotto-api/internal/api/handler/v1/request"
	"github.com/jerneif/lotto-api/internal/api/handler/v1/response"
	"github.com/jerneif/lotto-api/internal/domain"
)

var errNotTransactionOwner = errors.New("transaction belongs to another player")

type TransactionService interface {
	CreateDeposit(ctx context.Context, playerID uuid.UUID, amount int, externalRef string) (domain.Transaction, error)
	ApproveDeposit(ctx context.Context, transactionID, adminID uuid.UUID) (domain.Transaction, error)
	RejectDeposit(ctx context.Context, transactionID, adminID uuid.UUID) (domain.Transaction, error)
	GetBalance(ctx context.Context, playerID uuid.UUID) (int, error)
	GetTransaction(ctx context.Context, transactionID uuid.UUID) (domain.Transaction, error)
	GetByReference(ctx context.Context, ref string) (domain.Transaction, error)
	GetPersonalHistory(ctx context.Context, playerID uuid.UUID) ([]domain.Transaction, error)
	GetPendingDeposits(ctx context.Context) ([]domain.Transaction, error)
	GetHistory(ctx context.Context) ([]domain.Transaction, error)
}

type TransactionHandler struct {
	svc TransactionService
}

func NewTransactionHandler(svc TransactionService) *TransactionHandler {
	return &TransactionHandler{
		svc: svc,
	}
}

// HandleGetBalance returns the caller's balance.
func (h *TransactionHandler) HandleGetBalance(ctx *gin.Context) {
	p, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	balance, err := h.svc.GetBalance(ctx.Request.Context(), p.PlayerID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.BalanceResponse{Balance: balance})
}

// HandleCreateDeposit records a pending deposit. Repeating a request with
// the same reference and amount returns the existing deposit.
func (h *TransactionHandler) HandleCreateDeposit(ctx *gin.Context) {
	p, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.DepositRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	deposit, err := h.svc.CreateDeposit(ctx.Request.Context(), p.PlayerID, req.Amount, req.ExternalRef)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err, zap.Stringer("playerID", p.PlayerID)))
		return
	}

	ctx.JSON(http.StatusCreated, deposit)
}

// HandleGetTransaction lets players read their own transactions and
// admins any.
func (h *TransactionHandler) HandleGetTransaction(ctx *gin.Context) {
	p, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	transactionID, respErr := uuidParam(ctx, "transactionID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	t, err := h.svc.GetTransaction(ctx.Request.Context(), transactionID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}
	if t.PlayerID != p.PlayerID && !p.IsAdmin() {
		response.RenderErr(ctx, response.ErrPermissionDenied(errNotTransactionOwner))
		return
	}

	ctx.JSON(http.StatusOK, t)
}

// HandleGetTransactionByReference finds a deposit by its payment reference.
func (h *TransactionHandler) HandleGetTransactionByReference(ctx *gin.Context) {
	t, err := h.svc.GetByReference(ctx.Request.Context(), ctx.Param("ref"))
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, t)
}

// HandleGetMyTransactions lists the caller's transactions, newest first.
func (h *TransactionHandler) HandleGetMyTransactions(ctx *gin.Context) {
	p, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	txs, err := h.svc.GetPersonalHistory(ctx.Request.Context(), p.PlayerID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, txs)
}

// HandleGetPendingDeposits lists deposits waiting for an admin, oldest
// first.
func (h *TransactionHandler) HandleGetPendingDeposits(ctx *gin.Context) {
	txs, err := h.svc.GetPendingDeposits(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, txs)
}

// HandleGetAllTransactions lists every transaction, newest first.
func (h *TransactionHandler) HandleGetAllTransactions(ctx *gin.Context) {
	txs, err := h.svc.GetHistory(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, txs)
}

// HandleApproveDeposit credits a pending deposit to its player.
func (h *TransactionHandler) HandleApproveDeposit(ctx *gin.Context) {
	h.processDeposit(ctx, h.svc.ApproveDeposit)
}

// HandleRejectDeposit rejects a pending deposit.
func (h *TransactionHandler) HandleRejectDeposit(ctx *gin.Context) {
	h.processDeposit(ctx, h.svc.RejectDeposit)
}

func (h *TransactionHandler) processDeposit(ctx *gin.Context, process func(context.Context, uuid.UUID, uuid.UUID) (domain.Transaction, error)) {
	p, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	transactionID, respErr := uuidParam(ctx, "transactionID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	t, err := process(ctx.Request.Context(), transactionID, p.PlayerID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err, zap.Stringer("transactionID", transactionID)))
		return
	}

	ctx.JSON(http.StatusOK, t)
}
