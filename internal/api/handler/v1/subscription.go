package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jerneif/lotto-api/internal/api/handler/v1/request"
	"github.com/jerneif/lotto-api/internal/api/handler/v1/response"
	"github.com/jerneif/lotto-api/internal/domain"
)

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, playerID uuid.UUID, numbers []int, totalGames *int) (domain.BoardSubscription, error)
	CancelSubscription(ctx context.Context, subscriptionID, playerID uuid.UUID) error
	GetPlayerSubscriptions(ctx context.Context, playerID uuid.UUID) ([]domain.BoardSubscription, error)
}

type SubscriptionHandler struct {
	svc SubscriptionService
}

func NewSubscriptionHandler(svc SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		svc: svc,
	}
}

// HandleCreateSubscription subscribes the caller to the same numbers for
// upcoming games, at today's price.
func (h *SubscriptionHandler) HandleCreateSubscription(ctx *gin.Context) {
	p, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateSubscriptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	sub, err := h.svc.CreateSubscription(ctx.Request.Context(), p.PlayerID, req.Numbers, req.TotalGames)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, sub)
}

// HandleGetMySubscriptions lists the caller's subscriptions.
func (h *SubscriptionHandler) HandleGetMySubscriptions(ctx *gin.Context) {
	p, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	subs, err := h.svc.GetPlayerSubscriptions(ctx.Request.Context(), p.PlayerID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, subs)
}

// HandleCancelSubscription stops renewals. Boards already bought stay.
func (h *SubscriptionHandler) HandleCancelSubscription(ctx *gin.Context) {
	p, respErr := getPrincipal(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	subscriptionID, respErr := uuidParam(ctx, "subscriptionID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.CancelSubscription(ctx.Request.Context(), subscriptionID, p.PlayerID); err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}
