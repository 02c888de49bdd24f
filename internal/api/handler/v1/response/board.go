package response

import "github.com/jerneif/lotto-api/internal/domain"

type PurchaseBoardResponse struct {
	Board   domain.Board `json:"board"`
	Balance int          `json:"balance"`
}

type CanAcceptResponse struct {
	CanAccept bool `json:"can_accept"`
}

type CanAffordResponse struct {
	CanAfford bool `json:"can_afford"`
}

type BalanceResponse struct {
	Balance int `json:"balance"`
}
