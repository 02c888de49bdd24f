package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionDeposit  TransactionType = "Deposit"
	TransactionPurchase TransactionType = "Purchase"
)

type TransactionStatus string

const (
	StatusPending  TransactionStatus = "Pending"
	StatusApproved TransactionStatus = "Approved"
	StatusRejected TransactionStatus = "Rejected"
)

type Transaction struct {
	ID          uuid.UUID         `json:"id"`
	PlayerID    uuid.UUID         `json:"player_id"`
	Type        TransactionType   `json:"type"`
	Amount      int               `json:"amount"`
	Status      TransactionStatus `json:"status"`
	ExternalRef *string           `json:"external_ref,omitempty"`
	BoardID     *uuid.UUID        `json:"board_id,omitempty"`
	ProcessedBy *uuid.UUID        `json:"processed_by,omitempty"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Signed returns the amount as it contributes to the balance once approved.
func (t Transaction) Signed() int {
	if t.Type == TransactionPurchase {
		return -t.Amount
	}
	return t.Amount
}

// Balance folds approved transactions into a spendable balance, floored at
// zero. The store computes the same sum in SQL; this is the reference rule.
func Balance(transactions []Transaction) int {
	sum := 0
	for _, t := range transactions {
		if t.Status != StatusApproved {
			continue
		}
		sum += t.Signed()
	}
	if sum < 0 {
		return 0
	}
	return sum
}
