package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type BalanceReader interface {
	Balance(ctx context.Context, playerID uuid.UUID) (int, error)
}

// Ledger derives a player's balance from approved transactions. Inside a
// transaction the read goes through it, so a balance read after taking the
// player's lock is the one a debit may rely on. Outside a transaction the
// value is advisory.
type Ledger struct {
	repo BalanceReader
}

func NewLedger(repo BalanceReader) *Ledger {
	return &Ledger{
		repo: repo,
	}
}

func (l *Ledger) GetBalance(ctx context.Context, playerID uuid.UUID) (int, error) {
	balance, err := l.repo.Balance(ctx, playerID)
	if err != nil {
		return 0, fmt.Errorf("l.repo.Balance -> %w", err)
	}

	return balance, nil
}
