package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jerneif/lotto-api/internal/domain"
	"github.com/jerneif/lotto-api/internal/repository/dao"
)

type TransactionDAO interface {
	Insert(ctx context.Context, t dao.Transaction) (dao.Transaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.Transaction, error)
	FindByReference(ctx context.Context, ref string) (dao.Transaction, error)
	Balance(ctx context.Context, playerID uuid.UUID) (int, error)
	Process(ctx context.Context, id uuid.UUID, status dao.TransactionStatus, adminID uuid.UUID, now time.Time) (int64, error)
	ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]dao.Transaction, error)
	ListPendingDeposits(ctx context.Context) ([]dao.Transaction, error)
	ListAll(ctx context.Context) ([]dao.Transaction, error)
}

type TransactionRepository struct {
	dao TransactionDAO
}

func NewTransactionRepository(dao TransactionDAO) *TransactionRepository {
	return &TransactionRepository{
		dao: dao,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	created, err := r.dao.Insert(ctx, dao.Transaction{
		ID:          t.ID,
		PlayerID:    t.PlayerID,
		Type:        dao.TransactionType(t.Type),
		Amount:      t.Amount,
		Status:      dao.TransactionStatus(t.Status),
		ExternalRef: t.ExternalRef,
		BoardID:     t.BoardID,
		ProcessedBy: t.ProcessedBy,
		ProcessedAt: t.ProcessedAt,
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("r.dao.Insert -> %w", translate(err))
	}

	return r.daoToDomain(created), nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("r.dao.FindByID -> %w", translate(err))
	}

	return r.daoToDomain(found), nil
}

func (r *TransactionRepository) FindByReference(ctx context.Context, ref string) (domain.Transaction, error) {
	found, err := r.dao.FindByReference(ctx, ref)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("r.dao.FindByReference -> %w", translate(err))
	}

	return r.daoToDomain(found), nil
}

func (r *TransactionRepository) Balance(ctx context.Context, playerID uuid.UUID) (int, error) {
	balance, err := r.dao.Balance(ctx, playerID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.Balance -> %w", err)
	}

	return balance, nil
}

// Process reports whether the pending deposit moved to status.
func (r *TransactionRepository) Process(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, adminID uuid.UUID, now time.Time) (bool, error) {
	n, err := r.dao.Process(ctx, id, dao.TransactionStatus(status), adminID, now)
	if err != nil {
		return false, fmt.Errorf("r.dao.Process -> %w", err)
	}

	return n == 1, nil
}

func (r *TransactionRepository) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]domain.Transaction, error) {
	found, err := r.dao.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByPlayer -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *TransactionRepository) ListPendingDeposits(ctx context.Context) ([]domain.Transaction, error) {
	found, err := r.dao.ListPendingDeposits(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListPendingDeposits -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *TransactionRepository) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	found, err := r.dao.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListAll -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *TransactionRepository) daoToDomain(t dao.Transaction) domain.Transaction {
	return domain.Transaction{
		ID:          t.ID,
		PlayerID:    t.PlayerID,
		Type:        domain.TransactionType(t.Type),
		Amount:      t.Amount,
		Status:      domain.TransactionStatus(t.Status),
		ExternalRef: t.ExternalRef,
		BoardID:     t.BoardID,
		ProcessedBy: t.ProcessedBy,
		ProcessedAt: t.ProcessedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (r *TransactionRepository) daosToDomain(txs []dao.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, t := range txs {
		out = append(out, r.daoToDomain(t))
	}
	return out
}
