package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jerneif/lotto-api/internal/domain"
	"github.com/jerneif/lotto-api/internal/repository/dao"
)

type SubscriptionDAO interface {
	Insert(ctx context.Context, sub dao.BoardSubscription) (dao.BoardSubscription, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.BoardSubscription, error)
	ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]dao.BoardSubscription, error)
	RenewalCandidates(ctx context.Context, gameID uuid.UUID, gameStart time.Time) ([]dao.BoardSubscription, error)
	Deactivate(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)
	Cancel(ctx context.Context, id, playerID uuid.UUID, now time.Time) (int64, error)
	RecordPlayed(ctx context.Context, id uuid.UUID, now time.Time) (dao.BoardSubscription, error)
}

type SubscriptionRepository struct {
	dao SubscriptionDAO
}

func NewSubscriptionRepository(dao SubscriptionDAO) *SubscriptionRepository {
	return &SubscriptionRepository{
		dao: dao,
	}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub domain.BoardSubscription) (domain.BoardSubscription, error) {
	created, err := r.dao.Insert(ctx, dao.BoardSubscription{
		ID:                 sub.ID,
		PlayerID:           sub.PlayerID,
		Numbers:            toInt64s(domain.SortedNumbers(sub.Numbers)),
		PricePerGame:       sub.PricePerGame,
		StartGameID:        sub.StartGameID,
		TotalGames:         sub.TotalGames,
		GamesAlreadyPlayed: sub.GamesAlreadyPlayed,
		IsActive:           sub.IsActive,
	})
	if err != nil {
		return domain.BoardSubscription{}, fmt.Errorf("r.dao.Insert -> %w", translate(err))
	}

	return r.daoToDomain(created), nil
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.BoardSubscription, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.BoardSubscription{}, fmt.Errorf("r.dao.FindByID -> %w", translate(err))
	}

	return r.daoToDomain(found), nil
}

func (r *SubscriptionRepository) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]domain.BoardSubscription, error) {
	found, err := r.dao.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByPlayer -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *SubscriptionRepository) RenewalCandidates(ctx context.Context, game domain.Game) ([]domain.BoardSubscription, error) {
	found, err := r.dao.RenewalCandidates(ctx, game.ID, game.StartDate)
	if err != nil {
		return nil, fmt.Errorf("r.dao.RenewalCandidates -> %w", err)
	}

	return r.daosToDomain(found), nil
}

// Deactivate reports whether this call deactivated the subscription.
func (r *SubscriptionRepository) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	n, err := r.dao.Deactivate(ctx, id, now)
	if err != nil {
		return false, fmt.Errorf("r.dao.Deactivate -> %w", err)
	}

	return n == 1, nil
}

func (r *SubscriptionRepository) Cancel(ctx context.Context, id, playerID uuid.UUID, now time.Time) (bool, error) {
	n, err := r.dao.Cancel(ctx, id, playerID, now)
	if err != nil {
		return false, fmt.Errorf("r.dao.Cancel -> %w", err)
	}

	return n == 1, nil
}

func (r *SubscriptionRepository) RecordPlayed(ctx context.Context, id uuid.UUID, now time.Time) (domain.BoardSubscription, error) {
	updated, err := r.dao.RecordPlayed(ctx, id, now)
	if err != nil {
		return domain.BoardSubscription{}, fmt.Errorf("r.dao.RecordPlayed -> %w", translate(err))
	}

	return r.daoToDomain(updated), nil
}

func (r *SubscriptionRepository) daoToDomain(s dao.BoardSubscription) domain.BoardSubscription {
	return domain.BoardSubscription{
		ID:                 s.ID,
		PlayerID:           s.PlayerID,
		Numbers:            toInts(s.Numbers),
		PricePerGame:       s.PricePerGame,
		StartGameID:        s.StartGameID,
		TotalGames:         s.TotalGames,
		GamesAlreadyPlayed: s.GamesAlreadyPlayed,
		IsActive:           s.IsActive,
		CancelledAt:        s.CancelledAt,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func (r *SubscriptionRepository) daosToDomain(subs []dao.BoardSubscription) []domain.BoardSubscription {
	out := make([]domain.BoardSubscription, 0, len(subs))
	for _, s := range subs {
		out = append(out, r.daoToDomain(s))
	}
	return out
}
