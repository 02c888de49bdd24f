package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jerneif/lotto-api/internal/domain"
	"github.com/jerneif/lotto-api/internal/repository/dao"
)

type BoardDAO interface {
	Insert(ctx context.Context, board dao.Board) (dao.Board, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.Board, error)
	FindByIDUnscoped(ctx context.Context, id uuid.UUID) (dao.Board, error)
	ListByPlayer(ctx context.Context, playerID uuid.UUID, gameID *uuid.UUID) ([]dao.Board, error)
	ListWinningByPlayer(ctx context.Context, playerID uuid.UUID) ([]dao.Board, error)
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]dao.Board, error)
	ListWinningByGame(ctx context.Context, gameID uuid.UUID) ([]dao.Board, error)
	WinnerIDs(ctx context.Context, gameID uuid.UUID, winning []int64) ([]uuid.UUID, error)
	SetWinners(ctx context.Context, gameID uuid.UUID, ids []uuid.UUID, now time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID) (int64, error)
	ExistsForSubscription(ctx context.Context, subscriptionID, gameID uuid.UUID) (bool, error)
}

type BoardRepository struct {
	dao BoardDAO
}

func NewBoardRepository(dao BoardDAO) *BoardRepository {
	return &BoardRepository{
		dao: dao,
	}
}

// Create stores the board with its numbers sorted ascending.
func (r *BoardRepository) Create(ctx context.Context, board domain.Board) (domain.Board, error) {
	numbers := domain.SortedNumbers(board.Numbers)

	created, err := r.dao.Insert(ctx, dao.Board{
		ID:             board.ID,
		GameID:         board.GameID,
		PlayerID:       board.PlayerID,
		Numbers:        toInt64s(numbers),
		NumberCount:    len(numbers),
		Price:          board.Price,
		SubscriptionID: board.SubscriptionID,
	})
	if err != nil {
		return domain.Board{}, fmt.Errorf("r.dao.Insert -> %w", translate(err))
	}

	return r.daoToDomain(created), nil
}

func (r *BoardRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Board, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Board{}, fmt.Errorf("r.dao.FindByID -> %w", translate(err))
	}

	return r.daoToDomain(found), nil
}

// FindIncludingDeleted also returns soft-deleted boards; deleted reports
// which one it found.
func (r *BoardRepository) FindIncludingDeleted(ctx context.Context, id uuid.UUID) (board domain.Board, deleted bool, err error) {
	found, err := r.dao.FindByIDUnscoped(ctx, id)
	if err != nil {
		return domain.Board{}, false, fmt.Errorf("r.dao.FindByIDUnscoped -> %w", translate(err))
	}

	return r.daoToDomain(found), found.DeletedAt.Valid, nil
}

func (r *BoardRepository) ListByPlayer(ctx context.Context, playerID uuid.UUID, gameID *uuid.UUID) ([]domain.Board, error) {
	found, err := r.dao.ListByPlayer(ctx, playerID, gameID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByPlayer -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *BoardRepository) ListWinningByPlayer(ctx context.Context, playerID uuid.UUID) ([]domain.Board, error) {
	found, err := r.dao.ListWinningByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListWinningByPlayer -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *BoardRepository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]domain.Board, error) {
	found, err := r.dao.ListByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByGame -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *BoardRepository) ListWinningByGame(ctx context.Context, gameID uuid.UUID) ([]domain.Board, error) {
	found, err := r.dao.ListWinningByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListWinningByGame -> %w", err)
	}

	return r.daosToDomain(found), nil
}

// MarkWinners recomputes the winner flags of every board of the game and
// returns the winning board ids.
func (r *BoardRepository) MarkWinners(ctx context.Context, gameID uuid.UUID, w domain.WinningNumbers, now time.Time) ([]uuid.UUID, error) {
	ids, err := r.dao.WinnerIDs(ctx, gameID, toInt64s(w[:]))
	if err != nil {
		return nil, fmt.Errorf("r.dao.WinnerIDs -> %w", err)
	}

	if err := r.dao.SetWinners(ctx, gameID, ids, now); err != nil {
		return nil, fmt.Errorf("r.dao.SetWinners -> %w", err)
	}

	return ids, nil
}

// SoftDelete reports whether this call deleted the board.
func (r *BoardRepository) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.dao.SoftDelete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("r.dao.SoftDelete -> %w", err)
	}

	return n == 1, nil
}

func (r *BoardRepository) ExistsForSubscription(ctx context.Context, subscriptionID, gameID uuid.UUID) (bool, error) {
	exists, err := r.dao.ExistsForSubscription(ctx, subscriptionID, gameID)
	if err != nil {
		return false, fmt.Errorf("r.dao.ExistsForSubscription -> %w", err)
	}

	return exists, nil
}

func (r *BoardRepository) daoToDomain(b dao.Board) domain.Board {
	return domain.Board{
		ID:             b.ID,
		GameID:         b.GameID,
		PlayerID:       b.PlayerID,
		Numbers:        toInts(b.Numbers),
		Price:          b.Price,
		IsWinningBoard: b.IsWinningBoard,
		SubscriptionID: b.SubscriptionID,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func (r *BoardRepository) daosToDomain(boards []dao.Board) []domain.Board {
	out := make([]domain.Board, 0, len(boards))
	for _, b := range boards {
		out = append(out, r.daoToDomain(b))
	}
	return out
}
