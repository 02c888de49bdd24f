package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jerneif/lotto-api/internal/domain"
	"github.com/jerneif/lotto-api/internal/pkg/isoweek"
	"github.com/jerneif/lotto-api/internal/repository/dao"
)

type GameDAO interface {
	Insert(ctx context.Context, games []dao.Game) error
	FindByID(ctx context.Context, id uuid.UUID) (dao.Game, error)
	FindOpen(ctx context.Context) (dao.Game, error)
	FindUnpublishedByWeek(ctx context.Context, year, week int) (dao.Game, error)
	FindByWeek(ctx context.Context, year, week int) (dao.Game, error)
	ExistingWeeks(ctx context.Context) (map[[2]int]struct{}, error)
	DeactivateOpen(ctx context.Context, now time.Time) (int64, error)
	Activate(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)
	ActivateWeek(ctx context.Context, year, week int, now time.Time) (int64, error)
	Publish(ctx context.Context, id uuid.UUID, w1, w2, w3 int, now time.Time) (int64, error)
	History(ctx context.Context) ([]dao.Game, error)
	ActiveOrPublished(ctx context.Context) ([]dao.Game, error)
	Stats(ctx context.Context, gameIDs []uuid.UUID) (map[uuid.UUID]dao.GameStats, error)
}

type GameRepository struct {
	dao GameDAO
}

func NewGameRepository(dao GameDAO) *GameRepository {
	return &GameRepository{
		dao: dao,
	}
}

func (r *GameRepository) CreateMany(ctx context.Context, games []domain.Game) error {
	rows := make([]dao.Game, 0, len(games))
	for _, g := range games {
		rows = append(rows, r.domainToDao(g))
	}

	if err := r.dao.Insert(ctx, rows); err != nil {
		return fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return nil
}

func (r *GameRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Game, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Game{}, fmt.Errorf("r.dao.FindByID -> %w", translate(err))
	}

	return r.daoToDomain(found), nil
}

func (r *GameRepository) FindOpen(ctx context.Context) (domain.Game, error) {
	found, err := r.dao.FindOpen(ctx)
	if err != nil {
		return domain.Game{}, fmt.Errorf("r.dao.FindOpen -> %w", translate(err))
	}

	return r.daoToDomain(found), nil
}

func (r *GameRepository) FindUnpublishedByWeek(ctx context.Context, week isoweek.Key) (domain.Game, error) {
	found, err := r.dao.FindUnpublishedByWeek(ctx, week.Year, week.Week)
	if err != nil {
		return domain.Game{}, fmt.Errorf("r.dao.FindUnpublishedByWeek -> %w", translate(err))
	}

	return r.daoToDomain(found), nil
}

func (r *GameRepository) FindByWeek(ctx context.Context, week isoweek.Key) (domain.Game, error) {
	found, err := r.dao.FindByWeek(ctx, week.Year, week.Week)
	if err != nil {
		return domain.Game{}, fmt.Errorf("r.dao.FindByWeek -> %w", translate(err))
	}

	return r.daoToDomain(found), nil
}

func (r *GameRepository) ExistingWeeks(ctx context.Context) (map[isoweek.Key]struct{}, error) {
	rows, err := r.dao.ExistingWeeks(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ExistingWeeks -> %w", err)
	}

	weeks := make(map[isoweek.Key]struct{}, len(rows))
	for k := range rows {
		weeks[isoweek.Key{Year: k[0], Week: k[1]}] = struct{}{}
	}

	return weeks, nil
}

func (r *GameRepository) DeactivateOpen(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.dao.DeactivateOpen(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("r.dao.DeactivateOpen -> %w", err)
	}

	return n, nil
}

// Activate reports whether the game moved from Scheduled to Active.
func (r *GameRepository) Activate(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	n, err := r.dao.Activate(ctx, id, now)
	if err != nil {
		return false, fmt.Errorf("r.dao.Activate -> %w", err)
	}

	return n == 1, nil
}

func (r *GameRepository) ActivateWeek(ctx context.Context, week isoweek.Key, now time.Time) (bool, error) {
	n, err := r.dao.ActivateWeek(ctx, week.Year, week.Week, now)
	if err != nil {
		return false, fmt.Errorf("r.dao.ActivateWeek -> %w", err)
	}

	return n == 1, nil
}

// Publish reports whether this call ended the game.
func (r *GameRepository) Publish(ctx context.Context, id uuid.UUID, w domain.WinningNumbers, now time.Time) (bool, error) {
	n, err := r.dao.Publish(ctx, id, w[0], w[1], w[2], now)
	if err != nil {
		return false, fmt.Errorf("r.dao.Publish -> %w", err)
	}

	return n == 1, nil
}

func (r *GameRepository) History(ctx context.Context) ([]domain.Game, error) {
	found, err := r.dao.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.History -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *GameRepository) ActiveOrPublished(ctx context.Context) ([]domain.Game, error) {
	found, err := r.dao.ActiveOrPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ActiveOrPublished -> %w", err)
	}

	return r.daosToDomain(found), nil
}

// Stats attaches board counts to each game.
func (r *GameRepository) Stats(ctx context.Context, games []domain.Game) ([]domain.GameStats, error) {
	ids := make([]uuid.UUID, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.ID)
	}

	counts, err := r.dao.Stats(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("r.dao.Stats -> %w", err)
	}

	stats := make([]domain.GameStats, 0, len(games))
	for _, g := range games {
		c := counts[g.ID]
		stats = append(stats, domain.GameStats{
			GameID:             g.ID,
			WeekNumber:         g.WeekNumber,
			Year:               g.Year,
			TotalBoards:        c.TotalBoards,
			TotalWinningBoards: c.WinningBoards,
			WinningNumber1:     g.WinningNumber1,
			WinningNumber2:     g.WinningNumber2,
			WinningNumber3:     g.WinningNumber3,
			NumbersPublishedAt: g.NumbersPublishedAt,
			IsFinished:         g.State() == domain.GameEnded,
		})
	}

	return stats, nil
}

func (r *GameRepository) daoToDomain(g dao.Game) domain.Game {
	return domain.Game{
		ID:                 g.ID,
		WeekNumber:         g.WeekNumber,
		Year:               g.Year,
		StartDate:          g.StartDate.UTC(),
		EndDate:            g.EndDate.UTC(),
		GuessDeadline:      g.GuessDeadline.UTC(),
		IsActive:           g.IsActive,
		WinningNumber1:     g.WinningNumber1,
		WinningNumber2:     g.WinningNumber2,
		WinningNumber3:     g.WinningNumber3,
		NumbersPublishedAt: g.NumbersPublishedAt,
		CreatedAt:          g.CreatedAt,
		UpdatedAt:          g.UpdatedAt,
	}
}

func (r *GameRepository) daosToDomain(games []dao.Game) []domain.Game {
	out := make([]domain.Game, 0, len(games))
	for _, g := range games {
		out = append(out, r.daoToDomain(g))
	}
	return out
}

func (r *GameRepository) domainToDao(g domain.Game) dao.Game {
	return dao.Game{
		ID:                 g.ID,
		WeekNumber:         g.WeekNumber,
		Year:               g.Year,
		StartDate:          g.StartDate,
		EndDate:            g.EndDate,
		GuessDeadline:      g.GuessDeadline,
		IsActive:           g.IsActive,
		WinningNumber1:     g.WinningNumber1,
		WinningNumber2:     g.WinningNumber2,
		WinningNumber3:     g.WinningNumber3,
		NumbersPublishedAt: g.NumbersPublishedAt,
	}
}
