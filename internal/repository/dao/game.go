package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrGameNotFound = errors.New("game not found")
)

type Game struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	WeekNumber         int       `gorm:"not null;uniqueIndex:uni_games_year_week,priority:2"`
	Year               int       `gorm:"not null;uniqueIndex:uni_games_year_week,priority:1"`
	StartDate          time.Time `gorm:"not null"`
	EndDate            time.Time `gorm:"not null"`
	GuessDeadline      time.Time `gorm:"not null"`
	IsActive           bool      `gorm:"not null;default:false"`
	WinningNumber1     *int
	WinningNumber2     *int
	WinningNumber3     *int
	NumbersPublishedAt *time.Time
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// GameStats is a per-game board aggregate.
type GameStats struct {
	GameID        uuid.UUID
	TotalBoards   int
	WinningBoards int
}

type GameDAO struct {
	db *gorm.DB
}

func NewGameDAO(db *gorm.DB) *GameDAO {
	return &GameDAO{
		db: db,
	}
}

func (d *GameDAO) Insert(ctx context.Context, games []Game) error {
	if len(games) == 0 {
		return nil
	}
	return conn(ctx, d.db).CreateInBatches(&games, 200).Error
}

func (d *GameDAO) FindByID(ctx context.Context, id uuid.UUID) (Game, error) {
	var game Game

	result := conn(ctx, d.db).First(&game, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Game{}, ErrGameNotFound
		}

		return Game{}, result.Error
	}

	return game, nil
}

// FindOpen returns the single game that is active and unpublished.
func (d *GameDAO) FindOpen(ctx context.Context) (Game, error) {
	var game Game

	result := conn(ctx, d.db).
		Where("is_active AND numbers_published_at IS NULL").
		Take(&game)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Game{}, ErrGameNotFound
		}

		return Game{}, result.Error
	}

	return game, nil
}

// FindUnpublishedByWeek looks up the game scheduled for an ISO week that has
// not been ended yet.
func (d *GameDAO) FindUnpublishedByWeek(ctx context.Context, year, week int) (Game, error) {
	var game Game

	result := conn(ctx, d.db).
		Where("year = ? AND week_number = ? AND numbers_published_at IS NULL", year, week).
		Take(&game)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Game{}, ErrGameNotFound
		}

		return Game{}, result.Error
	}

	return game, nil
}

func (d *GameDAO) FindByWeek(ctx context.Context, year, week int) (Game, error) {
	var game Game

	result := conn(ctx, d.db).Where("year = ? AND week_number = ?", year, week).Take(&game)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Game{}, ErrGameNotFound
		}

		return Game{}, result.Error
	}

	return game, nil
}

func (d *GameDAO) ExistingWeeks(ctx context.Context) (map[[2]int]struct{}, error) {
	var rows []struct {
		Year       int
		WeekNumber int
	}

	if err := conn(ctx, d.db).Model(&Game{}).Select("year, week_number").Scan(&rows).Error; err != nil {
		return nil, err
	}

	weeks := make(map[[2]int]struct{}, len(rows))
	for _, r := range rows {
		weeks[[2]int{r.Year, r.WeekNumber}] = struct{}{}
	}

	return weeks, nil
}

// DeactivateOpen clears is_active on any open game.
func (d *GameDAO) DeactivateOpen(ctx context.Context, now time.Time) (int64, error) {
	result := conn(ctx, d.db).Model(&Game{}).
		Where("is_active AND numbers_published_at IS NULL").
		Updates(map[string]any{"is_active": false, "updated_at": now})

	return result.RowsAffected, result.Error
}

// Activate is a guarded update: it only flips a scheduled game to active.
func (d *GameDAO) Activate(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	result := conn(ctx, d.db).Model(&Game{}).
		Where("id = ? AND NOT is_active AND numbers_published_at IS NULL", id).
		Updates(map[string]any{"is_active": true, "updated_at": now})

	return result.RowsAffected, result.Error
}

// ActivateWeek is the guarded activation of the game for an ISO week.
func (d *GameDAO) ActivateWeek(ctx context.Context, year, week int, now time.Time) (int64, error) {
	result := conn(ctx, d.db).Model(&Game{}).
		Where("year = ? AND week_number = ? AND numbers_published_at IS NULL AND NOT is_active", year, week).
		Updates(map[string]any{"is_active": true, "updated_at": now})

	return result.RowsAffected, result.Error
}

// Publish ends an open game whose deadline has passed. The predicate is
// evaluated by the database as part of the write, so among concurrent
// callers at most one sees a row affected.
func (d *GameDAO) Publish(ctx context.Context, id uuid.UUID, w1, w2, w3 int, now time.Time) (int64, error) {
	result := conn(ctx, d.db).Model(&Game{}).
		Where("id = ? AND is_active AND numbers_published_at IS NULL AND guess_deadline <= ?", id, now).
		Updates(map[string]any{
			"winning_number1":      w1,
			"winning_number2":      w2,
			"winning_number3":      w3,
			"numbers_published_at": now,
			"is_active":            false,
			"updated_at":           now,
		})

	return result.RowsAffected, result.Error
}

func (d *GameDAO) History(ctx context.Context) ([]Game, error) {
	var games []Game

	result := conn(ctx, d.db).Order("year DESC, week_number DESC").Find(&games)
	if result.Error != nil {
		return nil, result.Error
	}

	return games, nil
}

// ActiveOrPublished lists games that have, or had, boards on sale.
func (d *GameDAO) ActiveOrPublished(ctx context.Context) ([]Game, error) {
	var games []Game

	result := conn(ctx, d.db).
		Where("is_active OR numbers_published_at IS NOT NULL").
		Order("year DESC, week_number DESC").
		Find(&games)
	if result.Error != nil {
		return nil, result.Error
	}

	return games, nil
}

func (d *GameDAO) Stats(ctx context.Context, gameIDs []uuid.UUID) (map[uuid.UUID]GameStats, error) {
	stats := make(map[uuid.UUID]GameStats, len(gameIDs))
	if len(gameIDs) == 0 {
		return stats, nil
	}

	var rows []GameStats
	result := conn(ctx, d.db).Model(&Board{}).
		Select("game_id, COUNT(*) AS total_boards, COUNT(*) FILTER (WHERE is_winning_board) AS winning_boards").
		Where("game_id IN ?", gameIDs).
		Group("game_id").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	for _, r := range rows {
		stats[r.GameID] = r
	}

	return stats, nil
}
