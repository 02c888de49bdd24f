package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrBoardNotFound          = errors.New("board not found")
	ErrBoardAlreadySubscribed = errors.New("subscription already has a board for this game")
)

type Board struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	GameID         uuid.UUID      `gorm:"type:uuid;not null;index"`
	PlayerID       uuid.UUID      `gorm:"type:uuid;not null;index"`
	Numbers        pq.Int64Array  `gorm:"type:integer[];not null"`
	NumberCount    int            `gorm:"not null"`
	Price          int            `gorm:"not null"`
	IsWinningBoard bool           `gorm:"not null;default:false"`
	SubscriptionID *uuid.UUID     `gorm:"type:uuid"`
	CreatedAt      time.Time      `gorm:"not null"`
	UpdatedAt      time.Time      `gorm:"not null"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`

	Game         Game               `gorm:"foreignKey:GameID"`
	Player       Player             `gorm:"foreignKey:PlayerID"`
	Subscription *BoardSubscription `gorm:"foreignKey:SubscriptionID"`
}

type BoardDAO struct {
	db *gorm.DB
}

func NewBoardDAO(db *gorm.DB) *BoardDAO {
	return &BoardDAO{
		db: db,
	}
}

func (d *BoardDAO) Insert(ctx context.Context, board Board) (Board, error) {
	result := conn(ctx, d.db).Omit("Game", "Player", "Subscription").Create(&board)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			strings.Contains(err.Message, `"uni_boards_subscription_game"`) {
			return Board{}, ErrBoardAlreadySubscribed
		}

		return Board{}, result.Error
	}

	return board, nil
}

func (d *BoardDAO) FindByID(ctx context.Context, id uuid.UUID) (Board, error) {
	var board Board

	result := conn(ctx, d.db).First(&board, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Board{}, ErrBoardNotFound
		}

		return Board{}, result.Error
	}

	return board, nil
}

// FindByIDUnscoped also sees soft-deleted boards.
func (d *BoardDAO) FindByIDUnscoped(ctx context.Context, id uuid.UUID) (Board, error) {
	var board Board

	result := conn(ctx, d.db).Unscoped().First(&board, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Board{}, ErrBoardNotFound
		}

		return Board{}, result.Error
	}

	return board, nil
}

func (d *BoardDAO) ListByPlayer(ctx context.Context, playerID uuid.UUID, gameID *uuid.UUID) ([]Board, error) {
	var boards []Board

	query := conn(ctx, d.db).Where("player_id = ?", playerID)
	if gameID != nil {
		query = query.Where("game_id = ?", *gameID)
	}

	if err := query.Order("created_at DESC").Find(&boards).Error; err != nil {
		return nil, err
	}

	return boards, nil
}

func (d *BoardDAO) ListWinningByPlayer(ctx context.Context, playerID uuid.UUID) ([]Board, error) {
	var boards []Board

	result := conn(ctx, d.db).
		Where("player_id = ? AND is_winning_board", playerID).
		Order("created_at DESC").
		Find(&boards)
	if result.Error != nil {
		return nil, result.Error
	}

	return boards, nil
}

func (d *BoardDAO) ListByGame(ctx context.Context, gameID uuid.UUID) ([]Board, error) {
	var boards []Board

	if err := conn(ctx, d.db).Where("game_id = ?", gameID).Order("created_at").Find(&boards).Error; err != nil {
		return nil, err
	}

	return boards, nil
}

func (d *BoardDAO) ListWinningByGame(ctx context.Context, gameID uuid.UUID) ([]Board, error) {
	var boards []Board

	result := conn(ctx, d.db).
		Where("game_id = ? AND is_winning_board", gameID).
		Order("created_at").
		Find(&boards)
	if result.Error != nil {
		return nil, result.Error
	}

	return boards, nil
}

// WinnerIDs returns the boards of a game whose numbers contain every one of
// the given winning numbers.
func (d *BoardDAO) WinnerIDs(ctx context.Context, gameID uuid.UUID, winning []int64) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	result := conn(ctx, d.db).Model(&Board{}).
		Where("game_id = ? AND numbers @> ?", gameID, pq.Int64Array(winning)).
		Pluck("id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}

	return ids, nil
}

// SetWinners clears the winner flag on every board of the game and then sets
// it on ids.
func (d *BoardDAO) SetWinners(ctx context.Context, gameID uuid.UUID, ids []uuid.UUID, now time.Time) error {
	db := conn(ctx, d.db)

	result := db.Model(&Board{}).
		Where("game_id = ?", gameID).
		Updates(map[string]any{"is_winning_board": false, "updated_at": now})
	if result.Error != nil {
		return result.Error
	}

	if len(ids) == 0 {
		return nil
	}

	return db.Model(&Board{}).
		Where("game_id = ? AND id IN ?", gameID, ids).
		Updates(map[string]any{"is_winning_board": true, "updated_at": now}).Error
}

// SoftDelete only affects a board that is not deleted yet.
func (d *BoardDAO) SoftDelete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := conn(ctx, d.db).Delete(&Board{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

// ExistsForSubscription counts soft-deleted boards too, matching the unique
// index on (subscription_id, game_id).
func (d *BoardDAO) ExistsForSubscription(ctx context.Context, subscriptionID, gameID uuid.UUID) (bool, error) {
	var count int64

	result := conn(ctx, d.db).Unscoped().Model(&Board{}).
		Where("subscription_id = ? AND game_id = ?", subscriptionID, gameID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}
