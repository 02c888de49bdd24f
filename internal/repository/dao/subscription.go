package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

type BoardSubscription struct {
	ID                 uuid.UUID     `gorm:"type:uuid;primaryKey"`
	PlayerID           uuid.UUID     `gorm:"type:uuid;not null;index"`
	Numbers            pq.Int64Array `gorm:"type:integer[];not null"`
	PricePerGame       int           `gorm:"not null"`
	StartGameID        uuid.UUID     `gorm:"type:uuid;not null"`
	TotalGames         *int
	GamesAlreadyPlayed int  `gorm:"not null;default:0"`
	IsActive           bool `gorm:"not null;default:true;index"`
	CancelledAt        *time.Time
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`

	Player    Player `gorm:"foreignKey:PlayerID"`
	StartGame Game   `gorm:"foreignKey:StartGameID"`
}

type SubscriptionDAO struct {
	db *gorm.DB
}

func NewSubscriptionDAO(db *gorm.DB) *SubscriptionDAO {
	return &SubscriptionDAO{
		db: db,
	}
}

func (d *SubscriptionDAO) Insert(ctx context.Context, sub BoardSubscription) (BoardSubscription, error) {
	result := conn(ctx, d.db).Omit("Player", "StartGame").Create(&sub)
	if result.Error != nil {
		return BoardSubscription{}, result.Error
	}

	return sub, nil
}

func (d *SubscriptionDAO) FindByID(ctx context.Context, id uuid.UUID) (BoardSubscription, error) {
	var sub BoardSubscription

	result := conn(ctx, d.db).First(&sub, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return BoardSubscription{}, ErrSubscriptionNotFound
		}

		return BoardSubscription{}, result.Error
	}

	return sub, nil
}

func (d *SubscriptionDAO) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]BoardSubscription, error) {
	var subs []BoardSubscription

	if err := conn(ctx, d.db).Where("player_id = ?", playerID).Order("created_at DESC").Find(&subs).Error; err != nil {
		return nil, err
	}

	return subs, nil
}

// RenewalCandidates returns active, not exhausted subscriptions that started
// on or before the game's week and have no board for the game yet.
func (d *SubscriptionDAO) RenewalCandidates(ctx context.Context, gameID uuid.UUID, gameStart time.Time) ([]BoardSubscription, error) {
	var subs []BoardSubscription

	result := conn(ctx, d.db).
		Joins("JOIN games AS start_game ON start_game.id = board_subscriptions.start_game_id").
		Where("board_subscriptions.is_active").
		Where("start_game.start_date <= ?", gameStart).
		Where("(board_subscriptions.total_games IS NULL OR board_subscriptions.games_already_played < board_subscriptions.total_games)").
		Where("NOT EXISTS (SELECT 1 FROM boards WHERE boards.subscription_id = board_subscriptions.id AND boards.game_id = ?)", gameID).
		Order("board_subscriptions.player_id, board_subscriptions.created_at").
		Find(&subs)
	if result.Error != nil {
		return nil, result.Error
	}

	return subs, nil
}

// Deactivate is guarded on is_active so a subscription is only ever
// deactivated once.
func (d *SubscriptionDAO) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	result := conn(ctx, d.db).Model(&BoardSubscription{}).
		Where("id = ? AND is_active", id).
		Updates(map[string]any{"is_active": false, "cancelled_at": now, "updated_at": now})

	return result.RowsAffected, result.Error
}

// Cancel deactivates a subscription owned by playerID.
func (d *SubscriptionDAO) Cancel(ctx context.Context, id, playerID uuid.UUID, now time.Time) (int64, error) {
	result := conn(ctx, d.db).Model(&BoardSubscription{}).
		Where("id = ? AND player_id = ? AND is_active", id, playerID).
		Updates(map[string]any{"is_active": false, "cancelled_at": now, "updated_at": now})

	return result.RowsAffected, result.Error
}

// RecordPlayed increments games_already_played and deactivates the
// subscription once it reaches its cap.
func (d *SubscriptionDAO) RecordPlayed(ctx context.Context, id uuid.UUID, now time.Time) (BoardSubscription, error) {
	var sub BoardSubscription

	db := conn(ctx, d.db)
	result := db.Model(&BoardSubscription{}).
		Where("id = ? AND is_active", id).
		Updates(map[string]any{
			"games_already_played": gorm.Expr("games_already_played + 1"),
			"updated_at":           now,
		})
	if result.Error != nil {
		return BoardSubscription{}, result.Error
	}
	if result.RowsAffected == 0 {
		return BoardSubscription{}, ErrSubscriptionNotFound
	}

	result = db.Model(&BoardSubscription{}).
		Where("id = ? AND is_active AND total_games IS NOT NULL AND games_already_played >= total_games", id).
		Updates(map[string]any{"is_active": false, "cancelled_at": now, "updated_at": now})
	if result.Error != nil {
		return BoardSubscription{}, result.Error
	}

	if err := db.First(&sub, "id = ?", id).Error; err != nil {
		return BoardSubscription{}, err
	}

	return sub, nil
}
