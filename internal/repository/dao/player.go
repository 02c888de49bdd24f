package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrPlayerEmailExists = errors.New("player already exists")
	ErrPlayerNotFound    = errors.New("player not found")
)

type Player struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName  string    `gorm:"not null"`
	Email     string    `gorm:"unique;not null"`
	IsActive  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type PlayerDAO struct {
	db *gorm.DB
}

func NewPlayerDAO(db *gorm.DB) *PlayerDAO {
	return &PlayerDAO{
		db: db,
	}
}

func (d *PlayerDAO) Insert(ctx context.Context, player Player) (Player, error) {
	result := conn(ctx, d.db).Create(&player)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			strings.Contains(err.Message, `unique constraint "uni_players_email"`) {
			return Player{}, ErrPlayerEmailExists
		}

		return Player{}, result.Error
	}

	return player, nil
}

func (d *PlayerDAO) FindByID(ctx context.Context, id uuid.UUID) (Player, error) {
	var player Player

	result := conn(ctx, d.db).First(&player, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Player{}, ErrPlayerNotFound
		}

		return Player{}, result.Error
	}

	return player, nil
}

func (d *PlayerDAO) SetActive(ctx context.Context, id uuid.UUID, active bool, now time.Time) (Player, error) {
	db := conn(ctx, d.db)

	result := db.Model(&Player{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": now})
	if result.Error != nil {
		return Player{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Player{}, ErrPlayerNotFound
	}

	var player Player
	if err := db.First(&player, "id = ?", id).Error; err != nil {
		return Player{}, err
	}

	return player, nil
}
