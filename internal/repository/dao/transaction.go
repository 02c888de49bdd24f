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
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrExternalRefExists   = errors.New("external reference already exists")
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
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	PlayerID    uuid.UUID         `gorm:"type:uuid;not null;index:idx_transactions_player_status,priority:1"`
	Type        TransactionType   `gorm:"type:varchar(16);not null"`
	Amount      int               `gorm:"not null"`
	Status      TransactionStatus `gorm:"type:varchar(16);not null;index:idx_transactions_player_status,priority:2"`
	ExternalRef *string           `gorm:"type:varchar(64);uniqueIndex:uni_transactions_external_ref"`
	BoardID     *uuid.UUID        `gorm:"type:uuid;index"`
	ProcessedBy *uuid.UUID        `gorm:"type:uuid"`
	ProcessedAt *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (Transaction) TableName() string {
	return "transactions"
}

type TransactionDAO struct {
	db *gorm.DB
}

func NewTransactionDAO(db *gorm.DB) *TransactionDAO {
	return &TransactionDAO{
		db: db,
	}
}

func (d *TransactionDAO) Insert(ctx context.Context, t Transaction) (Transaction, error) {
	result := conn(ctx, d.db).Create(&t)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			strings.Contains(err.Message, `"uni_transactions_external_ref"`) {
			return Transaction{}, ErrExternalRefExists
		}

		return Transaction{}, result.Error
	}

	return t, nil
}

func (d *TransactionDAO) FindByID(ctx context.Context, id uuid.UUID) (Transaction, error) {
	var t Transaction

	result := conn(ctx, d.db).First(&t, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Transaction{}, ErrTransactionNotFound
		}

		return Transaction{}, result.Error
	}

	return t, nil
}

func (d *TransactionDAO) FindByReference(ctx context.Context, ref string) (Transaction, error) {
	var t Transaction

	result := conn(ctx, d.db).Where("external_ref = ?", ref).Take(&t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Transaction{}, ErrTransactionNotFound
		}

		return Transaction{}, result.Error
	}

	return t, nil
}

// Balance sums the player's approved rows, purchases negative, floored at 0.
func (d *TransactionDAO) Balance(ctx context.Context, playerID uuid.UUID) (int, error) {
	var sum int64

	result := conn(ctx, d.db).Model(&Transaction{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN -amount ELSE amount END), 0)", TransactionPurchase).
		Where("player_id = ? AND status = ?", playerID, StatusApproved).
		Scan(&sum)
	if result.Error != nil {
		return 0, result.Error
	}

	if sum < 0 {
		return 0, nil
	}

	return int(sum), nil
}

// Process moves a pending deposit to status. Zero rows affected means the
// row is missing, not a deposit or no longer pending.
func (d *TransactionDAO) Process(ctx context.Context, id uuid.UUID, status TransactionStatus, adminID uuid.UUID, now time.Time) (int64, error) {
	result := conn(ctx, d.db).Model(&Transaction{}).
		Where("id = ? AND type = ? AND status = ?", id, TransactionDeposit, StatusPending).
		Updates(map[string]any{
			"status":       status,
			"processed_by": adminID,
			"processed_at": now,
			"updated_at":   now,
		})

	return result.RowsAffected, result.Error
}

func (d *TransactionDAO) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]Transaction, error) {
	var txs []Transaction

	if err := conn(ctx, d.db).Where("player_id = ?", playerID).Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, err
	}

	return txs, nil
}

func (d *TransactionDAO) ListPendingDeposits(ctx context.Context) ([]Transaction, error) {
	var txs []Transaction

	result := conn(ctx, d.db).
		Where("type = ? AND status = ?", TransactionDeposit, StatusPending).
		Order("created_at").
		Find(&txs)
	if result.Error != nil {
		return nil, result.Error
	}

	return txs, nil
}

func (d *TransactionDAO) ListAll(ctx context.Context) ([]Transaction, error) {
	var txs []Transaction

	if err := conn(ctx, d.db).Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, err
	}

	return txs, nil
}
