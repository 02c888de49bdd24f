package dao

import (
	"context"
	"hash/fnv"

	"gorm.io/gorm"
)

// AdvisoryLocker is an entity mutex on PostgreSQL transaction-level advisory
// locks. A lock taken through it is held by the transaction in ctx and is
// released by the server at commit or rollback.
type AdvisoryLocker struct {
	db *gorm.DB
}

func NewAdvisoryLocker(db *gorm.DB) *AdvisoryLocker {
	return &AdvisoryLocker{
		db: db,
	}
}

// TryAcquire returns false without waiting when another transaction holds
// the lock.
func (l *AdvisoryLocker) TryAcquire(ctx context.Context, key string) (bool, error) {
	if !InTransaction(ctx) {
		return false, ErrNoTransaction
	}

	k1, k2 := advisoryKeys(key)

	var acquired bool
	if err := conn(ctx, l.db).Raw("SELECT pg_try_advisory_xact_lock(?, ?)", k1, k2).Scan(&acquired).Error; err != nil {
		return false, err
	}

	return acquired, nil
}

// Acquire waits until the lock is free or ctx is done.
func (l *AdvisoryLocker) Acquire(ctx context.Context, key string) error {
	if !InTransaction(ctx) {
		return ErrNoTransaction
	}

	k1, k2 := advisoryKeys(key)

	return conn(ctx, l.db).Exec("SELECT pg_advisory_xact_lock(?, ?)", k1, k2).Error
}

// advisoryKeys splits the 64-bit FNV-1a hash of key into the two int4
// arguments of the advisory lock functions. Distinct keys that collide only
// serialize more than needed.
func advisoryKeys(key string) (int32, int32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	sum := h.Sum64()

	return int32(sum >> 32), int32(sum)
}
