package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jerneif/lotto-api/internal/domain"
)

const gameActivationLockKey = "game:activation"

func playerLockKey(playerID uuid.UUID) string {
	return "player:" + playerID.String()
}

// Transactor runs fn in a database transaction carried by the context it
// passes to fn.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	WithinReadCommitted(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker is the entity mutex. Locks are bound to the transaction in ctx and
// released when it ends.
type Locker interface {
	TryAcquire(ctx context.Context, key string) (bool, error)
	Acquire(ctx context.Context, key string) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Notifier receives game events after the change has been committed.
type Notifier interface {
	Publish(event domain.GameEvent)
}

type Options struct {
	Location       *time.Location
	DeadlineHour   int
	TxTimeout      time.Duration
	RenewalWorkers int
	RenewalMaxWait time.Duration
	LockDriver     string
}

// lockErr turns a context expiry while waiting for a lock or the store into
// ErrLockBusy so callers are told to retry.
func lockErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return domain.ErrLockBusy
	}
	return err
}

func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	return domain.KindOf(err).String()
}
