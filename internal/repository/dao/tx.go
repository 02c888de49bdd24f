package dao

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"gorm.io/gorm"
)

var ErrNoTransaction = errors.New("no transaction in context")

type txKey struct{}

type txState struct {
	db *gorm.DB

	mu    sync.Mutex
	hooks []func()
}

// TxManager runs functions inside a database transaction carried by the
// context. DAOs pick the transaction up from the context, so callers never
// pass *gorm.DB around.
type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{
		db: db,
	}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise.
// Nested calls join the outer transaction.
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.within(ctx, nil, fn)
}

// WithinReadCommitted is WithinTransaction pinned to READ COMMITTED, so every
// statement sees rows committed before it started, including those committed
// while this transaction was waiting for a lock.
func (m *TxManager) WithinReadCommitted(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.within(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

func (m *TxManager) within(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	state := &txState{}
	defer state.runHooks()

	var txOpts []*sql.TxOptions
	if opts != nil {
		txOpts = append(txOpts, opts)
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state.db = tx
		return fn(context.WithValue(ctx, txKey{}, state))
	}, txOpts...)
}

// OnTransactionEnd registers fn to run once the transaction in ctx has
// committed or rolled back.
func OnTransactionEnd(ctx context.Context, fn func()) error {
	state, ok := ctx.Value(txKey{}).(*txState)
	if !ok {
		return ErrNoTransaction
	}

	state.mu.Lock()
	state.hooks = append(state.hooks, fn)
	state.mu.Unlock()

	return nil
}

// InTransaction reports whether ctx carries a transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*txState)
	return ok
}

func (s *txState) runHooks() {
	s.mu.Lock()
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

// conn returns the transaction in ctx, or db when there is none.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if state, ok := ctx.Value(txKey{}).(*txState); ok && state.db != nil {
		return state.db.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
