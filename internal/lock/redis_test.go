package lock

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jerneif/lotto-api/internal/repository/dao"
	"github.com/jerneif/lotto-api/internal/testutil"
)

var (
	testDB    *gorm.DB
	testRedis *redis.Client
)

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		os.Exit(m.Run())
	}

	db, purgeDB, err := testutil.StartPostgres()
	if err != nil {
		fmt.Fprintf(os.Stderr, "integration tests disabled: %v\n", err)
		os.Exit(m.Run())
	}
	client, purgeRedis, err := testutil.StartRedis()
	if err != nil {
		purgeDB()
		fmt.Fprintf(os.Stderr, "integration tests disabled: %v\n", err)
		os.Exit(m.Run())
	}

	testDB, testRedis = db, client
	code := m.Run()
	purgeRedis()
	purgeDB()

	os.Exit(code)
}

func TestRedisLocker(t *testing.T) {
	if testRedis == nil {
		t.Skip("containers unavailable")
	}

	ctx := context.Background()
	tm := dao.NewTxManager(testDB)
	locker := NewRedisLocker(testRedis, 30*time.Second)

	_, err := locker.TryAcquire(ctx, "player:x")
	require.ErrorIs(t, err, dao.ErrNoTransaction)

	err = tm.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := locker.TryAcquire(ctx, "player:x")
		require.NoError(t, err)
		require.True(t, ok)

		// A second holder, even in the same process, is refused.
		ok, err = locker.try(ctx, "player:x")
		require.NoError(t, err)
		assert.False(t, ok)

		n, err := testRedis.Exists(ctx, keyPrefix+"player:x").Result()
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		return nil
	})
	require.NoError(t, err)

	n, err := testRedis.Exists(ctx, keyPrefix+"player:x").Result()
	require.NoError(t, err)
	assert.Zero(t, n, "released when the transaction ends")
}

func TestRedisLocker_AcquireWaits(t *testing.T) {
	if testRedis == nil {
		t.Skip("containers unavailable")
	}

	ctx := context.Background()
	tm := dao.NewTxManager(testDB)
	locker := NewRedisLocker(testRedis, 30*time.Second)

	held := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- tm.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := locker.Acquire(ctx, "game:activation"); err != nil {
				return err
			}
			close(held)
			time.Sleep(200 * time.Millisecond)
			return nil
		})
	}()
	<-held

	started := time.Now()
	err := tm.WithinTransaction(ctx, func(ctx context.Context) error {
		return locker.Acquire(ctx, "game:activation")
	})
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.GreaterOrEqual(t, time.Since(started), 100*time.Millisecond)

	// A context that expires while waiting gives up.
	held2 := make(chan struct{})
	release := make(chan struct{})
	go func() {
		done <- tm.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := locker.Acquire(ctx, "game:activation"); err != nil {
				return err
			}
			close(held2)
			<-release
			return nil
		})
	}()
	<-held2

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	err = tm.WithinTransaction(short, func(ctx context.Context) error {
		return locker.Acquire(ctx, "game:activation")
	})
	assert.Error(t, err)

	close(release)
	require.NoError(t, <-done)
}
