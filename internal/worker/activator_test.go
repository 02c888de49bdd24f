package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jerneif/lotto-api/internal/domain"
)

type countingActivator struct {
	calls atomic.Int32
	err   error
}

func (a *countingActivator) GetOrActivateOpenGame(ctx context.Context) (domain.Game, error) {
	a.calls.Add(1)
	return domain.Game{}, a.err
}

func TestStartActivator(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "open game present"},
		{name: "errors are logged, not fatal", err: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			var wg sync.WaitGroup
			a := &countingActivator{err: tt.err}

			StartActivator(ctx, &wg, a, 10*time.Millisecond, time.Second)

			assert.Eventually(t, func() bool { return a.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

			cancel()
			wg.Wait()

			stopped := a.calls.Load()
			time.Sleep(30 * time.Millisecond)
			assert.Equal(t, stopped, a.calls.Load())
		})
	}
}
