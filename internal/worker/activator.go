package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jerneif/lotto-api/internal/domain"
)

type GameActivator interface {
	GetOrActivateOpenGame(ctx context.Context) (domain.Game, error)
}

// StartActivator makes sure a game is open for boards once a new ISO week
// starts, without waiting for the first request of the week. It stops when
// ctx is done.
func StartActivator(ctx context.Context, wg *sync.WaitGroup, activator GameActivator, interval, timeout time.Duration) {
	wg.Add(1)
	go func() {
		ticker := time.NewTicker(interval)
		defer wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c, cancel := context.WithTimeout(ctx, timeout)
				_, err := activator.GetOrActivateOpenGame(c)
				cancel()
				if err != nil && ctx.Err() == nil {
					zap.L().Warn("activator: open game check failed", zap.Error(err))
				}
			}
		}
	}()
}
