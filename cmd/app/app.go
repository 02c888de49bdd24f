package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jerneif/lotto-api/internal/api"
	"github.com/jerneif/lotto-api/internal/config"
	"github.com/jerneif/lotto-api/internal/db"
	"github.com/jerneif/lotto-api/internal/logger"
	"github.com/jerneif/lotto-api/internal/worker"
)

const configPath = "./cmd/app/config.yml"

func Start() error {
	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment, conf.Log); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer func() { _ = zap.L().Sync() }()

	err = config.Watch(configPath, func(c *config.AppConfig) {
		if err := logger.SetLevel(c.Log.Level); err != nil {
			zap.L().Warn("config reload: invalid log level", zap.Error(err))
			return
		}
		zap.L().Info("config reloaded", zap.Stringer("level", logger.Level()))
	}, func(err error) {
		zap.L().Warn("config reload rejected", zap.Error(err))
	})
	if err != nil {
		zap.L().Warn("config watcher disabled", zap.Error(err))
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL, conf.Postgres)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if conf.Lock.Driver == config.LockDriverRedis {
		redisClient, err = db.OpenRedis(ctx, conf.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize redis -> %w", err)
		}
		defer redisClient.Close()
	}

	s, err := api.NewServer(conf, postgresDB, redisClient)
	if err != nil {
		return fmt.Errorf("failed to initialize server -> %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Feed.Run(ctx)
	}()

	if conf.Lottery.SeedWeeks > 0 {
		if _, err := s.Games.SeedGames(ctx, conf.Lottery.SeedWeeks); err != nil {
			stop()
			wg.Wait()
			return fmt.Errorf("failed to seed games -> %w", err)
		}
	}

	worker.StartActivator(ctx, &wg, s.Games, conf.Lottery.ActivationInterval, conf.Lottery.TxTimeout)

	srv := &http.Server{
		Addr:              ":" + conf.API.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err = <-errCh:
		stop()
		wg.Wait()
		return fmt.Errorf("failed to start the server -> %w", err)
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("server forced to shutdown", zap.Error(err))
	}
	wg.Wait()

	return nil
}
