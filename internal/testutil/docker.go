// Package testutil starts throwaway PostgreSQL and Redis containers for
// integration tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/jerneif/lotto-api/internal/config"
	"github.com/jerneif/lotto-api/internal/db"
)

// ErrDockerUnavailable is returned when no Docker daemon answers.
var ErrDockerUnavailable = errors.New("docker is unavailable")

const expireSeconds = 300

func newPool() (*dockertest.Pool, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDockerUnavailable, err)
	}
	if err = pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDockerUnavailable, err)
	}
	pool.MaxWait = 2 * time.Minute

	return pool, nil
}

func run(pool *dockertest.Pool, opts *dockertest.RunOptions) (*dockertest.Resource, error) {
	resource, err := pool.RunWithOptions(opts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, fmt.Errorf("pool.RunWithOptions -> %w", err)
	}
	_ = resource.Expire(expireSeconds)

	return resource, nil
}

// StartPostgres runs a PostgreSQL container and returns a migrated
// connection and a function that removes the container.
func StartPostgres() (*gorm.DB, func(), error) {
	pool, err := newPool()
	if err != nil {
		return nil, nil, err
	}

	resource, err := run(pool, &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=lotto",
			"POSTGRES_PASSWORD=lotto",
			"POSTGRES_DB=lotto",
			"listen_addresses='*'",
		},
	})
	if err != nil {
		return nil, nil, err
	}
	purge := func() { _ = pool.Purge(resource) }

	url := fmt.Sprintf("postgres://lotto:lotto@%s/lotto?sslmode=disable&TimeZone=UTC", resource.GetHostPort("5432/tcp"))
	conf := &config.PostgresConfig{MaxOpenConns: 40, MaxIdleConns: 10, ConnMaxLifetime: time.Minute}

	var gdb *gorm.DB
	err = pool.Retry(func() error {
		var err error
		gdb, err = db.OpenPostgresWithURL(url, conf)
		return err
	})
	if err != nil {
		purge()
		return nil, nil, fmt.Errorf("pool.Retry -> %w", err)
	}

	return gdb, purge, nil
}

// StartRedis runs a Redis container and returns a connected client and a
// function that removes the container.
func StartRedis() (*redis.Client, func(), error) {
	pool, err := newPool()
	if err != nil {
		return nil, nil, err
	}

	resource, err := run(pool, &dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	})
	if err != nil {
		return nil, nil, err
	}

	var client *redis.Client
	err = pool.Retry(func() error {
		var err error
		client, err = db.OpenRedis(context.Background(), &config.RedisConfig{Addr: resource.GetHostPort("6379/tcp")})
		return err
	})
	if err != nil {
		_ = pool.Purge(resource)
		return nil, nil, fmt.Errorf("pool.Retry -> %w", err)
	}

	return client, func() {
		_ = client.Close()
		_ = pool.Purge(resource)
	}, nil
}
