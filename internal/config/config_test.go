package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
api:
  environment: test
  port: "8080"
  allowed_cors_domains: ["*"]
  jwt_signing_key: secret
gin:
  mode: test
postgres:
  host: localhost
  port: "5432"
  user: postgres
  password: postgres
  db: lotto
lock:
  driver: postgres
  ttl: 30s
lottery:
  timezone: Europe/Copenhagen
  tx_timeout: 5s
log:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "8080", conf.API.Port)
	assert.Equal(t, LockDriverPostgres, conf.Lock.Driver)
	assert.Equal(t, 30*time.Second, conf.Lock.TTL)
	assert.Equal(t, 5*time.Second, conf.Lottery.TxTimeout)

	// Defaults.
	assert.Equal(t, 17, conf.Lottery.DeadlineHour)
	assert.Equal(t, 4, conf.Lottery.RenewalWorkers)
	assert.Equal(t, 2*time.Second, conf.Lock.RenewalMaxWait)
	assert.Equal(t, time.Minute, conf.Lottery.ActivationInterval)
	assert.Equal(t, "disable", conf.Postgres.SSLMode)

	loc, err := conf.Lottery.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Copenhagen", loc.String())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("LOTTO_LOCK_DRIVER", "redis")
	t.Setenv("LOTTO_LOTTERY_RENEWAL_WORKERS", "9")
	t.Setenv("JWT_SIGNING_KEY", "from-env")

	conf, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, LockDriverRedis, conf.Lock.Driver)
	assert.Equal(t, 9, conf.Lottery.RenewalWorkers)
	assert.Equal(t, "from-env", conf.API.JWTSigningKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "lock ttl shorter than tx timeout", env: map[string]string{"LOTTO_LOCK_TTL": "5s"}},
		{name: "unknown lock driver", env: map[string]string{"LOTTO_LOCK_DRIVER": "etcd"}},
		{name: "unknown time zone", env: map[string]string{"LOTTO_LOTTERY_TIMEZONE": "Mars/Olympus"}},
		{name: "deadline hour out of range", env: map[string]string{"LOTTO_LOTTERY_DEADLINE_HOUR": "24"}},
		{name: "bad log level", env: map[string]string{"LOTTO_LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(writeConfig(t, baseYAML))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
