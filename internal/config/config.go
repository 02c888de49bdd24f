package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/spf13/viper"
)

const envPrefix = "LOTTO"

type AppConfig struct {
	API      *APIConfig
	Gin      *GinConfig
	Postgres *PostgresConfig
	Redis    *RedisConfig
	Lock     *LockConfig
	Lottery  *LotteryConfig
	Log      *LogConfig
}

type APIConfig struct {
	Environment        string
	Port               string
	BaseURL            string
	AllowedCORSDomains []string
	JWTSigningKey      string
}

type GinConfig struct {
	Mode string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

const (
	LockDriverPostgres = "postgres"
	LockDriverRedis    = "redis"
)

type LockConfig struct {
	Driver         string
	TTL            time.Duration
	RenewalMaxWait time.Duration
}

type LotteryConfig struct {
	Timezone           string
	DeadlineHour       int
	TxTimeout          time.Duration
	SeedWeeks          int
	ActivationInterval time.Duration
	RenewalWorkers     int
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load reads the YAML file at path. Every key can be overridden by an
// environment variable, e.g. LOTTO_LOTTERY_TX_TIMEOUT for lottery.tx_timeout.
func Load(path string) (*AppConfig, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	conf, err := decode(v)
	if err != nil {
		return nil, err
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config -> %w", err)
	}

	return conf, nil
}

// Watch calls onChange with the re-read config whenever the file at path
// changes. Invalid edits are reported through onError and otherwise ignored.
func Watch(path string, onChange func(*AppConfig), onError func(error)) error {
	v, err := newViper(path)
	if err != nil {
		return err
	}

	v.OnConfigChange(func(fsnotify.Event) {
		conf, err := decode(v)
		if err == nil {
			err = conf.Validate()
		}
		if err != nil {
			onError(err)
			return
		}
		onChange(conf)
	})
	v.WatchConfig()

	return nil
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "3000")
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 25)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", "30m")
	v.SetDefault("lock.driver", LockDriverPostgres)
	v.SetDefault("lock.ttl", "30s")
	v.SetDefault("lock.renewal_max_wait", "2s")
	v.SetDefault("lottery.timezone", "Europe/Copenhagen")
	v.SetDefault("lottery.deadline_hour", 17)
	v.SetDefault("lottery.tx_timeout", "10s")
	v.SetDefault("lottery.seed_weeks", 0)
	v.SetDefault("lottery.activation_interval", "1m")
	v.SetDefault("lottery.renewal_workers", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 14)
	v.SetDefault("log.compress", true)
}

func decode(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{
		API: &APIConfig{
			Environment:        v.GetString("api.environment"),
			Port:               v.GetString("api.port"),
			BaseURL:            v.GetString("api.base_url"),
			AllowedCORSDomains: v.GetStringSlice("api.allowed_cors_domains"),
			JWTSigningKey:      v.GetString("api.jwt_signing_key"),
		},
		Gin: &GinConfig{
			Mode: v.GetString("gin.mode"),
		},
		Postgres: &PostgresConfig{
			Host:            v.GetString("postgres.host"),
			Port:            v.GetString("postgres.port"),
			User:            v.GetString("postgres.user"),
			Password:        v.GetString("postgres.password"),
			DB:              v.GetString("postgres.db"),
			SSLMode:         v.GetString("postgres.sslmode"),
			MaxOpenConns:    v.GetInt("postgres.max_open_conns"),
			MaxIdleConns:    v.GetInt("postgres.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("postgres.conn_max_lifetime"),
		},
		Redis: &RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Lock: &LockConfig{
			Driver:         v.GetString("lock.driver"),
			TTL:            v.GetDuration("lock.ttl"),
			RenewalMaxWait: v.GetDuration("lock.renewal_max_wait"),
		},
		Lottery: &LotteryConfig{
			Timezone:           v.GetString("lottery.timezone"),
			DeadlineHour:       v.GetInt("lottery.deadline_hour"),
			TxTimeout:          v.GetDuration("lottery.tx_timeout"),
			SeedWeeks:          v.GetInt("lottery.seed_weeks"),
			ActivationInterval: v.GetDuration("lottery.activation_interval"),
			RenewalWorkers:     v.GetInt("lottery.renewal_workers"),
		},
		Log: &LogConfig{
			Level:      v.GetString("log.level"),
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
			Compress:   v.GetBool("log.compress"),
		},
	}

	if key := os.Getenv("JWT_SIGNING_KEY"); key != "" {
		conf.API.JWTSigningKey = key
	}
	if addr := os.Getenv("REDIS_URL"); addr != "" {
		conf.Redis.Addr = addr
	}

	return conf, nil
}

func (c AppConfig) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.API, validation.Required),
		validation.Field(&c.Gin, validation.Required),
		validation.Field(&c.Postgres, validation.Required),
		validation.Field(&c.Redis, validation.Required),
		validation.Field(&c.Lock, validation.Required),
		validation.Field(&c.Lottery, validation.Required),
		validation.Field(&c.Log, validation.Required),
	)
	if err != nil {
		return err
	}

	// A lock must outlive the transaction holding it.
	if c.Lock.TTL <= c.Lottery.TxTimeout {
		return fmt.Errorf("lock.ttl (%v) must be greater than lottery.tx_timeout (%v)", c.Lock.TTL, c.Lottery.TxTimeout)
	}

	return nil
}

func (c APIConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Environment, validation.Required, validation.In("development", "test", "production")),
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.JWTSigningKey, validation.Required),
	)
}

func (c GinConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Mode, validation.Required, validation.In("debug", "release", "test")),
	)
}

func (c PostgresConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxOpenConns, validation.Min(1)),
	)
}

func (c RedisConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DB, validation.Min(0)),
	)
}

func (c LockConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In(LockDriverPostgres, LockDriverRedis)),
		validation.Field(&c.TTL, validation.Required),
		validation.Field(&c.RenewalMaxWait, validation.Required),
	)
}

func (c LotteryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timezone, validation.Required, validation.By(func(any) error {
			_, err := time.LoadLocation(c.Timezone)
			return err
		})),
		validation.Field(&c.DeadlineHour, validation.Min(0), validation.Max(23)),
		validation.Field(&c.TxTimeout, validation.Required),
		validation.Field(&c.SeedWeeks, validation.Min(0)),
		validation.Field(&c.ActivationInterval, validation.Required),
		validation.Field(&c.RenewalWorkers, validation.Required, validation.Min(1)),
	)
}

func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
	)
}

// Location returns the civil time zone games are scheduled in.
func (c LotteryConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
