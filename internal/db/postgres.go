package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jerneif/lotto-api/internal/config"
	"github.com/jerneif/lotto-api/internal/logger"
	"github.com/jerneif/lotto-api/internal/repository/dao"
)

func OpenPostgres(conf *config.PostgresConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		conf.Host, conf.User, conf.Password, conf.DB, conf.Port, conf.SSLMode)

	return open(dsn, conf)
}

func OpenPostgresWithURL(url string, conf *config.PostgresConfig) (*gorm.DB, error) {
	return open(url, conf)
}

func open(dsn string, conf *config.PostgresConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open -> %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB -> %w", err)
	}
	if conf != nil {
		sqlDB.SetMaxOpenConns(conf.MaxOpenConns)
		sqlDB.SetMaxIdleConns(conf.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(conf.ConnMaxLifetime)
	}

	if err = dao.InitTables(db); err != nil {
		return nil, fmt.Errorf("dao.InitTables -> %w", err)
	}

	return db, nil
}
