package dao

import "gorm.io/gorm"

// Partial indexes AutoMigrate can't express.
var indexes = []string{
	// At most one game is open for boards at any time.
	`CREATE UNIQUE INDEX IF NOT EXISTS uni_games_open ON games ((true)) WHERE is_active AND numbers_published_at IS NULL`,
	// One board per subscription per game.
	`CREATE UNIQUE INDEX IF NOT EXISTS uni_boards_subscription_game ON boards (subscription_id, game_id) WHERE subscription_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_boards_numbers ON boards USING GIN (numbers)`,
}

func InitTables(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Player{},
		&Game{},
		&BoardSubscription{},
		&Board{},
		&Transaction{},
	)
	if err != nil {
		return err
	}

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}

// ResetTables drops every table in the public schema and migrates again.
func ResetTables(db *gorm.DB) error {
	if err := dropAllTables(db); err != nil {
		return err
	}

	return InitTables(db)
}

func dropAllTables(db *gorm.DB) error {
	var tableNames []string
	if err := db.Table("information_schema.tables").
		Where("table_schema = ?", "public").
		Pluck("table_name", &tableNames).Error; err != nil {
		return err
	}

	for _, tableName := range tableNames {
		if err := db.Exec(`DROP TABLE IF EXISTS "` + tableName + `" CASCADE`).Error; err != nil {
			return err
		}
	}

	return nil
}
