package database

import (
	"context"
	"fmt"

	"github.com/yeremiapane/restaurant-waitlist/repository"
	"github.com/yeremiapane/restaurant-waitlist/utils"
)

// Migrate prepares the schema (gorm AutoMigrate) or indexes (mongo) of repo.
func Migrate(ctx context.Context, repo repository.Repository) error {
	m, ok := repo.(repository.Migrator)
	if !ok {
		return nil
	}
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	utils.InfoLogger.Println("Migration completed.")
	return nil
}
