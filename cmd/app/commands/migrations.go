package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/allisson/enrollments/internal/config"
	enrollmentRepository "github.com/allisson/enrollments/internal/enrollment/repository"
)

// RunMigrations applies the pending SQL migrations of driver to dsn.
// Returns nil when the schema is already current.
func RunMigrations(logger *slog.Logger, driver, dsn string) error {
	logger.Info("running database migrations", slog.String("driver", driver))

	migrationsPath := "file://migrations/postgresql"
	if driver == config.DriverMySQL {
		migrationsPath = "file://migrations/mysql"
	}

	m, err := migrate.New(migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("migrations completed successfully")
	return nil
}

// RunMongoIndexes creates the indexes of the document store.
func RunMongoIndexes(ctx context.Context, logger *slog.Logger, db *mongo.Database) error {
	logger.Info("ensuring mongodb indexes", slog.String("database", db.Name()))

	if err := enrollmentRepository.EnsureMongoDBIndexes(ctx, db); err != nil {
		return fmt.Errorf("failed to ensure mongodb indexes: %w", err)
	}

	logger.Info("mongodb indexes ensured")
	return nil
}
