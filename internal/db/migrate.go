package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/udisondev/lootforge/internal/db/migrations"
)

// RunMigrations применяет embedded миграции к базе по DSN.
func RunMigrations(ctx context.Context, dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening sql connection for migrations: %w", err)
	}
	defer sqlDB.Close()

	return migrate(ctx, sqlDB)
}

// MigratePool применяет миграции через конфигурацию существующего pool.
// goose работает с *sql.DB, поэтому конфиг регистрируется в pgx stdlib.
func MigratePool(ctx context.Context, pool *pgxpool.Pool) error {
	connStr := stdlib.RegisterConnConfig(pool.Config().ConnConfig)
	defer stdlib.UnregisterConnConfig(connStr)

	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("opening sql.DB: %w", err)
	}
	defer sqlDB.Close()

	return migrate(ctx, sqlDB)
}

func migrate(ctx context.Context, sqlDB *sql.DB) error {
	version, err := migrations.Up(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database schema up to date", "version", version)
	return nil
}
