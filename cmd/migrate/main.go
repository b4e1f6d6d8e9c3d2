package main

// Apply the notes schema:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"notes-backend/internal/shared/config"
	"notes-backend/internal/shared/storage/db"
	"notes-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()
	if cfg.DatabaseURL == "" {
		telemetry.Error("migrate.no_database", map[string]any{"error": "DATABASE_URL is required"})
		os.Exit(1)
	}

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err})
		sqlDB.Close()
		os.Exit(1)
	}
	version, err := db.SchemaVersion(ctx, sqlDB)
	if err != nil {
		telemetry.Warn("migrate.version_unknown", map[string]any{"error": err})
		return
	}
	telemetry.Info("migrate.done", map[string]any{"version": version})
}
