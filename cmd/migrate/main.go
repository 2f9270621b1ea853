package main

// Run database migrations:
//   go run ./cmd/migrate [up|down|status]

import (
	"context"
	"database/sql"
	"os"

	"cvio-backend/internal/shared/config"
	"cvio-backend/internal/shared/storage/db"
	"cvio-backend/internal/shared/telemetry"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.Load()
	if err := telemetry.Init(cfg.Env, cfg.LogLevel); err != nil {
		return 1
	}
	defer telemetry.Sync()

	command := "up"
	if len(args) > 0 {
		command = args[0]
	}
	migrate, ok := map[string]func(context.Context, *sql.DB) error{
		"up":     db.RunMigrations,
		"down":   db.RollbackMigration,
		"status": db.MigrationStatus,
	}[command]
	if !ok {
		telemetry.Error("migrate.unknown_command", map[string]any{"command": command, "expected": "up, down or status"})
		return 2
	}

	ctx := context.Background()
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.MigrateOptions(cfg.DB))
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err})
		return 1
	}
	defer sqlDB.Close()

	if err := migrate(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"command": command, "error": err})
		return 1
	}
	telemetry.Info("migrate.done", map[string]any{"command": command})
	return 0
}
