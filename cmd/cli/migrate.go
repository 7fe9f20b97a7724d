package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/akeren/pingaroo/config"
	"github.com/akeren/pingaroo/internal/log"
	"github.com/akeren/pingaroo/pkg/migrations"
	"github.com/akeren/pingaroo/pkg/utils"
)

func runMigrate(ctx context.Context, logger *log.Logger, args []string) error {
	action := "up"
	if len(args) > 0 {
		action = args[0]
	}

	steps := 1
	if action == "down" && len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("migrate down: invalid step count %q", args[1])
		}
		steps = n
	}

	db, err := config.NewDatabase(logger, config.NewDBConfig(logger))
	if err != nil {
		return fmt.Errorf("connect to database for migration: %w", err)
	}
	defer config.CloseDatabase(db, logger)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get SQL DB instance for migration: %w", err)
	}

	cfg := migrations.Config{
		Dir:    utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", "migrations"),
		Logger: logger,
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	switch action {
	case "up":
		if err := migrations.Up(ctx, sqlDB, cfg); err != nil {
			return err
		}
		logger.Info("Database migrations completed")
	case "down":
		if err := migrations.Down(ctx, sqlDB, cfg, steps); err != nil {
			return err
		}
	case "status":
		status, err := migrations.CurrentStatus(ctx, sqlDB, cfg)
		if err != nil {
			return err
		}
		if !status.Applied {
			fmt.Println("no migrations applied")
			return nil
		}
		fmt.Printf("version %d (dirty=%t)\n", status.Version, status.Dirty)
	default:
		return fmt.Errorf("unknown migrate action: %s", action)
	}

	return nil
}
