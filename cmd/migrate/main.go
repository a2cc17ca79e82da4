package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"

	"github.com/johnquangdev/boardroom/internal/infrastructure/database"
	"github.com/johnquangdev/boardroom/pkg/config"
)

func main() {
	direction := flag.String("direction", "up", "up, down or status")
	steps := flag.Int("steps", 0, "maximum migrations to apply (0 = all for up, 1 for down)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	switch *direction {
	case "up":
		if _, err := database.Migrate(db, migrate.Up, *steps, logger); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
	case "down":
		max := *steps
		if max == 0 {
			max = 1
		}
		if _, err := database.Migrate(db, migrate.Down, max, logger); err != nil {
			logger.Fatal("rollback failed", zap.Error(err))
		}
	case "status":
		status, err := database.Status(db)
		if err != nil {
			logger.Fatal("failed to read migration status", zap.Error(err))
		}
		ids := make([]string, 0, len(status))
		for id := range status {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			state := "pending"
			if status[id] {
				state = "applied"
			}
			fmt.Printf("%-40s %s\n", id, state)
		}
	default:
		logger.Fatal("unknown direction", zap.String("direction", *direction))
	}
}
