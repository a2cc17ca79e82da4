package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/boardroom/internal/adapter/repository"
	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/internal/infrastructure/database"
	"github.com/johnquangdev/boardroom/internal/usecase/roster"
	"github.com/johnquangdev/boardroom/pkg/config"
	"github.com/johnquangdev/boardroom/pkg/jwt"
)

func main() {
	email := flag.String("email", "admin@boardroom.local", "email of the user to create and hire the board for")
	name := flag.String("name", "Board Admin", "display name of the user")
	role := flag.String("role", string(entities.RoleAdmin), "role of the user (admin or member)")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed access token")
	docType := flag.String("document-type", "report", "file type recorded for -document files")
	var documents []string
	flag.Func("document", "text file to add as a company document (repeatable)", func(path string) error {
		documents = append(documents, path)
		return nil
	})
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

	userRole := entities.UserRole(*role)
	if !userRole.IsValid() {
		logger.Fatal("invalid role", zap.String("role", *role))
	}

	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	ctx := context.Background()
	seeder := roster.NewSeeder(repository.NewAgentRepository(db), repository.NewUserRepository(db), logger)

	chair := entities.Chair{
		Name:         cfg.Deliberation.ChairName,
		SystemPrompt: cfg.Deliberation.ChairPrompt,
		Model:        cfg.Deliberation.ChairModel,
		Color:        cfg.Deliberation.ChairColor,
	}
	if _, err := seeder.SeedRoster(ctx, entities.DefaultModel, chair); err != nil {
		logger.Fatal("failed to seed roster", zap.Error(err))
	}

	user, err := seeder.EnsureUser(ctx, *email, *name, userRole)
	if err != nil {
		logger.Fatal("failed to create user", zap.Error(err))
	}
	hired, err := seeder.HireAll(ctx, user)
	if err != nil {
		logger.Fatal("failed to hire board", zap.Error(err))
	}

	docRepo := repository.NewCompanyFileRepository(db)
	for _, path := range documents {
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Fatal("failed to read document", zap.String("path", path), zap.Error(err))
		}
		doc, err := roster.AddDocument(ctx, docRepo, user, path, *docType, content)
		if err != nil {
			logger.Fatal("failed to add document", zap.Error(err))
		}
		logger.Info("company document added", zap.String("filename", doc.Filename), zap.String("file_type", doc.FileType))
	}

	token, err := jwt.NewManager(cfg.JWT.AccessSecret, *tokenTTL).GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		logger.Fatal("failed to generate access token", zap.Error(err))
	}

	fmt.Printf("User:   %s (%s)\n", user.Email, user.Role)
	fmt.Printf("Board:  %d agents hired\n", hired)
	fmt.Printf("Docs:   %d company documents added\n", len(documents))
	fmt.Printf("Token (expires in %s):\n%s\n", *tokenTTL, token)
}
