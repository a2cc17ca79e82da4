package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/internal/domain/repositories"
)

type usageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a token usage repository
func NewUsageRepository(db *gorm.DB) repositories.UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) Record(ctx context.Context, usage *entities.TokenUsage) error {
	if usage.ID == uuid.Nil {
		usage.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(usage).Error; err != nil {
		return fmt.Errorf("failed to record token usage: %w", err)
	}
	return nil
}
