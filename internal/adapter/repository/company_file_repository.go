package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/internal/domain/repositories"
)

type companyFileRepository struct {
	db *gorm.DB
}

// NewCompanyFileRepository creates a company document repository
func NewCompanyFileRepository(db *gorm.DB) repositories.CompanyFileRepository {
	return &companyFileRepository{db: db}
}

func (r *companyFileRepository) Create(ctx context.Context, file *entities.CompanyFile) error {
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	if err := file.Validate(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("failed to create company file: %w", err)
	}
	return nil
}

func (r *companyFileRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]entities.CompanyFile, error) {
	var files []entities.CompanyFile
	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to list company files: %w", err)
	}
	return files, nil
}
