package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/boardroom/internal/domain/entities"
)

// CompanyFileRepository stores the reference documents each owner keeps
type CompanyFileRepository interface {
	// Create adds a document for its owner
	Create(ctx context.Context, file *entities.CompanyFile) error

	// ListByOwner returns up to limit of the owner's documents, oldest first
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]entities.CompanyFile, error)
}
