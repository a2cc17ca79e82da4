package repositories

import (
	"context"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
)

// UsageRepository stores per-call token usage
type UsageRepository interface {
	Record(ctx context.Context, usage *entities.TokenUsage) error
}
