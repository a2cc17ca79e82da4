package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/boardroom/internal/domain/entities"
)

// AgentRepository defines access to the agent roster and the chair
type AgentRepository interface {
	// Create adds an agent to the roster
	Create(ctx context.Context, agent *entities.Agent) error

	// Count returns the number of agents in the roster
	Count(ctx context.Context) (int64, error)

	// List returns every agent in the roster
	List(ctx context.Context) ([]*entities.Agent, error)

	// Hire appends an agent to the owner's board
	Hire(ctx context.Context, ownerID, agentID uuid.UUID) error

	// ListHired returns the owner's active agents in hire order
	ListHired(ctx context.Context, ownerID uuid.UUID) ([]*entities.Agent, error)

	// GetChair returns the chair, or entities.ErrChairNotConfigured
	GetChair(ctx context.Context) (*entities.Chair, error)

	// SaveChair creates or replaces the chair
	SaveChair(ctx context.Context, chair *entities.Chair) error
}
