package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/internal/domain/repositories"
)

// agentRepository implements the AgentRepository interface
type agentRepository struct {
	db *gorm.DB
}

// NewAgentRepository creates a new agent repository
func NewAgentRepository(db *gorm.DB) repositories.AgentRepository {
	return &agentRepository{db: db}
}

// Create adds an agent to the roster
func (r *agentRepository) Create(ctx context.Context, agent *entities.Agent) error {
	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	return nil
}

// Count returns the roster size
func (r *agentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&entities.Agent{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count agents: %w", err)
	}
	return n, nil
}

// List returns every agent ordered by creation
func (r *agentRepository) List(ctx context.Context) ([]*entities.Agent, error) {
	var agents []*entities.Agent
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, nil
}

// Hire appends an agent to the owner's board. Hiring twice is a no-op.
func (r *agentRepository) Hire(ctx context.Context, ownerID, agentID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&entities.HiredAgent{}).
			Where("owner_id = ? AND agent_id = ?", ownerID, agentID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check hire: %w", err)
		}
		if existing > 0 {
			return nil
		}

		var next int
		if err := tx.Model(&entities.HiredAgent{}).
			Where("owner_id = ?", ownerID).
			Select("COALESCE(MAX(position), -1) + 1").
			Scan(&next).Error; err != nil {
			return fmt.Errorf("failed to compute hire position: %w", err)
		}

		hire := &entities.HiredAgent{OwnerID: ownerID, AgentID: agentID, Position: next}
		if err := tx.Create(hire).Error; err != nil {
			return fmt.Errorf("failed to hire agent: %w", err)
		}
		return nil
	})
}

// ListHired returns the owner's active agents in hire order
func (r *agentRepository) ListHired(ctx context.Context, ownerID uuid.UUID) ([]*entities.Agent, error) {
	var agents []*entities.Agent
	err := r.db.WithContext(ctx).
		Model(&entities.Agent{}).
		Joins("JOIN hired_agents ON hired_agents.agent_id = agents.id").
		Where("hired_agents.owner_id = ? AND agents.is_active = ?", ownerID, true).
		Order("hired_agents.position ASC").
		Find(&agents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list hired agents: %w", err)
	}
	return agents, nil
}

// GetChair returns the configured chair
func (r *agentRepository) GetChair(ctx context.Context) (*entities.Chair, error) {
	var chair entities.Chair
	if err := r.db.WithContext(ctx).Order("updated_at DESC").First(&chair).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrChairNotConfigured
		}
		return nil, fmt.Errorf("failed to load chair: %w", err)
	}
	return &chair, nil
}

// SaveChair creates or replaces the chair
func (r *agentRepository) SaveChair(ctx context.Context, chair *entities.Chair) error {
	if chair.ID == uuid.Nil {
		chair.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Save(chair).Error; err != nil {
		return fmt.Errorf("failed to save chair: %w", err)
	}
	return nil
}
