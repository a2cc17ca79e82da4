package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultWeight is applied to expertise dimensions left unset
const DefaultWeight = 0.2

// DefaultModel is used when an agent or chair has no model configured
const DefaultModel = "gpt-4o-mini"

// ExpertiseWeights is the five-dimensional emphasis vector of an agent.
// Each value lies in [0,1]; the vector is not required to sum to 1.
type ExpertiseWeights struct {
	Finance    float64 `json:"finance" gorm:"column:weight_finance;not null;default:0.2"`
	Technology float64 `json:"technology" gorm:"column:weight_technology;not null;default:0.2"`
	Operations float64 `json:"operations" gorm:"column:weight_operations;not null;default:0.2"`
	PeopleHR   float64 `json:"people_hr" gorm:"column:weight_people_hr;not null;default:0.2"`
	Logistics  float64 `json:"logistics" gorm:"column:weight_logistics;not null;default:0.2"`
}

// DefaultWeights returns the neutral weight vector
func DefaultWeights() ExpertiseWeights {
	return ExpertiseWeights{
		Finance:    DefaultWeight,
		Technology: DefaultWeight,
		Operations: DefaultWeight,
		PeopleHR:   DefaultWeight,
		Logistics:  DefaultWeight,
	}
}

// Dimension is one labelled weight, in display order
type Dimension struct {
	Label string
	Value float64
}

// Dimensions lists the weights in a fixed order for prompt rendering
func (w ExpertiseWeights) Dimensions() []Dimension {
	return []Dimension{
		{Label: "Finance", Value: w.Finance},
		{Label: "Technology", Value: w.Technology},
		{Label: "Operations", Value: w.Operations},
		{Label: "People/HR", Value: w.PeopleHR},
		{Label: "Logistics", Value: w.Logistics},
	}
}

// Validate checks every weight lies in [0,1]
func (w ExpertiseWeights) Validate() error {
	for _, d := range w.Dimensions() {
		if d.Value < 0 || d.Value > 1 {
			return fmt.Errorf("%w: %s weight %.2f outside [0,1]", ErrInvalidWeight, d.Label, d.Value)
		}
	}
	return nil
}

// Agent is a configured board member, loaded per generation
type Agent struct {
	ID           uuid.UUID        `json:"id" gorm:"type:uuid;primary_key"`
	Name         string           `json:"name" gorm:"type:varchar(255);not null"`
	Role         string           `json:"role" gorm:"type:varchar(255);not null"`
	SystemPrompt string           `json:"system_prompt" gorm:"type:text;not null"`
	Weights      ExpertiseWeights `json:"weights" gorm:"embedded"`
	Model        string           `json:"model" gorm:"type:varchar(100);not null;default:'gpt-4o-mini'"`
	Color        string           `json:"color" gorm:"type:varchar(20)"`
	IsActive     bool             `json:"is_active" gorm:"not null;default:true;index"`
	CreatedAt    time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewAgent creates an active agent with defaults filled in
func NewAgent(name, role, systemPrompt string, weights ExpertiseWeights, model string) *Agent {
	if model == "" {
		model = DefaultModel
	}
	return &Agent{
		ID:           uuid.New(),
		Name:         name,
		Role:         role,
		SystemPrompt: systemPrompt,
		Weights:      weights,
		Model:        model,
		IsActive:     true,
	}
}

// Validate checks the agent can take part in a deliberation
func (a *Agent) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("%w: agent name is empty", ErrInvalidAgent)
	}
	if a.Model == "" {
		return fmt.Errorf("%w: agent %s has no model", ErrInvalidAgent, a.Name)
	}
	return a.Weights.Validate()
}

// TableName specifies the table name for GORM
func (Agent) TableName() string {
	return "agents"
}

// HiredAgent links a user's board to an agent. Position fixes hire order.
type HiredAgent struct {
	OwnerID  uuid.UUID `json:"owner_id" gorm:"type:uuid;primaryKey"`
	AgentID  uuid.UUID `json:"agent_id" gorm:"type:uuid;primaryKey"`
	Position int       `json:"position" gorm:"not null;index"`
	Agent    *Agent    `json:"agent,omitempty" gorm:"foreignKey:AgentID"`
	HiredAt  time.Time `json:"hired_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (HiredAgent) TableName() string {
	return "hired_agents"
}

// Chair is the singleton synthesizer configuration
type Chair struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	SystemPrompt string    `json:"system_prompt" gorm:"type:text;not null"`
	Model        string    `json:"model" gorm:"type:varchar(100);not null"`
	Color        string    `json:"color" gorm:"type:varchar(20)"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Validate checks the chair can run a synthesis
func (c *Chair) Validate() error {
	if c.SystemPrompt == "" {
		return fmt.Errorf("%w: chair system prompt is empty", ErrInvalidChair)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: chair model is empty", ErrInvalidChair)
	}
	return nil
}

// TableName specifies the table name for GORM
func (Chair) TableName() string {
	return "chairs"
}
