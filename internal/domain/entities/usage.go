package entities

import (
	"time"

	"github.com/google/uuid"
)

// TokenUsage records one successful provider call for the external usage aggregator
type TokenUsage struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	MeetingID        uuid.UUID  `json:"meeting_id" gorm:"type:uuid;not null;index"`
	UserID           uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	AgentID          *uuid.UUID `json:"agent_id,omitempty" gorm:"type:uuid;index"`
	AgentName        string     `json:"agent_name" gorm:"type:varchar(255);not null"`
	AgentRole        string     `json:"agent_role" gorm:"type:varchar(255)"`
	Operation        string     `json:"operation" gorm:"type:varchar(50);not null"`
	Model            string     `json:"model" gorm:"type:varchar(100);not null"`
	PromptTokens     int        `json:"prompt_tokens" gorm:"not null"`
	CompletionTokens int        `json:"completion_tokens" gorm:"not null"`
	TotalTokens      int        `json:"total_tokens" gorm:"not null"`
	CreatedAt        time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (TokenUsage) TableName() string {
	return "token_usage"
}
