package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LogLevel is the severity of a diagnostic entry
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// SystemSource names entries not emitted on behalf of an agent
const SystemSource = "system"

// DiagnosticLogEntry is one append-only operator event for a meeting.
// Sequence orders entries recorded within the same timestamp.
type DiagnosticLogEntry struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	MeetingID uuid.UUID      `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Sequence  int64          `json:"sequence" gorm:"not null"`
	Level     LogLevel       `json:"level" gorm:"type:varchar(10);not null"`
	AgentID   string         `json:"agent_id" gorm:"type:varchar(64);not null"`
	AgentName string         `json:"agent_name" gorm:"type:varchar(255);not null"`
	Message   string         `json:"message" gorm:"type:text;not null"`
	Details   datatypes.JSON `json:"details,omitempty" gorm:"type:jsonb"`
	Timestamp time.Time      `json:"timestamp" gorm:"column:logged_at;not null;index"`
}

// TableName specifies the table name for GORM
func (DiagnosticLogEntry) TableName() string {
	return "meeting_diagnostics"
}
