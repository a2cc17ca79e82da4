package meeting

import (
	"encoding/json"
	"time"
)

// WeightsResponse is an agent's expertise vector at generation time
type WeightsResponse struct {
	Finance    float64 `json:"finance"`
	Technology float64 `json:"technology"`
	Operations float64 `json:"operations"`
	PeopleHR   float64 `json:"people_hr"`
	Logistics  float64 `json:"logistics"`
}

// OpinionResponse is one agent's opinion
type OpinionResponse struct {
	AgentID        string          `json:"agent_id"`
	AgentName      string          `json:"agent_name"`
	AgentRole      string          `json:"agent_role"`
	Opinion        string          `json:"opinion"`
	Reasoning      string          `json:"reasoning"`
	Confidence     float64         `json:"confidence"`
	WeightsApplied WeightsResponse `json:"weights_applied"`
	ModelUsed      string          `json:"model_used"`
	TokensUsed     int             `json:"tokens_used"`
	Timestamp      time.Time       `json:"timestamp"`
}

// FollowUpResponse is one follow-up turn
type FollowUpResponse struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	ChairResponse string    `json:"chair_response"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
}

// AttachmentResponse describes an attached file without its extracted content
type AttachmentResponse struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Kind        string    `json:"kind"`
	Truncated   bool      `json:"truncated,omitempty"`
	Stored      bool      `json:"stored"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// VersionResponse is one snapshot of the meeting's deliberation
type VersionResponse struct {
	Version             int                `json:"version"`
	Opinions            []OpinionResponse  `json:"opinions"`
	ChairSummary        string             `json:"chair_summary"`
	ChairRecommendation string             `json:"chair_recommendation"`
	FollowUps           []FollowUpResponse `json:"follow_ups"`
	GeneratedAt         time.Time          `json:"generated_at"`
	GeneratedBy         *string            `json:"generated_by,omitempty"`
}

// MeetingResponse is the full live state of a meeting
type MeetingResponse struct {
	ID                  string               `json:"id"`
	OwnerID             string               `json:"owner_id"`
	Question            string               `json:"question"`
	Context             *string              `json:"context,omitempty"`
	Status              string               `json:"status"`
	CurrentVersion      int                  `json:"current_version"`
	Opinions            []OpinionResponse    `json:"opinions"`
	ChairSummary        string               `json:"chair_summary"`
	ChairRecommendation string               `json:"chair_recommendation"`
	FollowUps           []FollowUpResponse   `json:"follow_ups"`
	OpinionHistory      []VersionResponse    `json:"opinion_history"`
	AttachedFiles       []AttachmentResponse `json:"attached_files"`
	TotalTokensUsed     int                  `json:"total_tokens_used"`
	GeneratedAt         *time.Time           `json:"generated_at,omitempty"`
	GeneratedBy         *string              `json:"generated_by,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
	CompletedAt         *time.Time           `json:"completed_at,omitempty"`
}

// MeetingSummaryResponse is a meeting as shown in listings
type MeetingSummaryResponse struct {
	ID             string    `json:"id"`
	Question       string    `json:"question"`
	Status         string    `json:"status"`
	CurrentVersion int       `json:"current_version"`
	OpinionCount   int       `json:"opinion_count"`
	FollowUpCount  int       `json:"follow_up_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FollowUpAnswerResponse is returned after a follow-up was answered
type FollowUpAnswerResponse struct {
	FollowUp FollowUpResponse `json:"follow_up"`
	Meeting  *MeetingResponse `json:"meeting"`
}

// DiagnosticResponse is one diagnostic log entry
type DiagnosticResponse struct {
	ID        string          `json:"id"`
	Level     string          `json:"level"`
	AgentID   string          `json:"agent_id"`
	AgentName string          `json:"agent_name"`
	Message   string          `json:"message"`
	Details   json.RawMessage `json:"details,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// FileURLResponse carries a presigned download link
type FileURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
