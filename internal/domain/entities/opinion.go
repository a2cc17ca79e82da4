package entities

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// AgentOpinion is one agent's answer, frozen at generation time
type AgentOpinion struct {
	AgentID        uuid.UUID        `json:"agent_id"`
	AgentName      string           `json:"agent_name"`
	AgentRole      string           `json:"agent_role"`
	Opinion        string           `json:"opinion"`
	Reasoning      string           `json:"reasoning"`
	Confidence     float64          `json:"confidence"`
	WeightsApplied ExpertiseWeights `json:"weights_applied"`
	ModelUsed      string           `json:"model_used"`
	TokensUsed     int              `json:"tokens_used"`
	Timestamp      time.Time        `json:"timestamp"`
}

// FollowUpQuestion is a chair-only conversational turn on a completed meeting
type FollowUpQuestion struct {
	ID            uuid.UUID `json:"id"`
	Question      string    `json:"question"`
	ChairResponse string    `json:"chair_response,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Version       int       `json:"version"`
}

// OpinionVersion is an immutable snapshot of one generation cycle
type OpinionVersion struct {
	Version             int                `json:"version"`
	Opinions            []AgentOpinion     `json:"opinions"`
	ChairSummary        string             `json:"chair_summary"`
	ChairRecommendation string             `json:"chair_recommendation"`
	FollowUps           []FollowUpQuestion `json:"follow_ups"`
	GeneratedAt         time.Time          `json:"generated_at"`
	GeneratedBy         *uuid.UUID         `json:"generated_by,omitempty"`
}

// clone returns a copy sharing no slice storage with v
func (v OpinionVersion) clone() OpinionVersion {
	v.Opinions = slices.Clone(v.Opinions)
	v.FollowUps = slices.Clone(v.FollowUps)
	if v.GeneratedBy != nil {
		by := *v.GeneratedBy
		v.GeneratedBy = &by
	}
	return v
}

// BoardOutcome is the product of one fan-out plus chair synthesis
type BoardOutcome struct {
	Opinions            []AgentOpinion
	ChairSummary        string
	ChairRecommendation string
	TokensUsed          int
}

// Validate reports whether the outcome may complete a meeting: at least
// one opinion plus a non-empty summary and recommendation.
func (o BoardOutcome) Validate() error {
	if len(o.Opinions) == 0 {
		return ErrIncompleteOutcome
	}
	if o.ChairSummary == "" || o.ChairRecommendation == "" {
		return ErrIncompleteOutcome
	}
	return nil
}
