package entities

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// MeetingStatus represents the lifecycle state of a meeting
type MeetingStatus string

const (
	MeetingStatusInProgress MeetingStatus = "in_progress" // First deliberation underway
	MeetingStatusCompleted  MeetingStatus = "completed"   // Has a valid current version
	MeetingStatusFailed     MeetingStatus = "failed"      // First deliberation produced nothing usable
)

// Meeting is the live state of one question's deliberation lifecycle.
// CurrentVersion always equals len(OpinionHistory)+1.
type Meeting struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	OwnerID  uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	Question string    `json:"question" gorm:"type:text;not null"`
	Context  *string   `json:"context,omitempty" gorm:"type:text"`

	Opinions            []AgentOpinion `json:"opinions" gorm:"type:jsonb;serializer:json"`
	ChairSummary        string         `json:"chair_summary" gorm:"type:text"`
	ChairRecommendation string         `json:"chair_recommendation" gorm:"type:text"`

	Status         MeetingStatus      `json:"status" gorm:"type:varchar(20);not null;index;default:'in_progress'"`
	CurrentVersion int                `json:"current_version" gorm:"not null;default:1"`
	OpinionHistory []OpinionVersion   `json:"opinion_history" gorm:"type:jsonb;serializer:json"`
	FollowUps      []FollowUpQuestion `json:"follow_ups" gorm:"type:jsonb;serializer:json"`
	AttachedFiles  []AttachedFile     `json:"attached_files" gorm:"type:jsonb;serializer:json"`

	// DiagnosticLog is stored in its own append-only table
	DiagnosticLog []DiagnosticLogEntry `json:"-" gorm:"foreignKey:MeetingID"`

	TotalTokensUsed int        `json:"total_tokens_used" gorm:"not null;default:0"`
	GeneratedAt     *time.Time `json:"generated_at,omitempty"`
	GeneratedBy     *uuid.UUID `json:"generated_by,omitempty" gorm:"type:uuid"`

	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewMeeting creates a meeting awaiting its first deliberation
func NewMeeting(ownerID uuid.UUID, question string, context *string) *Meeting {
	now := time.Now()
	return &Meeting{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Question:       question,
		Context:        context,
		Status:         MeetingStatusInProgress,
		CurrentVersion: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TableName specifies the table name for GORM
func (Meeting) TableName() string {
	return "meetings"
}

// IsCompleted reports whether the meeting has a valid current version
func (m *Meeting) IsCompleted() bool {
	return m.Status == MeetingStatusCompleted
}

// Complete applies the first successful outcome as version 1
func (m *Meeting) Complete(outcome BoardOutcome, by *uuid.UUID, at time.Time) error {
	if m.Status != MeetingStatusInProgress {
		return fmt.Errorf("%w: status is %s", ErrMeetingNotCompleted, m.Status)
	}
	if err := outcome.Validate(); err != nil {
		return err
	}
	m.apply(outcome, by, at)
	m.Status = MeetingStatusCompleted
	m.CompletedAt = &at
	return nil
}

// MarkFailed flags a meeting whose first deliberation failed
func (m *Meeting) MarkFailed() {
	m.Status = MeetingStatusFailed
	m.UpdatedAt = time.Now()
}

// Regenerate archives the current state and installs a fresh outcome.
// Follow-ups are replaced by the given list, which is stamped with the new version.
func (m *Meeting) Regenerate(outcome BoardOutcome, followUps []FollowUpQuestion, by *uuid.UUID, at time.Time) error {
	if !m.IsCompleted() {
		return fmt.Errorf("%w: status is %s", ErrMeetingNotCompleted, m.Status)
	}
	if err := outcome.Validate(); err != nil {
		return err
	}
	m.archive()
	m.apply(outcome, by, at)
	m.FollowUps = make([]FollowUpQuestion, 0, len(followUps))
	for _, fu := range followUps {
		fu.Version = m.CurrentVersion
		m.FollowUps = append(m.FollowUps, fu)
	}
	m.CompletedAt = &at
	return nil
}

// Restore archives the current state and copies version v into it.
// Restoring never rewrites history; it is a new version built from old content.
func (m *Meeting) Restore(version int, by *uuid.UUID, at time.Time) error {
	if !m.IsCompleted() {
		return fmt.Errorf("%w: status is %s", ErrMeetingNotCompleted, m.Status)
	}
	if version == m.CurrentVersion {
		return ErrRestoreCurrent
	}
	source, ok := m.archived(version)
	if !ok {
		return fmt.Errorf("%w: version %d", ErrVersionNotFound, version)
	}
	source = source.clone()

	m.archive()
	m.Opinions = source.Opinions
	m.ChairSummary = source.ChairSummary
	m.ChairRecommendation = source.ChairRecommendation
	m.FollowUps = filterFollowUps(source.FollowUps, version)
	m.GeneratedAt = &at
	m.GeneratedBy = by
	m.UpdatedAt = at
	return nil
}

// AddFollowUp appends a follow-up to the current version
func (m *Meeting) AddFollowUp(fu FollowUpQuestion) (FollowUpQuestion, error) {
	if !m.IsCompleted() {
		return FollowUpQuestion{}, fmt.Errorf("%w: status is %s", ErrMeetingNotCompleted, m.Status)
	}
	if fu.Question == "" {
		return FollowUpQuestion{}, ErrEmptyFollowUp
	}
	if fu.ID == uuid.Nil {
		fu.ID = uuid.New()
	}
	if fu.CreatedAt.IsZero() {
		fu.CreatedAt = time.Now()
	}
	fu.Version = m.CurrentVersion
	m.FollowUps = append(m.FollowUps, fu)
	m.UpdatedAt = time.Now()
	return fu, nil
}

// Snapshot returns the current state as an OpinionVersion
func (m *Meeting) Snapshot() OpinionVersion {
	v := OpinionVersion{
		Version:             m.CurrentVersion,
		Opinions:            m.Opinions,
		ChairSummary:        m.ChairSummary,
		ChairRecommendation: m.ChairRecommendation,
		FollowUps:           m.FollowUps,
		GeneratedBy:         m.GeneratedBy,
	}
	switch {
	case m.GeneratedAt != nil:
		v.GeneratedAt = *m.GeneratedAt
	case m.CompletedAt != nil:
		v.GeneratedAt = *m.CompletedAt
	default:
		v.GeneratedAt = m.CreatedAt
	}
	return v.clone()
}

// VersionSnapshot returns the snapshot for version v, current or archived,
// limited to the follow-ups that existed at that version.
func (m *Meeting) VersionSnapshot(version int) (OpinionVersion, bool) {
	if version == m.CurrentVersion {
		return m.Snapshot(), true
	}
	v, ok := m.archived(version)
	if !ok {
		return OpinionVersion{}, false
	}
	v = v.clone()
	v.FollowUps = filterFollowUps(v.FollowUps, version)
	return v, true
}

// History returns every archived version followed by the current one
func (m *Meeting) History() []OpinionVersion {
	out := make([]OpinionVersion, 0, len(m.OpinionHistory)+1)
	for _, v := range m.OpinionHistory {
		out = append(out, v.clone())
	}
	if m.IsCompleted() {
		out = append(out, m.Snapshot())
	}
	return out
}

// Attachment returns the attached file with the given id
func (m *Meeting) Attachment(fileID uuid.UUID) (AttachedFile, bool) {
	for _, f := range m.AttachedFiles {
		if f.ID == fileID {
			return f, true
		}
	}
	return AttachedFile{}, false
}

// AttachFile records a new attachment on the meeting
func (m *Meeting) AttachFile(f AttachedFile) {
	m.AttachedFiles = append(m.AttachedFiles, f)
	m.UpdatedAt = time.Now()
}

// RemoveFile drops an attachment and returns it
func (m *Meeting) RemoveFile(fileID uuid.UUID) (AttachedFile, error) {
	for i, f := range m.AttachedFiles {
		if f.ID == fileID {
			m.AttachedFiles = slices.Delete(slices.Clone(m.AttachedFiles), i, i+1)
			m.UpdatedAt = time.Now()
			return f, nil
		}
	}
	return AttachedFile{}, ErrAttachmentNotFound
}

// Clone returns a deep copy safe to mutate without touching m
func (m *Meeting) Clone() *Meeting {
	c := *m
	c.Opinions = slices.Clone(m.Opinions)
	c.FollowUps = slices.Clone(m.FollowUps)
	c.AttachedFiles = slices.Clone(m.AttachedFiles)
	c.DiagnosticLog = slices.Clone(m.DiagnosticLog)
	c.OpinionHistory = make([]OpinionVersion, len(m.OpinionHistory))
	for i, v := range m.OpinionHistory {
		c.OpinionHistory[i] = v.clone()
	}
	return &c
}

// VersionConsistent reports whether CurrentVersion matches the history length
func (m *Meeting) VersionConsistent() bool {
	return m.CurrentVersion == len(m.OpinionHistory)+1
}

func (m *Meeting) archive() {
	m.OpinionHistory = append(m.OpinionHistory, m.Snapshot())
	m.CurrentVersion = len(m.OpinionHistory) + 1
}

func (m *Meeting) apply(outcome BoardOutcome, by *uuid.UUID, at time.Time) {
	m.Opinions = slices.Clone(outcome.Opinions)
	m.ChairSummary = outcome.ChairSummary
	m.ChairRecommendation = outcome.ChairRecommendation
	m.TotalTokensUsed += outcome.TokensUsed
	m.GeneratedAt = &at
	m.GeneratedBy = by
	m.UpdatedAt = at
}

func (m *Meeting) archived(version int) (OpinionVersion, bool) {
	for _, v := range m.OpinionHistory {
		if v.Version == version {
			return v, true
		}
	}
	return OpinionVersion{}, false
}

func filterFollowUps(in []FollowUpQuestion, version int) []FollowUpQuestion {
	out := make([]FollowUpQuestion, 0, len(in))
	for _, fu := range in {
		if fu.Version <= version {
			out = append(out, fu)
		}
	}
	return out
}
