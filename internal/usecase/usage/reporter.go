package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/internal/domain/repositories"
	"github.com/johnquangdev/boardroom/internal/infrastructure/metrics"
	"github.com/johnquangdev/boardroom/pkg/opcontext"
)

// Event describes one successful reasoning provider call
type Event struct {
	MeetingID        uuid.UUID
	UserID           uuid.UUID
	AgentID          *uuid.UUID
	AgentName        string
	AgentRole        string
	Operation        string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Reporter hands usage events to the external aggregator. Implementations
// must not fail the caller.
type Reporter interface {
	Report(ctx context.Context, e Event)
}

// StoreReporter persists usage rows and updates token counters
type StoreReporter struct {
	repo    repositories.UsageRepository
	logger  *zap.Logger
	timeout time.Duration
}

// NewStoreReporter creates a reporter backed by the usage repository
func NewStoreReporter(repo repositories.UsageRepository, logger *zap.Logger) *StoreReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreReporter{repo: repo, logger: logger, timeout: 5 * time.Second}
}

// Report records the event. Missing meeting, user or operation fields are
// filled from the operation context.
func (r *StoreReporter) Report(ctx context.Context, e Event) {
	md := opcontext.GetMetadata(ctx)
	if e.MeetingID == uuid.Nil {
		e.MeetingID = md.MeetingID
	}
	if e.UserID == uuid.Nil {
		e.UserID = md.OwnerID
	}
	if e.Operation == "" {
		e.Operation = md.Operation
	}

	metrics.RecordTokens(e.Model, e.PromptTokens, e.CompletionTokens)

	if r.repo == nil {
		return
	}

	// The fan-out deadline may already have fired; usage still has to land.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	row := &entities.TokenUsage{
		ID:               uuid.New(),
		MeetingID:        e.MeetingID,
		UserID:           e.UserID,
		AgentID:          e.AgentID,
		AgentName:        e.AgentName,
		AgentRole:        e.AgentRole,
		Operation:        e.Operation,
		Model:            e.Model,
		PromptTokens:     e.PromptTokens,
		CompletionTokens: e.CompletionTokens,
		TotalTokens:      e.PromptTokens + e.CompletionTokens,
	}
	if err := r.repo.Record(storeCtx, row); err != nil {
		r.logger.Warn("failed to record token usage",
			zap.String("meeting_id", e.MeetingID.String()),
			zap.String("agent_name", e.AgentName),
			zap.String("model", e.Model),
			zap.Error(err),
		)
	}
}

// NopReporter discards events
type NopReporter struct{}

func (NopReporter) Report(context.Context, Event) {}
