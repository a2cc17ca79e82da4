package deliberation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/internal/infrastructure/metrics"
	"github.com/johnquangdev/boardroom/internal/usecase/diagnostics"
	usecaseErrors "github.com/johnquangdev/boardroom/internal/usecase/errors"
	"github.com/johnquangdev/boardroom/internal/usecase/usage"
	"github.com/johnquangdev/boardroom/pkg/ai"
)

const (
	chairRole         = "Chair of the Board"
	chairFollowUpRole = "Chair of the Board (Follow-up)"
)

// Synthesis is the chair's merged view of the board's opinions
type Synthesis struct {
	Summary        string
	Recommendation string
	Model          string
	TokensUsed     int
}

// ChairStage runs the synthesis call that follows a fan-out
type ChairStage struct {
	client   ai.ReasoningClient
	parser   *Parser
	recorder *diagnostics.Recorder
	usage    usage.Reporter
	logger   *zap.Logger
}

// NewChairStage creates the synthesis stage
func NewChairStage(client ai.ReasoningClient, recorder *diagnostics.Recorder, reporter usage.Reporter, logger *zap.Logger) *ChairStage {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = usage.NopReporter{}
	}
	return &ChairStage{client: client, parser: NewParser(), recorder: recorder, usage: reporter, logger: logger}
}

// chairSource identifies the chair in diagnostics
func chairSource(chair *entities.Chair) diagnostics.Source {
	return diagnostics.Source{ID: "chair", Name: chair.Name}
}

// Synthesize merges the opinions, which must already be in hire order. Any
// provider failure or a response lacking summary or recommendation is a
// DeliberationError at the chair stage.
func (c *ChairStage) Synthesize(ctx context.Context, meetingID uuid.UUID, chair *entities.Chair, brief Brief, opinions []entities.AgentOpinion, settings Settings) (*Synthesis, error) {
	start := time.Now()
	src := chairSource(chair)

	req := ai.CompletionRequest{
		Model:               chair.Model,
		SystemPrompt:        chairSystemPrompt(chair),
		Content:             chairContent(brief, opinions, settings.DocumentCharLimit),
		MaxCompletionTokens: settings.ChairMaxTokens,
		JSONMode:            ai.SupportsJSONMode(chair.Model),
		Temperature:         settings.Temperature,
	}

	completion, err := c.client.Complete(ctx, req)
	if err != nil {
		return nil, c.fail(meetingID, src, chair, "Chair failed to synthesize the board's opinions", err)
	}
	if completion.Model == "" {
		completion.Model = chair.Model
	}

	c.usage.Report(ctx, usage.Event{
		MeetingID:        meetingID,
		AgentName:        chair.Name,
		AgentRole:        chairRole,
		Model:            completion.Model,
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
	})

	parsed, err := c.parser.ParseSynthesis(completion.Text)
	if err != nil {
		perr := &ai.ProviderError{Kind: ai.ErrorKindBadResponse, Message: err.Error(), Err: err}
		return nil, c.fail(meetingID, src, chair, "Chair returned an incomplete synthesis", perr)
	}

	metrics.ChairSyntheses.WithLabelValues("synthesis", "success").Inc()
	c.recorder.Info(meetingID, src, "Chair synthesized the board's opinions", map[string]interface{}{
		"model":       completion.Model,
		"opinions":    len(opinions),
		"documents":   len(brief.Documents),
		"tokens_used": completion.TotalTokens(),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return &Synthesis{
		Summary:        parsed.Summary,
		Recommendation: parsed.Recommendation,
		Model:          completion.Model,
		TokensUsed:     completion.TotalTokens(),
	}, nil
}

func (c *ChairStage) fail(meetingID uuid.UUID, src diagnostics.Source, chair *entities.Chair, message string, err error) error {
	metrics.ChairSyntheses.WithLabelValues("synthesis", "error").Inc()
	details := providerDetails(err)
	details["model"] = chair.Model
	c.recorder.Error(meetingID, src, message, details)
	return &usecaseErrors.DeliberationError{Stage: "chair", Reason: "synthesis failed", Err: fmt.Errorf("%s: %w", chair.Name, err)}
}
