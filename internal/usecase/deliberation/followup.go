package deliberation

import (
	"context"
	"fmt"
	"strings"
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

// Answer is the chair's reply to a follow-up question
type Answer struct {
	Text       string
	Model      string
	TokensUsed int
}

// FollowUpProcessor answers follow-up questions with a single chair call.
// Agents are never consulted again.
type FollowUpProcessor struct {
	client   ai.ReasoningClient
	recorder *diagnostics.Recorder
	usage    usage.Reporter
	logger   *zap.Logger
}

// NewFollowUpProcessor creates a follow-up processor
func NewFollowUpProcessor(client ai.ReasoningClient, recorder *diagnostics.Recorder, reporter usage.Reporter, logger *zap.Logger) *FollowUpProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = usage.NopReporter{}
	}
	return &FollowUpProcessor{client: client, recorder: recorder, usage: reporter, logger: logger}
}

// Answer asks the chair the question against the fixed discussion context
func (p *FollowUpProcessor) Answer(ctx context.Context, meetingID uuid.UUID, chair *entities.Chair, fc FollowUpContext, question string, settings Settings) (*Answer, error) {
	start := time.Now()
	src := chairSource(chair)

	req := ai.CompletionRequest{
		Model:               chair.Model,
		SystemPrompt:        followUpSystemPrompt(chair),
		Content:             []ai.ContentBlock{ai.TextBlock(followUpContent(fc, question))},
		MaxCompletionTokens: settings.ChairMaxTokens,
		Temperature:         settings.Temperature,
	}

	completion, err := p.client.Complete(ctx, req)
	if err == nil && strings.TrimSpace(completion.Text) == "" {
		err = &ai.ProviderError{Kind: ai.ErrorKindBadResponse, Message: errEmptyResponse.Error(), Err: errEmptyResponse}
	}
	if err != nil {
		metrics.ChairSyntheses.WithLabelValues("follow_up", "error").Inc()
		details := providerDetails(err)
		details["model"] = chair.Model
		details["question"] = question
		p.recorder.Error(meetingID, src, "Chair failed to answer a follow-up question", details)
		return nil, &usecaseErrors.DeliberationError{Stage: "follow_up", Reason: "chair did not answer", Err: fmt.Errorf("%s: %w", chair.Name, err)}
	}
	if completion.Model == "" {
		completion.Model = chair.Model
	}

	p.usage.Report(ctx, usage.Event{
		MeetingID:        meetingID,
		AgentName:        chair.Name,
		AgentRole:        chairFollowUpRole,
		Model:            completion.Model,
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
	})

	metrics.ChairSyntheses.WithLabelValues("follow_up", "success").Inc()
	p.recorder.Info(meetingID, src, "Chair answered a follow-up question", map[string]interface{}{
		"model":       completion.Model,
		"tokens_used": completion.TotalTokens(),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return &Answer{
		Text:       strings.TrimSpace(completion.Text),
		Model:      completion.Model,
		TokensUsed: completion.TotalTokens(),
	}, nil
}
