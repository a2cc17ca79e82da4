package deliberation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/internal/infrastructure/metrics"
	"github.com/johnquangdev/boardroom/internal/usecase/diagnostics"
	"github.com/johnquangdev/boardroom/internal/usecase/usage"
	"github.com/johnquangdev/boardroom/pkg/ai"
)

// TaskInput is everything one agent needs to produce an opinion
type TaskInput struct {
	MeetingID uuid.UUID
	Index     int // hire position, used to order results
	Agent     *entities.Agent
	Brief     Brief
	Settings  Settings
}

// TaskResult is the tagged outcome of one agent task. Exactly one of
// Opinion and Err is set.
type TaskResult struct {
	Index    int
	Agent    *entities.Agent
	Opinion  *entities.AgentOpinion
	Err      error
	Duration time.Duration
}

// OpinionTask asks one agent for its opinion
type OpinionTask struct {
	client   ai.ReasoningClient
	parser   *Parser
	recorder *diagnostics.Recorder
	usage    usage.Reporter
	logger   *zap.Logger
	now      func() time.Time
}

// NewOpinionTask creates an opinion task runner
func NewOpinionTask(client ai.ReasoningClient, recorder *diagnostics.Recorder, reporter usage.Reporter, logger *zap.Logger) *OpinionTask {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = usage.NopReporter{}
	}
	return &OpinionTask{
		client:   client,
		parser:   NewParser(),
		recorder: recorder,
		usage:    reporter,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes the task and records its diagnostic entry. It never returns
// an error directly; failures are carried in the result.
func (t *OpinionTask) Run(ctx context.Context, in TaskInput) TaskResult {
	res := t.execute(ctx, in)
	t.record(in.MeetingID, res)
	return res
}

// execute calls the provider and parses the answer without recording anything
func (t *OpinionTask) execute(ctx context.Context, in TaskInput) (res TaskResult) {
	start := t.now()
	res = TaskResult{Index: in.Index, Agent: in.Agent}
	defer func() {
		// provider panics become task failures
		if r := recover(); r != nil {
			res.Opinion = nil
			res.Err = fmt.Errorf("opinion task panicked: %v", r)
		}
	}()

	model := in.Agent.Model
	if model == "" {
		model = entities.DefaultModel
	}

	req := ai.CompletionRequest{
		Model:               model,
		SystemPrompt:        agentSystemPrompt(in.Agent),
		Content:             agentContent(in.Agent, in.Brief, in.Settings.DocumentCharLimit),
		MaxCompletionTokens: in.Settings.AgentMaxTokens,
		JSONMode:            ai.SupportsJSONMode(model),
		Temperature:         in.Settings.Temperature,
	}

	completion, err := t.client.Complete(ctx, req)
	res.Duration = t.now().Sub(start)
	if err != nil {
		res.Err = err
		return res
	}

	if completion.Model == "" {
		completion.Model = model
	}

	agentID := in.Agent.ID
	t.usage.Report(ctx, usage.Event{
		MeetingID:        in.MeetingID,
		AgentID:          &agentID,
		AgentName:        in.Agent.Name,
		AgentRole:        in.Agent.Role,
		Model:            completion.Model,
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
	})

	parsed, err := t.parser.ParseOpinion(completion.Text)
	if err != nil {
		res.Err = &ai.ProviderError{Kind: ai.ErrorKindBadResponse, Message: err.Error(), Err: err}
		return res
	}

	res.Opinion = &entities.AgentOpinion{
		AgentID:        in.Agent.ID,
		AgentName:      in.Agent.Name,
		AgentRole:      in.Agent.Role,
		Opinion:        parsed.Opinion,
		Reasoning:      parsed.Reasoning,
		Confidence:     parsed.Confidence,
		WeightsApplied: in.Agent.Weights,
		ModelUsed:      completion.Model,
		TokensUsed:     completion.TotalTokens(),
		Timestamp:      t.now(),
	}
	return res
}

// record emits the single diagnostic entry for a settled task
func (t *OpinionTask) record(meetingID uuid.UUID, res TaskResult) {
	model := res.Agent.Model
	if res.Opinion != nil {
		model = res.Opinion.ModelUsed
	}
	metrics.AgentOpinionDuration.WithLabelValues(model).Observe(float64(res.Duration.Milliseconds()))

	src := diagnostics.AgentSource(res.Agent)
	if res.Err != nil {
		metrics.AgentOpinions.WithLabelValues(model, "error").Inc()
		details := providerDetails(res.Err)
		details["model"] = model
		details["duration_ms"] = res.Duration.Milliseconds()
		t.recorder.Error(meetingID, src, fmt.Sprintf("%s failed to deliver an opinion", res.Agent.Name), details)
		return
	}

	metrics.AgentOpinions.WithLabelValues(model, "success").Inc()
	t.recorder.Info(meetingID, src, fmt.Sprintf("%s delivered an opinion", res.Agent.Name), map[string]interface{}{
		"model":       model,
		"tokens_used": res.Opinion.TokensUsed,
		"confidence":  res.Opinion.Confidence,
		"duration_ms": res.Duration.Milliseconds(),
	})
}

// recordTimeout emits the diagnostic entry for a task abandoned at the deadline
func (t *OpinionTask) recordTimeout(meetingID uuid.UUID, agent *entities.Agent, waited time.Duration) {
	metrics.AgentOpinions.WithLabelValues(agent.Model, "timeout").Inc()
	metrics.ProviderErrors.WithLabelValues(string(ai.ErrorKindTimeout)).Inc()
	t.recorder.Error(meetingID, diagnostics.AgentSource(agent), fmt.Sprintf("%s did not answer before the deadline", agent.Name), map[string]interface{}{
		"kind":        string(ai.ErrorKindTimeout),
		"model":       agent.Model,
		"duration_ms": waited.Milliseconds(),
	})
}

// providerDetails builds the structured detail payload for a failed call
func providerDetails(err error) map[string]interface{} {
	details := map[string]interface{}{"error": err.Error()}

	var perr *ai.ProviderError
	switch {
	case errors.As(err, &perr):
		details["kind"] = string(perr.Kind)
		if perr.StatusCode != 0 {
			details["status_code"] = perr.StatusCode
		}
		metrics.ProviderErrors.WithLabelValues(string(perr.Kind)).Inc()
	case errors.Is(err, context.DeadlineExceeded):
		details["kind"] = string(ai.ErrorKindTimeout)
		metrics.ProviderErrors.WithLabelValues(string(ai.ErrorKindTimeout)).Inc()
	default:
		details["kind"] = string(ai.ErrorKindUnknown)
		metrics.ProviderErrors.WithLabelValues(string(ai.ErrorKindUnknown)).Inc()
	}
	return details
}
