package deliberation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/internal/infrastructure/metrics"
	"github.com/johnquangdev/boardroom/internal/usecase/diagnostics"
	usecaseErrors "github.com/johnquangdev/boardroom/internal/usecase/errors"
)

// FanOutResult is the settled outcome of one fan-out, opinions in hire order
type FanOutResult struct {
	Opinions   []entities.AgentOpinion
	Failed     int
	TimedOut   int
	TokensUsed int
}

// Orchestrator runs every hired agent concurrently under one deadline
type Orchestrator struct {
	task     *OpinionTask
	recorder *diagnostics.Recorder
	logger   *zap.Logger
}

// NewOrchestrator creates a fan-out orchestrator
func NewOrchestrator(task *OpinionTask, recorder *diagnostics.Recorder, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{task: task, recorder: recorder, logger: logger}
}

// Run starts one task per agent and waits until all have settled or the
// fan-out deadline passes. Tasks still outstanding at the deadline count as
// failed and get an error entry; their goroutines finish on their own and
// their results are discarded. A fan-out where no agent succeeds returns a
// DeliberationError.
func (o *Orchestrator) Run(ctx context.Context, meetingID uuid.UUID, agents []*entities.Agent, brief Brief, settings Settings) (*FanOutResult, error) {
	n := len(agents)
	if n == 0 {
		return nil, &usecaseErrors.DeliberationError{Stage: "fanout", Reason: "no agents hired", Err: usecaseErrors.ErrNoAgentsHired}
	}

	start := time.Now()
	fanCtx, cancel := context.WithTimeout(ctx, settings.FanOutTimeout)
	defer cancel()

	o.recorder.Info(meetingID, diagnostics.System, fmt.Sprintf("Consulting %d board members", n), map[string]interface{}{
		"agents":     n,
		"timeout_ms": settings.FanOutTimeout.Milliseconds(),
	})

	// Capacity n so a send never blocks, even after the collector has left.
	results := make(chan TaskResult, n)
	var (
		mu        sync.Mutex
		abandoned bool
	)

	for i, agent := range agents {
		in := TaskInput{MeetingID: meetingID, Index: i, Agent: agent, Brief: brief, Settings: settings}
		go func() {
			res := o.task.execute(fanCtx, in)
			mu.Lock()
			defer mu.Unlock()
			if abandoned {
				return
			}
			o.task.record(meetingID, res)
			results <- res
		}()
	}

	slots := make([]*TaskResult, n)
	settled := 0
collect:
	for settled < n {
		select {
		case res := <-results:
			slots[res.Index] = &res
			settled++
		case <-fanCtx.Done():
			break collect
		}
	}

	timedOut := 0
	if settled < n {
		mu.Lock()
		abandoned = true
	drain:
		for {
			select {
			case res := <-results:
				slots[res.Index] = &res
				settled++
			default:
				break drain
			}
		}
		waited := time.Since(start)
		for i, slot := range slots {
			if slot == nil {
				timedOut++
				o.task.recordTimeout(meetingID, agents[i], waited)
			}
		}
		mu.Unlock()
	}

	out := &FanOutResult{TimedOut: timedOut}
	var firstErr error
	for i, slot := range slots {
		switch {
		case slot == nil:
			out.Failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", agents[i].Name, context.DeadlineExceeded)
			}
		case slot.Err != nil:
			out.Failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", slot.Agent.Name, slot.Err)
			}
		default:
			out.Opinions = append(out.Opinions, *slot.Opinion)
			out.TokensUsed += slot.Opinion.TokensUsed
		}
	}
	metrics.FanOutFailures.Observe(float64(out.Failed))

	o.logger.Info("fan-out settled",
		zap.String("meeting_id", meetingID.String()),
		zap.Int("agents", n),
		zap.Int("succeeded", len(out.Opinions)),
		zap.Int("failed", out.Failed),
		zap.Int("timed_out", out.TimedOut),
		zap.Duration("elapsed", time.Since(start)),
	)

	if len(out.Opinions) == 0 {
		o.recorder.Error(meetingID, diagnostics.System, "No board member delivered an opinion", map[string]interface{}{
			"agents":    n,
			"timed_out": timedOut,
		})
		return nil, &usecaseErrors.DeliberationError{
			Stage:  "fanout",
			Reason: fmt.Sprintf("all %d agents failed", n),
			Err:    firstErr,
		}
	}
	if out.Failed > 0 {
		o.recorder.Warn(meetingID, diagnostics.System, fmt.Sprintf("%d of %d board members failed", out.Failed, n), map[string]interface{}{
			"succeeded": len(out.Opinions),
			"failed":    out.Failed,
			"timed_out": timedOut,
		})
	}
	return out, nil
}
