package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Deliberation metrics
	DeliberationsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardroom_deliberations_started_total",
			Help: "Total number of deliberation operations started",
		},
		[]string{"operation"},
	)

	DeliberationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardroom_deliberations_completed_total",
			Help: "Total number of deliberation operations finished",
		},
		[]string{"operation", "status"},
	)

	DeliberationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boardroom_deliberation_duration_seconds",
			Help:    "Deliberation operation duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"operation"},
	)

	// Agent metrics
	AgentOpinions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardroom_agent_opinions_total",
			Help: "Agent opinion tasks by outcome",
		},
		[]string{"model", "status"},
	)

	AgentOpinionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boardroom_agent_opinion_duration_ms",
			Help:    "Agent opinion task duration in milliseconds",
			Buckets: []float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
		},
		[]string{"model"},
	)

	FanOutFailures = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "boardroom_fanout_failed_agents",
			Help:    "Number of failed agents per fan-out",
			Buckets: []float64{0, 1, 2, 3, 5, 8},
		},
	)

	ChairSyntheses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardroom_chair_calls_total",
			Help: "Chair synthesis and follow-up calls by outcome",
		},
		[]string{"kind", "status"},
	)

	// Provider metrics
	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardroom_provider_errors_total",
			Help: "Reasoning provider errors by kind",
		},
		[]string{"kind"},
	)

	TokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardroom_tokens_total",
			Help: "Tokens consumed by successful provider calls",
		},
		[]string{"model", "type"},
	)

	// Diagnostics metrics
	DiagnosticEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardroom_diagnostic_entries_total",
			Help: "Diagnostic log entries recorded by level",
		},
		[]string{"level"},
	)

	// Lock metrics
	MeetingLockContention = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "boardroom_meeting_lock_contention_total",
			Help: "Operations rejected because the meeting was busy",
		},
	)
)

// RecordTokens adds prompt and completion token counts for a model
func RecordTokens(model string, prompt, completion int) {
	TokensUsed.WithLabelValues(model, "prompt").Add(float64(prompt))
	TokensUsed.WithLabelValues(model, "completion").Add(float64(completion))
}
