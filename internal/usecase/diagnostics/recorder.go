package diagnostics

import (
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/internal/infrastructure/metrics"
)

// Source identifies who emitted an entry
type Source struct {
	ID   string
	Name string
}

// System is the source for entries not tied to an agent
var System = Source{ID: entities.SystemSource, Name: "Meeting System"}

// AgentSource builds a source from an agent record
func AgentSource(a *entities.Agent) Source {
	return Source{ID: a.ID.String(), Name: a.Name}
}

// Recorder is a process-wide, per-meeting append-only event buffer.
// Entries stay pending until Drain hands them to storage.
type Recorder struct {
	mu      sync.Mutex
	seq     int64
	pending map[uuid.UUID][]entities.DiagnosticLogEntry
	logger  *zap.Logger
	now     func() time.Time
}

// NewRecorder creates a recorder mirroring entries to logger
func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		pending: make(map[uuid.UUID][]entities.DiagnosticLogEntry),
		logger:  logger,
		now:     time.Now,
	}
}

// Info records an info entry
func (r *Recorder) Info(meetingID uuid.UUID, src Source, message string, details map[string]interface{}) entities.DiagnosticLogEntry {
	return r.Record(meetingID, entities.LogLevelInfo, src, message, details)
}

// Warn records a warning entry
func (r *Recorder) Warn(meetingID uuid.UUID, src Source, message string, details map[string]interface{}) entities.DiagnosticLogEntry {
	return r.Record(meetingID, entities.LogLevelWarning, src, message, details)
}

// Error records an error entry
func (r *Recorder) Error(meetingID uuid.UUID, src Source, message string, details map[string]interface{}) entities.DiagnosticLogEntry {
	return r.Record(meetingID, entities.LogLevelError, src, message, details)
}

// Record appends an entry. Safe for concurrent use by fan-out tasks.
func (r *Recorder) Record(meetingID uuid.UUID, level entities.LogLevel, src Source, message string, details map[string]interface{}) entities.DiagnosticLogEntry {
	entry := entities.DiagnosticLogEntry{
		ID:        uuid.New(),
		MeetingID: meetingID,
		Level:     level,
		AgentID:   src.ID,
		AgentName: src.Name,
		Message:   message,
	}
	if len(details) > 0 {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = datatypes.JSON(raw)
		} else {
			r.logger.Warn("diagnostic details not serializable", zap.Error(err))
		}
	}

	r.mu.Lock()
	r.seq++
	entry.Sequence = r.seq
	entry.Timestamp = r.now()
	r.pending[meetingID] = append(r.pending[meetingID], entry)
	r.mu.Unlock()

	metrics.DiagnosticEntries.WithLabelValues(string(level)).Inc()
	r.mirror(entry)
	return entry
}

// Pending returns a chronological copy of entries not yet drained
func (r *Recorder) Pending(meetingID uuid.UUID) []entities.DiagnosticLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.pending[meetingID])
}

// Drain removes and returns the pending entries of a meeting
func (r *Recorder) Drain(meetingID uuid.UUID) []entities.DiagnosticLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.pending[meetingID]
	delete(r.pending, meetingID)
	return entries
}

// Discard drops pending entries, used when a meeting is deleted
func (r *Recorder) Discard(meetingID uuid.UUID) {
	r.mu.Lock()
	delete(r.pending, meetingID)
	r.mu.Unlock()
}

// Restore puts entries back in front of the pending buffer after a failed flush
func (r *Recorder) Restore(meetingID uuid.UUID, entries []entities.DiagnosticLogEntry) {
	if len(entries) == 0 {
		return
	}
	r.mu.Lock()
	r.pending[meetingID] = append(slices.Clone(entries), r.pending[meetingID]...)
	r.mu.Unlock()
}

func (r *Recorder) mirror(e entities.DiagnosticLogEntry) {
	fields := []zap.Field{
		zap.String("meeting_id", e.MeetingID.String()),
		zap.String("agent_id", e.AgentID),
		zap.String("agent_name", e.AgentName),
	}
	if len(e.Details) > 0 {
		fields = append(fields, zap.ByteString("details", e.Details))
	}
	switch e.Level {
	case entities.LogLevelError:
		r.logger.Error(e.Message, fields...)
	case entities.LogLevelWarning:
		r.logger.Warn(e.Message, fields...)
	default:
		r.logger.Info(e.Message, fields...)
	}
}

// NewestFirst merges entry sets and orders them for operator display
func NewestFirst(sets ...[]entities.DiagnosticLogEntry) []entities.DiagnosticLogEntry {
	var out []entities.DiagnosticLogEntry
	seen := make(map[uuid.UUID]struct{})
	for _, set := range sets {
		for _, e := range set {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b entities.DiagnosticLogEntry) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		switch {
		case a.Sequence > b.Sequence:
			return -1
		case a.Sequence < b.Sequence:
			return 1
		}
		return 0
	})
	return out
}
