package deliberation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/internal/domain/repositories"
	"github.com/johnquangdev/boardroom/internal/infrastructure/cache"
	"github.com/johnquangdev/boardroom/internal/infrastructure/metrics"
	"github.com/johnquangdev/boardroom/internal/infrastructure/storage"
	"github.com/johnquangdev/boardroom/internal/usecase/diagnostics"
	usecaseErrors "github.com/johnquangdev/boardroom/internal/usecase/errors"
	"github.com/johnquangdev/boardroom/internal/usecase/usage"
	"github.com/johnquangdev/boardroom/pkg/ai"
	"github.com/johnquangdev/boardroom/pkg/opcontext"
)

// ObjectStore keeps raw attachment bytes
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	RemoveObject(ctx context.Context, key string) error
	RemovePrefix(ctx context.Context, prefix string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Actor is the authenticated user calling an operation
type Actor struct {
	UserID uuid.UUID
	Admin  bool
}

// CreateInput represents input for creating a meeting
type CreateInput struct {
	Question string
	Context  *string
	Files    []FileUpload
}

// Dependencies wires the service
type Dependencies struct {
	Meetings  repositories.MeetingRepository
	Agents    repositories.AgentRepository
	Documents repositories.CompanyFileRepository // nil runs without company documents
	Client    ai.ReasoningClient
	Settings  SettingsSource
	Locker    cache.Locker
	Store     ObjectStore // nil keeps attachments on the meeting only
	Recorder  *diagnostics.Recorder
	Usage     usage.Reporter
	Logger    *zap.Logger
	LockTTL   time.Duration // lease of the meeting lock, refreshed while held
}

// DefaultLockTTL is the meeting lock lease when none is configured
const DefaultLockTTL = time.Minute

// Service is the version manager. It drives fan-out and synthesis for
// create and regenerate, and owns restore, follow-ups and attachments.
// Every mutating call holds the meeting lock and works on a copy that is
// only persisted on success.
type Service struct {
	meetings  repositories.MeetingRepository
	agents    repositories.AgentRepository
	documents repositories.CompanyFileRepository
	settings  SettingsSource
	locker    cache.Locker
	owned     *cache.MemoryStore // fallback locker created by NewService
	store     ObjectStore
	recorder  *diagnostics.Recorder
	fanout    *Orchestrator
	chair     *ChairStage
	followUp  *FollowUpProcessor
	logger    *zap.Logger
	lockTTL   time.Duration
	now       func() time.Time
}

// NewService creates the deliberation service
func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = diagnostics.NewRecorder(logger)
	}
	reporter := deps.Usage
	if reporter == nil {
		reporter = usage.NopReporter{}
	}
	locker := deps.Locker
	var owned *cache.MemoryStore
	if locker == nil {
		owned = cache.NewMemoryStore()
		locker = owned
	}
	lockTTL := deps.LockTTL
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}

	task := NewOpinionTask(deps.Client, recorder, reporter, logger)
	return &Service{
		meetings:  deps.Meetings,
		agents:    deps.Agents,
		documents: deps.Documents,
		settings:  deps.Settings,
		locker:    locker,
		owned:     owned,
		store:     deps.Store,
		recorder:  recorder,
		fanout:    NewOrchestrator(task, recorder, logger),
		chair:     NewChairStage(deps.Client, recorder, reporter, logger),
		followUp:  NewFollowUpProcessor(deps.Client, recorder, reporter, logger),
		logger:    logger,
		lockTTL:   lockTTL,
		now:       time.Now,
	}
}

// Close stops the in-memory locker NewService created when none was given
func (s *Service) Close() {
	if s.owned != nil {
		s.owned.Close()
	}
}

// Create runs the first deliberation for a new question. Configuration
// problems are rejected before anything is stored. A deliberation failure
// leaves the meeting persisted with status failed.
func (s *Service) Create(ctx context.Context, actor Actor, input CreateInput) (*entities.Meeting, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, usecaseErrors.ErrEmptyQuestion
	}
	var meetingCtx *string
	if input.Context != nil {
		if c := strings.TrimSpace(*input.Context); c != "" {
			meetingCtx = &c
		}
	}

	settings, chair, err := s.prepare(ctx)
	if err != nil {
		return nil, err
	}
	agents, err := s.hiredAgents(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	documents, err := s.companyDocuments(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	meeting := entities.NewMeeting(actor.UserID, question, meetingCtx)
	for _, up := range input.Files {
		f, err := s.storeAttachment(ctx, meeting.ID, up)
		if err != nil {
			s.removeObjects(ctx, meeting.ID)
			return nil, err
		}
		meeting.AttachFile(f)
	}

	release, err := s.lock(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.meetings.Create(ctx, meeting); err != nil {
		s.removeObjects(ctx, meeting.ID)
		return nil, &usecaseErrors.StoreError{Op: "create meeting", Err: err}
	}

	opCtx, cancel := s.begin(ctx, meeting, actor, opcontext.OpCreate)
	defer cancel()
	start := s.now()

	s.recorder.Info(meeting.ID, diagnostics.System, "Board meeting started", map[string]interface{}{
		"agents":            len(agents),
		"attachments":       len(meeting.AttachedFiles),
		"company_documents": len(documents),
	})

	outcome, err := s.deliberate(opCtx, meeting.ID, agents, chair, BriefFromMeeting(meeting, documents), settings)
	if err != nil {
		work := meeting.Clone()
		work.MarkFailed()
		if uerr := s.meetings.Update(opCtx, work); uerr != nil {
			s.logger.Error("failed to mark meeting failed", zap.String("meeting_id", meeting.ID.String()), zap.Error(uerr))
		}
		s.finish(opCtx, meeting.ID, opcontext.OpCreate, start, err)
		return nil, err
	}

	work := meeting.Clone()
	by := actor.UserID
	if err := work.Complete(outcome, &by, s.now()); err != nil {
		s.finish(opCtx, meeting.ID, opcontext.OpCreate, start, err)
		return nil, fmt.Errorf("failed to complete meeting: %w", err)
	}
	if err := s.meetings.Update(opCtx, work); err != nil {
		s.finish(opCtx, meeting.ID, opcontext.OpCreate, start, err)
		return nil, &usecaseErrors.StoreError{Op: "save meeting", Err: err}
	}

	s.recorder.Info(meeting.ID, diagnostics.System, "Board meeting completed", map[string]interface{}{
		"version":     work.CurrentVersion,
		"opinions":    len(work.Opinions),
		"tokens_used": outcome.TokensUsed,
	})
	s.finish(opCtx, meeting.ID, opcontext.OpCreate, start, nil)
	return work, nil
}

// Regenerate archives the current version and deliberates again with the
// current roster. On failure the stored meeting is unchanged.
func (s *Service) Regenerate(ctx context.Context, actor Actor, meetingID uuid.UUID) (*entities.Meeting, error) {
	if !actor.Admin {
		return nil, usecaseErrors.ErrForbidden
	}

	release, err := s.lock(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	defer release()

	meeting, err := s.load(ctx, actor, meetingID)
	if err != nil {
		return nil, err
	}
	if !meeting.IsCompleted() {
		return nil, s.reject(ctx, meeting.ID, opcontext.OpRegenerate, notCompleted(meeting))
	}

	settings, chair, err := s.prepare(ctx)
	if err != nil {
		return nil, err
	}
	agents, err := s.hiredAgents(ctx, meeting.OwnerID)
	if err != nil {
		return nil, err
	}
	documents, err := s.companyDocuments(ctx, meeting.OwnerID)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := s.begin(ctx, meeting, actor, opcontext.OpRegenerate)
	defer cancel()
	start := s.now()

	s.recorder.Info(meeting.ID, diagnostics.System, "Regenerating board opinions", map[string]interface{}{
		"from_version":      meeting.CurrentVersion,
		"agents":            len(agents),
		"company_documents": len(documents),
	})

	outcome, err := s.deliberate(opCtx, meeting.ID, agents, chair, BriefFromMeeting(meeting, documents), settings)
	if err != nil {
		s.finish(opCtx, meeting.ID, opcontext.OpRegenerate, start, err)
		return nil, err
	}

	var replayed []replayedFollowUp
	if settings.ReplayFollowUps {
		replayed = s.replayFollowUps(opCtx, meeting, chair, outcome, settings)
		for _, fu := range replayed {
			outcome.TokensUsed += fu.tokens
		}
	}

	work := meeting.Clone()
	by := actor.UserID
	if err := work.Regenerate(outcome, unwrapReplayed(replayed), &by, s.now()); err != nil {
		s.finish(opCtx, meeting.ID, opcontext.OpRegenerate, start, err)
		return nil, fmt.Errorf("failed to regenerate meeting: %w", err)
	}
	if err := s.meetings.Update(opCtx, work); err != nil {
		s.finish(opCtx, meeting.ID, opcontext.OpRegenerate, start, err)
		return nil, &usecaseErrors.StoreError{Op: "save meeting", Err: err}
	}

	s.recorder.Info(meeting.ID, diagnostics.System, fmt.Sprintf("Version %d generated", work.CurrentVersion), map[string]interface{}{
		"version":    work.CurrentVersion,
		"archived":   len(work.OpinionHistory),
		"opinions":   len(work.Opinions),
		"follow_ups": len(work.FollowUps),
	})
	s.finish(opCtx, meeting.ID, opcontext.OpRegenerate, start, nil)
	return work, nil
}

// Restore archives the current version and makes version's content current
// as a new version. History is never rewritten.
func (s *Service) Restore(ctx context.Context, actor Actor, meetingID uuid.UUID, version int) (*entities.Meeting, error) {
	if !actor.Admin {
		return nil, usecaseErrors.ErrForbidden
	}

	release, err := s.lock(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	defer release()

	meeting, err := s.load(ctx, actor, meetingID)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := s.begin(ctx, meeting, actor, opcontext.OpRestore)
	defer cancel()
	start := s.now()

	work := meeting.Clone()
	by := actor.UserID
	if err := work.Restore(version, &by, s.now()); err != nil {
		conflict := restoreConflict(meeting, version, err)
		s.recorder.Warn(meeting.ID, diagnostics.System, "Restore rejected", map[string]interface{}{
			"version": version,
			"reason":  conflict.Reason,
		})
		s.finish(opCtx, meeting.ID, opcontext.OpRestore, start, conflict)
		return nil, conflict
	}
	if err := s.meetings.Update(opCtx, work); err != nil {
		s.finish(opCtx, meeting.ID, opcontext.OpRestore, start, err)
		return nil, &usecaseErrors.StoreError{Op: "save meeting", Err: err}
	}

	s.recorder.Info(meeting.ID, diagnostics.System, fmt.Sprintf("Version %d restored as version %d", version, work.CurrentVersion), map[string]interface{}{
		"restored_version": version,
		"version":          work.CurrentVersion,
		"archived":         len(work.OpinionHistory),
	})
	s.finish(opCtx, meeting.ID, opcontext.OpRestore, start, nil)
	return work, nil
}

// AskFollowUp answers a follow-up with the chair and appends it to the
// current version.
func (s *Service) AskFollowUp(ctx context.Context, actor Actor, meetingID uuid.UUID, question string) (*entities.FollowUpQuestion, *entities.Meeting, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, nil, usecaseErrors.ErrEmptyQuestion
	}

	release, err := s.lock(ctx, meetingID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	meeting, err := s.load(ctx, actor, meetingID)
	if err != nil {
		return nil, nil, err
	}
	if !meeting.IsCompleted() {
		return nil, nil, s.reject(ctx, meeting.ID, opcontext.OpFollowUp, notCompleted(meeting))
	}

	settings, chair, err := s.prepare(ctx)
	if err != nil {
		return nil, nil, err
	}

	opCtx, cancel := s.begin(ctx, meeting, actor, opcontext.OpFollowUp)
	defer cancel()
	start := s.now()

	fc := FollowUpContext{
		Question:       meeting.Question,
		Recommendation: meeting.ChairRecommendation,
		Opinions:       meeting.Opinions,
		Prior:          meeting.FollowUps,
	}
	answer, err := s.followUp.Answer(opCtx, meeting.ID, chair, fc, question, settings)
	if err != nil {
		s.finish(opCtx, meeting.ID, opcontext.OpFollowUp, start, err)
		return nil, nil, err
	}

	work := meeting.Clone()
	fu, err := work.AddFollowUp(entities.FollowUpQuestion{
		Question:      question,
		ChairResponse: answer.Text,
		CreatedAt:     s.now(),
	})
	if err != nil {
		s.finish(opCtx, meeting.ID, opcontext.OpFollowUp, start, err)
		return nil, nil, fmt.Errorf("failed to add follow-up: %w", err)
	}
	work.TotalTokensUsed += answer.TokensUsed
	if err := s.meetings.Update(opCtx, work); err != nil {
		s.finish(opCtx, meeting.ID, opcontext.OpFollowUp, start, err)
		return nil, nil, &usecaseErrors.StoreError{Op: "save meeting", Err: err}
	}

	s.finish(opCtx, meeting.ID, opcontext.OpFollowUp, start, nil)
	return &fu, work, nil
}

// Get retrieves a meeting visible to the actor
func (s *Service) Get(ctx context.Context, actor Actor, meetingID uuid.UUID) (*entities.Meeting, error) {
	return s.load(ctx, actor, meetingID)
}

// List retrieves the actor's meetings newest-first. Admins see every meeting.
func (s *Service) List(ctx context.Context, actor Actor, limit, offset int) ([]*entities.Meeting, int64, error) {
	filters := repositories.MeetingFilters{Limit: limit, Offset: offset}
	if !actor.Admin {
		owner := actor.UserID
		filters.OwnerID = &owner
	}
	meetings, total, err := s.meetings.List(ctx, filters)
	if err != nil {
		return nil, 0, &usecaseErrors.StoreError{Op: "list meetings", Err: err}
	}
	return meetings, total, nil
}

// Delete removes a meeting, its diagnostics and its stored attachments
func (s *Service) Delete(ctx context.Context, actor Actor, meetingID uuid.UUID) error {
	release, err := s.lock(ctx, meetingID)
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.load(ctx, actor, meetingID); err != nil {
		return err
	}
	if err := s.meetings.Delete(ctx, meetingID); err != nil {
		if errors.Is(err, entities.ErrMeetingNotFound) {
			return usecaseErrors.ErrMeetingNotFound
		}
		return &usecaseErrors.StoreError{Op: "delete meeting", Err: err}
	}
	s.removeObjects(ctx, meetingID)
	s.recorder.Discard(meetingID)
	return nil
}

// History returns every archived version followed by the current one
func (s *Service) History(ctx context.Context, actor Actor, meetingID uuid.UUID) ([]entities.OpinionVersion, error) {
	meeting, err := s.load(ctx, actor, meetingID)
	if err != nil {
		return nil, err
	}
	return meeting.History(), nil
}

// Version returns one version, limited to the follow-ups that existed then
func (s *Service) Version(ctx context.Context, actor Actor, meetingID uuid.UUID, version int) (*entities.OpinionVersion, error) {
	meeting, err := s.load(ctx, actor, meetingID)
	if err != nil {
		return nil, err
	}
	if version == meeting.CurrentVersion && !meeting.IsCompleted() {
		return nil, usecaseErrors.ErrVersionNotFound
	}
	v, ok := meeting.VersionSnapshot(version)
	if !ok {
		return nil, usecaseErrors.ErrVersionNotFound
	}
	return &v, nil
}

// Diagnostics returns persisted and in-flight entries newest-first
func (s *Service) Diagnostics(ctx context.Context, actor Actor, meetingID uuid.UUID) ([]entities.DiagnosticLogEntry, error) {
	if _, err := s.load(ctx, actor, meetingID); err != nil {
		return nil, err
	}
	stored, err := s.meetings.ListDiagnostics(ctx, meetingID)
	if err != nil {
		return nil, &usecaseErrors.StoreError{Op: "list diagnostics", Err: err}
	}
	return diagnostics.NewestFirst(stored, s.recorder.Pending(meetingID)), nil
}

// AttachFile stores an upload and adds its extracted content to the meeting.
// The content is used by later regenerations.
func (s *Service) AttachFile(ctx context.Context, actor Actor, meetingID uuid.UUID, up FileUpload) (*entities.AttachedFile, error) {
	release, err := s.lock(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	defer release()

	meeting, err := s.load(ctx, actor, meetingID)
	if err != nil {
		return nil, err
	}

	f, err := s.storeAttachment(ctx, meeting.ID, up)
	if err != nil {
		return nil, err
	}

	work := meeting.Clone()
	work.AttachFile(f)
	if err := s.meetings.Update(ctx, work); err != nil {
		s.removeObject(ctx, f.ObjectKey)
		return nil, &usecaseErrors.StoreError{Op: "save meeting", Err: err}
	}

	s.recorder.Info(meeting.ID, diagnostics.System, fmt.Sprintf("Attached %s", f.Filename), map[string]interface{}{
		"file_id":      f.ID.String(),
		"content_type": f.ContentType,
		"kind":         string(f.Kind),
		"size":         f.Size,
		"truncated":    f.Truncated,
	})
	s.flush(ctx, meeting.ID)
	return &f, nil
}

// RemoveFile detaches a file and deletes its stored bytes
func (s *Service) RemoveFile(ctx context.Context, actor Actor, meetingID, fileID uuid.UUID) error {
	release, err := s.lock(ctx, meetingID)
	if err != nil {
		return err
	}
	defer release()

	meeting, err := s.load(ctx, actor, meetingID)
	if err != nil {
		return err
	}

	work := meeting.Clone()
	f, err := work.RemoveFile(fileID)
	if err != nil {
		return usecaseErrors.ErrAttachmentNotFound
	}
	if err := s.meetings.Update(ctx, work); err != nil {
		return &usecaseErrors.StoreError{Op: "save meeting", Err: err}
	}
	s.removeObject(ctx, f.ObjectKey)
	return nil
}

// FileURL returns a presigned download URL for an attachment
func (s *Service) FileURL(ctx context.Context, actor Actor, meetingID, fileID uuid.UUID, expiry time.Duration) (string, error) {
	meeting, err := s.load(ctx, actor, meetingID)
	if err != nil {
		return "", err
	}
	f, ok := meeting.Attachment(fileID)
	if !ok {
		return "", usecaseErrors.ErrAttachmentNotFound
	}
	if s.store == nil || f.ObjectKey == "" {
		return "", usecaseErrors.ErrStorageDisabled
	}
	return s.store.PresignedURL(ctx, f.ObjectKey, expiry)
}

// deliberate runs the fan-out then the chair over the successful opinions
func (s *Service) deliberate(ctx context.Context, meetingID uuid.UUID, agents []*entities.Agent, chair *entities.Chair, brief Brief, settings Settings) (entities.BoardOutcome, error) {
	fan, err := s.fanout.Run(ctx, meetingID, agents, brief, settings)
	if err != nil {
		return entities.BoardOutcome{}, err
	}

	synthesis, err := s.chair.Synthesize(ctx, meetingID, chair, brief, fan.Opinions, settings)
	if err != nil {
		return entities.BoardOutcome{}, err
	}

	return entities.BoardOutcome{
		Opinions:            fan.Opinions,
		ChairSummary:        synthesis.Summary,
		ChairRecommendation: synthesis.Recommendation,
		TokensUsed:          fan.TokensUsed + synthesis.TokensUsed,
	}, nil
}

type replayedFollowUp struct {
	entities.FollowUpQuestion
	tokens int
}

// replayFollowUps re-asks the current follow-ups against a new outcome, in
// order. A failed answer keeps the question with an empty response.
func (s *Service) replayFollowUps(ctx context.Context, meeting *entities.Meeting, chair *entities.Chair, outcome entities.BoardOutcome, settings Settings) []replayedFollowUp {
	if len(meeting.FollowUps) == 0 {
		return nil
	}

	fc := FollowUpContext{
		Question:       meeting.Question,
		Recommendation: outcome.ChairRecommendation,
		Opinions:       outcome.Opinions,
	}
	out := make([]replayedFollowUp, 0, len(meeting.FollowUps))
	for _, prev := range meeting.FollowUps {
		fu := replayedFollowUp{FollowUpQuestion: entities.FollowUpQuestion{
			ID:        uuid.New(),
			Question:  prev.Question,
			CreatedAt: s.now(),
		}}
		answer, err := s.followUp.Answer(ctx, meeting.ID, chair, fc, prev.Question, settings)
		if err == nil {
			fu.ChairResponse = answer.Text
			fu.tokens = answer.TokensUsed
		}
		fc.Prior = append(fc.Prior, fu.FollowUpQuestion)
		out = append(out, fu)
	}
	return out
}

func unwrapReplayed(in []replayedFollowUp) []entities.FollowUpQuestion {
	out := make([]entities.FollowUpQuestion, len(in))
	for i, fu := range in {
		out[i] = fu.FollowUpQuestion
	}
	return out
}

// prepare snapshots settings and resolves the chair before any provider call
func (s *Service) prepare(ctx context.Context) (Settings, *entities.Chair, error) {
	settings := s.settings.Settings()
	if err := settings.Validate(); err != nil {
		return Settings{}, nil, err
	}

	chair, err := s.agents.GetChair(ctx)
	switch {
	case errors.Is(err, entities.ErrChairNotConfigured):
		def := settings.DefaultChair
		chair = &def
	case err != nil:
		return Settings{}, nil, &usecaseErrors.StoreError{Op: "load chair", Err: err}
	}
	if chair.Name == "" {
		chair.Name = "Board Chair"
	}
	if err := chair.Validate(); err != nil {
		return Settings{}, nil, &usecaseErrors.ConfigurationError{Reason: err.Error()}
	}
	return settings, chair, nil
}

// hiredAgents loads the owner's active roster in hire order
func (s *Service) hiredAgents(ctx context.Context, ownerID uuid.UUID) ([]*entities.Agent, error) {
	agents, err := s.agents.ListHired(ctx, ownerID)
	if err != nil {
		return nil, &usecaseErrors.StoreError{Op: "load hired agents", Err: err}
	}
	if len(agents) == 0 {
		return nil, usecaseErrors.ErrNoAgentsHired
	}
	for _, a := range agents {
		if err := a.Validate(); err != nil {
			return nil, &usecaseErrors.ConfigurationError{Reason: err.Error()}
		}
	}
	return agents, nil
}

// companyDocuments loads the owner's reference documents, oldest first
func (s *Service) companyDocuments(ctx context.Context, ownerID uuid.UUID) ([]entities.CompanyFile, error) {
	if s.documents == nil {
		return nil, nil
	}
	docs, err := s.documents.ListByOwner(ctx, ownerID, entities.MaxCompanyFiles)
	if err != nil {
		return nil, &usecaseErrors.StoreError{Op: "load company documents", Err: err}
	}
	return docs, nil
}

// load fetches a meeting and checks the actor may see it
func (s *Service) load(ctx context.Context, actor Actor, meetingID uuid.UUID) (*entities.Meeting, error) {
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, entities.ErrMeetingNotFound) {
			return nil, usecaseErrors.ErrMeetingNotFound
		}
		return nil, &usecaseErrors.StoreError{Op: "get meeting", Err: err}
	}
	if !actor.Admin && meeting.OwnerID != actor.UserID {
		return nil, usecaseErrors.ErrMeetingNotFound
	}
	return meeting, nil
}

// lock takes the per-meeting lock or reports the meeting as busy
func (s *Service) lock(ctx context.Context, meetingID uuid.UUID) (func(), error) {
	release, err := s.locker.Acquire(ctx, cache.MeetingLockKey(meetingID.String()), s.lockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			metrics.MeetingLockContention.Inc()
			return nil, &usecaseErrors.StateConflictError{
				MeetingID: meetingID.String(),
				Reason:    "meeting is busy",
				Err:       usecaseErrors.ErrMeetingBusy,
			}
		}
		return nil, fmt.Errorf("%w: %w", usecaseErrors.ErrLockUnavailable, err)
	}
	return release, nil
}

// begin detaches the operation from the caller's cancellation and tags it
// with meeting metadata. The fan-out deadline is the only cancellation.
func (s *Service) begin(ctx context.Context, meeting *entities.Meeting, actor Actor, op string) (context.Context, context.CancelFunc) {
	metrics.DeliberationsStarted.WithLabelValues(op).Inc()
	return opcontext.Begin(context.WithoutCancel(ctx), opcontext.Metadata{
		MeetingID: meeting.ID,
		Operation: op,
		ActorID:   actor.UserID,
		OwnerID:   meeting.OwnerID,
	}, 0)
}

// finish records metrics and logs, then persists pending diagnostics
func (s *Service) finish(ctx context.Context, meetingID uuid.UUID, op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DeliberationsCompleted.WithLabelValues(op, status).Inc()
	metrics.DeliberationDuration.WithLabelValues(op).Observe(s.now().Sub(start).Seconds())

	fields := []zap.Field{
		zap.String("meeting_id", meetingID.String()),
		zap.String("operation", op),
		zap.Duration("elapsed", opcontext.Elapsed(ctx)),
	}
	if err != nil {
		s.logger.Warn("deliberation operation failed", append(fields, zap.Error(err))...)
	} else {
		s.logger.Info("deliberation operation finished", fields...)
	}
	s.flush(ctx, meetingID)
}

// reject records a state conflict and persists the diagnostic
func (s *Service) reject(ctx context.Context, meetingID uuid.UUID, op string, err *usecaseErrors.StateConflictError) error {
	s.recorder.Warn(meetingID, diagnostics.System, "Operation rejected", map[string]interface{}{
		"operation": op,
		"reason":    err.Reason,
	})
	s.flush(ctx, meetingID)
	return err
}

// flush moves pending diagnostics to storage. Entries are put back when
// the write fails so a later flush can retry them.
func (s *Service) flush(ctx context.Context, meetingID uuid.UUID) {
	entries := s.recorder.Drain(meetingID)
	if len(entries) == 0 {
		return
	}
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.meetings.AppendDiagnostics(storeCtx, entries); err != nil {
		s.recorder.Restore(meetingID, entries)
		s.logger.Warn("failed to persist diagnostics",
			zap.String("meeting_id", meetingID.String()),
			zap.Int("entries", len(entries)),
			zap.Error(err),
		)
	}
}

// storeAttachment extracts content and uploads the raw bytes when a store is configured
func (s *Service) storeAttachment(ctx context.Context, meetingID uuid.UUID, up FileUpload) (entities.AttachedFile, error) {
	if len(up.Data) > MaxAttachmentBytes {
		return entities.AttachedFile{}, usecaseErrors.ErrAttachmentTooLarge
	}
	f := extractAttachment(up, s.now())
	if s.store == nil {
		return f, nil
	}
	key := storage.AttachmentKey(meetingID.String(), f.ID.String(), f.Filename)
	if err := s.store.PutObject(ctx, key, up.Data, f.ContentType); err != nil {
		return entities.AttachedFile{}, fmt.Errorf("failed to store attachment %s: %w", f.Filename, err)
	}
	f.ObjectKey = key
	return f, nil
}

func (s *Service) removeObject(ctx context.Context, key string) {
	if s.store == nil || key == "" {
		return
	}
	if err := s.store.RemoveObject(ctx, key); err != nil {
		s.logger.Warn("failed to remove attachment", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) removeObjects(ctx context.Context, meetingID uuid.UUID) {
	if s.store == nil {
		return
	}
	if err := s.store.RemovePrefix(ctx, storage.MeetingPrefix(meetingID.String())); err != nil {
		s.logger.Warn("failed to remove attachments", zap.String("meeting_id", meetingID.String()), zap.Error(err))
	}
}

func notCompleted(m *entities.Meeting) *usecaseErrors.StateConflictError {
	return &usecaseErrors.StateConflictError{
		MeetingID: m.ID.String(),
		Reason:    fmt.Sprintf("meeting is %s, not completed", m.Status),
	}
}

// restoreConflict maps a rejected restore to the taxonomy error
func restoreConflict(m *entities.Meeting, version int, err error) *usecaseErrors.StateConflictError {
	conflict := &usecaseErrors.StateConflictError{MeetingID: m.ID.String()}
	switch {
	case errors.Is(err, entities.ErrRestoreCurrent):
		conflict.Reason = fmt.Sprintf("version %d is already current", version)
	case errors.Is(err, entities.ErrVersionNotFound):
		conflict.Reason = fmt.Sprintf("version %d does not exist", version)
		conflict.Err = usecaseErrors.ErrVersionNotFound
	default:
		conflict.Reason = err.Error()
	}
	return conflict
}
