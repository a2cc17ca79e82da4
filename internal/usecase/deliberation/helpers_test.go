package deliberation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/internal/domain/repositories"
	"github.com/johnquangdev/boardroom/internal/infrastructure/cache"
	"github.com/johnquangdev/boardroom/internal/usecase/diagnostics"
	"github.com/johnquangdev/boardroom/pkg/ai"
)

// agentBehavior scripts one agent's answer
type agentBehavior struct {
	delay  time.Duration
	err    error
	text   string
	ignore bool // keep running after the context is done
}

// fakeClient answers agent, chair and follow-up calls from a script
type fakeClient struct {
	mu       sync.Mutex
	agents   map[string]agentBehavior
	chair    func(req ai.CompletionRequest) (*ai.Completion, error)
	followUp func(question string) (*ai.Completion, error)
	calls    []ai.CompletionRequest
	release  chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{agents: map[string]agentBehavior{}, release: make(chan struct{})}
}

func (f *fakeClient) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	switch {
	case strings.Contains(req.SystemPrompt, followUpInstruction):
		q := afterMarker(req.Content[0].Text, "FOLLOW-UP QUESTION:\n")
		if f.followUp != nil {
			return f.followUp(q)
		}
		return &ai.Completion{Text: "Answer to " + q, Model: req.Model, PromptTokens: 10, CompletionTokens: 5}, nil
	case strings.Contains(req.SystemPrompt, `"recommendation"`):
		if f.chair != nil {
			return f.chair(req)
		}
		return &ai.Completion{Text: `{"summary":"Board agrees","recommendation":"Proceed"}`, Model: req.Model, PromptTokens: 20, CompletionTokens: 10}, nil
	}

	name := agentName(req.SystemPrompt)
	f.mu.Lock()
	b := f.agents[name]
	f.mu.Unlock()

	if b.delay > 0 {
		if b.ignore {
			select {
			case <-time.After(b.delay):
			case <-f.release:
			}
		} else {
			select {
			case <-time.After(b.delay):
			case <-ctx.Done():
				return nil, &ai.ProviderError{Kind: ai.ErrorKindTimeout, Message: ctx.Err().Error(), Err: ctx.Err()}
			}
		}
	}
	if b.err != nil {
		return nil, b.err
	}
	text := b.text
	if text == "" {
		text = fmt.Sprintf(`{"opinion":"%s opinion","reasoning":"%s reasoning","confidence":0.8}`, name, name)
	}
	return &ai.Completion{Text: text, Model: req.Model, PromptTokens: 100, CompletionTokens: 50}, nil
}

func (f *fakeClient) set(name string, b agentBehavior) {
	f.mu.Lock()
	f.agents[name] = b
	f.mu.Unlock()
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeClient) snapshot() []ai.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeClient) lastCall() ai.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// unblock lets agents that ignore cancellation finish
func (f *fakeClient) unblock() {
	select {
	case <-f.release:
	default:
		close(f.release)
	}
}

func agentName(systemPrompt string) string {
	rest := strings.TrimPrefix(systemPrompt, "You are ")
	if i := strings.Index(rest, ","); i != -1 {
		return rest[:i]
	}
	return rest
}

func afterMarker(s, marker string) string {
	i := strings.Index(s, marker)
	if i == -1 {
		return ""
	}
	rest := s[i+len(marker):]
	if j := strings.Index(rest, "\n"); j != -1 {
		return rest[:j]
	}
	return rest
}

func testAgents(names ...string) []*entities.Agent {
	out := make([]*entities.Agent, len(names))
	for i, n := range names {
		out[i] = entities.NewAgent(n, n+" role", "Prompt for "+n, entities.DefaultWeights(), "gpt-4o-mini")
	}
	return out
}

func testSettings() Settings {
	t := 0.7
	return Settings{
		AgentMaxTokens:    1500,
		ChairMaxTokens:    3000,
		FanOutTimeout:     2 * time.Second,
		ReplayFollowUps:   true,
		DocumentCharLimit: 2000,
		Temperature:       &t,
		DefaultChair: entities.Chair{
			Name:         "Board Chair",
			SystemPrompt: "You chair the board.",
			Model:        "gpt-4o",
		},
	}
}

type staticSettings struct{ s Settings }

func (st staticSettings) Settings() Settings { return st.s }

// memMeetings is an in-memory MeetingRepository storing deep copies
type memMeetings struct {
	mu          sync.Mutex
	meetings    map[uuid.UUID]*entities.Meeting
	diagnostics map[uuid.UUID][]entities.DiagnosticLogEntry
	updateErr   error
	updates     int
}

func newMemMeetings() *memMeetings {
	return &memMeetings{
		meetings:    map[uuid.UUID]*entities.Meeting{},
		diagnostics: map[uuid.UUID][]entities.DiagnosticLogEntry{},
	}
}

func (r *memMeetings) Create(ctx context.Context, m *entities.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := m.Clone()
	c.DiagnosticLog = nil
	r.meetings[m.ID] = c
	return nil
}

func (r *memMeetings) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok {
		return nil, entities.ErrMeetingNotFound
	}
	c := m.Clone()
	c.DiagnosticLog = slices.Clone(r.diagnostics[id])
	return c, nil
}

func (r *memMeetings) List(ctx context.Context, f repositories.MeetingFilters) ([]*entities.Meeting, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Meeting
	for _, m := range r.meetings {
		if f.OwnerID != nil && m.OwnerID != *f.OwnerID {
			continue
		}
		out = append(out, m.Clone())
	}
	return out, int64(len(out)), nil
}

func (r *memMeetings) Update(ctx context.Context, m *entities.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.meetings[m.ID]; !ok {
		return entities.ErrMeetingNotFound
	}
	c := m.Clone()
	c.DiagnosticLog = nil
	r.meetings[m.ID] = c
	r.updates++
	return nil
}

func (r *memMeetings) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.meetings[id]; !ok {
		return entities.ErrMeetingNotFound
	}
	delete(r.meetings, id)
	delete(r.diagnostics, id)
	return nil
}

func (r *memMeetings) AppendDiagnostics(ctx context.Context, entries []entities.DiagnosticLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.diagnostics[e.MeetingID] = append(r.diagnostics[e.MeetingID], e)
	}
	return nil
}

func (r *memMeetings) ListDiagnostics(ctx context.Context, id uuid.UUID) ([]entities.DiagnosticLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.diagnostics[id]), nil
}

func (r *memMeetings) stored(id uuid.UUID) *entities.Meeting {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meetings[id].Clone()
}

func (r *memMeetings) entries(id uuid.UUID) []entities.DiagnosticLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.diagnostics[id])
}

// memAgents is an in-memory AgentRepository with one shared roster
type memAgents struct {
	mu     sync.Mutex
	hired  []*entities.Agent
	chair  *entities.Chair
	values map[uuid.UUID]*entities.Agent
}

func newMemAgents(agents ...*entities.Agent) *memAgents {
	r := &memAgents{values: map[uuid.UUID]*entities.Agent{}}
	for _, a := range agents {
		r.values[a.ID] = a
		r.hired = append(r.hired, a)
	}
	return r
}

func (r *memAgents) Create(ctx context.Context, a *entities.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[a.ID] = a
	return nil
}

func (r *memAgents) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.values)), nil
}

func (r *memAgents) List(ctx context.Context) ([]*entities.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.hired), nil
}

func (r *memAgents) Hire(ctx context.Context, ownerID, agentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.values[agentID]
	if !ok {
		return errors.New("unknown agent")
	}
	r.hired = append(r.hired, a)
	return nil
}

func (r *memAgents) ListHired(ctx context.Context, ownerID uuid.UUID) ([]*entities.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.Agent, 0, len(r.hired))
	for _, a := range r.hired {
		c := *a
		out = append(out, &c)
	}
	return out, nil
}

func (r *memAgents) GetChair(ctx context.Context) (*entities.Chair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.chair == nil {
		return nil, entities.ErrChairNotConfigured
	}
	c := *r.chair
	return &c, nil
}

func (r *memAgents) SaveChair(ctx context.Context, c *entities.Chair) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cc := *c
	r.chair = &cc
	return nil
}

// memDocuments is an in-memory CompanyFileRepository
type memDocuments struct {
	mu    sync.Mutex
	files []entities.CompanyFile
	limit int
	err   error
}

func (r *memDocuments) Create(ctx context.Context, f *entities.CompanyFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, *f)
	return nil
}

func (r *memDocuments) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]entities.CompanyFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limit = limit
	if r.err != nil {
		return nil, r.err
	}
	var out []entities.CompanyFile
	for _, f := range r.files {
		if f.OwnerID == ownerID && (limit <= 0 || len(out) < limit) {
			out = append(out, f)
		}
	}
	return out, nil
}

// memStore is an in-memory ObjectStore
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = slices.Clone(data)
	return nil
}

func (s *memStore) RemoveObject(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memStore) RemovePrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			delete(s.objects, k)
		}
	}
	return nil
}

func (s *memStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://files.example.com/" + key, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// harness bundles a service with its fakes
type harness struct {
	svc       *Service
	client    *fakeClient
	meetings  *memMeetings
	agents    *memAgents
	documents *memDocuments
	store     *memStore
	locker    *cache.MemoryStore
	recorder  *diagnostics.Recorder
	owner     Actor
	admin     Actor
}

func newHarness(t *testing.T, settings Settings, names ...string) *harness {
	t.Helper()
	client := newFakeClient()
	t.Cleanup(client.unblock)

	logger := zaptest.NewLogger(t)
	h := &harness{
		client:    client,
		meetings:  newMemMeetings(),
		agents:    newMemAgents(testAgents(names...)...),
		documents: &memDocuments{},
		store:     newMemStore(),
		locker:    cache.NewMemoryStore(),
		recorder:  diagnostics.NewRecorder(logger),
		owner:     Actor{UserID: uuid.New()},
	}
	h.admin = Actor{UserID: h.owner.UserID, Admin: true}
	t.Cleanup(h.locker.Close)
	h.svc = NewService(Dependencies{
		Meetings:  h.meetings,
		Agents:    h.agents,
		Documents: h.documents,
		Client:    client,
		Settings:  staticSettings{settings},
		Store:     h.store,
		Locker:    h.locker,
		Recorder:  h.recorder,
		Logger:    logger,
	})
	return h
}

func opinionNames(ops []entities.AgentOpinion) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.AgentName
	}
	return out
}

func countLevel(entries []entities.DiagnosticLogEntry, level entities.LogLevel, agentName string) int {
	n := 0
	for _, e := range entries {
		if e.Level == level && (agentName == "" || e.AgentName == agentName) {
			n++
		}
	}
	return n
}
