package handler

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/johnquangdev/boardroom/errors"
	"github.com/johnquangdev/boardroom/internal/domain/entities"
	"github.com/johnquangdev/boardroom/internal/usecase/deliberation"
	usecaseErrors "github.com/johnquangdev/boardroom/internal/usecase/errors"
	"github.com/johnquangdev/boardroom/pkg/ai"
	"github.com/johnquangdev/boardroom/pkg/config"
	"github.com/johnquangdev/boardroom/pkg/jwt"
	"github.com/johnquangdev/boardroom/pkg/validator"
)

const testSecret = "handler-test-secret"

type stubService struct {
	err error

	actor       deliberation.Actor
	input       deliberation.CreateInput
	limit       int
	offset      int
	version     int
	question    string
	upload      deliberation.FileUpload
	regenerated bool
}

func (s *stubService) meeting(owner uuid.UUID) *entities.Meeting {
	m := entities.NewMeeting(owner, "Should we expand?", nil)
	m.Status = entities.MeetingStatusCompleted
	m.ChairSummary = "Summary"
	return m
}

func (s *stubService) Create(_ context.Context, a deliberation.Actor, in deliberation.CreateInput) (*entities.Meeting, error) {
	s.actor, s.input = a, in
	if s.err != nil {
		return nil, s.err
	}
	return s.meeting(a.UserID), nil
}

func (s *stubService) Regenerate(_ context.Context, a deliberation.Actor, _ uuid.UUID) (*entities.Meeting, error) {
	s.actor, s.regenerated = a, true
	if s.err != nil {
		return nil, s.err
	}
	return s.meeting(a.UserID), nil
}

func (s *stubService) Restore(_ context.Context, a deliberation.Actor, _ uuid.UUID, version int) (*entities.Meeting, error) {
	s.actor, s.version = a, version
	if s.err != nil {
		return nil, s.err
	}
	return s.meeting(a.UserID), nil
}

func (s *stubService) AskFollowUp(_ context.Context, a deliberation.Actor, _ uuid.UUID, q string) (*entities.FollowUpQuestion, *entities.Meeting, error) {
	s.actor, s.question = a, q
	if s.err != nil {
		return nil, nil, s.err
	}
	fu := entities.FollowUpQuestion{ID: uuid.New(), Question: q, ChairResponse: "Answer", CreatedAt: time.Now(), Version: 1}
	return &fu, s.meeting(a.UserID), nil
}

func (s *stubService) Get(_ context.Context, a deliberation.Actor, _ uuid.UUID) (*entities.Meeting, error) {
	s.actor = a
	if s.err != nil {
		return nil, s.err
	}
	return s.meeting(a.UserID), nil
}

func (s *stubService) List(_ context.Context, a deliberation.Actor, limit, offset int) ([]*entities.Meeting, int64, error) {
	s.actor, s.limit, s.offset = a, limit, offset
	if s.err != nil {
		return nil, 0, s.err
	}
	return []*entities.Meeting{s.meeting(a.UserID)}, 11, nil
}

func (s *stubService) Delete(_ context.Context, a deliberation.Actor, _ uuid.UUID) error {
	s.actor = a
	return s.err
}

func (s *stubService) History(_ context.Context, a deliberation.Actor, _ uuid.UUID) ([]entities.OpinionVersion, error) {
	s.actor = a
	return []entities.OpinionVersion{{Version: 1, ChairSummary: "old"}}, s.err
}

func (s *stubService) Version(_ context.Context, a deliberation.Actor, _ uuid.UUID, version int) (*entities.OpinionVersion, error) {
	s.actor, s.version = a, version
	if s.err != nil {
		return nil, s.err
	}
	return &entities.OpinionVersion{Version: version}, nil
}

func (s *stubService) Diagnostics(_ context.Context, a deliberation.Actor, _ uuid.UUID) ([]entities.DiagnosticLogEntry, error) {
	s.actor = a
	return nil, s.err
}

func (s *stubService) AttachFile(_ context.Context, a deliberation.Actor, _ uuid.UUID, up deliberation.FileUpload) (*entities.AttachedFile, error) {
	s.actor, s.upload = a, up
	if s.err != nil {
		return nil, s.err
	}
	return &entities.AttachedFile{ID: uuid.New(), Filename: up.Filename, Size: int64(len(up.Data))}, nil
}

func (s *stubService) RemoveFile(_ context.Context, a deliberation.Actor, _, _ uuid.UUID) error {
	s.actor = a
	return s.err
}

func (s *stubService) FileURL(_ context.Context, a deliberation.Actor, _, _ uuid.UUID, _ time.Duration) (string, error) {
	s.actor = a
	return "https://files.example/object", s.err
}

type testServer struct {
	echo    *echo.Echo
	service *stubService
	jwt     *jwt.Manager
}

func newTestServer(t *testing.T, probes map[string]Pinger) *testServer {
	t.Helper()
	e := echo.New()
	e.Validator = validator.New()

	svc := &stubService{}
	manager := jwt.NewManager(testSecret, time.Hour)
	cfg := &config.Config{Server: config.ServerConfig{Environment: "test"}}
	NewRouter(cfg, manager, NewMeetingHandler(svc, zaptest.NewLogger(t)), probes).Setup(e)

	return &testServer{echo: e, service: svc, jwt: manager}
}

func (ts *testServer) token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token, err := ts.jwt.GenerateAccessToken(userID, "user@example.com", role)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, map[string]Pinger{
		"database": PingFunc(func(context.Context) error { return nil }),
	})
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["checks"].(map[string]interface{})["database"])
}

func TestHealth_Degraded(t *testing.T) {
	ts := newTestServer(t, map[string]Pinger{
		"redis": PingFunc(func(context.Context) error { return stdErrors.New("connection refused") }),
	})
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil), "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "connection refused", body["checks"].(map[string]interface{})["redis"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateMeeting_RequiresToken(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, jsonRequest(http.MethodPost, "/v1/meetings", `{"question":"Expand?"}`), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.EqualValues(t, errors.ErrorCode_UNAUTHENTICATED, decode(t, rec)["code"])
	assert.Empty(t, ts.service.input.Question)
}

func TestAuth_ExpiredToken(t *testing.T) {
	ts := newTestServer(t, nil)
	expired, err := jwt.NewManager(testSecret, -time.Minute).GenerateAccessToken(uuid.New(), "user@example.com", "member")
	require.NoError(t, err)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/meetings", nil), expired)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, errors.ErrorCode_AUTH_TOKEN_EXPIRED, body["code"])
	assert.Equal(t, "Authentication token has expired", body["message"])
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/v2/nothing", nil), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.EqualValues(t, errors.ErrorCode_NOT_FOUND, decode(t, rec)["code"])
}

func TestCreateMeeting_JSON(t *testing.T) {
	ts := newTestServer(t, nil)
	userID := uuid.New()

	rec := ts.do(t, jsonRequest(http.MethodPost, "/v1/meetings", `{"question":"Expand to Asia?","context":"Q3 numbers"}`), ts.token(t, userID, "member"))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Expand to Asia?", ts.service.input.Question)
	require.NotNil(t, ts.service.input.Context)
	assert.Equal(t, "Q3 numbers", *ts.service.input.Context)
	assert.Equal(t, deliberation.Actor{UserID: userID}, ts.service.actor)

	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "completed", data["status"])
	assert.Equal(t, userID.String(), data["owner_id"])
}

func TestCreateMeeting_BlankQuestion(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, jsonRequest(http.MethodPost, "/v1/meetings", `{"question":"   "}`), ts.token(t, uuid.New(), "member"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "question")
	assert.Empty(t, ts.service.input.Question)
}

func TestCreateMeeting_Multipart(t *testing.T) {
	ts := newTestServer(t, nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("question", "Should we acquire?"))
	part, err := w.CreateFormFile("files", "brief.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("target revenue is 4M"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/meetings", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := ts.do(t, req, ts.token(t, uuid.New(), "member"))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Should we acquire?", ts.service.input.Question)
	require.Len(t, ts.service.input.Files, 1)
	assert.Equal(t, "brief.txt", ts.service.input.Files[0].Filename)
	assert.Equal(t, "target revenue is 4M", string(ts.service.input.Files[0].Data))
}

func TestListMeetings_Pagination(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/meetings?page=2&page_size=5", nil), ts.token(t, uuid.New(), "member"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 5, ts.service.limit)
	assert.Equal(t, 5, ts.service.offset)

	data := decode(t, rec)["data"].(map[string]interface{})
	pagination := data["pagination"].(map[string]interface{})
	assert.EqualValues(t, 3, pagination["total_pages"])
	assert.EqualValues(t, 11, pagination["total_items"])
}

func TestListMeetings_PageSizeTooLarge(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/meetings?page_size=500", nil), ts.token(t, uuid.New(), "member"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMeeting_InvalidID(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/meetings/not-a-uuid", nil), ts.token(t, uuid.New(), "member"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegenerate_RequiresAdmin(t *testing.T) {
	ts := newTestServer(t, nil)
	target := "/v1/meetings/" + uuid.NewString() + "/regenerate"

	rec := ts.do(t, httptest.NewRequest(http.MethodPost, target, nil), ts.token(t, uuid.New(), "member"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.EqualValues(t, errors.ErrorCode_PERMISSION_DENIED, decode(t, rec)["code"])
	assert.False(t, ts.service.regenerated)

	rec = ts.do(t, httptest.NewRequest(http.MethodPost, target, nil), ts.token(t, uuid.New(), jwt.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ts.service.regenerated)
	assert.True(t, ts.service.actor.Admin)
}

func TestRestore_ParsesVersion(t *testing.T) {
	ts := newTestServer(t, nil)
	admin := ts.token(t, uuid.New(), jwt.RoleAdmin)
	base := "/v1/meetings/" + uuid.NewString() + "/restore/"

	rec := ts.do(t, httptest.NewRequest(http.MethodPost, base+"2", nil), admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, ts.service.version)

	rec = ts.do(t, httptest.NewRequest(http.MethodPost, base+"0", nil), admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskFollowUp(t *testing.T) {
	ts := newTestServer(t, nil)
	target := "/v1/meetings/" + uuid.NewString() + "/follow-ups"

	rec := ts.do(t, jsonRequest(http.MethodPost, target, `{"question":"What about hiring?"}`), ts.token(t, uuid.New(), "member"))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "What about hiring?", ts.service.question)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "Answer", data["follow_up"].(map[string]interface{})["chair_response"])
	assert.NotNil(t, data["meeting"])
}

func TestAttachFile(t *testing.T) {
	ts := newTestServer(t, nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "notes.md")
	require.NoError(t, err)
	_, err = part.Write([]byte("# notes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/meetings/"+uuid.NewString()+"/files", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := ts.do(t, req, ts.token(t, uuid.New(), "member"))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "notes.md", ts.service.upload.Filename)
	assert.Equal(t, "# notes", string(ts.service.upload.Data))
}

func TestFileURL(t *testing.T) {
	ts := newTestServer(t, nil)
	target := "/v1/meetings/" + uuid.NewString() + "/files/" + uuid.NewString()

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, target, nil), ts.token(t, uuid.New(), "member"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "https://files.example/object", data["url"])
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   errors.ErrorCode
	}{
		{"not found", usecaseErrors.ErrMeetingNotFound, http.StatusNotFound, errors.ErrorCode_MEETING_NOT_FOUND},
		{"busy", &usecaseErrors.StateConflictError{Reason: "busy", Err: usecaseErrors.ErrMeetingBusy}, http.StatusConflict, errors.ErrorCode_MEETING_BUSY},
		{"invalid state", &usecaseErrors.StateConflictError{Reason: "meeting failed"}, http.StatusConflict, errors.ErrorCode_MEETING_INVALID_STATE},
		{"no agents", usecaseErrors.ErrNoAgentsHired, http.StatusUnprocessableEntity, errors.ErrorCode_NO_ACTIVE_AGENTS},
		{"configuration", &usecaseErrors.ConfigurationError{Reason: "weights"}, http.StatusUnprocessableEntity, errors.ErrorCode_CONFIGURATION},
		{"chair", &usecaseErrors.DeliberationError{Stage: "chair", Reason: "empty"}, http.StatusBadGateway, errors.ErrorCode_CHAIR_SYNTHESIS_FAILED},
		{"fanout", &usecaseErrors.DeliberationError{Stage: "fanout", Reason: "all failed"}, http.StatusBadGateway, errors.ErrorCode_DELIBERATION_FAILED},
		{"rate limited", &usecaseErrors.DeliberationError{Stage: "fanout", Reason: "all failed", Err: &ai.ProviderError{Kind: ai.ErrorKindRateLimit, StatusCode: 429}}, http.StatusTooManyRequests, errors.ErrorCode_AI_QUOTA_EXCEEDED},
		{"store", &usecaseErrors.StoreError{Op: "get meeting", Err: stdErrors.New("connection reset")}, http.StatusInternalServerError, errors.ErrorCode_DB_QUERY_FAILED},
		{"lock", stdErrors.Join(usecaseErrors.ErrLockUnavailable, stdErrors.New("redis down")), http.StatusInternalServerError, errors.ErrorCode_INTEGRATION_CACHE_FAILED},
		{"unknown", stdErrors.New("boom"), http.StatusInternalServerError, errors.ErrorCode_INTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			ts.service.err = tt.err

			rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/meetings/"+uuid.NewString(), nil), ts.token(t, uuid.New(), "member"))

			assert.Equal(t, tt.status, rec.Code)
			assert.EqualValues(t, tt.code, decode(t, rec)["code"])
		})
	}
}
