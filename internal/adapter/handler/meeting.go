package handler

import (
	"context"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/boardroom/errors"
	"github.com/johnquangdev/boardroom/internal/adapter/dto/common"
	"github.com/johnquangdev/boardroom/internal/adapter/dto/meeting"
	"github.com/johnquangdev/boardroom/internal/adapter/presenter"
	"github.com/johnquangdev/boardroom/internal/domain/entities"
	httpmw "github.com/johnquangdev/boardroom/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/boardroom/internal/usecase/deliberation"
)

const (
	maxUploadBytes = deliberation.MaxAttachmentBytes
	maxUploadFiles = 10
	fileURLExpiry  = 15 * time.Minute
)

// MeetingService is the deliberation surface used by the meeting handler
type MeetingService interface {
	Create(ctx context.Context, actor deliberation.Actor, input deliberation.CreateInput) (*entities.Meeting, error)
	Regenerate(ctx context.Context, actor deliberation.Actor, meetingID uuid.UUID) (*entities.Meeting, error)
	Restore(ctx context.Context, actor deliberation.Actor, meetingID uuid.UUID, version int) (*entities.Meeting, error)
	AskFollowUp(ctx context.Context, actor deliberation.Actor, meetingID uuid.UUID, question string) (*entities.FollowUpQuestion, *entities.Meeting, error)
	Get(ctx context.Context, actor deliberation.Actor, meetingID uuid.UUID) (*entities.Meeting, error)
	List(ctx context.Context, actor deliberation.Actor, limit, offset int) ([]*entities.Meeting, int64, error)
	Delete(ctx context.Context, actor deliberation.Actor, meetingID uuid.UUID) error
	History(ctx context.Context, actor deliberation.Actor, meetingID uuid.UUID) ([]entities.OpinionVersion, error)
	Version(ctx context.Context, actor deliberation.Actor, meetingID uuid.UUID, version int) (*entities.OpinionVersion, error)
	Diagnostics(ctx context.Context, actor deliberation.Actor, meetingID uuid.UUID) ([]entities.DiagnosticLogEntry, error)
	AttachFile(ctx context.Context, actor deliberation.Actor, meetingID uuid.UUID, up deliberation.FileUpload) (*entities.AttachedFile, error)
	RemoveFile(ctx context.Context, actor deliberation.Actor, meetingID, fileID uuid.UUID) error
	FileURL(ctx context.Context, actor deliberation.Actor, meetingID, fileID uuid.UUID, expiry time.Duration) (string, error)
}

// Meeting handles board meeting HTTP requests
type Meeting struct {
	service MeetingService
	logger  *zap.Logger
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(service MeetingService, logger *zap.Logger) *Meeting {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Meeting{service: service, logger: logger}
}

// actor builds the calling identity from the auth middleware values
func actor(c echo.Context) (deliberation.Actor, error) {
	userID, ok := httpmw.UserID(c)
	if !ok {
		return deliberation.Actor{}, errors.ErrUnauthenticated()
	}
	return deliberation.Actor{UserID: userID, Admin: httpmw.IsAdmin(c)}, nil
}

// CreateMeeting handles POST /meetings with a JSON or multipart body
func (h *Meeting) CreateMeeting(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meeting.CreateMeetingRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	files, err := readUploads(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.service.Create(c.Request().Context(), who, deliberation.CreateInput{
		Question: req.Question,
		Context:  req.Context,
		Files:    files,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToMeetingResponse(m))
}

// ListMeetings handles GET /meetings
func (h *Meeting) ListMeetings(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	req := meeting.ListMeetingsRequest{Page: 1, PageSize: 20}
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	meetings, total, err := h.service.List(c.Request().Context(), who, req.PageSize, (req.Page-1)*req.PageSize)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, common.ListResponse{
		Data:       presenter.ToMeetingSummaries(meetings),
		Pagination: common.NewPagination(total, req.Page, req.PageSize),
	})
}

// GetMeeting handles GET /meetings/:id
func (h *Meeting) GetMeeting(c echo.Context) error {
	who, id, err := h.target(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	m, err := h.service.Get(c.Request().Context(), who, id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// DeleteMeeting handles DELETE /meetings/:id
func (h *Meeting) DeleteMeeting(c echo.Context) error {
	who, id, err := h.target(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := h.service.Delete(c.Request().Context(), who, id); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]string{"id": id.String()})
}

// Regenerate handles POST /meetings/:id/regenerate
func (h *Meeting) Regenerate(c echo.Context) error {
	who, id, err := h.target(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	m, err := h.service.Regenerate(c.Request().Context(), who, id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// Restore handles POST /meetings/:id/restore/:version
func (h *Meeting) Restore(c echo.Context) error {
	who, id, err := h.target(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	version, err := parseVersion(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	m, err := h.service.Restore(c.Request().Context(), who, id, version)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// History handles GET /meetings/:id/history
func (h *Meeting) History(c echo.Context) error {
	who, id, err := h.target(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	versions, err := h.service.History(c.Request().Context(), who, id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToVersionList(versions))
}

// Version handles GET /meetings/:id/versions/:version
func (h *Meeting) Version(c echo.Context) error {
	who, id, err := h.target(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	version, err := parseVersion(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	v, err := h.service.Version(c.Request().Context(), who, id, version)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToVersionResponse(*v))
}

// AskFollowUp handles POST /meetings/:id/follow-ups
func (h *Meeting) AskFollowUp(c echo.Context) error {
	who, id, err := h.target(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meeting.FollowUpRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	fu, m, err := h.service.AskFollowUp(c.Request().Context(), who, id, req.Question)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, meeting.FollowUpAnswerResponse{
		FollowUp: presenter.ToFollowUpResponse(*fu),
		Meeting:  presenter.ToMeetingResponse(m),
	})
}

// Diagnostics handles GET /meetings/:id/diagnostics
func (h *Meeting) Diagnostics(c echo.Context) error {
	who, id, err := h.target(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	entries, err := h.service.Diagnostics(c.Request().Context(), who, id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToDiagnostics(entries))
}

// AttachFile handles POST /meetings/:id/files (multipart field "file")
func (h *Meeting) AttachFile(c echo.Context) error {
	who, id, err := h.target(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("file is required"))
	}
	up, err := readUpload(fh)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	f, err := h.service.AttachFile(c.Request().Context(), who, id, up)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToAttachmentResponse(*f))
}

// FileURL handles GET /meetings/:id/files/:file_id
func (h *Meeting) FileURL(c echo.Context) error {
	who, id, err := h.target(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	fileID, err := parseID(c, "file_id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	url, err := h.service.FileURL(c.Request().Context(), who, id, fileID, fileURLExpiry)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, meeting.FileURLResponse{URL: url, ExpiresAt: time.Now().Add(fileURLExpiry)})
}

// RemoveFile handles DELETE /meetings/:id/files/:file_id
func (h *Meeting) RemoveFile(c echo.Context) error {
	who, id, err := h.target(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	fileID, err := parseID(c, "file_id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if err := h.service.RemoveFile(c.Request().Context(), who, id, fileID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]string{"id": fileID.String()})
}

// target resolves the actor and the :id meeting parameter
func (h *Meeting) target(c echo.Context) (deliberation.Actor, uuid.UUID, error) {
	who, err := actor(c)
	if err != nil {
		return deliberation.Actor{}, uuid.Nil, err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return deliberation.Actor{}, uuid.Nil, err
	}
	return who, id, nil
}

// readUploads collects the "files" parts of a multipart create request
func readUploads(c echo.Context) ([]deliberation.FileUpload, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.ErrInvalidPayload()
	}
	headers := form.File["files"]
	if len(headers) > maxUploadFiles {
		return nil, errors.ErrInvalidArgument("too many files")
	}

	out := make([]deliberation.FileUpload, 0, len(headers))
	for _, fh := range headers {
		up, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, up)
	}
	return out, nil
}

func readUpload(fh *multipart.FileHeader) (deliberation.FileUpload, error) {
	if fh.Size > maxUploadBytes {
		return deliberation.FileUpload{}, errors.ErrAttachmentTooLarge(fh.Filename, maxUploadBytes)
	}
	src, err := fh.Open()
	if err != nil {
		return deliberation.FileUpload{}, errors.ErrInvalidPayload()
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		return deliberation.FileUpload{}, errors.ErrInvalidPayload()
	}
	if len(data) > maxUploadBytes {
		return deliberation.FileUpload{}, errors.ErrAttachmentTooLarge(fh.Filename, maxUploadBytes)
	}
	return deliberation.FileUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}

var _ MeetingService = (*deliberation.Service)(nil)
