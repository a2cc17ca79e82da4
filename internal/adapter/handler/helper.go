package handler

import (
	stdErrors "errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/boardroom/errors"
	usecaseErrors "github.com/johnquangdev/boardroom/internal/usecase/errors"
	"github.com/johnquangdev/boardroom/pkg/ai"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusOK, data)
}

// HandleCreated writes a standardized 201 response
func HandleCreated(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusCreated, data)
}

func respond(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	appErr := mapError(c, err)

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.String("app_code", appErr.Code.String()),
			zap.Error(err),
		}
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("http.response.error", fields...)
		} else {
			logger.Warn("http.response.error", fields...)
		}
	}

	body := errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if appErr.Raw != nil {
		body.Info = appErr.Raw.Error()
	}
	return c.JSON(appErr.HTTPCode, body)
}

// mapError translates usecase errors into API errors
func mapError(c echo.Context, err error) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}
	var httpErr *echo.HTTPError
	if stdErrors.As(err, &httpErr) {
		return fromHTTPError(httpErr)
	}

	meetingID := c.Param("id")

	var (
		cfgErr      *usecaseErrors.ConfigurationError
		conflictErr *usecaseErrors.StateConflictError
		delibErr    *usecaseErrors.DeliberationError
		storeErr    *usecaseErrors.StoreError
		providerErr *ai.ProviderError
	)
	switch {
	case stdErrors.Is(err, usecaseErrors.ErrMeetingBusy):
		return errors.ErrMeetingBusy(meetingID)
	case stdErrors.Is(err, usecaseErrors.ErrVersionNotFound):
		version, _ := strconv.Atoi(c.Param("version"))
		return errors.ErrVersionNotFound(meetingID, version)
	case stdErrors.As(err, &conflictErr):
		return errors.ErrMeetingInvalidState(meetingID, conflictErr.Reason)
	case stdErrors.As(err, &cfgErr):
		return errors.ErrConfiguration(cfgErr.Reason)
	case stdErrors.Is(err, usecaseErrors.ErrNoAgentsHired):
		return errors.ErrNoActiveAgents()
	case stdErrors.Is(err, usecaseErrors.ErrLockUnavailable):
		return errors.ErrCacheFailed("meeting lock", err)
	case stdErrors.As(err, &storeErr):
		return errors.ErrDBQueryFailed(storeErr.Op, storeErr.Err)
	case stdErrors.As(err, &delibErr):
		if stdErrors.As(err, &providerErr) {
			switch providerErr.Kind {
			case ai.ErrorKindAuth:
				return errors.ErrAIServiceUnavailable("reasoning provider")
			case ai.ErrorKindRateLimit:
				return errors.ErrAIQuotaExceeded()
			}
		}
		if delibErr.Stage == "chair" {
			return errors.ErrChairSynthesisFailed(meetingID, err)
		}
		return errors.ErrDeliberationFailed(meetingID, err)
	case stdErrors.Is(err, usecaseErrors.ErrMeetingNotFound):
		return errors.ErrMeetingNotFound(meetingID)
	case stdErrors.Is(err, usecaseErrors.ErrAttachmentNotFound):
		return errors.ErrAttachmentNotFound(c.Param("file_id"))
	case stdErrors.Is(err, usecaseErrors.ErrAttachmentTooLarge):
		return errors.ErrAttachmentTooLarge("", maxUploadBytes)
	case stdErrors.Is(err, usecaseErrors.ErrStorageDisabled):
		return errors.ErrStorageFailed("presign", err)
	case stdErrors.Is(err, usecaseErrors.ErrEmptyQuestion):
		return errors.ErrInvalidArgument(err.Error())
	case stdErrors.Is(err, usecaseErrors.ErrForbidden):
		return errors.ErrForbidden("admin role required")
	}
	return errors.ErrInternal(err)
}

// fromHTTPError converts errors raised by echo itself, such as unknown routes
func fromHTTPError(he *echo.HTTPError) errors.AppError {
	switch he.Code {
	case http.StatusNotFound:
		return errors.ErrNotFound("route")
	case http.StatusUnauthorized:
		return errors.ErrUnauthenticated()
	}

	code := errors.ErrorCode_INVALID_ARGUMENT
	if he.Code >= http.StatusInternalServerError {
		code = errors.ErrorCode_INTERNAL
	}
	message := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok && m != "" {
		message = m
	}
	return errors.AppError{Raw: he.Internal, HTTPCode: he.Code, Code: code, Message: message}
}

// parseID reads a UUID path parameter
func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument(name + " must be a valid UUID")
	}
	return id, nil
}

// parseVersion reads the version path parameter
func parseVersion(c echo.Context) (int, error) {
	v, err := strconv.Atoi(c.Param("version"))
	if err != nil || v < 1 {
		return 0, errors.ErrInvalidArgument("version must be a positive integer")
	}
	return v, nil
}
