package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/johnquangdev/boardroom/pkg/config"
	"github.com/johnquangdev/boardroom/pkg/jwt"

	httpmw "github.com/johnquangdev/boardroom/internal/infrastructure/http/middleware"
)

// Pinger is a dependency the health endpoint probes
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	jwtManager     *jwt.Manager
	meetingHandler *Meeting
	probes         map[string]Pinger
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, jwtManager *jwt.Manager, meetingHandler *Meeting, probes map[string]Pinger) *Router {
	return &Router{
		cfg:            cfg,
		jwtManager:     jwtManager,
		meetingHandler: meetingHandler,
		probes:         probes,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.HTTPErrorHandler = rt.handleHTTPError

	e.GET("/health", rt.healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1", httpmw.EchoAuth(rt.jwtManager))
	rt.setupMeetingRoutes(v1)
}

// setupMeetingRoutes configures board meeting routes
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	h := rt.meetingHandler
	meetings := g.Group("/meetings")

	meetings.POST("", h.CreateMeeting)
	meetings.GET("", h.ListMeetings)
	meetings.GET("/:id", h.GetMeeting)
	meetings.DELETE("/:id", h.DeleteMeeting)

	meetings.POST("/:id/regenerate", h.Regenerate, httpmw.RequireAdmin())
	meetings.POST("/:id/restore/:version", h.Restore, httpmw.RequireAdmin())
	meetings.GET("/:id/history", h.History)
	meetings.GET("/:id/versions/:version", h.Version)

	meetings.POST("/:id/follow-ups", h.AskFollowUp)
	meetings.GET("/:id/diagnostics", h.Diagnostics)

	meetings.POST("/:id/files", h.AttachFile)
	meetings.GET("/:id/files/:file_id", h.FileURL)
	meetings.DELETE("/:id/files/:file_id", h.RemoveFile)
}

// handleHTTPError renders errors returned by middleware and by echo itself
// in the same body shape as handler errors
func (rt *Router) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if werr := HandleError(rt.meetingHandler.logger, c, err); werr != nil {
		rt.meetingHandler.logger.Error("failed to write error response", zap.Error(werr))
	}
}

// healthCheck reports the status of every registered dependency
func (rt *Router) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(rt.probes))
	for name, p := range rt.probes {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	return c.JSON(status, map[string]interface{}{
		"status":      overall,
		"environment": rt.cfg.Server.Environment,
		"time":        time.Now().UTC().Format(time.RFC3339),
		"checks":      checks,
	})
}
