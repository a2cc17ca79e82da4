package middleware

import (
	stdErrors "errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/boardroom/errors"
	"github.com/johnquangdev/boardroom/pkg/jwt"
)

// Echo context keys set by EchoAuth
const (
	UserIDKey = "user_id"
	RoleKey   = "role"
	ClaimsKey = "claims"
)

// EchoAuth returns an Echo middleware that validates the bearer JWT and sets
// "user_id" (uuid.UUID), "role" (string) and "claims" into Echo context
func EchoAuth(manager *jwt.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c.Request())
			if token == "" {
				return reject(errors.ErrUnauthenticated())
			}

			claims, err := manager.ValidateAccessToken(token)
			if err != nil {
				if stdErrors.Is(err, jwt.ErrTokenExpired) {
					return reject(errors.ErrTokenExpired())
				}
				return reject(errors.ErrInvalidToken().WithDetail("reason", err.Error()))
			}

			c.Set(ClaimsKey, claims)
			c.Set(UserIDKey, claims.UserID)
			c.Set(RoleKey, claims.Role)
			return next(c)
		}
	}
}

// RequireAdmin rejects requests whose token does not carry the admin role.
// It must run after EchoAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsAdmin(c) {
				return reject(errors.ErrPermissionDenied("admin role required"))
			}
			return next(c)
		}
	}
}

// reject carries the API error inside an echo.HTTPError so the status holds
// even under echo's default error handler
func reject(appErr errors.AppError) error {
	return echo.NewHTTPError(appErr.HTTPCode, appErr.Message).SetInternal(appErr)
}

// UserID returns the authenticated user id
func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(UserIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// IsAdmin reports whether the authenticated user has the admin role
func IsAdmin(c echo.Context) bool {
	role, _ := c.Get(RoleKey).(string)
	return role == jwt.RoleAdmin
}

func extractToken(r *http.Request) string {
	// Try Authorization header first
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// Try cookie as fallback
	cookie, err := r.Cookie("access_token")
	if err == nil {
		return cookie.Value
	}

	return ""
}
