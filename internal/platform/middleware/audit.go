package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eternalbranch/clinic/internal/platform/auth"
)

// AuditEntry records who changed which console resource.
type AuditEntry struct {
	UserID     string
	UserRoles  []string
	Resource   string
	ResourceID string
	Action     string // create, update, delete, action
	Method     string
	Path       string
	IPAddress  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// AuditRecorder receives audit entries. Tests supply their own.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every state-changing /api/v1 request after it has run. Reads are
// not audited. Without recorders the entry goes to the zerolog logger.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method == http.MethodGet || !strings.HasPrefix(req.URL.Path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			resource, id := resourceFromPath(req.URL.Path)
			rid, _ := c.Get("request_id").(string)
			ctx := req.Context()

			entry := AuditEntry{
				UserID:     auth.UserIDFromContext(ctx),
				UserRoles:  auth.RolesFromContext(ctx),
				Resource:   resource,
				ResourceID: id,
				Action:     actionFromRequest(req.Method, req.URL.Path),
				Method:     req.Method,
				Path:       req.URL.Path,
				IPAddress:  c.RealIP(),
				RequestID:  rid,
				StatusCode: status,
				Timestamp:  time.Now().UTC(),
			}

			if len(recorders) == 0 {
				logger.Info().
					Str("user_id", entry.UserID).
					Strs("roles", entry.UserRoles).
					Str("resource", entry.Resource).
					Str("resource_id", entry.ResourceID).
					Str("action", entry.Action).
					Int("status", entry.StatusCode).
					Str("request_id", entry.RequestID).
					Msg("audit")
			}
			for _, r := range recorders {
				if rerr := r.RecordAccess(entry); rerr != nil {
					logger.Error().Err(rerr).Msg("audit recorder failed")
				}
			}

			return err
		}
	}
}

// resourceFromPath extracts "patients" and "abc" from /api/v1/patients/abc/assign.
func resourceFromPath(path string) (string, string) {
	parts := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	resource, id := "", ""
	if len(parts) > 0 {
		resource = parts[0]
	}
	if len(parts) > 1 {
		id = parts[1]
	}
	return resource, id
}

func actionFromRequest(method, path string) string {
	switch method {
	case http.MethodDelete:
		return "delete"
	case http.MethodPut, http.MethodPatch:
		return "update"
	}
	// POST on a collection creates; POST on /resource/:id/<verb> is an action.
	if len(strings.Split(strings.Trim(strings.TrimPrefix(path, "/api/v1/"), "/"), "/")) > 2 {
		return "action"
	}
	return "create"
}
