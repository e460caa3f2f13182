package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medlogs/medlogs/internal/platform/auth"
)

// Logger emits one structured line per request. Requests that passed
// authentication also carry the acting user's id and role, which is what the
// clinic audit trail is built from.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			// Read the request after the handler ran: the auth middleware
			// swaps in a context carrying the authenticated user.
			req := c.Request()
			rid, _ := c.Get("request_id").(string)
			evt = evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			if uid := auth.UserIDFromContext(req.Context()); uid != "" {
				evt = evt.
					Str("user_id", uid).
					Str("user_role", auth.RoleFromContext(req.Context()))
			}

			evt.Msg("request")
			return err
		}
	}
}
