package middleware

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sellerhub/internal/logger"
)

// RequestLogger attaches a request scoped logger carrying a request id to
// the context and logs one line per request once the handler returns.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := req.Header.Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, reqID)

			l := base.With(
				"req_id", reqID,
				"method", req.Method,
				"path", req.URL.Path,
				"remote_addr", c.RealIP(),
			)
			c.SetRequest(req.WithContext(logger.WithContext(req.Context(), l)))

			err := next(c)
			if err != nil {
				// Let echo write the error response so the logged status
				// is the one the client sees.
				c.Error(err)
			}

			l.Info("http_request",
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"user_agent", req.UserAgent(),
			)
			return nil
		}
	}
}
