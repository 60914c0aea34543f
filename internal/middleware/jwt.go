package middleware // middleware contains reusable HTTP middleware functions

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sellerhub/internal/model"
)

// Authenticator resolves a raw bearer token to the stored user it was
// issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.User, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token,
// loads the user it names and injects user_id, email and role into the
// request context. Handlers read them back with UserID, Email and Role.
func JWTAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header is "Bearer <token>". Anything else is treated
			// as an anonymous request to a protected route.
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			raw = strings.TrimSpace(raw)
			if !ok || raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Missing or invalid Authorization header"})
			}

			// Bad signature, expiry and unknown users all collapse into the
			// same response so callers cannot tell which one happened.
			u, err := auth.Authenticate(c.Request().Context(), raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid JWT token"})
			}

			setIdentity(c, u)
			return next(c)
		}
	}
}
