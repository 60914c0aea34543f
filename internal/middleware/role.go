package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sellerhub/internal/model"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Status  int
	Reason  string
}

// Decide checks role against the allowed set. An empty role means the
// request was never authenticated.
func Decide(role model.Role, allowed ...model.Role) Decision {
	if role == "" {
		return Decision{Status: http.StatusUnauthorized, Reason: "authentication required"}
	}
	for _, r := range allowed {
		if r == role {
			return Decision{Allowed: true, Status: http.StatusOK}
		}
	}
	return Decision{Status: http.StatusForbidden, Reason: "forbidden"}
}

// RequireRole enforces that the caller authenticated by JWTAuth holds one of
// roles. It must be mounted after JWTAuth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := Decide(Role(c), roles...)
			if !d.Allowed {
				return c.JSON(d.Status, echo.Map{"error": d.Reason})
			}
			return next(c)
		}
	}
}
