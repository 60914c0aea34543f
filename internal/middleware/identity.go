package middleware

// identity.go holds the context keys JWTAuth populates and the accessors
// handlers and other middleware use to read them back.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sellerhub/internal/model"
)

const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxRole   = "role"
)

// UserID returns the authenticated caller's id. ok is false on routes that
// did not pass through JWTAuth.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// Email returns the authenticated caller's email.
func Email(c echo.Context) string {
	s, _ := c.Get(ctxEmail).(string)
	return s
}

// Role returns the authenticated caller's role, empty when anonymous.
func Role(c echo.Context) model.Role {
	r, _ := c.Get(ctxRole).(model.Role)
	return r
}

func setIdentity(c echo.Context, u model.User) {
	c.Set(ctxUserID, u.ID)
	c.Set(ctxEmail, u.Email)
	c.Set(ctxRole, u.Role)
}

// currentUserID is the rate limit key component for the caller; "anon"
// when unauthenticated.
func currentUserID(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
