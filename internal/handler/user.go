package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sellerhub/internal/model"
	"github.com/iliyamo/sellerhub/internal/service"
)

// UserAdmin is what the profile and approval endpoints need from
// service.AuthService.
type UserAdmin interface {
	GetUser(ctx context.Context, id uint64) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	Approve(ctx context.Context, id uint64) error
}

// UserIDExtractor resolves a raw bearer token to a user id.
type UserIDExtractor interface {
	ExtractUserID(ctx context.Context, raw string) (uint64, error)
}

type UserHandler struct {
	Users  UserAdmin
	Tokens UserIDExtractor
}

func NewUserHandler(users UserAdmin, tokens UserIDExtractor) *UserHandler {
	return &UserHandler{Users: users, Tokens: tokens}
}

type profileResp struct {
	ID        uint64       `json:"id"`
	FullName  string       `json:"FullName"`
	StoreType string       `json:"storeType"`
	Role      model.Role   `json:"role"`
	Status    model.Status `json:"status"`
}

// userSummary is the admin listing view of a user; the password hash is
// never exposed.
type userSummary struct {
	ID        uint64       `json:"id"`
	Email     string       `json:"email"`
	FullName  string       `json:"full_name"`
	StoreType string       `json:"store_type"`
	Role      model.Role   `json:"role"`
	Status    model.Status `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// GetUserByID: GET /api/getUserById. The caller is taken from the token.
func (h *UserHandler) GetUserByID(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Tokens.ExtractUserID(ctx, bearerToken(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid JWT token"})
	}
	u, err := h.Users.GetUser(ctx, id)
	if errors.Is(err, service.ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
	}
	if err != nil {
		return internalError(c, "load user failed", err)
	}
	return c.JSON(http.StatusOK, profileResp{
		ID:        u.ID,
		FullName:  u.FullName,
		StoreType: u.StoreType,
		Role:      u.Role,
		Status:    u.Status,
	})
}

// Approve: PUT /api/approve/:id (ADMIN).
func (h *UserHandler) Approve(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.String(http.StatusBadRequest, "Invalid user id.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	err := h.Users.Approve(ctx, id)
	if errors.Is(err, service.ErrUserNotFound) {
		return c.String(http.StatusNotFound, "User not found.")
	}
	if err != nil {
		return internalError(c, "approve user failed", err)
	}
	return c.String(http.StatusOK, "User approved successfully.")
}

// RegisteredUsers: GET /api/registeredUser (ADMIN).
func (h *UserHandler) RegisteredUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.ListUsers(ctx)
	if err != nil {
		return internalError(c, "list users failed", err)
	}
	out := make([]userSummary, 0, len(users))
	for _, u := range users {
		out = append(out, userSummary{
			ID:        u.ID,
			Email:     u.Email,
			FullName:  u.FullName,
			StoreType: u.StoreType,
			Role:      u.Role,
			Status:    u.Status,
			CreatedAt: u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// TestLanding: GET /api/testLanding
func (h *UserHandler) TestLanding(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Tokens.ExtractUserID(ctx, bearerToken(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid JWT token"})
	}
	return c.String(http.StatusOK, "Welcome to login user "+strconv.FormatUint(id, 10))
}

// Text returns a handler replying with a fixed plain text body. Used for
// the welcome and role check endpoints.
func Text(body string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, body)
	}
}
