package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sellerhub/internal/model"
	"github.com/iliyamo/sellerhub/internal/service"
)

// AuthFlows is the part of service.AuthService the public auth endpoints
// use.
type AuthFlows interface {
	Register(ctx context.Context, in service.RegisterInput) (model.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	SendOTP(ctx context.Context, email string) error
	LoginWithOTP(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, email, newPassword, code string) error
}

// AuthHandler serves registration, password login, OTP login and password
// reset.
type AuthHandler struct {
	Auth AuthFlows
}

func NewAuthHandler(auth AuthFlows) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullName  string `json:"full_name"`
	StoreType string `json:"store_type"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SendOTP: POST /api/sendOtp?email=
func (h *AuthHandler) SendOTP(c echo.Context) error {
	email := strings.TrimSpace(c.QueryParam("email"))
	if email == "" {
		return message(c, http.StatusBadRequest, "email is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	switch err := h.Auth.SendOTP(ctx, email); {
	case err == nil:
		return message(c, http.StatusOK, "OTP sent to email")
	case errors.Is(err, service.ErrEmailNotFound):
		return message(c, http.StatusNotFound, "Email not found")
	default:
		return internalError(c, "send otp failed", err)
	}
}

// VerifyOTP: POST /api/verifyOtp?email=&otp=. A valid code logs the user in.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	email := strings.TrimSpace(c.QueryParam("email"))
	code := strings.TrimSpace(c.QueryParam("otp"))
	if email == "" || code == "" {
		return message(c, http.StatusBadRequest, "email and otp are required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	token, err := h.Auth.LoginWithOTP(ctx, email, code)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "Login successful", "token": token})
	case errors.Is(err, service.ErrEmailNotFound):
		return message(c, http.StatusNotFound, "Email not found")
	case errors.Is(err, service.ErrInvalidOTP):
		return message(c, http.StatusUnauthorized, "Invalid or expired OTP")
	default:
		return internalError(c, "verify otp failed", err)
	}
}

// Register: POST /api/register. New accounts are USER and PENDING whatever
// the body says.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	_, err := h.Auth.Register(ctx, service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		StoreType: req.StoreType,
	})
	switch {
	case err == nil:
		return message(c, http.StatusOK, "User created successfully")
	case errors.Is(err, service.ErrDuplicateEmail):
		// Existing clients look for this exact string with a 200.
		return message(c, http.StatusOK, "Duplicate entory")
	case errors.Is(err, service.ErrValidation):
		return message(c, http.StatusBadRequest, "email and password are required")
	default:
		return internalError(c, "create user failed", err)
	}
}

// Login: POST /api/login. Replies with the bare token string.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return message(c, http.StatusBadRequest, "username and password are required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	token, err := h.Auth.Login(ctx, req.Username, req.Password)
	switch {
	case err == nil:
		return c.String(http.StatusOK, token)
	case errors.Is(err, service.ErrAuthenticationFailed):
		return c.String(http.StatusUnauthorized, "Authentication failed: Bad credentials")
	default:
		return internalError(c, "login failed", err)
	}
}

// ResetPassword: PUT /api/reset-password?email=&newPassword=&otp=
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	email := strings.TrimSpace(c.QueryParam("email"))
	if email == "" {
		return message(c, http.StatusBadRequest, "email is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	err := h.Auth.ResetPassword(ctx, email, c.QueryParam("newPassword"), c.QueryParam("otp"))
	switch {
	case err == nil:
		return message(c, http.StatusOK, "Password updated successfully")
	case errors.Is(err, service.ErrEmailNotFound):
		return message(c, http.StatusNotFound, "Email not found")
	case errors.Is(err, service.ErrValidation):
		return message(c, http.StatusBadRequest, "newPassword is required")
	case errors.Is(err, service.ErrInvalidOTP):
		return message(c, http.StatusUnauthorized, "Invalid or expired OTP")
	default:
		return internalError(c, "reset password failed", err)
	}
}
