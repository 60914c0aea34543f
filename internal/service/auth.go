package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/sellerhub/internal/mail"
	"github.com/iliyamo/sellerhub/internal/model"
	"github.com/iliyamo/sellerhub/internal/repository"
	"github.com/iliyamo/sellerhub/internal/utils"
)

// UserStore is the credential store as seen by the auth flows.
type UserStore interface {
	UserFinder
	Create(ctx context.Context, u *model.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]model.User, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	UpdateStatus(ctx context.Context, id uint64, status model.Status) error
}

// AuthOptions tunes AuthService.
type AuthOptions struct {
	BcryptCost       int
	ResetRequiresOTP bool
}

// AuthService composes the credential store, OTP service, token service and
// mail sender into the login, registration and recovery flows.
type AuthService struct {
	users  UserStore
	otp    *OTPService
	tokens *TokenService
	mailer mail.Sender
	opts   AuthOptions
}

func NewAuthService(users UserStore, otp *OTPService, tokens *TokenService, mailer mail.Sender, opts AuthOptions) *AuthService {
	return &AuthService{users: users, otp: otp, tokens: tokens, mailer: mailer, opts: opts}
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Email     string
	Password  string
	FullName  string
	StoreType string
}

// Register creates a PENDING user with role USER.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	email := model.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return model.User{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	if exists {
		return model.User{}, ErrDuplicateEmail
	}
	hash, err := utils.HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		StoreType:    strings.TrimSpace(in.StoreType),
		Role:         model.RoleUser,
		Status:       model.StatusPending,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, err
	}
	return u, nil
}

// Login checks the password and returns a signed token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetByEmail(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrAuthenticationFailed
	}
	if err != nil {
		return "", err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return "", ErrAuthenticationFailed
	}
	token, _, err := s.tokens.Issue(u)
	return token, err
}

func (s *AuthService) requireRegistered(ctx context.Context, email string) error {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !exists {
		return ErrEmailNotFound
	}
	return nil
}

// SendOTP issues a login code for a registered email and mails it.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	email = model.NormalizeEmail(email)
	if err := s.requireRegistered(ctx, email); err != nil {
		return err
	}
	code, err := s.otp.Generate(ctx, email)
	if err != nil {
		return err
	}
	msg := mail.Message{
		To:      email,
		Subject: "Your Login OTP",
		Body:    "Use this OTP to log in your email: " + code,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}

// VerifyOTP checks and consumes the code for a registered email.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (bool, error) {
	email = model.NormalizeEmail(email)
	if err := s.requireRegistered(ctx, email); err != nil {
		return false, err
	}
	return s.otp.Verify(ctx, email, code)
}

// LoginWithOTP verifies the code and issues a token in place of a password
// login.
func (s *AuthService) LoginWithOTP(ctx context.Context, email, code string) (string, error) {
	ok, err := s.VerifyOTP(ctx, email, code)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidOTP
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrEmailNotFound
	}
	if err != nil {
		return "", err
	}
	token, _, err := s.tokens.Issue(u)
	return token, err
}

// ResetPassword replaces the password of a registered email. When the
// service requires it, code must be a live OTP for that email.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword, code string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEmailNotFound
	}
	if err != nil {
		return err
	}
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", ErrValidation)
	}
	if s.opts.ResetRequiresOTP {
		ok, err := s.otp.Verify(ctx, u.Email, code)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidOTP
		}
	}
	hash, err := utils.HashPassword(newPassword, s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, u.ID, hash)
}

// Approve activates a user. Approving an active user is a no-op.
func (s *AuthService) Approve(ctx context.Context, id uint64) error {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if u.Status == model.StatusActive {
		return nil
	}
	return s.users.UpdateStatus(ctx, id, model.StatusActive)
}

// GetUser loads a user by id.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// ListUsers returns every registered user.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}
