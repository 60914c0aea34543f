package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/sellerhub/internal/model"
	"github.com/iliyamo/sellerhub/internal/repository"
	"github.com/iliyamo/sellerhub/internal/utils"
)

// UserFinder resolves token subjects to stored users.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenService issues and validates stateless bearer tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	users  UserFinder
	now    func() time.Time
}

// NewTokenService signs with secret and issues tokens valid for ttl.
func NewTokenService(secret string, ttl time.Duration, users UserFinder) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, users: users, now: time.Now}
}

// Issue signs a token for u. The subject is the user's email.
func (s *TokenService) Issue(u model.User) (string, time.Time, error) {
	return utils.SignAccessToken(s.secret, u.Email, u.ID, s.now(), s.ttl)
}

func (s *TokenService) parse(raw string) (*utils.Claims, error) {
	claims, err := utils.ParseAccessToken(s.secret, raw, s.now())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// Validate checks signature and expiry and returns the subject.
func (s *TokenService) Validate(raw string) (string, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractUserID returns the id of the user the token was issued to. Tokens
// without a uid claim are resolved through the credential store. Any error
// means the caller is unauthenticated.
func (s *TokenService) ExtractUserID(ctx context.Context, raw string) (uint64, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return 0, err
	}
	if claims.UserID != 0 {
		return claims.UserID, nil
	}
	u, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		return 0, fmt.Errorf("resolve token subject: %w", err)
	}
	return u.ID, nil
}

// Authenticate validates raw and loads the user it names. The stored user
// must still exist and carry the email the token was issued for.
func (s *TokenService) Authenticate(ctx context.Context, raw string) (model.User, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return model.User{}, err
	}
	var u model.User
	if claims.UserID != 0 {
		u, err = s.users.GetByID(ctx, claims.UserID)
	} else {
		u, err = s.users.GetByEmail(ctx, claims.Subject)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if u.Email != model.NormalizeEmail(claims.Subject) {
		return model.User{}, ErrInvalidToken
	}
	return u, nil
}
