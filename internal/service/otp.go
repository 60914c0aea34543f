package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"

	"github.com/iliyamo/sellerhub/internal/model"
)

// OTPStore keeps the single live code per email. Consume must compare and
// delete atomically.
type OTPStore interface {
	Save(ctx context.Context, email string, e model.OTPEntry, ttl time.Duration) error
	Consume(ctx context.Context, email, code string, now time.Time, ttl time.Duration) (bool, error)
}

// OTPService issues and verifies short-lived numeric login codes.
type OTPService struct {
	store  OTPStore
	ttl    time.Duration
	digits otp.Digits

	now     func() time.Time
	newCode func() (string, error)
}

// NewOTPService returns a service issuing codes of the given length that
// stay valid for ttl.
func NewOTPService(store OTPStore, ttl time.Duration, digits int) *OTPService {
	s := &OTPService{store: store, ttl: ttl, digits: otp.Digits(digits), now: time.Now}
	s.newCode = s.hotpCode
	return s
}

// hotpCode derives a code from a fresh 160-bit secret, so codes for the
// same email are unrelated.
func (s *OTPService) hotpCode() (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	secret := base32.StdEncoding.EncodeToString(raw)
	return hotp.GenerateCodeCustom(secret, uint64(s.now().UnixNano()), hotp.ValidateOpts{
		Digits:    s.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// Generate creates a code for email, replacing any pending one.
func (s *OTPService) Generate(ctx context.Context, email string) (string, error) {
	code, err := s.newCode()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	entry := model.OTPEntry{Code: code, IssuedAt: s.now()}
	if err := s.store.Save(ctx, model.NormalizeEmail(email), entry, s.ttl); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify reports whether code is the live, unexpired code for email and
// consumes it when it is.
func (s *OTPService) Verify(ctx context.Context, email, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if len(code) != s.digits.Length() {
		return false, nil
	}
	ok, err := s.store.Consume(ctx, model.NormalizeEmail(email), code, s.now(), s.ttl)
	if err != nil {
		return false, fmt.Errorf("verify otp: %w", err)
	}
	return ok, nil
}
