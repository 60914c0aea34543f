package service

import "errors"

// Business and authentication failures. Handlers map these to HTTP status
// codes; anything else is an internal error.
var (
	ErrEmailNotFound        = errors.New("email not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidOTP           = errors.New("invalid or expired otp")
	ErrInvalidToken         = errors.New("invalid token")
	ErrExpiredToken         = errors.New("token expired")
	ErrValidation           = errors.New("validation failed")
)
