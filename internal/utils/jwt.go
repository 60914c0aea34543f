package utils // package utils provides helper functions for token signing and hashing

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of an access token. Subject carries the user's
// email; UserID is embedded so most requests avoid a lookup.
type Claims struct {
	jwt.RegisteredClaims
	UserID uint64 `json:"uid,omitempty"`
}

// SignAccessToken builds and signs an HS256 JWT for subject that expires
// ttl after now.
func SignAccessToken(secret []byte, subject string, userID uint64, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.UTC().Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now.UTC()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: userID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// ParseAccessToken verifies signature and expiry of raw. now is the clock
// used for expiry checks. Errors wrap the jwt sentinel errors so callers can
// tell jwt.ErrTokenExpired apart from other failures.
func ParseAccessToken(secret []byte, raw string, now time.Time) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, err
	}
	if !tok.Valid || claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
