package model

import "time"

// OTPEntry is the single live one-time code for an email address.
type OTPEntry struct {
	Code     string
	IssuedAt time.Time
}

// Expired reports whether the entry is older than ttl at now.
func (e OTPEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.IssuedAt) > ttl
}
