package model

import (
	"strings"
	"time"
)

// Role is the coarse authorization label carried by every user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Status tracks account approval.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
)

// User represents an application user record as stored in the `users`
// table.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique, lowercase email address; also the login name.
//	PasswordHash – bcrypt hashed password.
//	FullName     – display name.
//	StoreType    – kind of store the user runs.
//	Role         – USER or ADMIN.
//	Status       – PENDING until approved, then ACTIVE.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	FullName     string    // users.full_name
	StoreType    string    // users.store_type
	Role         Role      // users.role
	Status       Status    // users.status
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// NormalizeEmail trims and lowercases an address so lookups and OTP keys
// agree regardless of how the client typed it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
