package domain

import "time"

// Role differentiates regular members from administrators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// TokenPurpose distinguishes single-use account tokens.
type TokenPurpose string

const (
	TokenPurposePasswordReset     TokenPurpose = "password_reset"
	TokenPurposeEmailVerification TokenPurpose = "email_verification"
)

// AccountToken is an opaque single-use token mailed to the account owner.
type AccountToken struct {
	ID        string
	UserID    string
	Purpose   TokenPurpose
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still be redeemed at now.
func (t *AccountToken) Usable(purpose TokenPurpose, now time.Time) bool {
	return t != nil && t.Purpose == purpose && t.UsedAt == nil && now.Before(t.ExpiresAt)
}
