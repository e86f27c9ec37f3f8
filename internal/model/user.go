package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the coarse grained authority carried in access tokens.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole accepts a role name in any case. Unknown names are rejected.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// User mirrors the `users` table.
//
// Fields:
//
//	ResetTokenHash   – sha256 hex of the outstanding reset token, nil when none.
//	ResetTokenExpiry – expiry of that token, nil when none.
//	Active           – false once the account was deleted or deactivated.
type User struct {
	ID               uint64
	Username         string
	Email            string
	PasswordHash     string
	FullName         string
	Role             Role
	Active           bool
	ResetTokenHash   *string
	ResetTokenExpiry *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RefreshToken models a row in `refresh_tokens`. A user owns at most one.
// Token holds the raw value only right after issuance; the store keeps the
// sha256 digest in TokenHash.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	Token     string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
