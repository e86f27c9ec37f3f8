package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/secure-customer-api/internal/apperr"
	"github.com/iliyamo/secure-customer-api/internal/model"
	"github.com/iliyamo/secure-customer-api/internal/repository"
)

const DefaultResetTTL = time.Hour

var (
	ErrResetInvalid  = apperr.NotFound("invalid reset token")
	ErrResetExpired  = apperr.InvalidArgument("reset token has expired")
	ErrResetMismatch = apperr.InvalidArgument("new password and confirm password do not match")
)

// ResetTicket is an issued reset token. Token is the raw value and must be
// delivered out of band; the user row keeps only its hash.
type ResetTicket struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// ResetManager owns the single-use password reset token embedded on users.
type ResetManager struct {
	users    UserStore
	hasher   Hasher
	ttl      time.Duration
	newToken func() string
}

func NewResetManager(users UserStore, hasher Hasher, ttl time.Duration) *ResetManager {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	return &ResetManager{users: users, hasher: hasher, ttl: ttl, newToken: uuid.NewString}
}

// RequestReset overwrites any outstanding token for the owner of email.
func (m *ResetManager) RequestReset(ctx context.Context, email string, now time.Time) (*ResetTicket, error) {
	u, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found with email: %s", email)
		}
		return nil, err
	}

	raw := m.newToken()
	hash := HashToken(raw)
	exp := now.Add(m.ttl)
	u.ResetTokenHash = &hash
	u.ResetTokenExpiry = &exp
	if err := m.users.Save(ctx, u); err != nil {
		return nil, err
	}
	return &ResetTicket{User: u, Token: raw, ExpiresAt: exp}, nil
}

// ConsumeReset sets a new password if token is live. Checks run in order:
// unknown token, expiry, then new/confirm mismatch. Success clears the token.
func (m *ResetManager) ConsumeReset(ctx context.Context, token, newPassword, confirmPassword string, now time.Time) (*model.User, error) {
	if token == "" {
		return nil, ErrResetInvalid
	}
	u, err := m.users.FindByResetToken(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResetInvalid
		}
		return nil, err
	}
	if u.ResetTokenExpiry == nil || !now.Before(*u.ResetTokenExpiry) {
		return nil, ErrResetExpired
	}
	if newPassword != confirmPassword {
		return nil, ErrResetMismatch
	}

	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash
	u.ResetTokenHash = nil
	u.ResetTokenExpiry = nil
	if err := m.users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
