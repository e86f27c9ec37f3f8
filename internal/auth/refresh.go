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

// DefaultRefreshTTL is 604800000 ms.
const DefaultRefreshTTL = 7 * 24 * time.Hour

var (
	ErrRefreshNotFound = apperr.NotFound("refresh token not found")
	// ErrRefreshExpired wraps the NotFound kind so callers cannot tell an
	// expired token from one that never existed.
	ErrRefreshExpired = apperr.NotFound("refresh token has expired, please sign in again")
)

// RefreshManager issues and checks refresh tokens. A user owns at most one:
// Issue deletes the previous token before creating the new one. The two
// steps are not atomic; concurrent issuers race and the last write wins.
type RefreshManager struct {
	store    RefreshTokenStore
	ttl      time.Duration
	newToken func() string
}

func NewRefreshManager(store RefreshTokenStore, ttl time.Duration) *RefreshManager {
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	return &RefreshManager{store: store, ttl: ttl, newToken: uuid.NewString}
}

// Issue rotates the user's refresh token. The returned token carries the raw
// value in Token; only its hash is persisted.
func (m *RefreshManager) Issue(ctx context.Context, user *model.User, now time.Time) (*model.RefreshToken, error) {
	if err := m.store.DeleteByUserID(ctx, user.ID); err != nil {
		return nil, err
	}
	raw := m.newToken()
	t := &model.RefreshToken{
		UserID:    user.ID,
		Token:     raw,
		TokenHash: HashToken(raw),
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (m *RefreshManager) Lookup(ctx context.Context, raw string) (*model.RefreshToken, error) {
	if raw == "" {
		return nil, ErrRefreshNotFound
	}
	t, err := m.store.FindByTokenHash(ctx, HashToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRefreshNotFound
		}
		return nil, err
	}
	return t, nil
}

// VerifyNotExpired returns t unchanged while now < ExpiresAt. Otherwise the
// token is deleted and ErrRefreshExpired returned. Expiry never slides.
func (m *RefreshManager) VerifyNotExpired(ctx context.Context, t *model.RefreshToken, now time.Time) (*model.RefreshToken, error) {
	if now.Before(t.ExpiresAt) {
		return t, nil
	}
	if err := m.store.Delete(ctx, t.ID); err != nil {
		return nil, err
	}
	return nil, ErrRefreshExpired
}

// RevokeAll deletes whatever refresh token the user holds.
func (m *RefreshManager) RevokeAll(ctx context.Context, userID uint64) error {
	return m.store.DeleteByUserID(ctx, userID)
}
