package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/secure-customer-api/internal/apperr"
	"github.com/iliyamo/secure-customer-api/internal/model"
	"github.com/iliyamo/secure-customer-api/internal/repository/memory"
)

func TestRefreshIssueKeepsOneTokenPerUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	m := NewRefreshManager(store, time.Hour)
	u := &model.User{ID: 1}

	first, err := m.Issue(ctx, u, t0)
	require.NoError(t, err)
	second, err := m.Issue(ctx, u, t0.Add(time.Minute))
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, 1, store.Len())

	_, err = m.Lookup(ctx, first.Token)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := m.Lookup(ctx, second.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.UserID)
	assert.Equal(t, t0.Add(time.Minute+time.Hour), got.ExpiresAt)
}

// racingStore lets another login slip a token in between the delete and the
// create of a rotation.
type racingStore struct {
	*memory.TokenStore
	competitor *model.RefreshToken
}

func (s *racingStore) DeleteByUserID(ctx context.Context, userID uint64) error {
	if err := s.TokenStore.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if s.competitor != nil {
		c := s.competitor
		s.competitor = nil
		return s.TokenStore.Create(ctx, c)
	}
	return nil
}

func TestRefreshIssueConcurrentRotationLastWriterWins(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{
		TokenStore: memory.NewTokenStore(),
		competitor: &model.RefreshToken{UserID: 1, TokenHash: HashToken("other-device"), ExpiresAt: t0.Add(time.Hour)},
	}
	m := NewRefreshManager(store, time.Hour)

	tok, err := m.Issue(ctx, &model.User{ID: 1}, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	got, err := m.Lookup(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.UserID)
	_, err = m.Lookup(ctx, "other-device")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRefreshTokenStoredHashed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	m := NewRefreshManager(store, time.Hour)

	tok, err := m.Issue(ctx, &model.User{ID: 4}, t0)
	require.NoError(t, err)

	stored, err := store.FindByUserID(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, HashToken(tok.Token), stored.TokenHash)
	assert.NotEqual(t, tok.Token, stored.TokenHash)
}

func TestRefreshDefaultTTL(t *testing.T) {
	m := NewRefreshManager(memory.NewTokenStore(), 0)
	tok, err := m.Issue(context.Background(), &model.User{ID: 1}, t0)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(604800000*time.Millisecond), tok.ExpiresAt)
}

func TestVerifyNotExpired(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	m := NewRefreshManager(store, time.Hour)

	tok, err := m.Issue(ctx, &model.User{ID: 1}, t0)
	require.NoError(t, err)
	live, err := m.Lookup(ctx, tok.Token)
	require.NoError(t, err)

	got, err := m.VerifyNotExpired(ctx, live, t0.Add(59*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, live.ExpiresAt, got.ExpiresAt, "verification must not extend expiry")

	_, err = m.VerifyNotExpired(ctx, live, live.ExpiresAt)
	assert.ErrorIs(t, err, ErrRefreshExpired)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = m.Lookup(ctx, tok.Token)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestRevokeAll(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	m := NewRefreshManager(store, time.Hour)

	_, err := m.Issue(ctx, &model.User{ID: 1}, t0)
	require.NoError(t, err)
	_, err = m.Issue(ctx, &model.User{ID: 2}, t0)
	require.NoError(t, err)

	require.NoError(t, m.RevokeAll(ctx, 1))
	assert.Equal(t, 1, store.Len())
}

func TestLookupEmpty(t *testing.T) {
	_, err := NewRefreshManager(memory.NewTokenStore(), time.Hour).Lookup(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
