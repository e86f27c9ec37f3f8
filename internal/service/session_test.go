package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/secure-customer-api/internal/apperr"
	"github.com/iliyamo/secure-customer-api/internal/auth"
	"github.com/iliyamo/secure-customer-api/internal/model"
	"github.com/iliyamo/secure-customer-api/internal/queue"
	"github.com/iliyamo/secure-customer-api/internal/repository/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.AccountEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.AccountEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) last() queue.AccountEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type fixture struct {
	users   *memory.UserStore
	tokens  *memory.TokenStore
	hasher  auth.Hasher
	issuer  *auth.TokenIssuer
	refresh *auth.RefreshManager
	events  *recordingPublisher
	now     time.Time
	svc     *SessionService
}

func (f *fixture) clock() time.Time { return f.now }

func newFixture(t *testing.T, opts ...SessionOption) *fixture {
	t.Helper()
	f := &fixture{
		users:  memory.NewUserStore(),
		tokens: memory.NewTokenStore(),
		hasher: auth.NewBcryptHasher(bcrypt.MinCost),
		events: &recordingPublisher{},
		now:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	var err error
	f.issuer, err = auth.NewTokenIssuer("test-secret", 15*time.Minute)
	require.NoError(t, err)
	f.refresh = auth.NewRefreshManager(f.tokens, time.Hour)

	base := []SessionOption{WithRefresh(f.refresh), WithEvents(f.events), WithExposeResetToken(true), WithClock(f.clock)}
	f.svc = NewSessionService(f.users, f.hasher, f.issuer, auth.NewResetManager(f.users, f.hasher, time.Hour), append(base, opts...)...)
	return f
}

func (f *fixture) register(t *testing.T, username, email, password string) *Profile {
	t.Helper()
	p, err := f.svc.Register(context.Background(), username, email, password, "Test User")
	require.NoError(t, err)
	return p
}

func TestRegisterLoginResetScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := f.register(t, "alice", "a@x.com", "pw123456")
	assert.Equal(t, model.RoleUser, p.Role)
	assert.True(t, p.Active)

	res, err := f.svc.Login(ctx, "alice", "pw123456")
	require.NoError(t, err)
	claims, err := f.issuer.Validate(res.AccessToken, f.now)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, model.RoleUser, claims.Role)
	assert.Equal(t, "a@x.com", res.Email)
	assert.NotEmpty(t, res.RefreshToken)

	forgot, err := f.svc.ForgotPassword(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, forgot.ResetToken)

	ev := f.events.last()
	assert.Equal(t, queue.PasswordResetRequested, ev.Type)
	assert.Equal(t, forgot.ResetToken, ev.ResetToken)
	require.NotNil(t, ev.ExpiresAt)
	assert.Equal(t, f.now.Add(time.Hour), *ev.ExpiresAt)

	msg, err := f.svc.ResetPassword(ctx, forgot.ResetToken, "newpw123", "newpw123")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.Message)

	_, err = f.svc.Login(ctx, "alice", "pw123456")
	assert.ErrorIs(t, err, apperr.ErrAuthFailed)

	_, err = f.svc.Login(ctx, "alice", "newpw123")
	assert.NoError(t, err)

	_, err = f.svc.ResetPassword(ctx, forgot.ResetToken, "again123", "again123")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice", "a@x.com", "pw123456")
	f.register(t, "bob", "b@x.com", "pw123456")
	_, err := f.svc.DeleteAccount(ctx, "bob", "pw123456")
	require.NoError(t, err)

	_, unknown := f.svc.Login(ctx, "nobody", "pw123456")
	_, wrong := f.svc.Login(ctx, "alice", "nope")
	_, inactive := f.svc.Login(ctx, "bob", "pw123456")

	for _, err := range []error{unknown, wrong, inactive} {
		assert.ErrorIs(t, err, apperr.ErrAuthFailed)
	}
	assert.Equal(t, unknown.Error(), wrong.Error())
	assert.Equal(t, wrong.Error(), inactive.Error())
}

func TestLoginMetrics(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "a@x.com", "pw123456")

	before := testutil.ToFloat64(authEvents.WithLabelValues("login", "failure"))
	_, _ = f.svc.Login(context.Background(), "alice", "bad")
	assert.Equal(t, before+1, testutil.ToFloat64(authEvents.WithLabelValues("login", "failure")))
}

func TestRegisterDuplicates(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "a@x.com", "pw123456")

	_, err := f.svc.Register(context.Background(), "alice", "other@x.com", "pw123456", "")
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	_, err = f.svc.Register(context.Background(), "alice2", "A@X.com", "pw123456", "")
	assert.ErrorIs(t, err, apperr.ErrDuplicate)
}

func TestRefreshRotatesAndOldTokenDies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice", "a@x.com", "pw123456")

	login, err := f.svc.Login(ctx, "alice", "pw123456")
	require.NoError(t, err)

	first, err := f.svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, first.RefreshToken)
	assert.Equal(t, "alice", first.Username)

	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.Refresh(ctx, first.RefreshToken)
	assert.NoError(t, err)
}

func TestOneRefreshTokenPerUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice", "a@x.com", "pw123456")

	a, err := f.svc.Login(ctx, "alice", "pw123456")
	require.NoError(t, err)
	b, err := f.svc.Login(ctx, "alice", "pw123456")
	require.NoError(t, err)

	assert.Equal(t, 1, f.tokens.Len())
	_, err = f.svc.Refresh(ctx, a.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.Refresh(ctx, b.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshExpiredIsNotFoundAndDeleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice", "a@x.com", "pw123456")

	login, err := f.svc.Login(ctx, "alice", "pw123456")
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 0, f.tokens.Len())
}

func TestRefreshDisabled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithRefresh(nil))
	f.register(t, "alice", "a@x.com", "pw123456")

	login, err := f.svc.Login(ctx, "alice", "pw123456")
	require.NoError(t, err)
	assert.Empty(t, login.RefreshToken)
	assert.False(t, f.svc.RefreshEnabled())

	_, err = f.svc.Refresh(ctx, "anything")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.EqualError(t, err, "refresh token service not available")
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice", "a@x.com", "pw123456")
	before, err := f.users.FindByUsername(ctx, "alice")
	require.NoError(t, err)

	_, err = f.svc.ChangePassword(ctx, "alice", "wrong", "next1234", "next1234")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	after, err := f.users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)

	_, err = f.svc.ChangePassword(ctx, "alice", "pw123456", "next1234", "next9999")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = f.svc.ChangePassword(ctx, "alice", "pw123456", "next1234", "next1234")
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, "alice", "next1234")
	assert.NoError(t, err)
	assert.Equal(t, queue.PasswordChanged, f.events.last().Type)
}

func TestForgotPasswordHidesTokenWhenConfigured(t *testing.T) {
	f := newFixture(t, WithExposeResetToken(false))
	f.register(t, "alice", "a@x.com", "pw123456")

	res, err := f.svc.ForgotPassword(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, res.ResetToken)
	assert.NotEmpty(t, f.events.last().ResetToken)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ForgotPassword(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice", "a@x.com", "pw123456")
	login, err := f.svc.Login(ctx, "alice", "pw123456")
	require.NoError(t, err)

	_, err = f.svc.Logout(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, f.tokens.Len())

	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteAccountKeepsRefreshToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice", "a@x.com", "pw123456")
	_, err := f.svc.Login(ctx, "alice", "pw123456")
	require.NoError(t, err)

	_, err = f.svc.DeleteAccount(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = f.svc.DeleteAccount(ctx, "alice", "pw123456")
	require.NoError(t, err)

	u, err := f.users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, u.Active)
	assert.Equal(t, 1, f.tokens.Len())
	assert.Equal(t, queue.AccountDeactivated, f.events.last().Type)
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "a@x.com", "pw123456")

	p, err := f.svc.Me(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Test User", p.FullName)

	_, err = f.svc.Me(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
