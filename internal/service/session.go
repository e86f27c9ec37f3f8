package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/secure-customer-api/internal/apperr"
	"github.com/iliyamo/secure-customer-api/internal/auth"
	"github.com/iliyamo/secure-customer-api/internal/model"
	"github.com/iliyamo/secure-customer-api/internal/queue"
	"github.com/iliyamo/secure-customer-api/internal/repository"
)

var (
	errBadCredentials   = apperr.AuthFailed("invalid username or password")
	errRefreshDisabled  = apperr.NotFound("refresh token service not available")
	errWrongPassword    = apperr.InvalidArgument("current password is incorrect")
	errPasswordMismatch = apperr.InvalidArgument("new password and confirm password do not match")
)

// AuthResult is returned by Login and Refresh. RefreshToken is empty when
// refresh tokens are disabled.
type AuthResult struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
	Username        string
	Email           string
	Role            model.Role
}

// ForgotResult carries the reset token only when the deployment allows it
// to be echoed back.
type ForgotResult struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken,omitempty"`
}

// SessionService runs the login, refresh, logout and password flows.
type SessionService struct {
	users   auth.UserStore
	hasher  auth.Hasher
	tokens  *auth.TokenIssuer
	resets  *auth.ResetManager
	refresh *auth.RefreshManager
	events  EventPublisher

	exposeResetToken bool
	now              func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

type SessionOption func(*SessionService)

// WithRefresh enables refresh tokens. Without it Refresh reports
// "refresh token service not available".
func WithRefresh(m *auth.RefreshManager) SessionOption {
	return func(s *SessionService) { s.refresh = m }
}

func WithEvents(p EventPublisher) SessionOption {
	return func(s *SessionService) { s.events = p }
}

func WithExposeResetToken(on bool) SessionOption {
	return func(s *SessionService) { s.exposeResetToken = on }
}

func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

func NewSessionService(users auth.UserStore, hasher auth.Hasher, tokens *auth.TokenIssuer, resets *auth.ResetManager, opts ...SessionOption) *SessionService {
	s := &SessionService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		resets: resets,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *SessionService) RefreshEnabled() bool { return s.refresh != nil }

// Login verifies credentials and opens a session. Unknown users, inactive
// users and wrong passwords all yield the same AuthenticationFailed.
func (s *SessionService) Login(ctx context.Context, username, password string) (res *AuthResult, err error) {
	defer func() { observe("login", err) }()

	u, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		// burn the same bcrypt time as a real check
		s.hasher.Verify(password, s.placeholderHash())
		log.Info().Str("username", username).Msg("login failed")
		return nil, errBadCredentials
	}
	if !s.hasher.Verify(password, u.PasswordHash) || !u.Active {
		log.Info().Str("username", username).Bool("active", u.Active).Msg("login failed")
		return nil, errBadCredentials
	}
	return s.openSession(ctx, u)
}

func (s *SessionService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("placeholder-password")
	})
	return s.dummyHash
}

func (s *SessionService) openSession(ctx context.Context, u *model.User) (*AuthResult, error) {
	now := s.now()
	at, err := s.tokens.Issue(u.Username, u.Role, now)
	if err != nil {
		return nil, err
	}
	res := &AuthResult{
		AccessToken:     at.Token,
		AccessExpiresAt: at.ExpiresAt,
		Username:        u.Username,
		Email:           u.Email,
		Role:            u.Role,
	}
	if s.refresh != nil {
		rt, err := s.refresh.Issue(ctx, u, now)
		if err != nil {
			return nil, err
		}
		res.RefreshToken = rt.Token
	}
	return res, nil
}

// Register creates an active USER account.
func (s *SessionService) Register(ctx context.Context, username, email, password, fullName string) (*Profile, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Duplicate("username is already taken: %s", username)
	}
	taken, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Duplicate("email is already in use: %s", email)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
		Role:         model.RoleUser,
		Active:       true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, storeErr(err, "user not found", "username or email is already in use")
	}
	publish(ctx, s.events, accountEvent(queue.UserRegistered, u, s.now()))
	p := ProfileOf(u)
	return &p, nil
}

func (s *SessionService) findUser(ctx context.Context, username string) (*model.User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, storeErr(err, "user not found: "+username, "")
	}
	return u, nil
}

// ChangePassword requires the current password, then new == confirm.
func (s *SessionService) ChangePassword(ctx context.Context, username, current, next, confirm string) (*Message, error) {
	u, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(current, u.PasswordHash) {
		return nil, errWrongPassword
	}
	if next != confirm {
		return nil, errPasswordMismatch
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	publish(ctx, s.events, accountEvent(queue.PasswordChanged, u, s.now()))
	return &Message{Message: "password changed successfully"}, nil
}

// ForgotPassword issues a reset token and queues it for mail delivery.
func (s *SessionService) ForgotPassword(ctx context.Context, email string) (res *ForgotResult, err error) {
	defer func() { observe("forgot_password", err) }()

	now := s.now()
	ticket, err := s.resets.RequestReset(ctx, email, now)
	if err != nil {
		return nil, err
	}
	log.Info().Uint64("user_id", ticket.User.ID).Msg("password reset requested")

	ev := accountEvent(queue.PasswordResetRequested, ticket.User, now)
	ev.ResetToken = ticket.Token
	exp := ticket.ExpiresAt
	ev.ExpiresAt = &exp
	publish(ctx, s.events, ev)

	res = &ForgotResult{Message: "password reset instructions have been sent"}
	if s.exposeResetToken {
		res.ResetToken = ticket.Token
	}
	return res, nil
}

func (s *SessionService) ResetPassword(ctx context.Context, token, next, confirm string) (m *Message, err error) {
	defer func() { observe("reset_password", err) }()

	u, err := s.resets.ConsumeReset(ctx, token, next, confirm, s.now())
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, accountEvent(queue.PasswordChanged, u, s.now()))
	return &Message{Message: "password has been reset successfully"}, nil
}

// Refresh exchanges a live refresh token for a new session and rotates the
// refresh token. Unknown, expired and orphaned tokens are all NotFound.
func (s *SessionService) Refresh(ctx context.Context, raw string) (res *AuthResult, err error) {
	defer func() { observe("refresh", err) }()

	if s.refresh == nil {
		return nil, errRefreshDisabled
	}
	tok, err := s.refresh.Lookup(ctx, raw)
	if err != nil {
		return nil, err
	}
	userID := tok.UserID
	if tok, err = s.refresh.VerifyNotExpired(ctx, tok, s.now()); err != nil {
		log.Info().Uint64("user_id", userID).Msg("refresh token expired")
		return nil, err
	}
	u, err := s.users.FindByID(ctx, tok.UserID)
	if err != nil {
		return nil, storeErr(err, "refresh token not found", "")
	}
	return s.openSession(ctx, u)
}

// Logout drops the caller's refresh token. Access tokens stay valid until
// they expire.
func (s *SessionService) Logout(ctx context.Context, username string) (*Message, error) {
	if s.refresh != nil {
		u, err := s.findUser(ctx, username)
		if err != nil {
			return nil, err
		}
		if err := s.refresh.RevokeAll(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	return &Message{Message: "logged out successfully"}, nil
}

// DeleteAccount deactivates the caller after a password check. Outstanding
// refresh tokens are left in place.
func (s *SessionService) DeleteAccount(ctx context.Context, username, password string) (*Message, error) {
	u, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, apperr.InvalidArgument("password is incorrect")
	}
	u.Active = false
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	publish(ctx, s.events, accountEvent(queue.AccountDeactivated, u, s.now()))
	return &Message{Message: "account deleted successfully"}, nil
}

func (s *SessionService) Me(ctx context.Context, username string) (*Profile, error) {
	u, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	p := ProfileOf(u)
	return &p, nil
}
