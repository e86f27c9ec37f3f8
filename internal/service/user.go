package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/secure-customer-api/internal/apperr"
	"github.com/iliyamo/secure-customer-api/internal/auth"
	"github.com/iliyamo/secure-customer-api/internal/model"
	"github.com/iliyamo/secure-customer-api/internal/queue"
)

// ProfileUpdate holds the optional fields of a self-service profile edit.
type ProfileUpdate struct {
	FullName *string
	Email    *string
}

// UserService covers self-service profile reads/edits and the admin user
// management operations.
type UserService struct {
	users   auth.UserStore
	refresh *auth.RefreshManager
	events  EventPublisher
	now     func() time.Time
}

// NewUserService wires the service. refresh may be nil when refresh tokens
// are disabled; events may be nil.
func NewUserService(users auth.UserStore, refresh *auth.RefreshManager, events EventPublisher) *UserService {
	return &UserService{users: users, refresh: refresh, events: events, now: func() time.Time { return time.Now().UTC() }}
}

func (s *UserService) GetProfile(ctx context.Context, username string) (*Profile, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, storeErr(err, "user not found: "+username, "")
	}
	p := ProfileOf(u)
	return &p, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, username string, in ProfileUpdate) (*Profile, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, storeErr(err, "user not found: "+username, "")
	}
	if in.FullName != nil {
		u.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != u.Email {
			taken, err := s.users.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, apperr.Duplicate("email is already in use: %s", email)
			}
			u.Email = email
		}
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, storeErr(err, "user not found: "+username, "email is already in use")
	}
	p := ProfileOf(u)
	return &p, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]Profile, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(users))
	for _, u := range users {
		out = append(out, ProfileOf(u))
	}
	return out, nil
}

func (s *UserService) findByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user not found with id: "+itoa(id), "")
	}
	return u, nil
}

// UpdateUserRole sets the role of user id.
func (s *UserService) UpdateUserRole(ctx context.Context, id uint64, role model.Role) (*Profile, error) {
	if !role.Valid() {
		return nil, apperr.InvalidArgument("unknown role: %s", role)
	}
	u, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	log.Info().Uint64("user_id", id).Str("role", string(role)).Msg("user role updated")
	p := ProfileOf(u)
	return &p, nil
}

// ToggleUserStatus flips the active flag. Deactivation also revokes the
// user's refresh token.
func (s *UserService) ToggleUserStatus(ctx context.Context, id uint64) (*Profile, error) {
	u, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Active = !u.Active
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	if !u.Active {
		if s.refresh != nil {
			if err := s.refresh.RevokeAll(ctx, u.ID); err != nil {
				return nil, err
			}
		}
		publish(ctx, s.events, accountEvent(queue.AccountDeactivated, u, s.now()))
	}
	log.Info().Uint64("user_id", id).Bool("active", u.Active).Msg("user status toggled")
	p := ProfileOf(u)
	return &p, nil
}
