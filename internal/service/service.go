// Package service composes the auth core and the stores into the
// operations exposed over HTTP. Every error it returns either wraps an
// apperr kind or is an unexpected infrastructure failure.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/secure-customer-api/internal/apperr"
	"github.com/iliyamo/secure-customer-api/internal/model"
	"github.com/iliyamo/secure-customer-api/internal/queue"
	"github.com/iliyamo/secure-customer-api/internal/repository"
)

// EventPublisher ships account events for out-of-band processing.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AccountEvent) error
}

// Message is the {message} body returned by state-changing flows.
type Message struct {
	Message string `json:"message"`
}

// Profile is the public view of a user. It never carries credentials.
type Profile struct {
	ID        uint64     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName"`
	Role      model.Role `json:"role"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
}

func ProfileOf(u *model.User) Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// publish is best effort: a broker outage must not fail the request.
func publish(ctx context.Context, p EventPublisher, ev queue.AccountEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", string(ev.Type)).Uint64("user_id", ev.UserID).Msg("account event not published")
	}
}

func accountEvent(t queue.EventType, u *model.User, now time.Time) queue.AccountEvent {
	return queue.AccountEvent{Type: t, UserID: u.ID, Username: u.Username, Email: u.Email, OccurredAt: now}
}

func isNotFound(err error) bool { return errors.Is(err, repository.ErrNotFound) }

// storeErr maps a store miss to a NotFound with msg and a unique-key clash
// to a Duplicate with dupMsg. Other errors pass through.
func storeErr(err error, msg, dupMsg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("%s", msg)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Duplicate("%s", dupMsg)
	}
	return err
}
