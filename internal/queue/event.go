// Package queue defines account event payloads and moves them over RabbitMQ.
package queue

import "time"

// EventType names an account lifecycle event.
type EventType string

const (
	UserRegistered         EventType = "user.registered"
	PasswordResetRequested EventType = "password.reset_requested"
	PasswordChanged        EventType = "password.changed"
	AccountDeactivated     EventType = "account.deactivated"
)

// AccountEvent is published on the account events queue. ResetToken and
// ExpiresAt are only set for PasswordResetRequested, whose consumer delivers
// the token by mail.
type AccountEvent struct {
	ID         string     `json:"id"`
	Type       EventType  `json:"type"`
	UserID     uint64     `json:"user_id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	ResetToken string     `json:"reset_token,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
