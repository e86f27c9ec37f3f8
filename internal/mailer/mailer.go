// Package mailer delivers account mail over SMTP.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"

	"github.com/iliyamo/secure-customer-api/internal/config"
	"github.com/iliyamo/secure-customer-api/internal/queue"
)

type sender interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
}

// SMTPMailer renders and sends account messages.
type SMTPMailer struct {
	from   string
	client sender
}

func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("mailer: SMTP host is not configured")
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(15 * time.Second),
		mail.WithTLSConfig(&tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}),
	}
	switch cfg.TLS {
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	case "opportunistic":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, err
	}
	return &SMTPMailer{from: cfg.From, client: client}, nil
}

var resetTmpl = template.Must(template.New("reset").Parse(`Hello {{.Username}},

A password reset was requested for your account.

Reset token: {{.Token}}

The token expires at {{.ExpiresAt}}. If you did not request a reset you can
ignore this message.
`))

func (m *SMTPMailer) passwordResetMsg(to, username, token string, expiresAt time.Time) (*mail.Msg, error) {
	var body bytes.Buffer
	if err := resetTmpl.Execute(&body, map[string]string{
		"Username":  username,
		"Token":     token,
		"ExpiresAt": expiresAt.UTC().Format(time.RFC1123),
	}); err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject("Password reset request")
	msg.SetBodyString(mail.TypeTextPlain, body.String())
	return msg, nil
}

// SendPasswordReset mails token to the account owner.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, username, token string, expiresAt time.Time) error {
	msg, err := m.passwordResetMsg(to, username, token, expiresAt)
	if err != nil {
		return err
	}
	return m.client.DialAndSendWithContext(ctx, msg)
}

// HandleAccountEvent is the queue.Handler wired to the account consumer.
// Only reset requests produce mail; other events are logged.
func (m *SMTPMailer) HandleAccountEvent(ctx context.Context, ev queue.AccountEvent) error {
	if ev.Type != queue.PasswordResetRequested {
		log.Debug().Str("type", string(ev.Type)).Str("username", ev.Username).Msg("account event")
		return nil
	}
	if ev.ResetToken == "" || ev.ExpiresAt == nil {
		return errors.New("reset event without token")
	}
	if err := m.SendPasswordReset(ctx, ev.Email, ev.Username, ev.ResetToken, *ev.ExpiresAt); err != nil {
		return err
	}
	log.Info().Uint64("user_id", ev.UserID).Msg("password reset mail sent")
	return nil
}
