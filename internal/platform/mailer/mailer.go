// Package mailer sends transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// Sender delivers a single HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
}

var _ Sender = (*SMTPSender)(nil)

type SMTPSender struct {
	cfg    Config
	logger *slog.Logger
}

func NewSMTPSender(cfg Config, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: logger}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	l := s.logger.With(slog.String("method", "Send"), slog.String("subject", subject))

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.User); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.User),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		l.ErrorContext(ctx, "Failed to send email", slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}
	l.InfoContext(ctx, "Email sent")
	return nil
}
