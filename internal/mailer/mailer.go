package mailer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Sender delivers a single HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Config selects and configures a Sender.
type Config struct {
	Provider      string
	From          string
	FromName      string
	MailerSendKey string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
}

// New builds the Sender named by cfg.Provider: "mailersend", "smtp" or "log".
func New(cfg Config, logger *logrus.Logger) (Sender, error) {
	switch cfg.Provider {
	case "mailersend":
		if cfg.MailerSendKey == "" || cfg.From == "" {
			return nil, fmt.Errorf("mailersend requires an api key and a from address")
		}
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.From), nil
	case "smtp":
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.From, cfg.SMTPUser, cfg.SMTPPass), nil
	case "", "log":
		return NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}
