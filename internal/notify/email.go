package notify

import (
	"context"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"

	"github.com/stockistmap/stockistmap/pkg/errors"
	"github.com/stockistmap/stockistmap/pkg/logging"
)

// EmailAlerter sends operator alerts over SMTP. It is reserved for the
// fatal-error path; routine change reports go through the Notifier.
type EmailAlerter struct {
	dialer *gomail.Dialer
	from   string
	to     string
	logger *zerolog.Logger
}

// EmailConfig carries SMTP settings for the alert path.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// NewEmailAlerter creates an Alerter over the given SMTP account.
func NewEmailAlerter(cfg EmailConfig) *EmailAlerter {
	return &EmailAlerter{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		to:     cfg.To,
		logger: logging.Default(),
	}
}

// Alert sends the alert email.
func (a *EmailAlerter) Alert(_ context.Context, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", a.from)
	m.SetHeader("To", a.to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := a.dialer.DialAndSend(m); err != nil {
		return errors.WrapAPI("email", 0, err)
	}
	a.logger.Info().Str("to", a.to).Msg("Alert email sent")
	return nil
}
