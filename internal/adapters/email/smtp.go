package email

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

func (c SMTPConfig) configured() bool {
	return c.Host != "" && c.Port != "" && c.User != "" && c.Pass != ""
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends HTML mail through an SMTP relay. Without SMTP settings it
// logs and drops every message.
type SMTPMailer struct {
	from   string
	dialer dialer
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	m := &SMTPMailer{from: from}
	if !cfg.configured() {
		return m, nil
	}
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("smtp port %q: %w", cfg.Port, err)
	}
	m.dialer = gomail.NewDialer(cfg.Host, port, cfg.User, cfg.Pass)
	return m, nil
}

func (m *SMTPMailer) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if m.dialer == nil {
		log.Warn().Str("to", to).Str("subject", subject).Msg("SMTP not configured, skipping email")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	if err := m.dialer.DialAndSend(msg); err != nil {
		log.Error().Err(err).Str("to", to).Msg("email send")
		return err
	}
	return nil
}
