package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureDialer struct {
	msgs []*gomail.Message
	err  error
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.msgs = append(d.msgs, m...)
	return nil
}

func TestSMTPMailerSends(t *testing.T) {
	d := &captureDialer{}
	m := &SMTPMailer{from: "hello@cratey.test", dialer: d}

	require.NoError(t, m.SendEmail(context.Background(), "fan@x.com", "Your purchase", "<p>hi</p>"))
	require.Len(t, d.msgs, 1)
	msg := d.msgs[0]
	assert.Equal(t, []string{"fan@x.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"hello@cratey.test"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"Your purchase"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/html")
}

func TestSMTPMailerPropagatesFailure(t *testing.T) {
	m := &SMTPMailer{from: "a@b.c", dialer: &captureDialer{err: errors.New("connection refused")}}
	assert.Error(t, m.SendEmail(context.Background(), "fan@x.com", "s", "b"))
}

func TestSMTPMailerUnconfiguredSkips(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{})
	require.NoError(t, err)
	assert.NoError(t, m.SendEmail(context.Background(), "fan@x.com", "s", "b"))
}

func TestNewSMTPMailerBadPort(t *testing.T) {
	_, err := NewSMTPMailer(SMTPConfig{Host: "smtp.test", Port: "abc", User: "u", Pass: "p"})
	assert.Error(t, err)
}

func TestSMTPMailerCancelled(t *testing.T) {
	d := &captureDialer{}
	m := &SMTPMailer{from: "a@b.c", dialer: d}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.SendEmail(ctx, "fan@x.com", "s", "b"), context.Canceled)
	assert.Empty(t, d.msgs)
}
