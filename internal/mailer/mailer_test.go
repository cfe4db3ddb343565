package mailer

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorstribe/internal/config"
	"creatorstribe/internal/log"
)

func TestRender(t *testing.T) {
	date := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	raw := string(Render("no-reply@ct.com", Message{
		To:      "a@x.com",
		ReplyTo: "b@y.com",
		Subject: "Hi\r\nBcc: evil@z.com",
		Body:    "line1\nline2",
	}, date))

	assert.Contains(t, raw, "From: no-reply@ct.com\r\n")
	assert.Contains(t, raw, "Reply-To: b@y.com\r\n")
	assert.Contains(t, raw, "Subject: Hi Bcc: evil@z.com\r\n")
	assert.NotContains(t, raw, "\r\nBcc:")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nline1\r\nline2"))
}

func TestSMTPSender(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotAuth smtp.Auth
	)
	s := &SMTPSender{
		cfg: config.MailConfig{Host: "smtp.local", Port: 2525, Username: "u", Password: "p", From: "f@ct.com"},
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotTo, gotAuth = addr, to, a
			return nil
		},
	}

	require.NoError(t, s.Send(context.Background(), Message{To: "a@x.com", Subject: "s", Body: "b"}))
	assert.Equal(t, "smtp.local:2525", gotAddr)
	assert.Equal(t, []string{"a@x.com"}, gotTo)
	assert.NotNil(t, gotAuth)

	assert.ErrorIs(t, s.Send(context.Background(), Message{}), ErrNoRecipient)
}

func TestNew_FallsBackToLog(t *testing.T) {
	sender := New(config.MailConfig{}, log.Nop())
	_, ok := sender.(LogSender)
	assert.True(t, ok)
	assert.NoError(t, sender.Send(context.Background(), Message{To: "a@x.com"}))
}
