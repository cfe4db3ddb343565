// Package mailer delivers outgoing email for the worker.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"creatorstribe/internal/config"
)

var ErrNoRecipient = errors.New("message has no recipient")

type Message struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New picks SMTP delivery when a host is configured and falls back to
// logging otherwise.
func New(cfg config.MailConfig, log zerolog.Logger) Sender {
	if cfg.Host == "" {
		log.Warn().Msg("mail.host not set, messages will only be logged")
		return LogSender{log: log}
	}
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}
}

type SMTPSender struct {
	cfg  config.MailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.send(addr, auth, s.cfg.From, []string{msg.To}, Render(s.cfg.From, msg, time.Now())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// Render produces an RFC 5322 message with CRLF line endings.
func Render(from string, msg Message, date time.Time) []byte {
	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(stripCRLF(v))
		b.WriteString("\r\n")
	}
	header("From", from)
	header("To", msg.To)
	if msg.ReplyTo != "" {
		header("Reply-To", msg.ReplyTo)
	}
	header("Subject", msg.Subject)
	header("Date", date.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.Body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String())
}

func stripCRLF(v string) string {
	return strings.NewReplacer("\r", "", "\n", " ").Replace(v)
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log zerolog.Logger
}

func (l LogSender) Send(_ context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	l.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Str("body", msg.Body).Msg("mail (not delivered)")
	return nil
}
