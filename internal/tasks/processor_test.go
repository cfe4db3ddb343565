package tasks

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorstribe/internal/log"
	"creatorstribe/internal/mailer"
	"creatorstribe/internal/queue"
)

type captureSender struct {
	sent []mailer.Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg mailer.Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

// stringValues mimics what XREADGROUP hands back: every field is a string.
func stringValues(p TaskPayload) map[string]any {
	out := map[string]any{}
	for k, v := range p.Values() {
		switch val := v.(type) {
		case string:
			out[k] = val
		case int:
			out[k] = strconv.Itoa(val)
		}
	}
	return out
}

func TestProcessor_LoginCode(t *testing.T) {
	sender := &captureSender{}
	p := NewProcessor(sender, log.Nop())

	err := p.Handle(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: stringValues(TaskPayload{Type: TypeLoginCode, To: "admin@x.com", Code: "482913", ExpiresInMins: 10}),
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "admin@x.com", msg.To)
	assert.Contains(t, msg.Body, "482913")
	assert.Contains(t, msg.Body, "10 minutes")
}

func TestProcessor_Contact(t *testing.T) {
	sender := &captureSender{}
	p := NewProcessor(sender, log.Nop())

	err := p.Handle(context.Background(), redis.XMessage{
		ID: "2-0",
		Values: stringValues(TaskPayload{
			Type:    TypeContactInquiry,
			To:      "hello@ct.com",
			Name:    "Brand Co",
			Email:   "brand@co.com",
			Message: "We'd like a campaign.",
		}),
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "brand@co.com", msg.ReplyTo)
	assert.Equal(t, "New inquiry from Brand Co", msg.Subject)
	assert.NotContains(t, msg.Body, "Company:")
}

func TestProcessor_UnknownTypeIsDropped(t *testing.T) {
	sender := &captureSender{}
	p := NewProcessor(sender, log.Nop())

	err := p.Handle(context.Background(), redis.XMessage{Values: map[string]any{"type": "thumbnail"}})
	assert.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestProcessor_SendFailureIsReturned(t *testing.T) {
	boom := errors.New("smtp down")
	p := NewProcessor(&captureSender{err: boom}, log.Nop())

	err := p.Handle(context.Background(), redis.XMessage{
		Values: stringValues(TaskPayload{Type: TypeLoginCode, To: "a@x.com", Code: "1"}),
	})
	assert.ErrorIs(t, err, boom)
}

func TestProcessor_MalformedPayloadIsDiscarded(t *testing.T) {
	sender := &captureSender{}
	p := NewProcessor(sender, log.Nop())

	err := p.Handle(context.Background(), redis.XMessage{Values: map[string]any{
		"type":            TypeLoginCode,
		"to":              "a@x.com",
		"expires_in_mins": "soon",
	}})
	assert.ErrorIs(t, err, queue.ErrDiscard)

	err = p.Handle(context.Background(), redis.XMessage{
		Values: stringValues(TaskPayload{Type: TypeLoginCode, Code: "123456"}),
	})
	assert.ErrorIs(t, err, queue.ErrDiscard)
	assert.Empty(t, sender.sent)
}
