package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"creatorstribe/internal/mailer"
	"creatorstribe/internal/queue"
)

type Processor struct {
	sender mailer.Sender
	logger zerolog.Logger
}

func NewProcessor(sender mailer.Sender, logger zerolog.Logger) *Processor {
	return &Processor{
		sender: sender,
		logger: logger,
	}
}

// Handle renders and sends one mail task. Unknown types are dropped so they
// do not block the group; payloads that cannot be decoded or have no
// recipient come back as queue.ErrDiscard.
func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrDiscard, err)
	}

	var out mailer.Message
	switch payload.Type {
	case TypeLoginCode:
		out = loginCodeMessage(payload)
	case TypeContactInquiry:
		out = contactMessage(payload)
	default:
		p.logger.Warn().Str("type", payload.Type).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}

	if strings.TrimSpace(out.To) == "" {
		return fmt.Errorf("%w: %s task without recipient", queue.ErrDiscard, payload.Type)
	}
	if err := p.sender.Send(ctx, out); err != nil {
		return fmt.Errorf("send %s: %w", payload.Type, err)
	}
	p.logger.Info().Str("type", payload.Type).Str("message_id", msg.ID).Msg("mail sent")
	return nil
}

func loginCodeMessage(p TaskPayload) mailer.Message {
	var body strings.Builder
	fmt.Fprintf(&body, "Your Creators Tribe admin verification code is %s.\n\n", p.Code)
	if p.ExpiresInMins > 0 {
		fmt.Fprintf(&body, "The code expires in %d minutes. ", p.ExpiresInMins)
	}
	body.WriteString("If you did not try to sign in, you can ignore this email.\n")

	return mailer.Message{
		To:      p.To,
		Subject: "Your verification code",
		Body:    body.String(),
	}
}

func contactMessage(p TaskPayload) mailer.Message {
	var body strings.Builder
	fmt.Fprintf(&body, "Name: %s\nEmail: %s\n", p.Name, p.Email)
	if p.Company != "" {
		fmt.Fprintf(&body, "Company: %s\n", p.Company)
	}
	if p.Budget != "" {
		fmt.Fprintf(&body, "Budget: %s\n", p.Budget)
	}
	fmt.Fprintf(&body, "\n%s\n", p.Message)

	return mailer.Message{
		To:      p.To,
		ReplyTo: p.Email,
		Subject: "New inquiry from " + p.Name,
		Body:    body.String(),
	}
}
