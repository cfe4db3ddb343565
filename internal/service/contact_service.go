package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"creatorstribe/internal/tasks"
)

var ErrIncompleteInquiry = errors.New("name, email and message are required")

const maxInquiryLength = 5000

type Inquiry struct {
	Name    string
	Email   string
	Company string
	Budget  string
	Message string
}

// ContactService forwards brand inquiries from the public site to the
// agency inbox through the mail outbox.
type ContactService struct {
	outbox Publisher
	inbox  string
	log    zerolog.Logger
}

func NewContactService(outbox Publisher, inbox string, log zerolog.Logger) *ContactService {
	return &ContactService{
		outbox: outbox,
		inbox:  inbox,
		log:    log.With().Str("component", "contact").Logger(),
	}
}

func (s *ContactService) Submit(ctx context.Context, in Inquiry) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Message = strings.TrimSpace(in.Message)
	if in.Name == "" || in.Message == "" {
		return ErrIncompleteInquiry
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return err
	}
	if len(in.Message) > maxInquiryLength {
		in.Message = in.Message[:maxInquiryLength]
	}

	task := tasks.TaskPayload{
		Type:    tasks.TypeContactInquiry,
		To:      s.inbox,
		Name:    in.Name,
		Email:   email,
		Company: strings.TrimSpace(in.Company),
		Budget:  strings.TrimSpace(in.Budget),
		Message: in.Message,
	}
	id, err := s.outbox.Publish(ctx, task.Values())
	if err != nil {
		return fmt.Errorf("queue inquiry: %w", err)
	}

	s.log.Info().Str("message_id", id).Str("from", email).Msg("inquiry queued")
	return nil
}
