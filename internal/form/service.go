package form

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"pdgupta/website/internal/metrics"
)

// Service validates submissions and mails them to the firm.
type Service struct {
	mailer Mailer
	from   string
	to     string
	logger zerolog.Logger
}

func NewService(mailer Mailer, from, to string, logger zerolog.Logger) *Service {
	return &Service{
		mailer: mailer,
		from:   from,
		to:     to,
		logger: logger.With().Str("component", "form").Logger(),
	}
}

// Submit handles one raw JSON body. A *ValidationError means the visitor
// must correct the input; any other error is internal.
func (s *Service) Submit(ctx context.Context, body []byte) error {
	sub, err := Parse(body)
	if err != nil {
		metrics.RecordFormSubmission("unknown", "invalid")
		return err
	}
	if err := sub.Validate(); err != nil {
		metrics.RecordFormSubmission(formLabel(sub.FormType), "invalid")
		return err
	}

	html, err := RenderEmail(sub)
	if err != nil {
		metrics.RecordFormSubmission(formLabel(sub.FormType), "error")
		return err
	}

	msg := Message{From: s.from, To: s.to, Subject: sub.Subject(), HTML: html}
	if err := s.mailer.Send(ctx, msg); err != nil {
		metrics.RecordFormSubmission(formLabel(sub.FormType), "error")
		return fmt.Errorf("send %s: %w", sub, err)
	}

	metrics.RecordFormSubmission(formLabel(sub.FormType), "sent")
	s.logger.Info().Str("form_type", sub.FormType).Msg("Form submission sent")
	return nil
}

// formLabel bounds metric label cardinality to the known form types.
func formLabel(formType string) string {
	if _, ok := subjects[formType]; ok {
		return formType
	}
	return "other"
}
