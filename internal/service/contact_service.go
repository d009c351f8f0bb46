package service

import (
	"context"
	"strings"
	"time"

	"jetcharter/internal/domain"
	"jetcharter/internal/events"
	"jetcharter/internal/logging"
	"jetcharter/internal/models"
	"jetcharter/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ContactReply is shown once an inquiry has been accepted.
const ContactReply = "We've received your message and will get back to you within 24 hours."

type ContactResult struct {
	Errors    models.FormErrors `json:"errors,omitempty"`
	Message   string            `json:"message,omitempty"`
	InquiryID string            `json:"inquiry_id,omitempty"`
}

type ContactService struct {
	dispatcher domain.InquiryDispatcher
	eventBus   domain.EventPublisher
	logger     *zerolog.Logger
	now        func() time.Time
}

// NewContactService accepts a nil dispatcher; inquiries are then only logged.
func NewContactService(dispatcher domain.InquiryDispatcher, eventBus domain.EventPublisher, logger *zerolog.Logger) *ContactService {
	return &ContactService{
		dispatcher: dispatcher,
		eventBus:   eventBus,
		logger:     logging.Component(logger, "contact_service"),
		now:        time.Now,
	}
}

func (s *ContactService) Submit(ctx context.Context, sessionID string, form validation.ContactForm) (*ContactResult, error) {
	if errs := validation.Contact(form); !errs.Empty() {
		return &ContactResult{Errors: errs}, nil
	}

	inquiryType := form.InquiryType
	if inquiryType == "" {
		inquiryType = models.InquiryGeneral
	}
	inquiry := &models.Inquiry{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(form.Name),
		Email:       strings.TrimSpace(form.Email),
		Subject:     strings.TrimSpace(form.Subject),
		Message:     strings.TrimSpace(form.Message),
		InquiryType: inquiryType,
		SessionID:   sessionID,
		ReceivedAt:  s.now().UTC(),
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.Enqueue(ctx, inquiry); err != nil {
			s.logger.Error().Err(err).Str("inquiry_id", inquiry.ID).Msg("Failed to enqueue inquiry")
			return nil, err
		}
	}

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventInquiryReceived, events.InquiryPayload{
			InquiryID:   inquiry.ID,
			InquiryType: inquiry.InquiryType,
			SessionID:   sessionID,
		}); err != nil {
			s.logger.Error().Err(err).Str("inquiry_id", inquiry.ID).Msg("publish event error")
		}
	}

	s.logger.Info().
		Str("inquiry_id", inquiry.ID).
		Str("inquiry_type", inquiry.InquiryType).
		Str("email", logging.MaskEmail(inquiry.Email)).
		Msg("Inquiry received")

	return &ContactResult{Message: ContactReply, InquiryID: inquiry.ID}, nil
}
