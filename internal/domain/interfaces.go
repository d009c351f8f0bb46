package domain

import (
	"context"
	"time"

	"jetcharter/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// StateRepository stores one SessionState per browser session and backs the
// fixed-window rate limits.
type StateRepository interface {
	GetState(ctx context.Context, sessionID string) (*models.SessionState, error)
	SetState(ctx context.Context, state *models.SessionState) error
	ClearState(ctx context.Context, sessionID string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// InquiryDispatcher accepts contact inquiries for asynchronous delivery.
type InquiryDispatcher interface {
	Enqueue(ctx context.Context, inquiry *models.Inquiry) error
}

// InquirySink delivers one inquiry to an outside channel.
type InquirySink interface {
	Name() string
	Deliver(ctx context.Context, inquiry *models.Inquiry) error
}

// TelegramSender is the part of *tgbotapi.BotAPI the concierge uses.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}
