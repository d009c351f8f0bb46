// Package notify forwards inquiries and booking requests to the concierge
// Telegram chat.
package notify

import (
	"context"
	"fmt"
	"strings"

	"jetcharter/internal/config"
	"jetcharter/internal/domain"
	"jetcharter/internal/events"
	"jetcharter/internal/logging"
	"jetcharter/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// NewBotAPI connects to Telegram with the configured token.
func NewBotAPI(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = cfg.Debug
	return bot, nil
}

type Concierge struct {
	bot    domain.TelegramSender
	chatID int64
	logger *zerolog.Logger
}

func NewConcierge(bot domain.TelegramSender, chatID int64, logger *zerolog.Logger) *Concierge {
	return &Concierge{
		bot:    bot,
		chatID: chatID,
		logger: logging.Component(logger, "telegram"),
	}
}

func (c *Concierge) Name() string {
	return "telegram"
}

// Deliver posts the inquiry to the concierge chat.
func (c *Concierge) Deliver(ctx context.Context, inquiry *models.Inquiry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.sendMarkdown(FormatInquiry(inquiry))
}

// NotifyBookingRequest posts a confirmed booking request.
func (c *Concierge) NotifyBookingRequest(p events.BookingRequestPayload) error {
	return c.sendMarkdown(FormatBookingRequest(p))
}

// Subscribe forwards confirmed booking requests from bus until the returned
// function is called.
func (c *Concierge) Subscribe(bus *events.EventBus) func() {
	return bus.Subscribe(events.EventBookingRequestConfirmed, func(event *events.Event) error {
		var p events.BookingRequestPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		if err := c.NotifyBookingRequest(p); err != nil {
			c.logger.Error().Err(err).Str("session_id", p.SessionID).Msg("Failed to notify booking request")
			return err
		}
		return nil
	})
}

func (c *Concierge) sendMarkdown(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func FormatInquiry(inquiry *models.Inquiry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*New %s inquiry*\n", esc(inquiry.InquiryType))
	fmt.Fprintf(&b, "From: %s <%s>\n", esc(inquiry.Name), esc(inquiry.Email))
	fmt.Fprintf(&b, "Subject: %s\n\n", esc(inquiry.Subject))
	b.WriteString(esc(inquiry.Message))
	fmt.Fprintf(&b, "\n\n_%s_", esc(inquiry.ReceivedAt.Format(models.DateLayout+" 15:04 MST")))
	return b.String()
}

func FormatBookingRequest(p events.BookingRequestPayload) string {
	who := p.Username
	if who == "" {
		who = "guest"
	}
	var b strings.Builder
	b.WriteString("*Booking request*\n")
	fmt.Fprintf(&b, "Client: %s\n", esc(who))
	fmt.Fprintf(&b, "Route: %s -> %s\n", esc(p.Departure), esc(p.Arrival))
	fmt.Fprintf(&b, "Date: %s\n", esc(p.Date))
	fmt.Fprintf(&b, "Passengers: %d\n", p.Passengers)
	fmt.Fprintf(&b, "Aircraft: %s", esc(p.AircraftID))
	return b.String()
}
