package identity

import (
	"context"

	"jetcharter/internal/logging"

	"github.com/rs/zerolog"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

// LogMailer writes reset links to the log instead of sending mail.
type LogMailer struct {
	logger *zerolog.Logger
}

func NewLogMailer(logger *zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logging.Component(logger, "mailer")}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, email, link string) error {
	m.logger.Info().Str("email", logging.MaskEmail(email)).Msg("Password reset link issued")
	m.logger.Debug().Str("link", link).Msg("Password reset link")
	return nil
}
