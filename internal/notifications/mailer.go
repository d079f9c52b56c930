package notifications

import (
	"context"

	"github.com/greencredits/greencredits-backend/pkg/logger"
)

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes emails to the structured log instead of sending them.
type LogMailer struct {
	logg *logger.Logger
}

// NewLogMailer returns a Mailer that logs at info.
func NewLogMailer(logg *logger.Logger) *LogMailer {
	return &LogMailer{logg: logg}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	if m == nil || m.logg == nil {
		return nil
	}
	m.logg.Info(m.logg.WithFields(ctx, map[string]any{
		"to":       to,
		"subject":  subject,
		"body_len": len(body),
		"body":     body,
	}), "email (log transport)")
	return nil
}
