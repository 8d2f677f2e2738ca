package mailer

import (
	"context"

	"letterdrop/pkg/logger"
)

// LogMailer writes deliveries to the log instead of an SMTP relay.
// Used in development mode.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(l *logger.Logger) *LogMailer {
	return &LogMailer{log: l}
}

func (m *LogMailer) Send(_ context.Context, to, subject, html string) error {
	m.log.Infof("mail to=%s subject=%q bytes=%d", to, subject, len(html))
	return nil
}
