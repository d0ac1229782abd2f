package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogMailer writes messages to the log instead of sending them. Development only.
type LogMailer struct {
	logger *logrus.Logger
}

func NewLogMailer(logger *logrus.Logger) *LogMailer {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogMailer{logger: logger}
}

func (l *LogMailer) Send(_ context.Context, to, subject, html string) error {
	l.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Infof("[dev mail] %s", html)
	return nil
}

var _ Sender = (*LogMailer)(nil)
