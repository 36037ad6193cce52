package identity

import "context"

// Mailer is the outbound mail boundary. Delivery and retry are the
// implementation's concern; the core never retries.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// ConsoleMailer writes messages to the log instead of a transport.
// Useful for development and tests.
type ConsoleMailer struct {
	logger Logger
}

var _ Mailer = (*ConsoleMailer)(nil)

// NewConsoleMailer builds a log-backed mailer.
func NewConsoleMailer(logger Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: ensureLogger(logger)}
}

func (m *ConsoleMailer) Send(_ context.Context, recipient, subject, body string) error {
	if !IsEmailValid(recipient) {
		return ErrEmailNotCorrectFormat
	}
	m.logger.Info("=== MAIL to: %s subject: %s ===", recipient, subject)
	m.logger.Info("%s", body)
	return nil
}
