package email

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// logProvider logs the send instead of delivering. Used when no SMTP relay
// is configured; delivery is mocked but recipient validation still applies.
type logProvider struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) Provider {
	return &logProvider{log: log.Named("email.log")}
}

func (p *logProvider) Send(ctx context.Context, msg Message) error {
	to := strings.TrimSpace(msg.To)
	if to == "" || !strings.Contains(to, "@") {
		return ErrInvalidRecipient
	}

	p.log.Info("email send",
		zap.String("to", to),
		zap.String("subject", msg.Subject),
	)
	return nil
}
