package sms

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/opsdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Message is a single outbound SMS.
type Message struct {
	To   string
	Body string
}

// Provider sends SMS on behalf of a workspace.
type Provider interface {
	Send(ctx context.Context, msg Message) error
}

var ErrInvalidRecipient = errors.New("invalid_recipient")

// logProvider logs the send instead of delivering; there is no real SMS
// gateway wired yet.
type logProvider struct {
	log    *zap.Logger
	sender string
}

func NewLog(cfg config.SMSConfig, log *zap.Logger) Provider {
	return &logProvider{
		log:    log.Named("sms.log"),
		sender: cfg.Sender,
	}
}

func (p *logProvider) Send(ctx context.Context, msg Message) error {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return ErrInvalidRecipient
	}

	p.log.Info("sms send",
		zap.String("sender", p.sender),
		zap.String("to", to),
	)
	return nil
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

func New(p Params) Provider {
	return NewLog(p.Config.SMS, p.Log)
}

var Module = fx.Module("providers.sms",
	fx.Provide(New),
)
