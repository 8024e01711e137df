package email

import (
	"github.com/smallbiznis/opsdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

// New picks SMTP when a relay host is configured, the logging provider
// otherwise.
func New(p Params) Provider {
	if p.Config.Email.SMTPHost != "" {
		return NewSMTP(p.Config.Email, p.Log)
	}
	return NewLog(p.Log)
}

var Module = fx.Module("providers.email",
	fx.Provide(New),
)
