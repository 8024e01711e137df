package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/smallbiznis/opsdesk/internal/config"
	"go.uber.org/zap"
)

// smtpProvider delivers through a plain SMTP relay.
type smtpProvider struct {
	log  *zap.Logger
	host string
	port int
	user string
	pass string
	from string
}

func NewSMTP(cfg config.EmailConfig, log *zap.Logger) Provider {
	return &smtpProvider{
		log:  log.Named("email.smtp"),
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUsername,
		pass: cfg.SMTPPassword,
		from: cfg.SMTPFrom,
	}
}

func (p *smtpProvider) Send(ctx context.Context, msg Message) error {
	to := strings.TrimSpace(msg.To)
	if to == "" || !strings.Contains(to, "@") {
		return ErrInvalidRecipient
	}

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s\r\n", p.from)
	fmt.Fprintf(&body, "To: %s\r\n", to)
	fmt.Fprintf(&body, "Subject: %s\r\n", msg.Subject)
	body.WriteString("\r\n")
	body.WriteString(msg.Body)

	addr := fmt.Sprintf("%s:%d", p.host, p.port)

	var auth smtp.Auth
	if p.user != "" {
		auth = smtp.PlainAuth("", p.user, p.pass, p.host)
	}

	// smtp.SendMail has no context hook; run it on a goroutine so the
	// caller's deadline still applies.
	errCh := make(chan error, 1)
	go func() {
		errCh <- smtp.SendMail(addr, auth, p.from, []string{to}, []byte(body.String()))
	}()

	select {
	case err := <-errCh:
		if err != nil {
			p.log.Error("smtp send failed", zap.String("to", to), zap.Error(err))
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
