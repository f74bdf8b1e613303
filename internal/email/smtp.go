package email

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"collectflow_backend/platform/config"
	"collectflow_backend/platform/logger"
)

// SMTPSender delivers email over SMTP using go-mail.
type SMTPSender struct {
	cfg config.EmailConfig
	log *logger.Logger
}

// NewSMTPSender creates a sender from SMTP configuration.
func NewSMTPSender(cfg config.EmailConfig, log *logger.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: log}
}

// Send delivers one message. A fresh client per send keeps the sender
// stateless and safe for concurrent use.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.FromFormat(s.cfg.GetFromName(), s.cfg.GetFromEmail()); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if msg.ToName != "" {
		if err := m.AddToFormat(msg.ToName, msg.To); err != nil {
			return fmt.Errorf("set to address: %w", err)
		}
	} else {
		if err := m.To(msg.To); err != nil {
			return fmt.Errorf("set to address: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	client, err := mail.NewClient(s.cfg.GetSMTPHost(),
		mail.WithPort(s.cfg.GetSMTPPort()),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.GetSMTPUsername()),
		mail.WithPassword(s.cfg.GetSMTPPassword()),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}

	s.log.Info("email_sent", "to", msg.To, "subject", msg.Subject)
	return nil
}
