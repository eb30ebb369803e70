// Package email sends transactional notifications to workshop operators.
// Delivery is via SMTP; when email is disabled in the configuration a noop
// sender is used so callers never have to branch.
package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"carbot_backend/platform/config"
	"carbot_backend/platform/logger"
)

// HotLeadAlert is the payload for the notification sent when a lead is
// classified as Hot.
type HotLeadAlert struct {
	LeadID         string
	WorkshopName   string
	Total          int
	Priority       string
	EstimatedValue int
}

// Sender delivers notifications. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendHotLeadAlert(ctx context.Context, to string, alert HotLeadAlert) error
}

// SMTPSender delivers mail through the configured SMTP relay.
type SMTPSender struct {
	client      *mail.Client
	fromName    string
	fromAddress string
	log         *logger.Logger
}

func NewSMTPSender(cfg config.EmailConfig, log *logger.Logger) (*SMTPSender, error) {
	client, err := mail.NewClient(cfg.GetSMTPHost(),
		mail.WithPort(cfg.GetSMTPPort()),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.GetSMTPUsername()),
		mail.WithPassword(cfg.GetSMTPPassword()),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPSender{
		client:      client,
		fromName:    cfg.GetEmailFromName(),
		fromAddress: cfg.GetEmailFromAddress(),
		log:         log,
	}, nil
}

func (s *SMTPSender) SendHotLeadAlert(ctx context.Context, to string, alert HotLeadAlert) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromAddress); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("to address: %w", err)
	}

	msg.Subject(fmt.Sprintf("Heißer Lead für %s (Score %d)", alert.WorkshopName, alert.Total))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Ein neuer Lead wurde als besonders vielversprechend eingestuft.\n\n"+
			"Lead: %s\n"+
			"Score: %d\n"+
			"Priorität: %s\n"+
			"Geschätzter Auftragswert: %d EUR\n\n"+
			"Bitte zeitnah im Portal kontaktieren.\n",
		alert.LeadID, alert.Total, alert.Priority, alert.EstimatedValue,
	))

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send hot lead alert: %w", err)
	}

	s.log.Info("hot_lead_alert_sent", "lead_id", alert.LeadID, "to", to)
	return nil
}

// NoopSender is used when email delivery is disabled.
type NoopSender struct {
	log *logger.Logger
}

func NewNoopSender(log *logger.Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (n *NoopSender) SendHotLeadAlert(_ context.Context, to string, alert HotLeadAlert) error {
	n.log.Debug("email disabled, dropping hot lead alert",
		"lead_id", alert.LeadID, "to", to)
	return nil
}

// NewSender picks the SMTP or noop sender based on configuration.
func NewSender(cfg config.EmailConfig, log *logger.Logger) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NewNoopSender(log), nil
	}
	return NewSMTPSender(cfg, log)
}
