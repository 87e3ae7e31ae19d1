package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// MailgunConfig holds the Mailgun API credentials.
type MailgunConfig struct {
	Domain string `yaml:"domain"`
	APIKey string `yaml:"api_key"`
}

// MailgunSender delivers notifications through the Mailgun API.
type MailgunSender struct {
	cfg Config
	mg  *mailgun.MailgunImpl
}

// NewMailgunSender validates the configuration and returns a Mailgun sender.
func NewMailgunSender(cfg Config) (*MailgunSender, error) {
	if cfg.Mailgun.Domain == "" || cfg.Mailgun.APIKey == "" || cfg.From == "" {
		return nil, errors.New("mailgun: domain, api_key and from are required")
	}
	return &MailgunSender{
		cfg: cfg,
		mg:  mailgun.NewMailgun(cfg.Mailgun.Domain, cfg.Mailgun.APIKey),
	}, nil
}

func (s *MailgunSender) SendCompletion(ctx context.Context, recipients []string, summary JobSummary, downloadURL string) error {
	return s.send(ctx, recipients, completionSubject(s.cfg), completionBody(s.cfg, summary, downloadURL))
}

func (s *MailgunSender) SendFailure(ctx context.Context, recipient, errorMessage string) error {
	return s.send(ctx, []string{recipient}, failureSubject(s.cfg), failureBody(s.cfg, errorMessage))
}

func (s *MailgunSender) send(ctx context.Context, recipients []string, subject, body string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	message := s.mg.NewMessage(s.cfg.From, subject, body, recipients...)
	_, _, err := s.mg.Send(ctx, message)
	return err
}
