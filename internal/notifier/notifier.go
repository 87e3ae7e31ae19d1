// Package notifier sends export completion and failure emails. Senders are
// fire-and-forget from the worker's perspective: failures are logged by the
// caller, never escalated.
package notifier

import (
	"context"
	"fmt"
	"time"
)

// JobSummary carries the facts a completion mail mentions.
type JobSummary struct {
	JobID      int64
	TypeLabel  string
	Records    int
	CreatedAt  time.Time
	ExpiryDays int
}

// Notifier delivers job outcome messages.
type Notifier interface {
	SendCompletion(ctx context.Context, recipients []string, summary JobSummary, downloadURL string) error
	SendFailure(ctx context.Context, recipient, errorMessage string) error
}

// Config selects and configures the mail provider.
type Config struct {
	Provider string `yaml:"provider"` // mailgun, smtp, none
	From     string `yaml:"from"`
	SiteName string `yaml:"site_name"`

	Mailgun MailgunConfig `yaml:"mailgun"`
	SMTP    SMTPConfig    `yaml:"smtp"`
}

// New creates the configured Notifier. An empty or "none" provider yields a
// log-only sender.
func New(cfg Config) (Notifier, error) {
	switch cfg.Provider {
	case "mailgun":
		return NewMailgunSender(cfg)
	case "smtp":
		return NewSMTPSender(cfg)
	case "", "none":
		return &NoopSender{}, nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

func completionSubject(cfg Config) string {
	return fmt.Sprintf("[%s] Your data export is ready", cfg.SiteName)
}

func completionBody(cfg Config, summary JobSummary, downloadURL string) string {
	return fmt.Sprintf(
		"Hello,\n\n"+
			"Your data export has been generated successfully.\n\n"+
			"Export type: %s\n"+
			"Records: %d\n"+
			"Requested at: %s\n\n"+
			"Download the file:\n%s\n\n"+
			"The link stays active for %d days.\n\n"+
			"Regards,\n%s",
		summary.TypeLabel,
		summary.Records,
		summary.CreatedAt.Format("2006-01-02 15:04"),
		downloadURL,
		summary.ExpiryDays,
		cfg.SiteName,
	)
}

func failureSubject(cfg Config) string {
	return fmt.Sprintf("[%s] Data export failed", cfg.SiteName)
}

func failureBody(cfg Config, errorMessage string) string {
	return fmt.Sprintf(
		"Hello,\n\n"+
			"Unfortunately an error occurred while generating your export.\n\n"+
			"Error: %s\n\n"+
			"Please contact the site administrator.\n\n"+
			"Regards,\n%s",
		errorMessage,
		cfg.SiteName,
	)
}
