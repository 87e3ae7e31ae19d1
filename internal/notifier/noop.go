package notifier

import (
	"context"
	"log/slog"
)

// NoopSender drops all notifications. Used when no mail provider is
// configured and in tests.
type NoopSender struct{}

func (*NoopSender) SendCompletion(_ context.Context, recipients []string, summary JobSummary, downloadURL string) error {
	slog.Debug("notification suppressed, no mail provider configured",
		slog.Int64("job_id", summary.JobID),
		slog.Int("recipients", len(recipients)),
	)
	return nil
}

func (*NoopSender) SendFailure(_ context.Context, recipient, errorMessage string) error {
	slog.Debug("failure notification suppressed, no mail provider configured",
		slog.String("recipient", recipient),
	)
	return nil
}
