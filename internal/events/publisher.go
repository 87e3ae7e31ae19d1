// Package events publishes export job lifecycle events to a RabbitMQ topic
// exchange so other systems can react to finished exports without polling the
// job table. Publishing is best-effort: the pipeline never depends on it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

// Routing keys per lifecycle event.
const (
	RoutingJobCreated   = "export.job.created"
	RoutingJobCompleted = "export.job.completed"
	RoutingJobFailed    = "export.job.failed"
)

// Config holds the RabbitMQ connection settings.
type Config struct {
	Enabled       bool          `yaml:"enabled"`
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	User          string        `yaml:"user"`
	Password      string        `yaml:"password"`
	VHost         string        `yaml:"vhost"`
	Exchange      string        `yaml:"exchange"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// JobEvent is the wire payload of a lifecycle event.
type JobEvent struct {
	JobID          int64     `json:"job_id"`
	JobType        string    `json:"job_type"`
	Status         string    `json:"status"`
	ProcessedItems int       `json:"processed_items"`
	TotalItems     int       `json:"total_items"`
	RequesterID    int64     `json:"requester_id"`
	ScheduleID     *int64    `json:"schedule_id,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher publishes job events to a topic exchange. A nil *Publisher is
// valid and drops everything, so wiring stays optional.
type Publisher struct {
	config  *Config
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

// NewPublisher connects to RabbitMQ with retry and declares the exchange.
// Returns (nil, nil) when publishing is disabled.
func NewPublisher(cfg *Config, logger *slog.Logger) (*Publisher, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}

	p := &Publisher{config: cfg, logger: logger}
	if err := p.connect(); err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	return p, nil
}

func (p *Publisher) connect() error {
	dsn := fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		p.config.User,
		p.config.Password,
		p.config.Host,
		p.config.Port,
		p.config.VHost,
	)

	var err error
	for attempt := 1; attempt <= p.config.RetryAttempts; attempt++ {
		p.conn, err = amqp.DialConfig(dsn, amqp.Config{
			Heartbeat: p.config.Heartbeat,
			Locale:    "en_US",
		})
		if err == nil {
			break
		}
		p.logger.Error("Failed to connect to RabbitMQ",
			slog.Any("error", err),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.config.RetryAttempts),
		)
		if attempt < p.config.RetryAttempts {
			time.Sleep(p.config.RetryInterval)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", p.config.RetryAttempts, err)
	}

	p.channel, err = p.conn.Channel()
	if err != nil {
		p.conn.Close()
		return fmt.Errorf("failed to create channel: %w", err)
	}

	err = p.channel.ExchangeDeclare(
		p.config.Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		p.channel.Close()
		p.conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	p.logger.Info("Event publisher connected",
		slog.String("exchange", p.config.Exchange),
	)
	return nil
}

// PublishJob emits a lifecycle event for the job under the given routing key.
// Safe to call on a nil publisher.
func (p *Publisher) PublishJob(ctx context.Context, routingKey string, job *domain.Job) error {
	if p == nil {
		return nil
	}

	event := JobEvent{
		JobID:          job.ID,
		JobType:        job.JobType,
		Status:         job.Status,
		ProcessedItems: job.ProcessedItems,
		TotalItems:     job.TotalItems,
		RequesterID:    job.RequesterID,
		ScheduleID:     job.ScheduleID,
		OccurredAt:     time.Now().UTC(),
	}
	if job.ErrorMessage != nil {
		event.ErrorMessage = *job.ErrorMessage
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal job event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.config.Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish job event: %w", err)
	}

	p.logger.Debug("Job event published",
		slog.String("routing_key", routingKey),
		slog.Int64("job_id", job.ID),
	)
	return nil
}

// Close shuts the channel and connection down. Safe on a nil publisher.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
