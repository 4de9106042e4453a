// Package notify delivers submission lifecycle events to the CRM.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	apphttp "github.com/kosarica/quote-service/internal/http"
	"github.com/kosarica/quote-service/internal/http/ratelimit"
	"github.com/kosarica/quote-service/internal/submission"
	"github.com/kosarica/quote-service/internal/taskqueue"
)

// ErrNoEndpoint is returned when a webhook notifier has no URL.
var ErrNoEndpoint = errors.New("no CRM webhook endpoint configured")

var deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "quote_crm_deliveries_total",
	Help: "Total number of CRM webhook deliveries by outcome",
}, []string{"outcome"})

// Config configures CRM delivery.
type Config struct {
	WebhookURL string           `mapstructure:"webhook_url"`
	Secret     string           `mapstructure:"secret"`
	Timeout    time.Duration    `mapstructure:"timeout"`
	Queue      bool             `mapstructure:"queue"`
	Retry      ratelimit.Config `mapstructure:"retry"`
}

// DefaultConfig returns delivery defaults with no endpoint.
func DefaultConfig() Config {
	return Config{
		Timeout: 10 * time.Second,
		Retry:   ratelimit.DefaultConfig(),
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, submission.Event) error { return nil }

// HTTPNotifier posts events as JSON to the CRM webhook.
type HTTPNotifier struct {
	client *apphttp.Client
	url    string
	secret string
	logger zerolog.Logger
}

// NewHTTPNotifier creates a webhook notifier.
func NewHTTPNotifier(cfg Config, logger zerolog.Logger) *HTTPNotifier {
	return &HTTPNotifier{
		client: apphttp.NewClient(cfg.Retry, cfg.Timeout),
		url:    cfg.WebhookURL,
		secret: cfg.Secret,
		logger: logger.With().Str("component", "crm_webhook").Logger(),
	}
}

func (n *HTTPNotifier) Notify(ctx context.Context, event submission.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	return n.Deliver(ctx, body)
}

// Deliver posts an already encoded event.
func (n *HTTPNotifier) Deliver(ctx context.Context, body []byte) error {
	if n.url == "" {
		return ErrNoEndpoint
	}
	start := time.Now()
	status, err := n.client.PostJSON(ctx, n.url, body, n.secret)
	if err != nil {
		deliveries.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to deliver CRM event: %w", err)
	}
	deliveries.WithLabelValues("delivered").Inc()
	n.logger.Debug().
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("CRM event delivered")
	return nil
}

// Scheduler enqueues background tasks.
type Scheduler interface {
	ScheduleTask(ctx context.Context, input taskqueue.ScheduleTaskInput) (string, error)
}

// QueueNotifier enqueues events as crm_sync tasks for the worker to deliver.
type QueueNotifier struct {
	scheduler Scheduler
	logger    zerolog.Logger
}

// NewQueueNotifier creates a notifier backed by the task queue.
func NewQueueNotifier(scheduler Scheduler, logger zerolog.Logger) *QueueNotifier {
	return &QueueNotifier{
		scheduler: scheduler,
		logger:    logger.With().Str("component", "crm_queue").Logger(),
	}
}

func (n *QueueNotifier) Notify(ctx context.Context, event submission.Event) error {
	id, err := n.scheduler.ScheduleTask(ctx, taskqueue.ScheduleTaskInput{
		TaskType:   taskqueue.TaskTypeCRMSync,
		Payload:    event,
		MaxRetries: 5,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue %s event: %w", event.Type, err)
	}
	n.logger.Debug().
		Str("task_id", id).
		Str("event", string(event.Type)).
		Msg("CRM event queued")
	return nil
}

// SyncHandler returns the worker handler that delivers queued crm_sync
// payloads through the webhook notifier.
func SyncHandler(n *HTTPNotifier) func(context.Context, []byte) error {
	return func(ctx context.Context, payload []byte) error {
		var envelope struct {
			Type submission.EventType `json:"type"`
		}
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return fmt.Errorf("failed to unmarshal crm_sync payload: %w", err)
		}
		if envelope.Type == "" {
			return errors.New("crm_sync payload has no event type")
		}
		return n.Deliver(ctx, payload)
	}
}
