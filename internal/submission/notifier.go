package submission

import (
	"context"
	"time"
)

// EventType names a lifecycle event sent to the CRM collaborator.
type EventType string

const (
	EventResponsesSubmitted EventType = "responses_submitted"
	EventSubmitted          EventType = "submitted"
	EventDeclined           EventType = "declined"
)

// Event is a snapshot of a submission at a lifecycle event.
type Event struct {
	Type       EventType   `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Submission *Submission `json:"submission"`
}

// Notifier delivers lifecycle events. Delivery is best effort: errors are
// logged and counted by the caller and never fail the pipeline.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event Event) error

func (f NotifierFunc) Notify(ctx context.Context, event Event) error {
	return f(ctx, event)
}
