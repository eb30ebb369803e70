// Package events carries the domain events of the lead pipeline and the
// in-process bus that dispatches them between modules. Every event is
// scoped to a workshop tenant; subscribers use Tenant() to load
// tenant-specific data without depending on the publisher's types.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName identifies the event type, e.g. "leads.scored".
	EventName() string
	// OccurredAt is the publish time.
	OccurredAt() time.Time
	// Tenant is the workshop the event belongs to.
	Tenant() uuid.UUID
}

// BaseEvent holds the metadata shared by all events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
	TenantID  uuid.UUID `json:"tenantId"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) Tenant() uuid.UUID     { return e.TenantID }

// NewBaseEvent stamps an event for the given workshop.
func NewBaseEvent(tenantID uuid.UUID) BaseEvent {
	return BaseEvent{Timestamp: time.Now(), TenantID: tenantID}
}

// Handler processes events of one event name.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes events to subscribed handlers.
type Bus interface {
	// Publish dispatches asynchronously. Handlers receive a context that
	// outlives the caller's, so a finished HTTP request does not cancel
	// the work it triggered.
	Publish(ctx context.Context, event Event)

	// PublishSync runs all handlers inline and returns the first error.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for the event name returned by
	// Event.EventName().
	Subscribe(eventName string, handler Handler)
}

// LeadCreated is published when a new lead arrives through the intake flow.
// The initial scoring pass subscribes to it.
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	Anliegen string    `json:"anliegen"`
	Source   string    `json:"source,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// LeadScored is published after a scoring run completes. Degraded marks
// runs that fell back to the default score after an internal failure.
type LeadScored struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	Total          int       `json:"total"`
	Classification string    `json:"classification"`
	Priority       string    `json:"priority"`
	EstimatedValue int       `json:"estimatedValue"`
	Degraded       bool      `json:"degraded"`
}

func (e LeadScored) EventName() string { return "leads.scored" }
