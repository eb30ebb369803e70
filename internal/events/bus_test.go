package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"carbot_backend/platform/logger"
)

func TestPublishReachesAllHandlers(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	var wg sync.WaitGroup
	wg.Add(2)
	var mu sync.Mutex
	seen := 0

	handler := HandlerFunc(func(ctx context.Context, e Event) error {
		defer wg.Done()
		mu.Lock()
		seen++
		mu.Unlock()
		return nil
	})
	bus.Subscribe(LeadCreated{}.EventName(), handler)
	bus.Subscribe(LeadCreated{}.EventName(), handler)

	bus.Publish(context.Background(), LeadCreated{
		BaseEvent: NewBaseEvent(uuid.New()),
		LeadID:    uuid.New(),
		Anliegen:  "Bremsen prüfen",
	})

	wg.Wait()
	if seen != 2 {
		t.Fatalf("handlers run = %d, want 2", seen)
	}
}

func TestPublishOutlivesCallerContext(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	done := make(chan error, 1)
	bus.Subscribe(LeadCreated{}.EventName(), HandlerFunc(func(ctx context.Context, e Event) error {
		// Simulate slow subscriber work (database, SMTP) that finishes
		// after the HTTP request is already torn down.
		time.Sleep(20 * time.Millisecond)
		done <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, LeadCreated{
		BaseEvent: NewBaseEvent(uuid.New()),
		LeadID:    uuid.New(),
		Anliegen:  "TÜV abgelaufen",
	})
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("handler context canceled with the publisher's: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("handler did not complete")
	}
}

func TestPublishSyncReturnsFirstError(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	calls := 0
	bus.Subscribe(LeadScored{}.EventName(), HandlerFunc(func(ctx context.Context, e Event) error {
		calls++
		return context.Canceled
	}))
	bus.Subscribe(LeadScored{}.EventName(), HandlerFunc(func(ctx context.Context, e Event) error {
		calls++
		return nil
	}))

	err := bus.PublishSync(context.Background(), LeadScored{
		BaseEvent: NewBaseEvent(uuid.New()),
		LeadID:    uuid.New(),
		Total:     80,
	})
	if err == nil {
		t.Fatal("expected the first handler's error")
	}
	if calls != 1 {
		t.Fatalf("handlers run = %d, want 1 (stop at first error)", calls)
	}
}

func TestEventCarriesTenant(t *testing.T) {
	tenantID := uuid.New()
	e := LeadScored{BaseEvent: NewBaseEvent(tenantID), LeadID: uuid.New(), Total: 55}

	if e.Tenant() != tenantID {
		t.Fatalf("tenant = %s, want %s", e.Tenant(), tenantID)
	}
	if e.OccurredAt().IsZero() {
		t.Fatal("event timestamp not set")
	}
}
