package automation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gharseva/gharseva-backend/internal/events"
	"github.com/gharseva/gharseva-backend/pkg/metrics"
)

func newTestDispatcher(t *testing.T, engine *Engine, queueSize, workers int) *Dispatcher {
	t.Helper()

	m := metrics.NewNotificationMetrics(prometheus.NewRegistry())
	dispatcher, err := NewDispatcher(engine, testLogger(), m, queueSize, workers)
	if err != nil {
		t.Fatalf("build dispatcher: %v", err)
	}
	return dispatcher
}

func TestDispatcher_ProcessesEnqueuedEvents(t *testing.T) {
	db := setupEngineTestDB(t)
	engine := newTestEngine(t, db, &fakeDirectory{})
	dispatcher := newTestDispatcher(t, engine, 16, 2)
	dispatcher.Start(context.Background())

	customer := uuid.New()
	ok := dispatcher.Enqueue(events.Event{
		Type:          events.BookingConfirmed,
		CustomerID:    customer,
		EntityID:      uuid.New(),
		ServiceName:   "Electrician Visit",
		ScheduledDate: "2026-09-05",
		ScheduledTime: "09:00",
	})
	if !ok {
		t.Fatal("expected enqueue to succeed")
	}

	// Close drains the queue before returning.
	dispatcher.Close()

	rows := rowsFor(t, db, customer)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after drain, got %d", len(rows))
	}
	if rows[0].Type != events.BookingConfirmed {
		t.Fatalf("unexpected type %s", rows[0].Type)
	}
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	engine := newTestEngine(t, setupEngineTestDB(t), &fakeDirectory{})
	// No workers started, so the queue never drains.
	dispatcher := newTestDispatcher(t, engine, 1, 1)

	first := dispatcher.Enqueue(events.Event{Type: events.Welcome, ActorID: uuid.New()})
	second := dispatcher.Enqueue(events.Event{Type: events.Welcome, ActorID: uuid.New()})
	if !first {
		t.Fatal("expected first enqueue to succeed")
	}
	if second {
		t.Fatal("expected second enqueue to drop")
	}

	dispatcher.Start(context.Background())
	dispatcher.Close()
}

func TestDispatcher_RejectsAfterClose(t *testing.T) {
	engine := newTestEngine(t, setupEngineTestDB(t), &fakeDirectory{})
	dispatcher := newTestDispatcher(t, engine, 4, 1)
	dispatcher.Start(context.Background())
	dispatcher.Close()

	if dispatcher.Enqueue(events.Event{Type: events.Welcome, ActorID: uuid.New()}) {
		t.Fatal("expected enqueue to fail after close")
	}

	// Close is idempotent.
	dispatcher.Close()
}

func TestDispatcher_FailedEventsDoNotStopWorkers(t *testing.T) {
	db := setupEngineTestDB(t)
	engine := newTestEngine(t, db, &fakeDirectory{})
	dispatcher := newTestDispatcher(t, engine, 8, 1)
	dispatcher.Start(context.Background())

	// Unknown event fails inside the worker, then a valid one still lands.
	dispatcher.Enqueue(events.Event{Type: "bogus_event"})
	customer := uuid.New()
	dispatcher.Enqueue(events.Event{
		Type:          events.BookingCompleted,
		CustomerID:    customer,
		EntityID:      uuid.New(),
		ScheduledDate: "2026-09-06",
	})
	dispatcher.Close()

	if rows := rowsFor(t, db, customer); len(rows) != 1 {
		t.Fatalf("expected valid event to be processed, got %d rows", len(rows))
	}
}
