package automation

import (
	"context"
	"errors"
	"sync"

	"github.com/gharseva/gharseva-backend/internal/events"
	"github.com/gharseva/gharseva-backend/pkg/logger"
	"github.com/gharseva/gharseva-backend/pkg/metrics"
)

const (
	defaultQueueSize = 256
	defaultWorkers   = 2
)

// Dispatcher decouples event dispatch from the request lifecycle with a
// bounded queue and a small worker pool. Enqueue never blocks: when the
// queue is full the event is dropped and counted, since a missed
// notification is preferable to a slow response.
type Dispatcher struct {
	engine  *Engine
	logg    *logger.Logger
	metrics *metrics.NotificationMetrics
	queue   chan events.Event
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher builds a stopped dispatcher; call Start to launch workers.
func NewDispatcher(engine *Engine, logg *logger.Logger, m *metrics.NotificationMetrics, queueSize, workers int) (*Dispatcher, error) {
	if engine == nil {
		return nil, errors.New("automation engine required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Dispatcher{
		engine:  engine,
		logg:    logg,
		metrics: m,
		queue:   make(chan events.Event, queueSize),
		workers: workers,
	}, nil
}

// Start launches the worker pool. The supplied context should be the
// application lifecycle context, not a request context: events outlive
// the requests that produced them.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for event := range d.queue {
		d.metrics.SetQueueDepth(len(d.queue))

		result := d.engine.Trigger(ctx, event)
		if result.Success {
			d.metrics.IncDispatched(event.Type)
			continue
		}
		d.metrics.IncFailed(event.Type)
		eventCtx := d.logg.WithEventType(ctx, event.Type)
		d.logg.Warn(eventCtx, "event dispatch failed: "+result.Error)
	}
}

// Enqueue offers an event to the queue without blocking. Returns false
// when the event was dropped, either because the queue is full or the
// dispatcher is already closed.
func (d *Dispatcher) Enqueue(event events.Event) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.metrics.IncDropped()
		return false
	}

	select {
	case d.queue <- event:
		d.metrics.SetQueueDepth(len(d.queue))
		return true
	default:
		d.metrics.IncDropped()
		return false
	}
}

// Close stops accepting events and drains the queue before returning.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}
