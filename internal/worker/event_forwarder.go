// Package worker runs the background delivery of lifecycle events to the
// external sink, so a slow broker never holds up a request.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
)

// ErrQueueFull is returned by Publish when the backlog is at capacity.
var ErrQueueFull = errors.New("event queue full")

// ErrStopped is returned by Publish after Stop.
var ErrStopped = errors.New("event forwarder stopped")

// Sink receives forwarded events, e.g. events.KafkaPublisher.
type Sink interface {
	Publish(ctx context.Context, event events.Event) error
}

// ForwarderConfig tunes the queue and the retry policy.
type ForwarderConfig struct {
	Buffer   int
	Attempts int
	Backoff  time.Duration
}

// Forwarder buffers events in memory and delivers them to a Sink from a
// single goroutine, preserving publish order.
type Forwarder struct {
	sink    Sink
	logger  *zap.Logger
	metrics *observability.Metrics
	cfg     ForwarderConfig

	mu      sync.RWMutex
	stopped bool
	queue   chan events.Event
	done    chan struct{}
}

// NewForwarder builds a forwarder. Call Start before publishing.
func NewForwarder(sink Sink, cfg ForwarderConfig, logger *zap.Logger, metrics *observability.Metrics) *Forwarder {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forwarder{
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
		queue:   make(chan events.Event, cfg.Buffer),
		done:    make(chan struct{}),
	}
}

// Publish enqueues event without blocking.
func (f *Forwarder) Publish(_ context.Context, event events.Event) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.stopped {
		return ErrStopped
	}
	select {
	case f.queue <- event:
		f.metrics.SetQueueDepth(len(f.queue))
		return nil
	default:
		f.metrics.RecordForward(string(event.Type), "dropped")
		f.logger.Warn("event dropped", zap.String("event_type", string(event.Type)), zap.String("ticket_id", event.TicketID))
		return ErrQueueFull
	}
}

// Start launches the delivery loop. ctx bounds individual deliveries; the
// loop itself runs until Stop.
func (f *Forwarder) Start(ctx context.Context) {
	go func() {
		defer close(f.done)
		for event := range f.queue {
			f.metrics.SetQueueDepth(len(f.queue))
			f.deliver(ctx, event)
		}
	}()
}

// Stop refuses new events and waits until the backlog is delivered or ctx ends.
func (f *Forwarder) Stop(ctx context.Context) error {
	f.mu.Lock()
	if !f.stopped {
		f.stopped = true
		close(f.queue)
	}
	f.mu.Unlock()

	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Forwarder) deliver(ctx context.Context, event events.Event) {
	var err error
	for attempt := 1; attempt <= f.cfg.Attempts; attempt++ {
		if err = f.sink.Publish(ctx, event); err == nil {
			f.metrics.RecordForward(string(event.Type), "sent")
			return
		}
		if attempt == f.cfg.Attempts {
			break
		}
		f.logger.Debug("event delivery retry",
			zap.String("event_type", string(event.Type)),
			zap.Int("attempt", attempt),
			zap.Error(err))
		select {
		case <-time.After(f.cfg.Backoff * time.Duration(attempt)):
		case <-ctx.Done():
			err = ctx.Err()
			attempt = f.cfg.Attempts
		}
	}
	f.metrics.RecordForward(string(event.Type), "failed")
	f.logger.Error("event delivery failed",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.Error(err))
}
