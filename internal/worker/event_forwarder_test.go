package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
)

type flakySink struct {
	mu       sync.Mutex
	failures int
	calls    int
	perEvent map[string]int
	got      []string
	block    chan struct{}
}

func (s *flakySink) Publish(_ context.Context, event events.Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.perEvent == nil {
		s.perEvent = map[string]int{}
	}
	s.perEvent[event.TicketID]++
	if s.failures > 0 {
		s.failures--
		return errors.New("broker unavailable")
	}
	s.got = append(s.got, event.TicketID)
	return nil
}

func (s *flakySink) delivered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.got...)
}

func stopWithin(t *testing.T, f *Forwarder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.Stop(ctx))
}

func TestForwarderDeliversInOrder(t *testing.T) {
	sink := &flakySink{}
	f := NewForwarder(sink, ForwarderConfig{Buffer: 8}, zap.NewNop(), nil)
	f.Start(context.Background())

	for _, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, f.Publish(context.Background(), events.Event{Type: events.EventTicketCreated, TicketID: id}))
	}
	stopWithin(t, f)

	assert.Equal(t, []string{"t1", "t2", "t3"}, sink.delivered())
	assert.ErrorIs(t, f.Publish(context.Background(), events.Event{}), ErrStopped)
}

func TestForwarderRetries(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	sink := &flakySink{failures: 2}
	f := NewForwarder(sink, ForwarderConfig{Attempts: 3, Backoff: time.Millisecond}, zap.NewNop(), metrics)
	f.Start(context.Background())

	require.NoError(t, f.Publish(context.Background(), events.Event{Type: events.EventTicketResolved, TicketID: "t1"}))
	stopWithin(t, f)

	assert.Equal(t, 3, sink.calls)
	assert.Equal(t, []string{"t1"}, sink.delivered())
	count, err := testutil.GatherAndCount(reg, "helpdesk_events_forwarded_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestForwarderGivesUp(t *testing.T) {
	sink := &flakySink{failures: 5}
	f := NewForwarder(sink, ForwarderConfig{Attempts: 2, Backoff: time.Millisecond}, zap.NewNop(), nil)
	f.Start(context.Background())

	require.NoError(t, f.Publish(context.Background(), events.Event{Type: events.EventTicketClosed, TicketID: "t1"}))
	require.NoError(t, f.Publish(context.Background(), events.Event{Type: events.EventTicketClosed, TicketID: "t2"}))
	stopWithin(t, f)

	assert.Equal(t, 4, sink.calls)
	assert.Equal(t, map[string]int{"t1": 2, "t2": 2}, sink.perEvent)
	assert.Empty(t, sink.delivered())
}

func TestForwarderDropsWhenFull(t *testing.T) {
	sink := &flakySink{block: make(chan struct{})}
	f := NewForwarder(sink, ForwarderConfig{Buffer: 1}, zap.NewNop(), nil)

	require.NoError(t, f.Publish(context.Background(), events.Event{TicketID: "t1"}))
	assert.ErrorIs(t, f.Publish(context.Background(), events.Event{TicketID: "t2"}), ErrQueueFull)

	f.Start(context.Background())
	close(sink.block)
	stopWithin(t, f)
	assert.Equal(t, []string{"t1"}, sink.delivered())
}
