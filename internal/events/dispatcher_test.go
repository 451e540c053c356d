package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []string

	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.TicketID)
		return assert.AnError
	})
	d.SubscribeAll(func(_ context.Context, e Event) error {
		got = append(got, "all:"+string(e.Type))
		return nil
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketClosed, func(_ context.Context, e Event) error {
		got = append(got, "closed:"+e.TicketID)
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t-1"})

	assert.ErrorIs(t, err, assert.AnError)
	var handlerErr *HandlerError
	require.True(t, errors.As(err, &handlerErr))
	assert.Equal(t, EventTicketCreated, handlerErr.Type)
	assert.Equal(t, "t-1", handlerErr.TicketID)
	assert.Equal(t, []string{"first:t-1", "second:t-1", "all:ticket_created"}, got)
}

func TestDispatcherRecoversPanics(t *testing.T) {
	d := NewInMemoryDispatcher()
	delivered := false
	d.Subscribe(EventTicketResolved, func(context.Context, Event) error {
		panic("boom")
	})
	d.Subscribe(EventTicketResolved, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketResolved, TicketID: "t-2"})

	assert.ErrorContains(t, err, "panic: boom")
	assert.True(t, delivered)
}

func TestDispatcherWithoutHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCancelled}))
}
