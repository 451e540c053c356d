package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
)

type captureSink struct {
	events []events.Event
	err    error
}

func (c *captureSink) Publish(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestNotificationServiceForwardsEveryEventType(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sink := &captureSink{}
	NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{EmailFrom: "helpdesk@example.org"}, sink).RegisterHandlers()

	for _, eventType := range events.AllEventTypes {
		require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: eventType, TicketID: "t1"}))
	}
	require.Len(t, sink.events, len(events.AllEventTypes))
	assert.Equal(t, events.EventTicketClosed, sink.events[len(sink.events)-1].Type)
}

func TestNotificationServiceSurfacesSinkErrors(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sink := &captureSink{err: errors.New("broker down")}
	NewNotificationService(dispatcher, nil, config.NotificationConfig{}, sink).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated})
	assert.ErrorContains(t, err, "broker down")
}

func TestNotificationServiceWithoutSink(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, nil, config.NotificationConfig{}, nil).RegisterHandlers()
	assert.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCommented}))
}
