package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
)

// EventSink forwards lifecycle events outside the process.
type EventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

// NotificationService reacts to ticket lifecycle events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	sink       EventSink
}

// NewNotificationService creates the service. sink may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, sink EventSink) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		sink:       sink,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAccepted, n.notifyRequester)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.notifyRequester)
	n.dispatcher.Subscribe(events.EventTicketResolved, n.notifyRequester)
	n.dispatcher.Subscribe(events.EventTicketCommented, n.handleTicketCommented)
	n.dispatcher.Subscribe(events.EventTicketAttachmentAdded, n.notifyTechnician)
	n.dispatcher.Subscribe(events.EventTicketCancelled, n.notifyTechnician)
	n.dispatcher.Subscribe(events.EventTicketClosed, n.notifyTechnician)
	if n.sink != nil {
		n.dispatcher.SubscribeAll(n.forward)
	}
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event, "technicians")
	return nil
}

func (n *NotificationService) handleTicketCommented(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCommented", zap.String("ticket_id", event.TicketID), zap.String("actor_role", event.Actor.Role))
	recipient := "requester"
	if event.Actor.Role != string(lifecycle.RoleTechnician) {
		recipient = "technician"
	}
	n.sendEmailNotificationStub(ctx, event, recipient)
	return nil
}

func (n *NotificationService) notifyRequester(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event, "requester")
	return nil
}

func (n *NotificationService) notifyTechnician(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event, "technician")
	return nil
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	return n.sink.Publish(ctx, event)
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, recipient string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", recipient),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
