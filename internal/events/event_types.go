package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketAccepted        EventType = "ticket_accepted"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketResolved        EventType = "ticket_resolved"
	EventTicketCancelled       EventType = "ticket_cancelled"
	EventTicketCommented       EventType = "ticket_commented"
	EventTicketAttachmentAdded EventType = "ticket_attachment_added"
	EventTicketClosed          EventType = "ticket_closed"
)

// AllEventTypes lists every type the engine publishes.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketAccepted,
	EventTicketStatusChanged,
	EventTicketResolved,
	EventTicketCancelled,
	EventTicketCommented,
	EventTicketAttachmentAdded,
	EventTicketClosed,
}

// Actor identifies who triggered an event.
type Actor struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Event represents a domain event emitted after a lifecycle operation commits.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	SubcategoryID string                `json:"subcategory_id"`
	Category      string                `json:"category"`
	Priority      domain.TicketPriority `json:"priority"`
}

// TicketStatusChangedPayload is used by accept, status updates, resolve,
// cancel and reply.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketCommentedPayload payload.
type TicketCommentedPayload struct {
	CommentID   string `json:"comment_id"`
	BodyPreview string `json:"body_preview"`
}

// TicketAttachmentAddedPayload payload.
type TicketAttachmentAddedPayload struct {
	AttachmentID string `json:"attachment_id"`
	Path         string `json:"path"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	EvaluationID string `json:"evaluation_id"`
	Score        int    `json:"score"`
}
