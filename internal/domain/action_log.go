package domain

import "time"

// ActionType is the fixed vocabulary of log events.
type ActionType string

const (
	ActionCreated         ActionType = "CREATED"
	ActionAccepted        ActionType = "ACCEPTED"
	ActionCommented       ActionType = "COMMENTED"
	ActionStatusChanged   ActionType = "STATUS_CHANGED"
	ActionResolved        ActionType = "RESOLVED"
	ActionClosedByUser    ActionType = "CLOSED_BY_USER"
	ActionAttachmentAdded ActionType = "ATTACHMENT_ADDED"
)

// ActionTypeDef is a seeded action type row.
type ActionTypeDef struct {
	Name        ActionType
	DisplayName string
}

// DefaultActionTypes is the reference data seeded into every store.
var DefaultActionTypes = []ActionTypeDef{
	{Name: ActionCreated, DisplayName: "Ticket created"},
	{Name: ActionAccepted, DisplayName: "Technician accepted the ticket"},
	{Name: ActionCommented, DisplayName: "Technician added a comment"},
	{Name: ActionStatusChanged, DisplayName: "Technician changed the status"},
	{Name: ActionResolved, DisplayName: "Technician resolved the ticket"},
	{Name: ActionClosedByUser, DisplayName: "User evaluated and closed the ticket"},
	{Name: ActionAttachmentAdded, DisplayName: "User attached a file"},
}

// ActionLog is an append-only audit trail entry.
type ActionLog struct {
	ID         string
	TicketID   string
	ActorID    string
	ActionType ActionType
	Detail     string
	CreatedAt  time.Time
}
