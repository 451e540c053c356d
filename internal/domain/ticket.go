package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen                 TicketStatus = "OPEN"
	TicketStatusInProgress           TicketStatus = "IN_PROGRESS"
	TicketStatusAwaitingUserResponse TicketStatus = "AWAITING_USER_RESPONSE"
	TicketStatusAwaitingThirdParty   TicketStatus = "AWAITING_THIRD_PARTY"
	TicketStatusResolved             TicketStatus = "RESOLVED"
	TicketStatusClosed               TicketStatus = "CLOSED"
	TicketStatusCancelled            TicketStatus = "CANCELLED"
)

// AllTicketStatuses lists every status in lifecycle order.
var AllTicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusAwaitingUserResponse,
	TicketStatusAwaitingThirdParty,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusCancelled,
}

var statusLabels = map[TicketStatus]string{
	TicketStatusOpen:                 "Open",
	TicketStatusInProgress:           "In Progress",
	TicketStatusAwaitingUserResponse: "Awaiting User Response",
	TicketStatusAwaitingThirdParty:   "Awaiting Third Party",
	TicketStatusResolved:             "Resolved",
	TicketStatusClosed:               "Closed",
	TicketStatusCancelled:            "Cancelled",
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the human readable status name.
func (s TicketStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsTerminal reports whether no technician work remains on the ticket.
func (s TicketStatus) IsTerminal() bool {
	switch s {
	case TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled:
		return true
	}
	return false
}

// MarksCompletion reports whether reaching s stamps the ticket's closed-at.
func (s TicketStatus) MarksCompletion() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID            string
	RequesterID   string
	TechnicianID  *string
	SubcategoryID string
	Note          string
	Priority      TicketPriority
	Status        TicketStatus
	OpenedAt      time.Time
	ClosedAt      *time.Time
}

// IsOwnedBy reports whether userID opened the ticket.
func (t *Ticket) IsOwnedBy(userID string) bool {
	return t != nil && t.RequesterID == userID
}

// IsAssignedTo reports whether userID accepted the ticket.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t != nil && t.TechnicianID != nil && *t.TechnicianID == userID
}
