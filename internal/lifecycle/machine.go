// Package lifecycle holds the ticket state machine and the authorization
// policy the service layer enforces on every operation.
package lifecycle

import (
	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// Operation names a command the engine can apply to a ticket.
type Operation string

const (
	OpCreate       Operation = "create"
	OpAccept       Operation = "accept"
	OpUpdateStatus Operation = "update_status"
	OpResolve      Operation = "resolve"
	OpCancel       Operation = "cancel"
	OpComment      Operation = "comment" // technician comment
	OpReply        Operation = "reply"   // requester comment
	OpAttach       Operation = "attach"
	OpEvaluate     Operation = "evaluate"
)

// LogMode says when an operation appends to the action log.
type LogMode int

const (
	LogNever LogMode = iota
	LogAlways
	LogIfCommentGroup
)

// Rule defines where an operation may start and where it leaves the ticket.
type Rule struct {
	Operation Operation
	// From lists the statuses the operation may start from; nil means any.
	From []domain.TicketStatus
	// To is the resulting status; empty keeps the current status, except for
	// OpUpdateStatus where the requested status is used.
	To          domain.TicketStatus
	Log         domain.ActionType
	LogMode     LogMode
	Description string
}

var activeStatuses = []domain.TicketStatus{
	domain.TicketStatusInProgress,
	domain.TicketStatusAwaitingUserResponse,
	domain.TicketStatusAwaitingThirdParty,
}

// editableStatuses are the targets a technician may pick by hand.
var editableStatuses = map[domain.TicketStatus]struct{}{
	domain.TicketStatusInProgress:           {},
	domain.TicketStatusAwaitingUserResponse: {},
	domain.TicketStatusAwaitingThirdParty:   {},
}

var rules = map[Operation]Rule{
	OpCreate: {
		Operation:   OpCreate,
		From:        []domain.TicketStatus{},
		To:          domain.TicketStatusOpen,
		Log:         domain.ActionCreated,
		LogMode:     LogAlways,
		Description: "Requester opens a ticket",
	},
	OpAccept: {
		Operation:   OpAccept,
		From:        []domain.TicketStatus{domain.TicketStatusOpen},
		To:          domain.TicketStatusInProgress,
		Log:         domain.ActionAccepted,
		LogMode:     LogAlways,
		Description: "Technician takes an open ticket",
	},
	OpUpdateStatus: {
		Operation:   OpUpdateStatus,
		From:        activeStatuses,
		Log:         domain.ActionStatusChanged,
		LogMode:     LogAlways,
		Description: "Assigned technician moves the ticket between working states",
	},
	OpResolve: {
		Operation:   OpResolve,
		From:        []domain.TicketStatus{domain.TicketStatusInProgress},
		To:          domain.TicketStatusResolved,
		Log:         domain.ActionResolved,
		LogMode:     LogAlways,
		Description: "Assigned technician resolves the ticket",
	},
	OpCancel: {
		Operation:   OpCancel,
		From:        []domain.TicketStatus{domain.TicketStatusOpen},
		To:          domain.TicketStatusCancelled,
		LogMode:     LogNever,
		Description: "Requester withdraws a ticket nobody accepted",
	},
	OpComment: {
		Operation:   OpComment,
		Log:         domain.ActionCommented,
		LogMode:     LogIfCommentGroup,
		Description: "Technician comments",
	},
	OpReply: {
		Operation:   OpReply,
		From:        []domain.TicketStatus{domain.TicketStatusAwaitingUserResponse},
		To:          domain.TicketStatusInProgress,
		Log:         domain.ActionCommented,
		LogMode:     LogIfCommentGroup,
		Description: "Requester answers a technician question",
	},
	OpAttach: {
		Operation:   OpAttach,
		From:        []domain.TicketStatus{domain.TicketStatusAwaitingUserResponse},
		Log:         domain.ActionAttachmentAdded,
		LogMode:     LogAlways,
		Description: "Requester attaches a file path",
	},
	OpEvaluate: {
		Operation:   OpEvaluate,
		From:        []domain.TicketStatus{domain.TicketStatusResolved},
		To:          domain.TicketStatusClosed,
		Log:         domain.ActionClosedByUser,
		LogMode:     LogAlways,
		Description: "Requester rates the resolution and closes the ticket",
	},
}

// RuleFor returns the rule of op.
func RuleFor(op Operation) (Rule, bool) {
	rule, ok := rules[op]
	return rule, ok
}

// Operations lists every operation with a rule.
func Operations() []Operation {
	return []Operation{OpCreate, OpAccept, OpUpdateStatus, OpResolve, OpCancel, OpComment, OpReply, OpAttach, OpEvaluate}
}

// IsEditable reports whether a technician may set status directly.
func IsEditable(status domain.TicketStatus) bool {
	_, ok := editableStatuses[status]
	return ok
}

// EditableStatuses lists the technician-editable statuses in lifecycle order.
func EditableStatuses() []domain.TicketStatus {
	out := make([]domain.TicketStatus, 0, len(editableStatuses))
	for _, status := range domain.AllTicketStatuses {
		if IsEditable(status) {
			out = append(out, status)
		}
	}
	return out
}

// CanStart reports whether op may run while the ticket is in current.
func (r Rule) CanStart(current domain.TicketStatus) bool {
	if r.From == nil {
		return true
	}
	for _, status := range r.From {
		if status == current {
			return true
		}
	}
	return false
}

// Next resolves the status op leaves the ticket in. requested is only read
// for OpUpdateStatus.
func Next(op Operation, current, requested domain.TicketStatus) (domain.TicketStatus, error) {
	rule, ok := rules[op]
	if !ok {
		return "", apperrors.NewInternalError(nil)
	}
	if op == OpCreate {
		return rule.To, nil
	}
	if !rule.CanStart(current) {
		return "", apperrors.NewInvalidTransition("operation not allowed in current status", map[string]any{
			"operation": string(op),
			"status":    string(current),
		})
	}
	switch {
	case op == OpUpdateStatus:
		if !IsEditable(requested) {
			return "", apperrors.NewFieldErrors(map[string]string{
				"status": "status cannot be set manually: " + string(requested),
			})
		}
		return requested, nil
	case rule.To == "":
		return current, nil
	default:
		return rule.To, nil
	}
}
