package lifecycle

import (
	"strings"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// Role is derived from group membership on every request.
type Role string

const (
	RoleTechnician Role = "TECHNICIAN"
	RoleRequester  Role = "REQUESTER"
)

// Policy answers who may do what. It never caches a role; every check reads
// the caller's current groups.
type Policy struct {
	TechnicianGroup        string
	CommentLogGroup        string
	PrivilegedGroups       []string
	CriticalCategories     []string
	PendingEvaluationLimit int
}

// NewPolicy builds a policy from configuration.
func NewPolicy(cfg config.HelpdeskConfig) Policy {
	return Policy{
		TechnicianGroup:        cfg.TechnicianGroup,
		CommentLogGroup:        cfg.CommentLogGroup,
		PrivilegedGroups:       cfg.PrivilegedGroups,
		CriticalCategories:     cfg.CriticalCategories,
		PendingEvaluationLimit: cfg.PendingEvaluationLimit,
	}
}

// RoleOf resolves the caller's role.
func (p Policy) RoleOf(id *domain.Identity) Role {
	if p.IsTechnician(id) {
		return RoleTechnician
	}
	return RoleRequester
}

// IsTechnician reports membership in the support group.
func (p Policy) IsTechnician(id *domain.Identity) bool {
	return id.InGroup(p.TechnicianGroup)
}

// CanView allows the owner and any technician.
func (p Policy) CanView(id *domain.Identity, ticket *domain.Ticket) bool {
	return ticket.IsOwnedBy(id.UserID()) || p.IsTechnician(id)
}

// CommentOperation picks the comment flavor for the caller. Technicians
// comment freely; the owner replies. Anyone else gets an empty operation.
func (p Policy) CommentOperation(id *domain.Identity, ticket *domain.Ticket) Operation {
	switch {
	case p.IsTechnician(id):
		return OpComment
	case ticket.IsOwnedBy(id.UserID()):
		return OpReply
	default:
		return ""
	}
}

// Authorize checks the actor side of op against ticket. ticket is nil for OpCreate.
func (p Policy) Authorize(op Operation, id *domain.Identity, ticket *domain.Ticket) error {
	if id.UserID() == "" {
		return apperrors.NewUnauthorized("authentication required")
	}
	userID := id.UserID()
	switch op {
	case OpCreate:
		return nil
	case OpAccept:
		if !p.IsTechnician(id) {
			return apperrors.NewForbidden("only technicians can accept tickets")
		}
	case OpUpdateStatus, OpResolve:
		if !ticket.IsAssignedTo(userID) {
			return apperrors.NewForbidden("only the assigned technician can change this ticket")
		}
	case OpCancel:
		if !ticket.IsOwnedBy(userID) {
			return apperrors.NewForbidden("only the requester can cancel this ticket")
		}
	case OpComment:
		if !p.IsTechnician(id) {
			return apperrors.NewForbidden("you cannot comment on this ticket")
		}
	case OpReply:
		if !ticket.IsOwnedBy(userID) {
			return apperrors.NewForbidden("you cannot comment on this ticket")
		}
	case OpAttach:
		if !ticket.IsOwnedBy(userID) {
			return apperrors.NewForbidden("only the requester can attach files")
		}
	case OpEvaluate:
		if !ticket.IsOwnedBy(userID) {
			return apperrors.NewForbidden("only the requester can evaluate this ticket")
		}
	default:
		return apperrors.NewForbidden("unknown operation")
	}
	return nil
}

// ShouldLog decides whether op by id appends to the action log.
func (p Policy) ShouldLog(op Operation, id *domain.Identity) bool {
	rule, ok := rules[op]
	if !ok {
		return false
	}
	switch rule.LogMode {
	case LogAlways:
		return true
	case LogIfCommentGroup:
		return id.InGroup(p.CommentLogGroup)
	default:
		return false
	}
}

// PriorityFor escalates tickets from privileged requesters or critical categories.
func (p Policy) PriorityFor(id *domain.Identity, categoryName string) domain.TicketPriority {
	for _, group := range p.PrivilegedGroups {
		if id.InGroup(group) {
			return domain.TicketPriorityHigh
		}
	}
	for _, critical := range p.CriticalCategories {
		if strings.EqualFold(strings.TrimSpace(critical), strings.TrimSpace(categoryName)) {
			return domain.TicketPriorityHigh
		}
	}
	return domain.TicketPriorityLow
}

// ThrottleCreate denies creation once pending evaluations reach the limit.
func (p Policy) ThrottleCreate(pending int) error {
	if p.PendingEvaluationLimit > 0 && pending >= p.PendingEvaluationLimit {
		return apperrors.NewThrottleExceeded(p.PendingEvaluationLimit, pending)
	}
	return nil
}
