package repository

import (
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketOrder selects the sort order of ticket lists.
type TicketOrder int

const (
	OrderOpenedDesc TicketOrder = iota
	OrderOpenedAsc
	OrderClosedDesc
)

// TicketFilter captures list parameters.
type TicketFilter struct {
	RequesterID     *string
	TechnicianID    *string
	Statuses        []domain.TicketStatus
	ExcludeStatuses []domain.TicketStatus
	UnassignedOnly  bool
	Priorities      []domain.TicketPriority
	Order           TicketOrder
	Limit           int
	Offset          int
}

// DefaultLimit applies when a filter sets no limit.
const DefaultLimit = 50

// Page returns normalized limit and offset.
func (f TicketFilter) Page() (int, int) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// OrderClause renders the ORDER BY expression shared by both SQL dialects.
func (f TicketFilter) OrderClause() string {
	switch f.Order {
	case OrderOpenedAsc:
		return "opened_at ASC, id ASC"
	case OrderClosedDesc:
		return "closed_at DESC, opened_at DESC"
	default:
		return "opened_at DESC, id DESC"
	}
}

// Where renders the WHERE clause and its arguments. bind returns the
// placeholder for the n-th argument (1-based) in the target dialect.
func (f TicketFilter) Where(bind func(n int) string) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if f.RequesterID != nil {
		args = append(args, *f.RequesterID)
		clauses = append(clauses, "requester_id="+bind(len(args)))
	}
	if f.TechnicianID != nil {
		args = append(args, *f.TechnicianID)
		clauses = append(clauses, "technician_id="+bind(len(args)))
	}
	if f.UnassignedOnly {
		clauses = append(clauses, "technician_id IS NULL")
	}
	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, status := range f.Statuses {
			args = append(args, string(status))
			placeholders[i] = bind(len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(f.ExcludeStatuses) > 0 {
		placeholders := make([]string, len(f.ExcludeStatuses))
		for i, status := range f.ExcludeStatuses {
			args = append(args, string(status))
			placeholders[i] = bind(len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status NOT IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(f.Priorities) > 0 {
		placeholders := make([]string, len(f.Priorities))
		for i, pr := range f.Priorities {
			args = append(args, string(pr))
			placeholders[i] = bind(len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	return strings.Join(clauses, " AND "), args
}
