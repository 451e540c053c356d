package service

import (
	"context"
	"errors"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketDetail is everything shown on a ticket page.
type TicketDetail struct {
	Ticket      *domain.Ticket
	Comments    []domain.Comment
	Attachments []domain.Attachment
	Evaluation  *domain.Evaluation
	// Timeline is newest first.
	Timeline []domain.ActionLog
}

// TechnicianDashboard splits work between the open queue and the caller's own tickets.
type TechnicianDashboard struct {
	Queue []domain.Ticket
	Mine  []domain.Ticket
}

// Page selects a window of a list.
type Page struct {
	Limit  int
	Offset int
}

var finishedStatuses = []domain.TicketStatus{
	domain.TicketStatusResolved,
	domain.TicketStatusClosed,
	domain.TicketStatusCancelled,
}

// List returns all tickets to technicians and the caller's own tickets otherwise.
func (s *TicketService) List(ctx context.Context, id *domain.Identity, page Page) ([]domain.Ticket, error) {
	if id.UserID() == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	filter := repository.TicketFilter{Order: repository.OrderOpenedDesc, Limit: page.Limit, Offset: page.Offset}
	if !s.policy.IsTechnician(id) {
		userID := id.UserID()
		filter.RequesterID = &userID
	}
	return s.list(ctx, filter)
}

// Detail loads a ticket with its thread, attachments, evaluation and timeline.
func (s *TicketService) Detail(ctx context.Context, id *domain.Identity, ticketID string) (*TicketDetail, error) {
	repos := s.store.Repos()
	ticket, err := s.visibleTicket(ctx, repos, id, ticketID)
	if err != nil {
		return nil, err
	}
	detail := &TicketDetail{Ticket: ticket}
	if detail.Comments, err = repos.Comments.ListByTicket(ctx, ticket.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if detail.Attachments, err = repos.Attachments.ListByTicket(ctx, ticket.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	evaluation, err := repos.Evaluations.GetByTicket(ctx, ticket.ID)
	switch {
	case err == nil:
		detail.Evaluation = evaluation
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.MapError(err)
	}
	if detail.Timeline, err = repos.ActionLogs.ListByTicket(ctx, ticket.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	return detail, nil
}

// Timeline returns the action log of a ticket, newest first.
func (s *TicketService) Timeline(ctx context.Context, id *domain.Identity, ticketID string) ([]domain.ActionLog, error) {
	repos := s.store.Repos()
	ticket, err := s.visibleTicket(ctx, repos, id, ticketID)
	if err != nil {
		return nil, err
	}
	entries, err := repos.ActionLogs.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// History lists closed tickets, most recently closed first.
func (s *TicketService) History(ctx context.Context, id *domain.Identity, page Page) ([]domain.Ticket, error) {
	if id.UserID() == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	filter := repository.TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusClosed},
		Order:    repository.OrderClosedDesc,
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
	if !s.policy.IsTechnician(id) {
		userID := id.UserID()
		filter.RequesterID = &userID
	}
	return s.list(ctx, filter)
}

// UserDashboard lists the caller's tickets that are not closed yet.
func (s *TicketService) UserDashboard(ctx context.Context, id *domain.Identity) ([]domain.Ticket, error) {
	if id.UserID() == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	userID := id.UserID()
	return s.list(ctx, repository.TicketFilter{
		RequesterID:     &userID,
		ExcludeStatuses: []domain.TicketStatus{domain.TicketStatusClosed},
		Order:           repository.OrderOpenedDesc,
	})
}

// TechnicianDashboard returns the unassigned queue and the caller's active work, oldest first.
func (s *TicketService) TechnicianDashboard(ctx context.Context, id *domain.Identity) (*TechnicianDashboard, error) {
	if id.UserID() == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !s.policy.IsTechnician(id) {
		return nil, apperrors.NewForbidden("technician access required")
	}
	queue, err := s.list(ctx, repository.TicketFilter{
		Statuses:       []domain.TicketStatus{domain.TicketStatusOpen},
		UnassignedOnly: true,
		Order:          repository.OrderOpenedAsc,
	})
	if err != nil {
		return nil, err
	}
	userID := id.UserID()
	mine, err := s.list(ctx, repository.TicketFilter{
		TechnicianID:    &userID,
		ExcludeStatuses: finishedStatuses,
		Order:           repository.OrderOpenedAsc,
	})
	if err != nil {
		return nil, err
	}
	return &TechnicianDashboard{Queue: queue, Mine: mine}, nil
}

func (s *TicketService) list(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.store.Repos().Tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// visibleTicket loads a ticket the caller may read. Unknown tickets are
// NotFound; tickets of other requesters are Forbidden.
func (s *TicketService) visibleTicket(ctx context.Context, repos repository.Repositories, id *domain.Identity, ticketID string) (*domain.Ticket, error) {
	if id.UserID() == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := repos.Tickets.GetByID(ctx, ticketID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !s.policy.CanView(id, ticket) {
		return nil, apperrors.NewForbidden("you cannot view this ticket")
	}
	return ticket, nil
}
