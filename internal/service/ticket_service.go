package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

const (
	commentDetailLength = 100
	maxAttachmentPath   = 512
)

// TicketService is the lifecycle engine. Every mutation runs in one store
// transaction: ticket change, side rows and action log commit together.
type TicketService struct {
	store      repository.Store
	policy     lifecycle.Policy
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Policy     lifecycle.Policy
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	SubcategoryID string
	Note          string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		store:      deps.Store,
		policy:     deps.Policy,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Policy exposes the authorization policy used by the engine.
func (s *TicketService) Policy() lifecycle.Policy {
	return s.policy
}

func (s *TicketService) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create opens a ticket for the caller.
func (s *TicketService) Create(ctx context.Context, id *domain.Identity, input TicketCreateInput) (*domain.Ticket, error) {
	if err := s.policy.Authorize(lifecycle.OpCreate, id, nil); err != nil {
		return nil, s.deny(lifecycle.OpCreate, "", id, err)
	}
	subcategoryID := strings.TrimSpace(input.SubcategoryID)
	if subcategoryID == "" {
		return nil, s.deny(lifecycle.OpCreate, "", id, apperrors.NewFieldErrors(map[string]string{
			"subcategory_id": "subcategory is required",
		}))
	}

	var (
		ticket      *domain.Ticket
		subcategory *domain.Subcategory
	)
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		pending, err := repos.Tickets.CountByRequesterAndStatus(ctx, id.UserID(), domain.TicketStatusResolved)
		if err != nil {
			return err
		}
		if err := s.policy.ThrottleCreate(pending); err != nil {
			return err
		}

		subcategory, err = repos.Categories.GetSubcategory(ctx, subcategoryID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewFieldErrors(map[string]string{"subcategory_id": "unknown subcategory"})
		}
		if err != nil {
			return err
		}

		status, err := lifecycle.Next(lifecycle.OpCreate, "", "")
		if err != nil {
			return err
		}
		now := s.clock()
		ticket = &domain.Ticket{
			ID:            uuid.NewString(),
			RequesterID:   id.UserID(),
			SubcategoryID: subcategory.ID,
			Note:          strings.TrimSpace(input.Note),
			Priority:      s.policy.PriorityFor(id, subcategory.CategoryName),
			Status:        status,
			OpenedAt:      now,
		}
		if err := repos.Tickets.Create(ctx, ticket); err != nil {
			return err
		}
		return s.appendLog(ctx, repos, lifecycle.OpCreate, id, ticket.ID, "", now)
	})
	if err != nil {
		return nil, s.deny(lifecycle.OpCreate, "", id, err)
	}

	s.applied(ctx, lifecycle.OpCreate, id, ticket, "", events.EventTicketCreated, events.TicketCreatedPayload{
		SubcategoryID: ticket.SubcategoryID,
		Category:      subcategory.CategoryName,
		Priority:      ticket.Priority,
	})
	return ticket, nil
}

// Accept assigns an open ticket to the calling technician. Of two concurrent
// accepts exactly one wins; the other sees InvalidTransition.
func (s *TicketService) Accept(ctx context.Context, id *domain.Identity, ticketID string) (*domain.Ticket, error) {
	result, err := s.mutate(ctx, id, ticketID, mutation{op: lifecycle.OpAccept})
	if err != nil {
		return nil, err
	}
	s.applied(ctx, lifecycle.OpAccept, id, result.ticket, result.from, events.EventTicketAccepted, statusPayload(result))
	return result.ticket, nil
}

// UpdateStatus moves an assigned ticket between the technician-editable statuses.
func (s *TicketService) UpdateStatus(ctx context.Context, id *domain.Identity, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	result, err := s.mutate(ctx, id, ticketID, mutation{
		op:        lifecycle.OpUpdateStatus,
		requested: status,
		detail: func(next domain.TicketStatus) string {
			return "Status changed to: " + next.Label()
		},
	})
	if err != nil {
		return nil, err
	}
	s.applied(ctx, lifecycle.OpUpdateStatus, id, result.ticket, result.from, events.EventTicketStatusChanged, statusPayload(result))
	return result.ticket, nil
}

// Resolve marks an in-progress ticket resolved and stamps closed-at.
func (s *TicketService) Resolve(ctx context.Context, id *domain.Identity, ticketID string) (*domain.Ticket, error) {
	result, err := s.mutate(ctx, id, ticketID, mutation{op: lifecycle.OpResolve})
	if err != nil {
		return nil, err
	}
	s.applied(ctx, lifecycle.OpResolve, id, result.ticket, result.from, events.EventTicketResolved, statusPayload(result))
	return result.ticket, nil
}

// Cancel withdraws an open ticket. No action log entry is written.
func (s *TicketService) Cancel(ctx context.Context, id *domain.Identity, ticketID string) (*domain.Ticket, error) {
	result, err := s.mutate(ctx, id, ticketID, mutation{op: lifecycle.OpCancel})
	if err != nil {
		return nil, err
	}
	s.applied(ctx, lifecycle.OpCancel, id, result.ticket, result.from, events.EventTicketCancelled, statusPayload(result))
	return result.ticket, nil
}

// AddComment posts to the ticket thread. Technicians may comment in any
// status; the requester only answers while the ticket awaits them, which
// hands it back to the technician.
func (s *TicketService) AddComment(ctx context.Context, id *domain.Identity, ticketID, body string) (*domain.Comment, *domain.Ticket, error) {
	body = strings.TrimSpace(body)
	var comment *domain.Comment
	result, err := s.mutate(ctx, id, ticketID, mutation{
		resolveOp: func(ticket *domain.Ticket) lifecycle.Operation {
			return s.policy.CommentOperation(id, ticket)
		},
		validate: func() error {
			if body == "" {
				return apperrors.NewFieldErrors(map[string]string{"body": "comment cannot be empty"})
			}
			return nil
		},
		apply: func(repos repository.Repositories, ticket *domain.Ticket, now time.Time) (string, error) {
			comment = &domain.Comment{
				ID:        uuid.NewString(),
				TicketID:  ticket.ID,
				AuthorID:  id.UserID(),
				Body:      body,
				CreatedAt: now,
			}
			if err := repos.Comments.Create(ctx, comment); err != nil {
				return "", err
			}
			return truncate(body, commentDetailLength), nil
		},
	})
	if err != nil {
		return nil, nil, err
	}
	s.applied(ctx, result.op, id, result.ticket, result.from, events.EventTicketCommented, events.TicketCommentedPayload{
		CommentID:   comment.ID,
		BodyPreview: truncate(body, commentDetailLength),
	})
	if result.from != result.ticket.Status {
		s.publish(ctx, events.EventTicketStatusChanged, id, result.ticket.ID, statusPayload(result))
	}
	return comment, result.ticket, nil
}

// AddAttachment records a network path supplied by the requester while the
// ticket awaits their response.
func (s *TicketService) AddAttachment(ctx context.Context, id *domain.Identity, ticketID, path string) (*domain.Attachment, error) {
	path = strings.TrimSpace(path)
	var attachment *domain.Attachment
	result, err := s.mutate(ctx, id, ticketID, mutation{
		op: lifecycle.OpAttach,
		validate: func() error {
			switch {
			case path == "":
				return apperrors.NewFieldErrors(map[string]string{"path": "path is required"})
			case utf8.RuneCountInString(path) > maxAttachmentPath:
				return apperrors.NewFieldErrors(map[string]string{"path": "path is too long"})
			}
			return nil
		},
		apply: func(repos repository.Repositories, ticket *domain.Ticket, now time.Time) (string, error) {
			attachment = &domain.Attachment{
				ID:         uuid.NewString(),
				TicketID:   ticket.ID,
				Path:       path,
				UploaderID: id.UserID(),
				UploadedAt: now,
			}
			return "", repos.Attachments.Create(ctx, attachment)
		},
	})
	if err != nil {
		return nil, err
	}
	s.applied(ctx, lifecycle.OpAttach, id, result.ticket, result.from, events.EventTicketAttachmentAdded, events.TicketAttachmentAddedPayload{
		AttachmentID: attachment.ID,
		Path:         attachment.Path,
	})
	return attachment, nil
}

// Evaluate rates a resolved ticket and closes it.
func (s *TicketService) Evaluate(ctx context.Context, id *domain.Identity, ticketID string, score int, description string) (*domain.Evaluation, *domain.Ticket, error) {
	var evaluation *domain.Evaluation
	result, err := s.mutate(ctx, id, ticketID, mutation{
		op: lifecycle.OpEvaluate,
		validate: func() error {
			if score < domain.MinEvaluationScore || score > domain.MaxEvaluationScore {
				return apperrors.NewFieldErrors(map[string]string{"score": "score must be between 1 and 5"})
			}
			return nil
		},
		apply: func(repos repository.Repositories, ticket *domain.Ticket, now time.Time) (string, error) {
			evaluation = &domain.Evaluation{
				ID:          uuid.NewString(),
				TicketID:    ticket.ID,
				EvaluatorID: id.UserID(),
				Score:       score,
				Description: strings.TrimSpace(description),
				CreatedAt:   now,
			}
			err := repos.Evaluations.Create(ctx, evaluation)
			if errors.Is(err, repository.ErrDuplicate) {
				return "", apperrors.NewInvalidTransition("ticket already evaluated", nil)
			}
			return "", err
		},
	})
	if err != nil {
		return nil, nil, err
	}
	s.applied(ctx, lifecycle.OpEvaluate, id, result.ticket, result.from, events.EventTicketClosed, events.TicketClosedPayload{
		EvaluationID: evaluation.ID,
		Score:        evaluation.Score,
	})
	return evaluation, result.ticket, nil
}

// mutation describes one guarded operation on an existing ticket.
type mutation struct {
	op lifecycle.Operation
	// resolveOp picks the operation from the loaded ticket when op is empty.
	resolveOp func(*domain.Ticket) lifecycle.Operation
	requested domain.TicketStatus
	// validate checks submitted fields after authorization and state guards.
	validate func() error
	// apply writes side rows and returns the log detail.
	apply func(repos repository.Repositories, ticket *domain.Ticket, now time.Time) (string, error)
	// detail renders the log detail from the resulting status.
	detail func(next domain.TicketStatus) string
}

type mutationResult struct {
	op     lifecycle.Operation
	from   domain.TicketStatus
	ticket *domain.Ticket
}

// mutate checks, in order: ticket exists, caller may act, status allows the
// operation, fields are valid. Only then does it write.
func (s *TicketService) mutate(ctx context.Context, id *domain.Identity, ticketID string, m mutation) (*mutationResult, error) {
	op := m.op
	result := &mutationResult{}
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if id.UserID() == "" {
			return apperrors.NewUnauthorized("authentication required")
		}
		ticket, err := repos.Tickets.GetForUpdate(ctx, ticketID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		if err != nil {
			return err
		}

		if m.resolveOp != nil {
			if op = m.resolveOp(ticket); op == "" {
				return apperrors.NewForbidden("you cannot comment on this ticket")
			}
		}
		if err := s.policy.Authorize(op, id, ticket); err != nil {
			return err
		}
		next, err := lifecycle.Next(op, ticket.Status, m.requested)
		if err != nil {
			return err
		}
		if m.validate != nil {
			if err := m.validate(); err != nil {
				return err
			}
		}

		now := s.clock()
		rule, _ := lifecycle.RuleFor(op)
		if rule.From != nil {
			tr := repository.TicketTransition{TicketID: ticket.ID, From: ticket.Status, To: next}
			if op == lifecycle.OpAccept {
				userID := id.UserID()
				tr.TechnicianID = &userID
			}
			if next.MarksCompletion() {
				tr.ClosedAt = &now
			}
			if err := repos.Tickets.Transition(ctx, tr); err != nil {
				if errors.Is(err, repository.ErrStaleState) {
					return s.staleTransition(ctx, repos, op, ticket.ID)
				}
				return err
			}
			if ticket.TechnicianID == nil && tr.TechnicianID != nil {
				ticket.TechnicianID = tr.TechnicianID
			}
			if ticket.ClosedAt == nil && tr.ClosedAt != nil {
				ticket.ClosedAt = tr.ClosedAt
			}
		}
		result.from = ticket.Status
		ticket.Status = next

		detail := ""
		if m.apply != nil {
			if detail, err = m.apply(repos, ticket, now); err != nil {
				return err
			}
		}
		if m.detail != nil {
			detail = m.detail(next)
		}
		if s.policy.ShouldLog(op, id) {
			if err := s.appendLog(ctx, repos, op, id, ticket.ID, detail, now); err != nil {
				return err
			}
		}
		result.ticket = ticket
		return nil
	})
	result.op = op
	if err != nil {
		return nil, s.deny(op, ticketID, id, err)
	}
	return result, nil
}

// staleTransition reports the status another request moved the ticket to.
func (s *TicketService) staleTransition(ctx context.Context, repos repository.Repositories, op lifecycle.Operation, ticketID string) error {
	details := map[string]any{"operation": string(op)}
	if current, err := repos.Tickets.GetByID(ctx, ticketID); err == nil {
		details["status"] = string(current.Status)
	}
	return apperrors.NewInvalidTransition("ticket was changed by another request", details)
}

// appendLog writes the action log entry for op. Entry times are strictly
// increasing per ticket even when the clock does not advance.
func (s *TicketService) appendLog(ctx context.Context, repos repository.Repositories, op lifecycle.Operation, id *domain.Identity, ticketID, detail string, now time.Time) error {
	rule, ok := lifecycle.RuleFor(op)
	if !ok || rule.Log == "" {
		return nil
	}
	at := now
	latest, err := repos.ActionLogs.LatestAt(ctx, ticketID)
	if err != nil {
		return err
	}
	if latest != nil && !at.After(*latest) {
		at = latest.Add(time.Microsecond)
	}
	return repos.ActionLogs.Append(ctx, &domain.ActionLog{
		ID:         uuid.NewString(),
		TicketID:   ticketID,
		ActorID:    id.UserID(),
		ActionType: rule.Log,
		Detail:     detail,
		CreatedAt:  at,
	})
}

func (s *TicketService) deny(op lifecycle.Operation, ticketID string, id *domain.Identity, err error) error {
	mapped := mapRepoError(err)
	code := apperrors.ToDomainError(mapped).Code
	if code == apperrors.CodeInternal {
		s.logger.Error("ticket operation failed",
			zap.String("operation", string(op)),
			zap.String("ticket_id", ticketID),
			zap.String("actor", id.UserID()),
			zap.Error(err))
	} else {
		s.logger.Debug("ticket operation denied",
			zap.String("operation", string(op)),
			zap.String("ticket_id", ticketID),
			zap.String("actor", id.UserID()),
			zap.String("code", code))
	}
	s.metrics.RecordDenial(string(op), code)
	return mapped
}

func (s *TicketService) applied(ctx context.Context, op lifecycle.Operation, id *domain.Identity, ticket *domain.Ticket, from domain.TicketStatus, eventType events.EventType, payload any) {
	s.logger.Info("ticket operation applied",
		zap.String("operation", string(op)),
		zap.String("ticket_id", ticket.ID),
		zap.String("actor", id.UserID()),
		zap.String("from", string(from)),
		zap.String("to", string(ticket.Status)))
	s.metrics.RecordTransition(string(op), string(ticket.Status))
	s.publish(ctx, eventType, id, ticket.ID, payload)
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, id *domain.Identity, ticketID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     events.Actor{UserID: id.UserID(), Role: string(s.policy.RoleOf(id))},
		Timestamp: s.clock(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("event_type", string(eventType)),
			zap.String("ticket_id", ticketID),
			zap.Error(err))
	}
}

func statusPayload(result *mutationResult) events.TicketStatusChangedPayload {
	return events.TicketStatusChangedPayload{OldStatus: result.from, NewStatus: result.ticket.Status}
}

// mapRepoError turns repository sentinels into domain errors.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("resource", nil)
	case errors.Is(err, repository.ErrStaleState):
		return apperrors.NewInvalidTransition("ticket was changed by another request", nil)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("resource already exists", nil)
	default:
		return apperrors.MapError(err)
	}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
