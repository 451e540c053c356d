package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStaleState is returned when a guarded update finds the ticket in a
	// different status than expected.
	ErrStaleState = errors.New("ticket status changed concurrently")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("duplicate")
)

// UserRepository persists mirrored directory users and their groups.
type UserRepository interface {
	Upsert(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	SetPassword(ctx context.Context, userID, hash string) error
	Groups(ctx context.Context, userID string) ([]string, error)
	ReplaceGroups(ctx context.Context, userID string, groups []string) error
	AddGroup(ctx context.Context, userID, group string) error
	RemoveGroup(ctx context.Context, userID, group string) error
}

// CategoryRepository manages the category taxonomy.
type CategoryRepository interface {
	// UpsertCategory returns the category named name, creating it when absent.
	UpsertCategory(ctx context.Context, name string) (*domain.Category, bool, error)
	UpsertSubcategory(ctx context.Context, categoryID, name string) (*domain.Subcategory, bool, error)
	GetSubcategory(ctx context.Context, id string) (*domain.Subcategory, error)
	ListTree(ctx context.Context) ([]domain.Category, error)
}

// ActionTypeRepository manages the action type vocabulary.
type ActionTypeRepository interface {
	Upsert(ctx context.Context, def domain.ActionTypeDef) (bool, error)
	List(ctx context.Context) ([]domain.ActionTypeDef, error)
}

// TicketTransition is a guarded status change. It only applies while the
// ticket is still in From.
type TicketTransition struct {
	TicketID string
	From     domain.TicketStatus
	To       domain.TicketStatus
	// TechnicianID is written only when the ticket has none yet.
	TechnicianID *string
	// ClosedAt is written only when the ticket has none yet.
	ClosedAt *time.Time
}

// TicketRepository persists tickets.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetForUpdate reads the ticket and holds its row lock until the
	// surrounding transaction ends, serializing every write to one ticket.
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	Transition(ctx context.Context, tr TicketTransition) error
	CountByRequesterAndStatus(ctx context.Context, requesterID string, status domain.TicketStatus) (int, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

// CommentRepository stores ticket comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

// AttachmentRepository stores attachment references.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
}

// EvaluationRepository stores the one evaluation a ticket may have.
type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *domain.Evaluation) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.Evaluation, error)
}

// ActionLogRepository is the append-only audit trail.
type ActionLogRepository interface {
	Append(ctx context.Context, entry *domain.ActionLog) error
	// ListByTicket returns entries newest first.
	ListByTicket(ctx context.Context, ticketID string) ([]domain.ActionLog, error)
	LatestAt(ctx context.Context, ticketID string) (*time.Time, error)
}

// Repositories groups every repository bound to one connection or transaction.
type Repositories struct {
	Users       UserRepository
	Categories  CategoryRepository
	ActionTypes ActionTypeRepository
	Tickets     TicketRepository
	Comments    CommentRepository
	Attachments AttachmentRepository
	Evaluations EvaluationRepository
	ActionLogs  ActionLogRepository
}

// Store is the ticket store. Repos are bound to the shared pool; WithinTx
// binds them to a single transaction that commits when fn returns nil.
type Store interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(Repositories) error) error
	Ping(ctx context.Context) error
	Close() error
}
