package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	SubcategoryID string `json:"subcategory_id"`
	Note          string `json:"note"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// CreateAttachmentRequest references a file on a network share.
type CreateAttachmentRequest struct {
	Path string `json:"path"`
}

// EvaluationRequest payload.
type EvaluationRequest struct {
	Score       int    `json:"score"`
	Description string `json:"description"`
}

// TicketSummary response.
type TicketSummary struct {
	ID            string                `json:"id"`
	RequesterID   string                `json:"requester_id"`
	TechnicianID  *string               `json:"technician_id"`
	SubcategoryID string                `json:"subcategory_id"`
	Note          string                `json:"note"`
	Status        domain.TicketStatus   `json:"status"`
	StatusLabel   string                `json:"status_label"`
	Priority      domain.TicketPriority `json:"priority"`
	OpenedAt      time.Time             `json:"opened_at"`
	ClosedAt      *time.Time            `json:"closed_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Comments    []CommentResponse    `json:"comments"`
	Attachments []AttachmentResponse `json:"attachments"`
	Evaluation  *EvaluationResponse  `json:"evaluation"`
	Timeline    []ActionLogResponse  `json:"timeline"`
}

// CommentResponse represents a thread message.
type CommentResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	UploaderID string    `json:"uploader_id,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// EvaluationResponse is the requester's rating.
type EvaluationResponse struct {
	ID          string    `json:"id"`
	Score       int       `json:"score"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ActionLogResponse is one timeline entry.
type ActionLogResponse struct {
	ID         string            `json:"id"`
	ActorID    string            `json:"actor_id"`
	ActionType domain.ActionType `json:"action_type"`
	Detail     string            `json:"detail,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// TechnicianDashboardResponse splits the open queue from the caller's work.
type TechnicianDashboardResponse struct {
	Queue []TicketSummary `json:"queue"`
	Mine  []TicketSummary `json:"mine"`
}

// CategoryResponse is a node of the category tree.
type CategoryResponse struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Subcategories []SubcategoryResponse `json:"subcategories"`
}

// SubcategoryResponse is a leaf of the category tree.
type SubcategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
