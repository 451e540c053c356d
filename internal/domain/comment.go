package domain

import "time"

// Comment is an immutable message on a ticket thread.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// Attachment records a network path added to a ticket.
type Attachment struct {
	ID         string
	TicketID   string
	Path       string
	UploaderID string
	UploadedAt time.Time
}

// Evaluation is the requester's rating of a resolved ticket.
type Evaluation struct {
	ID          string
	TicketID    string
	EvaluatorID string
	Score       int
	Description string
	CreatedAt   time.Time
}

// Evaluation score bounds.
const (
	MinEvaluationScore = 1
	MaxEvaluationScore = 5
)
