package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketsHandler serves the ticket endpoints shared by requesters and technicians.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Create(c.UserContext(), identity, service.TicketCreateInput{
		SubcategoryID: req.SubcategoryID,
		Note:          req.Note,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.List(c.UserContext(), identity, parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// History GET /tickets/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.History(c.UserContext(), identity, parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	detail, err := h.service.Detail(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// Timeline GET /tickets/:id/timeline.
func (h *TicketsHandler) Timeline(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	entries, err := h.service.Timeline(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": actionLogResponses(entries)})
}

// CancelTicket POST /tickets/:id/cancel.
func (h *TicketsHandler) CancelTicket(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Cancel(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, ticket, err := h.service.AddComment(c.UserContext(), identity, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"comment": commentResponse(comment),
		"ticket":  ticketSummary(ticket),
	}})
}

// AddAttachment POST /tickets/:id/attachments.
func (h *TicketsHandler) AddAttachment(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.CreateAttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	attachment, err := h.service.AddAttachment(c.UserContext(), identity, c.Params("id"), req.Path)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(attachment)})
}

// Evaluate POST /tickets/:id/evaluation.
func (h *TicketsHandler) Evaluate(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.EvaluationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	evaluation, ticket, err := h.service.Evaluate(c.UserContext(), identity, c.Params("id"), req.Score, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"evaluation": evaluationResponse(evaluation),
		"ticket":     ticketSummary(ticket),
	}})
}

// UserDashboard GET /dashboard.
func (h *TicketsHandler) UserDashboard(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.UserDashboard(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

func callerIdentity(c *fiber.Ctx) (*domain.Identity, error) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return identity, nil
}

func parsePage(c *fiber.Ctx) service.Page {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	return service.Page{Limit: pageSize, Offset: (page - 1) * pageSize}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:            ticket.ID,
		RequesterID:   ticket.RequesterID,
		TechnicianID:  ticket.TechnicianID,
		SubcategoryID: ticket.SubcategoryID,
		Note:          ticket.Note,
		Status:        ticket.Status,
		StatusLabel:   ticket.Status.Label(),
		Priority:      ticket.Priority,
		OpenedAt:      ticket.OpenedAt,
		ClosedAt:      ticket.ClosedAt,
	}
}

func ticketSummaries(tickets []domain.Ticket) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return items
}

func ticketDetail(detail *service.TicketDetail) dto.TicketDetailResponse {
	comments := make([]dto.CommentResponse, 0, len(detail.Comments))
	for i := range detail.Comments {
		comments = append(comments, commentResponse(&detail.Comments[i]))
	}
	attachments := make([]dto.AttachmentResponse, 0, len(detail.Attachments))
	for i := range detail.Attachments {
		attachments = append(attachments, attachmentResponse(&detail.Attachments[i]))
	}
	resp := dto.TicketDetailResponse{
		TicketSummary: ticketSummary(detail.Ticket),
		Comments:      comments,
		Attachments:   attachments,
		Timeline:      actionLogResponses(detail.Timeline),
	}
	if detail.Evaluation != nil {
		evaluation := evaluationResponse(detail.Evaluation)
		resp.Evaluation = &evaluation
	}
	return resp
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        comment.ID,
		AuthorID:  comment.AuthorID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
}

func attachmentResponse(attachment *domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:         attachment.ID,
		Path:       attachment.Path,
		UploaderID: attachment.UploaderID,
		UploadedAt: attachment.UploadedAt,
	}
}

func evaluationResponse(evaluation *domain.Evaluation) dto.EvaluationResponse {
	return dto.EvaluationResponse{
		ID:          evaluation.ID,
		Score:       evaluation.Score,
		Description: evaluation.Description,
		CreatedAt:   evaluation.CreatedAt,
	}
}

func actionLogResponses(entries []domain.ActionLog) []dto.ActionLogResponse {
	resp := make([]dto.ActionLogResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.ActionLogResponse{
			ID:         entry.ID,
			ActorID:    entry.ActorID,
			ActionType: entry.ActionType,
			Detail:     entry.Detail,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return resp
}
