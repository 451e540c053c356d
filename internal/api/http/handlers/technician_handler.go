package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TechnicianHandler serves the technician-only ticket endpoints.
type TechnicianHandler struct {
	tickets *service.TicketService
}

// NewTechnicianHandler constructs handler.
func NewTechnicianHandler(ticketService *service.TicketService) *TechnicianHandler {
	return &TechnicianHandler{tickets: ticketService}
}

// Dashboard GET /technician/dashboard.
func (h *TechnicianHandler) Dashboard(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	board, err := h.tickets.TechnicianDashboard(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TechnicianDashboardResponse{
		Queue: ticketSummaries(board.Queue),
		Mine:  ticketSummaries(board.Mine),
	}})
}

// Accept POST /technician/tickets/:id/accept.
func (h *TechnicianHandler) Accept(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Accept(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// UpdateStatus PATCH /technician/tickets/:id/status.
func (h *TechnicianHandler) UpdateStatus(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), identity, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Resolve POST /technician/tickets/:id/resolve.
func (h *TechnicianHandler) Resolve(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Resolve(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}
