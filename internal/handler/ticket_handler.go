package handler

import (
	"github.com/charliebuilding/fnl-website/internal/service"
	"github.com/charliebuilding/fnl-website/pkg/response"
	"github.com/charliebuilding/fnl-website/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TicketHandler handles ticket lookup HTTP requests
type TicketHandler struct {
	ticketService service.TicketService
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(ticketService service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// GetSessionTickets handles GET /api/v1/sessions/:session_id/tickets
func (h *TicketHandler) GetSessionTickets(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.ticket.get_session")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	sessionID := c.Param("session_id")
	if sessionID == "" {
		span.SetStatus(codes.Error, "missing session_id")
		response.BadRequest(c, "session_id is required")
		return
	}

	span.SetAttributes(attribute.String("session_id", sessionID))

	result, err := h.ticketService.GetSessionTickets(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		response.InternalError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}
