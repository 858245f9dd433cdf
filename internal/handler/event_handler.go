package handler

import (
	"fmt"

	"github.com/charliebuilding/fnl-website/internal/catalog"
	"github.com/charliebuilding/fnl-website/internal/domain"
	"github.com/charliebuilding/fnl-website/internal/dto"
	"github.com/charliebuilding/fnl-website/internal/service"
	"github.com/charliebuilding/fnl-website/pkg/logger"
	"github.com/charliebuilding/fnl-website/pkg/response"
	"github.com/charliebuilding/fnl-website/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// EventHandler serves the event catalog with live availability
type EventHandler struct {
	catalog      *catalog.Catalog
	reservations service.ReservationService
}

// NewEventHandler creates a new event handler
func NewEventHandler(cat *catalog.Catalog, reservations service.ReservationService) *EventHandler {
	return &EventHandler{catalog: cat, reservations: reservations}
}

// ListEvents handles GET /api/v1/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	events := h.catalog.Events()
	out := make([]*dto.EventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, h.withAvailability(c, ev))
	}

	span.SetAttributes(attribute.Int("count", len(out)))
	span.SetStatus(codes.Ok, "")
	response.Success(c, out)
}

// GetEvent handles GET /api/v1/events/:event_id
func (h *EventHandler) GetEvent(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("event_id")
	span.SetAttributes(attribute.String("event_id", eventID))

	ev, err := h.catalog.GetEvent(eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		response.NotFound(c, err.Error())
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, h.withAvailability(c, ev))
}

// GetTierAvailability handles GET /api/v1/events/:event_id/tiers/:tier_id/availability
func (h *EventHandler) GetTierAvailability(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.availability")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("event_id")
	tierID := c.Param("tier_id")
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("tier_id", tierID),
	)

	result, err := h.reservations.Availability(ctx, eventID, tierID)
	if err != nil {
		if domain.IsNotFoundError(err) {
			span.SetStatus(codes.Error, err.Error())
			response.NotFound(c, err.Error())
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		response.InternalError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// withAvailability fills live counters into a catalog event. A ledger
// read failure degrades to static capacity rather than failing the page.
func (h *EventHandler) withAvailability(c *gin.Context, ev *catalog.Event) *dto.EventResponse {
	resp := dto.EventFromCatalog(ev)
	for _, tier := range resp.Tiers {
		avail, err := h.reservations.Availability(c.Request.Context(), ev.ID, tier.ID)
		if err != nil {
			logger.Get().Warn(fmt.Sprintf("Failed to read availability for %s/%s: %v", ev.ID, tier.ID, err))
			continue
		}
		tier.Available = avail.Available
		tier.SoldOut = avail.Available == 0
	}
	return resp
}
