package handler

import (
	"errors"
	"strconv"

	"github.com/charliebuilding/fnl-website/internal/domain"
	"github.com/charliebuilding/fnl-website/internal/dto"
	"github.com/charliebuilding/fnl-website/internal/service"
	"github.com/charliebuilding/fnl-website/pkg/response"
	"github.com/charliebuilding/fnl-website/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CheckoutHandler handles checkout HTTP requests
type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// StartCheckout handles POST /api/v1/checkout
// Reserves capacity atomically and returns the hosted payment URL.
func (h *CheckoutHandler) StartCheckout(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.checkout.start")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("event_id", req.EventID),
		attribute.String("tier_id", req.TierID),
		attribute.Int("quantity", len(req.Runners)),
	)

	result, err := h.checkoutService.StartCheckout(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("session_id", result.SessionID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, result)
}

// Quote handles GET /api/v1/events/:event_id/tiers/:tier_id/quote
func (h *CheckoutHandler) Quote(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.checkout.quote")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	quantity, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil {
		span.SetStatus(codes.Error, "invalid quantity")
		response.BadRequest(c, "quantity must be an integer")
		return
	}

	result, err := h.checkoutService.Quote(ctx, c.Param("event_id"), c.Param("tier_id"), quantity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// handleError converts domain errors to HTTP responses
func (h *CheckoutHandler) handleError(c *gin.Context, err error) {
	var insufficient *domain.InsufficientCapacityError
	switch {
	case errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrTierNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrSoldOut):
		response.Conflict(c, "SOLD_OUT", err.Error(), nil)
	case errors.As(err, &insufficient):
		response.Conflict(c, "INSUFFICIENT_CAPACITY", err.Error(), gin.H{
			"available": insufficient.Available,
		})
	case domain.IsValidationError(err):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
