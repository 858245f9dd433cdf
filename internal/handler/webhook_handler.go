package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charliebuilding/fnl-website/internal/service"
	"github.com/charliebuilding/fnl-website/pkg/logger"
	"github.com/charliebuilding/fnl-website/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SignatureVerifier validates a webhook payload against its signature
// header and returns the parsed event. Swappable so tests can inject
// events without computing real Stripe signatures.
type SignatureVerifier func(payload []byte, sigHeader, secret string) (stripe.Event, error)

// WebhookHandler handles Stripe webhook events. Confirmation and
// release both flow through here: the payment provider is the arbiter
// of whether a hold becomes a sale.
type WebhookHandler struct {
	reservations  service.ReservationService
	webhookSecret string
	verify        SignatureVerifier
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(reservations service.ReservationService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		reservations:  reservations,
		webhookSecret: webhookSecret,
		verify:        webhook.ConstructEvent,
	}
}

// WithVerifier overrides the signature verifier, for tests
func (h *WebhookHandler) WithVerifier(verify SignatureVerifier) *WebhookHandler {
	h.verify = verify
	return h
}

// HandleStripeWebhook handles POST /api/v1/webhooks/stripe
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.webhook.stripe")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	log := logger.Get()

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to read webhook body: %v", err))
		span.SetStatus(codes.Error, "unreadable body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if sigHeader == "" {
		log.Warn("Missing Stripe-Signature header")
		span.SetStatus(codes.Error, "missing signature")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing Stripe-Signature header"})
		return
	}

	event, err := h.verify(payload, sigHeader, h.webhookSecret)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to verify webhook signature: %v", err))
		span.SetStatus(codes.Error, "invalid signature")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	span.SetAttributes(attribute.String("event_type", string(event.Type)))
	log.Info(fmt.Sprintf("Received Stripe webhook event: %s", event.Type))

	switch event.Type {
	case "checkout.session.completed":
		h.handleSessionCompleted(c, event)
	case "checkout.session.expired":
		h.handleSessionExpired(c, event)
	default:
		log.Info(fmt.Sprintf("Unhandled event type: %s", event.Type))
		c.JSON(http.StatusOK, gin.H{"received": true, "message": "Event type not handled"})
	}
}

// handleSessionCompleted settles the hold referenced by the session's
// metadata into permanent registrations
func (h *WebhookHandler) handleSessionCompleted(c *gin.Context, event stripe.Event) {
	log := logger.Get()

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		log.Error(fmt.Sprintf("Failed to parse checkout.session.completed: %v", err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event data"})
		return
	}

	token := sess.Metadata["hold_token"]
	if token == "" {
		log.Warn(fmt.Sprintf("Completed session %s carries no hold token", sess.ID))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	payerEmail := ""
	if sess.CustomerDetails != nil {
		payerEmail = sess.CustomerDetails.Email
	}

	registrations, err := h.reservations.Confirm(c.Request.Context(), token, sess.ID, payerEmail)
	if err != nil {
		// 5xx so Stripe redelivers; the confirm path is safe to replay.
		log.Error(fmt.Sprintf("Failed to confirm hold %s for session %s: %v", token, sess.ID, err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm reservation"})
		return
	}

	log.Info(fmt.Sprintf("Confirmed hold %s: %d registrations for session %s", token, len(registrations), sess.ID))
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// handleSessionExpired returns the hold's capacity to the pool
func (h *WebhookHandler) handleSessionExpired(c *gin.Context, event stripe.Event) {
	log := logger.Get()

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		log.Error(fmt.Sprintf("Failed to parse checkout.session.expired: %v", err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event data"})
		return
	}

	token := sess.Metadata["hold_token"]
	if token == "" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.reservations.Release(c.Request.Context(), token); err != nil {
		log.Error(fmt.Sprintf("Failed to release hold %s for expired session %s: %v", token, sess.ID, err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to release reservation"})
		return
	}

	log.Info(fmt.Sprintf("Released hold %s for expired session %s", token, sess.ID))
	c.JSON(http.StatusOK, gin.H{"received": true})
}
