package service

import (
	"context"
	"fmt"

	"github.com/charliebuilding/fnl-website/internal/catalog"
	"github.com/charliebuilding/fnl-website/internal/domain"
	"github.com/charliebuilding/fnl-website/internal/dto"
	"github.com/charliebuilding/fnl-website/internal/gateway"
	"github.com/charliebuilding/fnl-website/internal/pricing"
	"github.com/charliebuilding/fnl-website/pkg/logger"
	"github.com/charliebuilding/fnl-website/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// CheckoutService orchestrates a group checkout: price the group,
// claim capacity, then hand the buyer to the payment provider.
type CheckoutService interface {
	// StartCheckout reserves capacity and creates a hosted payment session
	StartCheckout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)

	// Quote prices a group without touching inventory
	Quote(ctx context.Context, eventID, tierID string, quantity int) (*dto.QuoteResponse, error)
}

// checkoutService implements CheckoutService
type checkoutService struct {
	catalog      *catalog.Catalog
	reservations ReservationService
	gateway      gateway.CheckoutGateway
	successURL   string
	cancelURL    string
}

// CheckoutServiceConfig contains configuration for the checkout service
type CheckoutServiceConfig struct {
	SuccessURL string
	CancelURL  string
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	cat *catalog.Catalog,
	reservations ReservationService,
	gw gateway.CheckoutGateway,
	cfg *CheckoutServiceConfig,
) CheckoutService {
	successURL := "https://fridaynightlights.run/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := "https://fridaynightlights.run/checkout/cancelled"
	if cfg != nil {
		if cfg.SuccessURL != "" {
			successURL = cfg.SuccessURL
		}
		if cfg.CancelURL != "" {
			cancelURL = cfg.CancelURL
		}
	}
	return &checkoutService{
		catalog:      cat,
		reservations: reservations,
		gateway:      gw,
		successURL:   successURL,
		cancelURL:    cancelURL,
	}
}

// StartCheckout reserves capacity and creates a hosted payment session
func (s *checkoutService) StartCheckout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.checkout.start")
	defer span.End()

	if req == nil {
		span.SetStatus(codes.Error, "invalid request")
		return nil, domain.ErrInvalidEventID
	}

	span.SetAttributes(
		attribute.String("event_id", req.EventID),
		attribute.String("tier_id", req.TierID),
		attribute.Int("quantity", len(req.Runners)),
	)

	event, err := s.catalog.GetEvent(req.EventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	tier, err := s.catalog.GetTier(req.EventID, req.TierID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	hold, err := s.reservations.Reserve(ctx, &ReserveRequest{
		EventID:   req.EventID,
		TierID:    req.TierID,
		Runners:   req.DomainRunners(),
		LeadEmail: req.LeadEmail,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	sess, err := s.gateway.CreateSession(ctx, &gateway.CheckoutSessionRequest{
		Token:       hold.Token,
		EventID:     hold.EventID,
		TierID:      hold.TierID,
		EventName:   event.Name,
		TierName:    tier.Name,
		Quantity:    hold.Quantity,
		UnitPrice:   hold.UnitPrice,
		LeadEmail:   hold.LeadEmail,
		PromoCode:   req.PromoCode,
		ExpiresAt:   hold.ExpiresAt,
		SuccessURL:  s.successURL,
		CancelURL:   s.cancelURL,
		Description: fmt.Sprintf("%s x %d", tier.Name, hold.Quantity),
	})
	if err != nil {
		// No payment page means no way to resolve the hold; give the
		// capacity back immediately instead of waiting for the reaper.
		if relErr := s.reservations.Release(ctx, hold.Token); relErr != nil {
			logger.Get().Error(fmt.Sprintf("Failed to release hold %s after gateway error", hold.Token),
				zap.Error(relErr))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("token", hold.Token),
		attribute.String("session_id", sess.SessionID),
	)
	span.SetStatus(codes.Ok, "")
	return &dto.CheckoutResponse{
		Token:       hold.Token,
		SessionID:   sess.SessionID,
		CheckoutURL: sess.URL,
		Quantity:    hold.Quantity,
		UnitPrice:   hold.UnitPrice,
		TotalPrice:  hold.UnitPrice * int64(hold.Quantity),
		Discounted:  pricing.Discounted(hold.Quantity),
		ExpiresAt:   hold.ExpiresAt,
	}, nil
}

// Quote prices a group without touching inventory
func (s *checkoutService) Quote(ctx context.Context, eventID, tierID string, quantity int) (*dto.QuoteResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.checkout.quote")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("tier_id", tierID),
		attribute.Int("quantity", quantity),
	)

	if quantity < 1 || quantity > domain.MaxGroupSize {
		span.SetStatus(codes.Error, "invalid group size")
		return nil, domain.ErrInvalidGroupSize
	}

	tier, err := s.catalog.GetTier(eventID, tierID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return &dto.QuoteResponse{
		EventID:    eventID,
		TierID:     tierID,
		Quantity:   quantity,
		BasePrice:  tier.Price,
		UnitPrice:  pricing.UnitPrice(tier.Price, quantity),
		TotalPrice: pricing.Total(tier.Price, quantity),
		Discounted: pricing.Discounted(quantity),
	}, nil
}
