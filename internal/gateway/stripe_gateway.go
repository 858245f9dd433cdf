package gateway

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// StripeGateway implements CheckoutGateway using Stripe Checkout
type StripeGateway struct {
	config *StripeGatewayConfig
}

// StripeGatewayConfig holds configuration for Stripe gateway
type StripeGatewayConfig struct {
	SecretKey     string
	WebhookSecret string
	Environment   string // "test" or "live"
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(config *StripeGatewayConfig) (*StripeGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe config is required")
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	// Set Stripe API key globally
	stripe.Key = config.SecretKey

	return &StripeGateway{
		config: config,
	}, nil
}

// CreateSession creates a Stripe Checkout session for a hold. The
// session expiry tracks the hold expiry so Stripe stops collecting
// payment for inventory we no longer guarantee.
func (g *StripeGateway) CreateSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSessionResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("checkout session request is required")
	}
	if req.Token == "" {
		return nil, fmt.Errorf("hold token is required")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyGBP)),
					UnitAmount: stripe.Int64(req.UnitPrice),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("%s - %s", req.EventName, req.TierName)),
						Description: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(int64(req.Quantity)),
			},
		},
		Metadata: map[string]string{
			"hold_token": req.Token,
			"event_id":   req.EventID,
			"tier_id":    req.TierID,
			"quantity":   fmt.Sprintf("%d", req.Quantity),
		},
	}

	if req.LeadEmail != "" {
		params.CustomerEmail = stripe.String(req.LeadEmail)
	}
	if req.PromoCode != "" {
		params.Metadata["promo_code"] = req.PromoCode
	}
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(req.ExpiresAt.Unix())
	}

	// Payment metadata too, so the payment intent carries the token
	// even if the session object is not at hand.
	params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
		Metadata: map[string]string{
			"hold_token": req.Token,
		},
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutSessionResponse{
		SessionID: sess.ID,
		URL:       sess.URL,
	}, nil
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return "stripe"
}

var _ CheckoutGateway = (*StripeGateway)(nil)
