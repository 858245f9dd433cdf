package gateway

import (
	"context"
	"time"
)

// CheckoutSessionRequest carries everything needed to build a hosted
// payment page for one hold
type CheckoutSessionRequest struct {
	Token       string
	EventID     string
	TierID      string
	EventName   string
	TierName    string
	Quantity    int
	UnitPrice   int64 // pence GBP, discount already applied
	LeadEmail   string
	PromoCode   string
	ExpiresAt   time.Time
	SuccessURL  string
	CancelURL   string
	Description string
}

// CheckoutSessionResponse is the created hosted session
type CheckoutSessionResponse struct {
	SessionID string
	URL       string
}

// CheckoutGateway creates hosted checkout sessions with a payment
// provider. The hold token travels in session metadata so webhooks can
// resolve the hold.
type CheckoutGateway interface {
	CreateSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSessionResponse, error)

	// Name returns the gateway name
	Name() string
}
