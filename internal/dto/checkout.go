package dto

import (
	"time"

	"github.com/charliebuilding/fnl-website/internal/domain"
)

// RunnerInput is one participant supplied at checkout
type RunnerInput struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email,omitempty"`
}

// CheckoutRequest represents a request to start a group checkout
type CheckoutRequest struct {
	EventID   string        `json:"event_id" binding:"required"`
	TierID    string        `json:"tier_id" binding:"required"`
	Runners   []RunnerInput `json:"runners" binding:"required,min=1,max=6,dive"`
	LeadEmail string        `json:"lead_email" binding:"required,email"`
	// PromoCode is recorded on the payment session for reconciliation;
	// it does not change the price.
	PromoCode string `json:"promo_code,omitempty"`
}

// CheckoutResponse represents the created checkout session
type CheckoutResponse struct {
	Token       string    `json:"token"`
	SessionID   string    `json:"session_id"`
	CheckoutURL string    `json:"checkout_url"`
	Quantity    int       `json:"quantity"`
	UnitPrice   int64     `json:"unit_price"`
	TotalPrice  int64     `json:"total_price"`
	Discounted  bool      `json:"discounted"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// QuoteResponse represents a price quote for a group size
type QuoteResponse struct {
	EventID    string `json:"event_id"`
	TierID     string `json:"tier_id"`
	Quantity   int    `json:"quantity"`
	BasePrice  int64  `json:"base_price"`
	UnitPrice  int64  `json:"unit_price"`
	TotalPrice int64  `json:"total_price"`
	Discounted bool   `json:"discounted"`
}

// Domain converts the request runners to domain runners
func (r *CheckoutRequest) DomainRunners() []domain.Runner {
	runners := make([]domain.Runner, len(r.Runners))
	for i, in := range r.Runners {
		runners[i] = domain.Runner{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
		}
	}
	return runners
}
