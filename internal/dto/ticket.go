package dto

import (
	"time"

	"github.com/charliebuilding/fnl-website/internal/domain"
)

// TicketResponse represents one confirmed runner registration
type TicketResponse struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	RunnerIndex int       `json:"runner_index"`
	EventID     string    `json:"event_id"`
	TierID      string    `json:"tier_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email,omitempty"`
	AmountPaid  int64     `json:"amount_paid"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// SessionTicketsResponse represents the tickets for one checkout session
type SessionTicketsResponse struct {
	SessionID string            `json:"session_id"`
	Status    string            `json:"status"`
	Tickets   []*TicketResponse `json:"tickets"`
}

// Session ticket statuses
const (
	SessionStatusConfirmed = "confirmed"
	SessionStatusPending   = "pending"
)

// TicketFromDomain converts a domain Registration to a TicketResponse
func TicketFromDomain(reg *domain.Registration) *TicketResponse {
	return &TicketResponse{
		ID:          reg.ID,
		SessionID:   reg.SessionID,
		RunnerIndex: reg.RunnerIndex,
		EventID:     reg.EventID,
		TierID:      reg.TierID,
		FirstName:   reg.Runner.FirstName,
		LastName:    reg.Runner.LastName,
		Email:       reg.Runner.Email,
		AmountPaid:  reg.AmountPaid,
		ConfirmedAt: reg.ConfirmedAt,
	}
}
