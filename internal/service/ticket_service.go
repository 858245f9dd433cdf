package service

import (
	"context"

	"github.com/charliebuilding/fnl-website/internal/dto"
	"github.com/charliebuilding/fnl-website/internal/repository"
	"github.com/charliebuilding/fnl-website/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TicketService reads confirmed registrations back out for buyers
type TicketService interface {
	// GetSessionTickets returns the tickets for a checkout session. An
	// empty list with pending status means the webhook has not landed yet.
	GetSessionTickets(ctx context.Context, sessionID string) (*dto.SessionTicketsResponse, error)
}

// ticketService implements TicketService
type ticketService struct {
	registrations repository.RegistrationRepository
}

// NewTicketService creates a new ticket service
func NewTicketService(registrations repository.RegistrationRepository) TicketService {
	return &ticketService{registrations: registrations}
}

// GetSessionTickets returns the tickets for a checkout session
func (s *ticketService) GetSessionTickets(ctx context.Context, sessionID string) (*dto.SessionTicketsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket.get_session")
	defer span.End()

	span.SetAttributes(attribute.String("session_id", sessionID))

	regs, err := s.registrations.ListBySession(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resp := &dto.SessionTicketsResponse{
		SessionID: sessionID,
		Status:    dto.SessionStatusConfirmed,
		Tickets:   make([]*dto.TicketResponse, 0, len(regs)),
	}
	if len(regs) == 0 {
		// Payment may still be settling; the buyer's success page polls
		// until the webhook confirms the hold.
		resp.Status = dto.SessionStatusPending
	}
	for _, reg := range regs {
		resp.Tickets = append(resp.Tickets, dto.TicketFromDomain(reg))
	}

	span.SetAttributes(attribute.Int("tickets", len(resp.Tickets)))
	span.SetStatus(codes.Ok, "")
	return resp, nil
}
