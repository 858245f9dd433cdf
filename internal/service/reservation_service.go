package service

import (
	"context"
	"fmt"
	"time"

	"github.com/charliebuilding/fnl-website/internal/catalog"
	"github.com/charliebuilding/fnl-website/internal/domain"
	"github.com/charliebuilding/fnl-website/internal/pricing"
	"github.com/charliebuilding/fnl-website/internal/repository"
	"github.com/charliebuilding/fnl-website/pkg/logger"
	"github.com/charliebuilding/fnl-website/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// registrationNamespace seeds deterministic registration IDs. The same
// (sessionID, runner index) always maps to the same UUID so a replayed
// confirmation upserts the same rows instead of duplicating them.
var registrationNamespace = uuid.MustParse("7a8f0c2e-4d7b-4f3a-9b1e-2c5d8e6f0a13")

// ReserveRequest carries the inputs for creating a capacity hold
type ReserveRequest struct {
	EventID   string
	TierID    string
	Runners   []domain.Runner
	LeadEmail string
}

// TierAvailability is a point-in-time view of a tier's counters
type TierAvailability struct {
	EventID   string `json:"event_id"`
	TierID    string `json:"tier_id"`
	Total     int    `json:"total"`
	Sold      int    `json:"sold"`
	Reserved  int    `json:"reserved"`
	Available int    `json:"available"`
}

// ReservationService owns the hold lifecycle: every unit of inventory
// moves through reserve, then exactly one of confirm or release.
type ReservationService interface {
	// Reserve atomically claims capacity and writes a pending hold
	Reserve(ctx context.Context, req *ReserveRequest) (*domain.PendingReservation, error)

	// Confirm settles a hold into permanent registrations. An unknown
	// token means the hold was already resolved and is a no-op.
	Confirm(ctx context.Context, token, sessionID string, payerEmail string) ([]*domain.Registration, error)

	// Release returns a hold's capacity to the pool. Unknown tokens
	// are a no-op.
	Release(ctx context.Context, token string) error

	// ReapExpired releases up to limit holds whose TTL has passed and
	// returns how many were reaped.
	ReapExpired(ctx context.Context, limit int) (int, error)

	// Availability reads the live counters for one tier
	Availability(ctx context.Context, eventID, tierID string) (*TierAvailability, error)
}

// reservationService implements ReservationService
type reservationService struct {
	catalog        *catalog.Catalog
	ledger         repository.CapacityLedger
	holds          repository.HoldStore
	registrations  repository.RegistrationRepository
	eventPublisher EventPublisher
	reservationTTL time.Duration
}

// ReservationServiceConfig contains configuration for the reservation service
type ReservationServiceConfig struct {
	ReservationTTL time.Duration
}

// NewReservationService creates a new reservation service
func NewReservationService(
	cat *catalog.Catalog,
	ledger repository.CapacityLedger,
	holds repository.HoldStore,
	registrations repository.RegistrationRepository,
	eventPublisher EventPublisher,
	cfg *ReservationServiceConfig,
) ReservationService {
	ttl := 35 * time.Minute
	if cfg != nil && cfg.ReservationTTL > 0 {
		ttl = cfg.ReservationTTL
	}
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &reservationService{
		catalog:        cat,
		ledger:         ledger,
		holds:          holds,
		registrations:  registrations,
		eventPublisher: eventPublisher,
		reservationTTL: ttl,
	}
}

// Reserve atomically claims capacity and writes a pending hold
func (s *reservationService) Reserve(ctx context.Context, req *ReserveRequest) (*domain.PendingReservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.reserve")
	defer span.End()

	// Validate request
	if req == nil || req.EventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if req.TierID == "" {
		span.SetStatus(codes.Error, "invalid tier_id")
		return nil, domain.ErrInvalidTierID
	}
	qty := len(req.Runners)
	if qty < 1 || qty > domain.MaxGroupSize {
		span.SetStatus(codes.Error, "invalid group size")
		return nil, domain.ErrInvalidGroupSize
	}
	if req.LeadEmail == "" {
		span.SetStatus(codes.Error, "invalid lead_email")
		return nil, domain.ErrInvalidLeadEmail
	}

	span.SetAttributes(
		attribute.String("event_id", req.EventID),
		attribute.String("tier_id", req.TierID),
		attribute.Int("quantity", qty),
	)

	tier, err := s.catalog.GetTier(req.EventID, req.TierID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	outcome, err := s.ledger.TryReserve(ctx, req.EventID, req.TierID, qty, tier.TotalCapacity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if !outcome.Granted {
		span.SetAttributes(attribute.Int("available", outcome.Available))
		if outcome.Available <= 0 {
			span.SetStatus(codes.Error, "sold out")
			return nil, domain.ErrSoldOut
		}
		span.SetStatus(codes.Error, "insufficient capacity")
		return nil, &domain.InsufficientCapacityError{Available: outcome.Available}
	}

	now := time.Now().UTC()
	hold := &domain.PendingReservation{
		Token:     uuid.New().String(),
		EventID:   req.EventID,
		TierID:    req.TierID,
		Quantity:  qty,
		Runners:   req.Runners,
		LeadEmail: req.LeadEmail,
		UnitPrice: pricing.UnitPrice(tier.Price, qty),
		CreatedAt: now,
		ExpiresAt: now.Add(s.reservationTTL),
	}

	if err := s.holds.Create(ctx, hold); err != nil {
		// Fail closed: give the claimed capacity back rather than
		// leave reserved units with no record to resolve them. The
		// token resolves as released, so nothing can confirm it later.
		if _, relErr := s.ledger.Release(ctx, req.EventID, req.TierID, hold.Token, qty); relErr != nil {
			logger.Get().Error(fmt.Sprintf("Failed to roll back reservation for %s/%s after store error", req.EventID, req.TierID),
				zap.Error(relErr))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	_ = s.eventPublisher.PublishReserved(ctx, hold)

	span.SetAttributes(
		attribute.String("token", hold.Token),
		attribute.Int("available", outcome.Available),
	)
	span.SetStatus(codes.Ok, "")
	return hold, nil
}

// Confirm settles a hold into permanent registrations
func (s *reservationService) Confirm(ctx context.Context, token, sessionID string, payerEmail string) ([]*domain.Registration, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.confirm")
	defer span.End()

	span.SetAttributes(
		attribute.String("token", token),
		attribute.String("session_id", sessionID),
	)

	hold, err := s.holds.Get(ctx, token)
	if err != nil {
		if err == domain.ErrHoldNotFound {
			// Hold already resolved; a redelivered confirmation is a
			// success, not an error.
			span.SetAttributes(attribute.Bool("already_resolved", true))
			span.SetStatus(codes.Ok, "")
			return nil, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	status, err := s.ledger.Confirm(ctx, hold.EventID, hold.TierID, token, hold.Quantity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if status == repository.ConfirmLost {
		// A release resolved the token first: the inventory already
		// went back to the pool, so there is no sale to materialize.
		logger.Get().Warn(fmt.Sprintf("Confirmation for hold %s lost to a release", token))
		span.SetAttributes(attribute.Bool("lost_to_release", true))
		span.SetStatus(codes.Ok, "")
		return nil, nil
	}
	span.SetAttributes(attribute.Bool("ledger_replayed", status == repository.ConfirmReplayed))

	leadEmail := hold.LeadEmail
	if leadEmail == "" {
		leadEmail = payerEmail
	}

	now := time.Now().UTC()
	registrations := make([]*domain.Registration, 0, len(hold.Runners))
	for i, runner := range hold.Runners {
		reg := &domain.Registration{
			ID:          registrationID(sessionID, i),
			SessionID:   sessionID,
			RunnerIndex: i,
			EventID:     hold.EventID,
			TierID:      hold.TierID,
			Runner:      runner,
			LeadEmail:   leadEmail,
			AmountPaid:  hold.UnitPrice,
			ConfirmedAt: now,
		}
		if err := s.registrations.Put(ctx, reg); err != nil {
			// Leave the hold in place so the confirmation is retried;
			// the ledger token guard makes the retry safe.
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		registrations = append(registrations, reg)
	}

	// Deleting the hold is always the final step. Everything before
	// this line must be safe to replay.
	if err := s.holds.Delete(ctx, token); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	_ = s.eventPublisher.PublishConfirmed(ctx, hold)

	span.SetAttributes(attribute.Int("registrations", len(registrations)))
	span.SetStatus(codes.Ok, "")
	return registrations, nil
}

// Release returns a hold's capacity to the pool
func (s *reservationService) Release(ctx context.Context, token string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.release")
	defer span.End()

	span.SetAttributes(attribute.String("token", token))

	hold, err := s.holds.Get(ctx, token)
	if err != nil {
		if err == domain.ErrHoldNotFound {
			span.SetAttributes(attribute.Bool("already_resolved", true))
			span.SetStatus(codes.Ok, "")
			return nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	status, err := s.ledger.Release(ctx, hold.EventID, hold.TierID, token, hold.Quantity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if status == repository.ReleaseLost {
		// A confirm resolved the token first. Leave the hold record in
		// place: the confirm path still needs it to write registrations
		// if it has not finished, and deletion is always its final step.
		span.SetAttributes(attribute.Bool("lost_to_confirm", true))
		span.SetStatus(codes.Ok, "")
		return nil
	}

	// Ledger first, deletion last: a crash here re-runs Release, and
	// the token guard keeps the counters honest.
	if err := s.holds.Delete(ctx, token); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if status == repository.ReleaseApplied {
		_ = s.eventPublisher.PublishReleased(ctx, hold)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ReapExpired releases holds whose TTL has passed
func (s *reservationService) ReapExpired(ctx context.Context, limit int) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.reap_expired")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}
	span.SetAttributes(attribute.Int("limit", limit))

	tokens, err := s.holds.ExpiredTokens(ctx, time.Now().UTC(), limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	reaped := 0
	for _, token := range tokens {
		hold, err := s.holds.Get(ctx, token)
		if err != nil {
			if err == domain.ErrHoldNotFound {
				continue // resolved between listing and now
			}
			logger.Get().Warn(fmt.Sprintf("Failed to load expired hold %s", token), zap.Error(err))
			continue
		}

		status, err := s.ledger.Release(ctx, hold.EventID, hold.TierID, token, hold.Quantity)
		if err != nil {
			logger.Get().Error(fmt.Sprintf("Failed to release expired hold %s", token), zap.Error(err))
			continue
		}
		if status == repository.ReleaseLost {
			// Confirmed mid-sweep; the confirm path owns the record.
			continue
		}
		if err := s.holds.Delete(ctx, token); err != nil {
			logger.Get().Error(fmt.Sprintf("Failed to delete expired hold %s", token), zap.Error(err))
			continue
		}
		if status != repository.ReleaseApplied {
			continue // stale sweep entry, nothing moved
		}

		_ = s.eventPublisher.PublishExpired(ctx, hold)
		reaped++
	}

	span.SetAttributes(attribute.Int("reaped", reaped))
	span.SetStatus(codes.Ok, "")
	return reaped, nil
}

// Availability reads the live counters for one tier
func (s *reservationService) Availability(ctx context.Context, eventID, tierID string) (*TierAvailability, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.availability")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("tier_id", tierID),
	)

	tier, err := s.catalog.GetTier(eventID, tierID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	sold, reserved, err := s.ledger.Counters(ctx, eventID, tierID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	available := tier.TotalCapacity - sold - reserved
	if available < 0 {
		available = 0
	}

	span.SetStatus(codes.Ok, "")
	return &TierAvailability{
		EventID:   eventID,
		TierID:    tierID,
		Total:     tier.TotalCapacity,
		Sold:      sold,
		Reserved:  reserved,
		Available: available,
	}, nil
}

// registrationID derives the deterministic registration UUID for a
// runner slot within a checkout session
func registrationID(sessionID string, runnerIndex int) string {
	return uuid.NewSHA1(registrationNamespace, []byte(fmt.Sprintf("%s:%d", sessionID, runnerIndex))).String()
}
