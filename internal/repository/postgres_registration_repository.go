package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/charliebuilding/fnl-website/internal/domain"
	"github.com/charliebuilding/fnl-website/pkg/telemetry"
)

// PostgresRegistrationRepository implements RegistrationRepository using
// PostgreSQL with pgxpool. Expected table:
//
//	CREATE TABLE registrations (
//	    id           TEXT PRIMARY KEY,
//	    session_id   TEXT NOT NULL,
//	    runner_index INT NOT NULL,
//	    event_id     TEXT NOT NULL,
//	    tier_id      TEXT NOT NULL,
//	    first_name   TEXT NOT NULL,
//	    last_name    TEXT NOT NULL,
//	    runner_email TEXT,
//	    lead_email   TEXT NOT NULL,
//	    amount_paid  BIGINT NOT NULL,
//	    confirmed_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX registrations_session_idx ON registrations (session_id);
type PostgresRegistrationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistrationRepository creates a new PostgresRegistrationRepository
func NewPostgresRegistrationRepository(pool *pgxpool.Pool) *PostgresRegistrationRepository {
	return &PostgresRegistrationRepository{pool: pool}
}

// Put upserts a registration keyed by its deterministic ID, so a
// replayed payment notification rewrites the same row.
func (r *PostgresRegistrationRepository) Put(ctx context.Context, reg *domain.Registration) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.registration.put")
	defer span.End()

	span.SetAttributes(
		attribute.String("registration_id", reg.ID),
		attribute.String("session_id", reg.SessionID),
		attribute.String("event_id", reg.EventID),
	)

	query := `
		INSERT INTO registrations (
			id, session_id, runner_index, event_id, tier_id,
			first_name, last_name, runner_email, lead_email,
			amount_paid, confirmed_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11
		)
		ON CONFLICT (id) DO UPDATE SET
			session_id   = EXCLUDED.session_id,
			runner_index = EXCLUDED.runner_index,
			event_id     = EXCLUDED.event_id,
			tier_id      = EXCLUDED.tier_id,
			first_name   = EXCLUDED.first_name,
			last_name    = EXCLUDED.last_name,
			runner_email = EXCLUDED.runner_email,
			lead_email   = EXCLUDED.lead_email,
			amount_paid  = EXCLUDED.amount_paid,
			confirmed_at = EXCLUDED.confirmed_at
	`

	_, err := r.pool.Exec(ctx, query,
		reg.ID,
		reg.SessionID,
		reg.RunnerIndex,
		reg.EventID,
		reg.TierID,
		reg.Runner.FirstName,
		reg.Runner.LastName,
		nullString(reg.Runner.Email),
		reg.LeadEmail,
		reg.AmountPaid,
		reg.ConfirmedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to upsert registration: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ListBySession returns all registrations for a payment session, in
// runner order.
func (r *PostgresRegistrationRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Registration, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.registration.list_by_session")
	defer span.End()

	span.SetAttributes(attribute.String("session_id", sessionID))

	query := `
		SELECT
			id, session_id, runner_index, event_id, tier_id,
			first_name, last_name, runner_email, lead_email,
			amount_paid, confirmed_at
		FROM registrations
		WHERE session_id = $1
		ORDER BY runner_index
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Registration
	for rows.Next() {
		reg := &domain.Registration{}
		var runnerEmail *string
		if err := rows.Scan(
			&reg.ID,
			&reg.SessionID,
			&reg.RunnerIndex,
			&reg.EventID,
			&reg.TierID,
			&reg.Runner.FirstName,
			&reg.Runner.LastName,
			&runnerEmail,
			&reg.LeadEmail,
			&reg.AmountPaid,
			&reg.ConfirmedAt,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		if runnerEmail != nil {
			reg.Runner.Email = *runnerEmail
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate registrations: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(out)))
	span.SetStatus(codes.Ok, "")
	return out, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ RegistrationRepository = (*PostgresRegistrationRepository)(nil)
