package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/charliebuilding/fnl-website/internal/domain"
	pkgredis "github.com/charliebuilding/fnl-website/pkg/redis"
	"github.com/charliebuilding/fnl-website/pkg/telemetry"
)

// holdSafetyTTL bounds how long an orphaned hold hash can linger. It is
// deliberately much longer than the reservation TTL: the reaper, not
// Redis expiry, must be the thing that releases held inventory, or the
// reserved counter would leak when the hash silently vanished.
const holdSafetyTTL = 24 * time.Hour

// RedisHoldStore implements HoldStore on Redis. Each hold is a hash
// keyed by token, with a ZSET scored by expiry acting as the sweep index.
type RedisHoldStore struct {
	client *pkgredis.Client
}

// NewRedisHoldStore creates a new RedisHoldStore
func NewRedisHoldStore(client *pkgredis.Client) *RedisHoldStore {
	return &RedisHoldStore{client: client}
}

// Create writes the hold hash and its sweep-index entry
func (s *RedisHoldStore) Create(ctx context.Context, hold *domain.PendingReservation) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.hold.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("token", hold.Token),
		attribute.String("event_id", hold.EventID),
		attribute.String("tier_id", hold.TierID),
		attribute.Int("quantity", hold.Quantity),
	)

	runners, err := json.Marshal(hold.Runners)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to marshal runners: %w", err)
	}

	key := holdKey(hold.Token)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"token", hold.Token,
		"event_id", hold.EventID,
		"tier_id", hold.TierID,
		"quantity", hold.Quantity,
		"runners", string(runners),
		"lead_email", hold.LeadEmail,
		"unit_price", hold.UnitPrice,
		"created_at", hold.CreatedAt.UTC().Format(time.RFC3339Nano),
		"expires_at", hold.ExpiresAt.UTC().Format(time.RFC3339Nano),
	)
	pipe.Expire(ctx, key, holdSafetyTTL)
	pipe.ZAdd(ctx, holdsPendingKey, redis.Z{
		Score:  float64(hold.ExpiresAt.Unix()),
		Member: hold.Token,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create hold: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Get fetches a hold by token
func (s *RedisHoldStore) Get(ctx context.Context, token string) (*domain.PendingReservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.hold.get")
	defer span.End()

	span.SetAttributes(attribute.String("token", token))

	fields, err := s.client.HGetAll(ctx, holdKey(token)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get hold: %w", err)
	}
	if len(fields) == 0 {
		span.SetStatus(codes.Ok, "not found")
		return nil, domain.ErrHoldNotFound
	}

	hold, err := holdFromFields(fields)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return hold, nil
}

// Delete removes the hold hash and its sweep-index entry
func (s *RedisHoldStore) Delete(ctx context.Context, token string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.hold.delete")
	defer span.End()

	span.SetAttributes(attribute.String("token", token))

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, holdKey(token))
	pipe.ZRem(ctx, holdsPendingKey, token)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete hold: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ExpiredTokens lists tokens whose expiry has passed, oldest first
func (s *RedisHoldStore) ExpiredTokens(ctx context.Context, now time.Time, limit int) ([]string, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.hold.expired_tokens")
	defer span.End()

	tokens, err := s.client.ZRangeByScore(ctx, holdsPendingKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list expired holds: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(tokens)))
	span.SetStatus(codes.Ok, "")
	return tokens, nil
}

func holdFromFields(fields map[string]string) (*domain.PendingReservation, error) {
	quantity, err := strconv.Atoi(fields["quantity"])
	if err != nil {
		return nil, fmt.Errorf("corrupt hold quantity %q: %w", fields["quantity"], err)
	}
	unitPrice, err := strconv.ParseInt(fields["unit_price"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt hold unit_price %q: %w", fields["unit_price"], err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("corrupt hold created_at %q: %w", fields["created_at"], err)
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, fields["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("corrupt hold expires_at %q: %w", fields["expires_at"], err)
	}

	var runners []domain.Runner
	if err := json.Unmarshal([]byte(fields["runners"]), &runners); err != nil {
		return nil, fmt.Errorf("corrupt hold runners: %w", err)
	}

	return &domain.PendingReservation{
		Token:     fields["token"],
		EventID:   fields["event_id"],
		TierID:    fields["tier_id"],
		Quantity:  quantity,
		Runners:   runners,
		LeadEmail: fields["lead_email"],
		UnitPrice: unitPrice,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}, nil
}

var _ HoldStore = (*RedisHoldStore)(nil)
