package repository

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	pkgredis "github.com/charliebuilding/fnl-website/pkg/redis"
	"github.com/charliebuilding/fnl-website/pkg/telemetry"
)

//go:embed scripts/try_reserve.lua
var tryReserveScript string

//go:embed scripts/confirm_sale.lua
var confirmSaleScript string

//go:embed scripts/release_hold.lua
var releaseHoldScript string

const (
	scriptTryReserve  = "try_reserve"
	scriptConfirmSale = "confirm_sale"
	scriptReleaseHold = "release_hold"
)

// resolutionTTL bounds the per-token resolution markers. It must
// comfortably outlast the payment provider's webhook retry window, or a
// very late redelivery could re-confirm a settled token.
const resolutionTTL = 72 * time.Hour

// RedisCapacityLedger implements CapacityLedger on Redis. Each tier's
// counters live in one hash and every mutation is a single Lua script,
// so operations on the same tier are linearizable.
type RedisCapacityLedger struct {
	client *pkgredis.Client
}

// NewRedisCapacityLedger creates a new RedisCapacityLedger
func NewRedisCapacityLedger(client *pkgredis.Client) *RedisCapacityLedger {
	return &RedisCapacityLedger{client: client}
}

// LoadScripts pre-loads the ledger's Lua scripts into Redis
func (l *RedisCapacityLedger) LoadScripts(ctx context.Context) error {
	scripts := map[string]string{
		scriptTryReserve:  tryReserveScript,
		scriptConfirmSale: confirmSaleScript,
		scriptReleaseHold: releaseHoldScript,
	}
	for name, script := range scripts {
		if _, err := l.client.LoadScript(ctx, name, script); err != nil {
			return fmt.Errorf("failed to load script %s: %w", name, err)
		}
	}
	return nil
}

// TryReserve atomically checks availability and holds qty on success
func (l *RedisCapacityLedger) TryReserve(ctx context.Context, eventID, tierID string, qty, totalCapacity int) (*ReserveOutcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.ledger.try_reserve")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("tier_id", tierID),
		attribute.Int("quantity", qty),
	)

	keys := []string{capacityKey(eventID, tierID)}
	result := l.client.EvalWithFallback(ctx, scriptTryReserve, tryReserveScript, keys, qty, totalCapacity)
	if result.Err() != nil {
		span.RecordError(result.Err())
		span.SetStatus(codes.Error, result.Err().Error())
		return nil, fmt.Errorf("failed to execute try_reserve script: %w", result.Err())
	}

	values, err := result.Slice()
	if err != nil || len(values) < 2 {
		span.SetStatus(codes.Error, "unexpected script result")
		return nil, fmt.Errorf("unexpected try_reserve result: %v", result.Val())
	}

	granted, _ := toInt64(values[0])
	available, _ := toInt64(values[1])

	span.SetAttributes(
		attribute.Bool("granted", granted == 1),
		attribute.Int64("available", available),
	)
	span.SetStatus(codes.Ok, "")
	return &ReserveOutcome{Granted: granted == 1, Available: int(available)}, nil
}

// Confirm atomically moves qty from reserved to sold, once per token
func (l *RedisCapacityLedger) Confirm(ctx context.Context, eventID, tierID, token string, qty int) (ConfirmStatus, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.ledger.confirm")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("tier_id", tierID),
		attribute.String("token", token),
		attribute.Int("quantity", qty),
	)

	keys := []string{capacityKey(eventID, tierID), resolutionKey(token)}
	result := l.client.EvalWithFallback(ctx, scriptConfirmSale, confirmSaleScript, keys, qty, int(resolutionTTL.Seconds()))
	if result.Err() != nil {
		span.RecordError(result.Err())
		span.SetStatus(codes.Error, result.Err().Error())
		return ConfirmLost, fmt.Errorf("failed to execute confirm_sale script: %w", result.Err())
	}

	values, err := result.Slice()
	if err != nil || len(values) < 2 {
		span.SetStatus(codes.Error, "unexpected script result")
		return ConfirmLost, fmt.Errorf("unexpected confirm_sale result: %v", result.Val())
	}

	ok, _ := toInt64(values[0])
	detail, _ := values[1].(string)
	span.SetAttributes(attribute.String("detail", detail))
	span.SetStatus(codes.Ok, "")

	switch {
	case ok != 1:
		return ConfirmLost, nil
	case detail == "ALREADY_CONFIRMED":
		return ConfirmReplayed, nil
	default:
		return ConfirmApplied, nil
	}
}

// Release returns qty to the pool, at most once per token
func (l *RedisCapacityLedger) Release(ctx context.Context, eventID, tierID, token string, qty int) (ReleaseStatus, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.ledger.release")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("tier_id", tierID),
		attribute.String("token", token),
		attribute.Int("quantity", qty),
	)

	keys := []string{capacityKey(eventID, tierID), resolutionKey(token)}
	result := l.client.EvalWithFallback(ctx, scriptReleaseHold, releaseHoldScript, keys, qty, int(resolutionTTL.Seconds()))
	if result.Err() != nil {
		span.RecordError(result.Err())
		span.SetStatus(codes.Error, result.Err().Error())
		return ReleaseLost, fmt.Errorf("failed to execute release_hold script: %w", result.Err())
	}

	values, err := result.Slice()
	if err != nil || len(values) < 2 {
		span.SetStatus(codes.Error, "unexpected script result")
		return ReleaseLost, fmt.Errorf("unexpected release_hold result: %v", result.Val())
	}

	ok, _ := toInt64(values[0])
	detail, _ := values[1].(string)
	span.SetAttributes(attribute.String("detail", detail))
	span.SetStatus(codes.Ok, "")

	switch {
	case ok == 1:
		return ReleaseApplied, nil
	case detail == "ALREADY_CONFIRMED":
		return ReleaseLost, nil
	default:
		return ReleaseReplayed, nil
	}
}

// Counters reads the sold and reserved counts for a tier
func (l *RedisCapacityLedger) Counters(ctx context.Context, eventID, tierID string) (int, int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.ledger.counters")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("tier_id", tierID),
	)

	fields, err := l.client.HGetAll(ctx, capacityKey(eventID, tierID)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, 0, fmt.Errorf("failed to read capacity counters: %w", err)
	}

	sold, _ := strconv.Atoi(fields["sold"])
	reserved, _ := strconv.Atoi(fields["reserved"])

	span.SetAttributes(
		attribute.Int("sold", sold),
		attribute.Int("reserved", reserved),
	)
	span.SetStatus(codes.Ok, "")
	return sold, reserved, nil
}

func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case string:
		i, err := strconv.ParseInt(val, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

var _ CapacityLedger = (*RedisCapacityLedger)(nil)
