package commands

import (
	"context"
	"strings"
	"time"

	"crossvote/engine/domain/services"
	"crossvote/engine/ports"
)

// QuotaLimiter enforces the day-bucketed post limit for non-entitled users.
type QuotaLimiter struct {
	Quotas     ports.QuotaRepository
	Clock      ports.Clock
	DailyLimit int
}

const defaultDailyLimit = 2

// CanPost checks the caller's remaining allowance for the current UTC day.
// Exempt callers (the caller already computed prime/platinum status) are
// always allowed.
func (l QuotaLimiter) CanPost(ctx context.Context, userID string, exempt bool) (services.QuotaDecision, error) {
	if exempt {
		return services.EvaluateQuota(0, l.limit(), true), nil
	}
	count, err := l.Quotas.GetQuota(ctx, strings.TrimSpace(userID), services.DayBucket(l.now()))
	if err != nil {
		return services.QuotaDecision{}, err
	}
	return services.EvaluateQuota(count, l.limit(), false), nil
}

// RecordPost consumes one unit of today's allowance. The upsert replaces the
// stored day when it differs, so stale buckets roll over silently.
func (l QuotaLimiter) RecordPost(ctx context.Context, userID string) error {
	return l.Quotas.IncrementQuota(ctx, strings.TrimSpace(userID), services.DayBucket(l.now()))
}

func (l QuotaLimiter) limit() int {
	if l.DailyLimit <= 0 {
		return defaultDailyLimit
	}
	return l.DailyLimit
}

func (l QuotaLimiter) now() time.Time {
	if l.Clock != nil {
		return l.Clock.Now()
	}
	return time.Now()
}
