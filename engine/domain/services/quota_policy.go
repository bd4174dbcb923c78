package services

import (
	"fmt"
	"time"
)

// QuotaDecision is the outcome of a daily-limit check.
type QuotaDecision struct {
	Allowed   bool
	Remaining int
	Reason    string
}

// DayBucket computes the calendar-day key for quota counters. Days are fixed
// to UTC so the rollover boundary is deterministic across spaces.
func DayBucket(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// EvaluateQuota enforces the per-day post limit. Exempt callers (prime or
// platinum, computed by the caller) are never limited.
func EvaluateQuota(count int, limit int, exempt bool) QuotaDecision {
	if exempt {
		return QuotaDecision{Allowed: true, Remaining: -1}
	}
	if count >= limit {
		return QuotaDecision{
			Allowed: false,
			Reason:  fmt.Sprintf("daily free post limit reached (%d)", limit),
		}
	}
	return QuotaDecision{Allowed: true, Remaining: limit - count}
}
