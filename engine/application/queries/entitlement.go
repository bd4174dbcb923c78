package queries

import (
	"context"
	"time"

	"crossvote/engine/domain/entities"
	"crossvote/engine/ports"
)

// EntitlementQueries answers tier questions for other use cases and the HTTP
// surface. All methods are read-only.
type EntitlementQueries struct {
	Entitlements ports.EntitlementRepository
	Clock        ports.Clock
}

// Query returns the user's grant when one exists.
func (q EntitlementQueries) Query(ctx context.Context, userID string) (entities.EntitlementGrant, bool, error) {
	return q.Entitlements.GetGrant(ctx, userID)
}

// EffectiveTier resolves the user's current tier, treating an expired grant
// as no tier at all even before the sweep removes it.
func (q EntitlementQueries) EffectiveTier(ctx context.Context, userID string) (entities.Tier, bool, error) {
	grant, found, err := q.Entitlements.GetGrant(ctx, userID)
	if err != nil || !found {
		return "", false, err
	}
	if grant.Expired(q.now()) {
		return "", false, nil
	}
	return grant.Tier, true, nil
}

// IsPrime reports whether the user currently enjoys prime behaviors.
// Platinum includes them, so a platinum grant answers true here too.
func (q EntitlementQueries) IsPrime(ctx context.Context, userID string) (bool, error) {
	tier, found, err := q.EffectiveTier(ctx, userID)
	return found && tier.IncludesPrime(), err
}

func (q EntitlementQueries) IsPlatinum(ctx context.Context, userID string) (bool, error) {
	tier, found, err := q.EffectiveTier(ctx, userID)
	return found && tier == entities.TierPlatinum, err
}

// SweepExpired lists every grant whose expiry has passed. The lifecycle
// worker revokes them one by one.
func (q EntitlementQueries) SweepExpired(ctx context.Context, now time.Time) ([]entities.EntitlementGrant, error) {
	return q.Entitlements.ListExpiredGrants(ctx, now)
}

func (q EntitlementQueries) now() time.Time {
	if q.Clock != nil {
		return q.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
