package entities

import (
	"strings"
	"time"
)

type Tier string

const (
	TierPrime    Tier = "prime"
	TierPlatinum Tier = "platinum"
)

func ParseTier(raw string) (Tier, bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierPrime:
		return TierPrime, true
	case TierPlatinum:
		return TierPlatinum, true
	default:
		return "", false
	}
}

// EntitlementGrant is the single active tier grant for a user. A nil
// ExpiresAt means the grant never expires. Platinum implies all prime
// behaviors.
type EntitlementGrant struct {
	UserID    string
	Tier      Tier
	ExpiresAt *time.Time
	GrantedAt time.Time
}

// IncludesPrime reports whether the tier carries prime behaviors. Platinum
// includes everything prime grants.
func (t Tier) IncludesPrime() bool {
	return t == TierPrime || t == TierPlatinum
}

func (g EntitlementGrant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.UTC().After(now.UTC())
}
