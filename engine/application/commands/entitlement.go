package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "crossvote/engine/application"
	"crossvote/engine/domain/entities"
	domainerrors "crossvote/engine/domain/errors"
	"crossvote/engine/ports"
)

// EntitlementUseCase owns tier grant writes. Reads and the expiry sweep live
// in the queries package; the lifecycle scheduler combines both.
type EntitlementUseCase struct {
	Entitlements ports.EntitlementRepository
	Publisher    ports.EventPublisher
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

// Grant assigns a tier to a user, replacing any existing grant outright. A
// nil duration grants with no expiry.
func (uc EntitlementUseCase) Grant(
	ctx context.Context,
	userID string,
	rawTier string,
	duration *time.Duration,
) (entities.EntitlementGrant, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.EntitlementGrant{}, domainerrors.ErrInvalidPostInput
	}
	tier, ok := entities.ParseTier(rawTier)
	if !ok {
		return entities.EntitlementGrant{}, domainerrors.ErrInvalidTier
	}

	now := uc.now()
	grant := entities.EntitlementGrant{
		UserID:    userID,
		Tier:      tier,
		GrantedAt: now,
	}
	if duration != nil {
		expiresAt := now.Add(*duration)
		grant.ExpiresAt = &expiresAt
	}
	if err := uc.Entitlements.UpsertGrant(ctx, grant); err != nil {
		return entities.EntitlementGrant{}, err
	}

	logger.Info("entitlement granted",
		"event", "entitlement_granted",
		"module", "engine",
		"layer", "application",
		"user_id", userID,
		"tier", string(tier),
		"expires", grant.ExpiresAt != nil,
	)
	uc.publish(ctx, "entitlement.granted", grant, now, "manual")
	return grant, nil
}

// Revoke deletes the user's grant. Revoking an absent grant is a no-op, not
// an error.
func (uc EntitlementUseCase) Revoke(ctx context.Context, userID string, reason string) error {
	logger := application.ResolveLogger(uc.Logger)
	userID = strings.TrimSpace(userID)

	grant, found, err := uc.Entitlements.GetGrant(ctx, userID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if err := uc.Entitlements.DeleteGrant(ctx, userID); err != nil {
		return err
	}

	logger.Info("entitlement revoked",
		"event", "entitlement_revoked",
		"module", "engine",
		"layer", "application",
		"user_id", userID,
		"tier", string(grant.Tier),
		"reason", reason,
	)
	uc.publish(ctx, "entitlement.revoked", grant, uc.now(), reason)
	return nil
}

func (uc EntitlementUseCase) publish(
	ctx context.Context,
	eventType string,
	grant entities.EntitlementGrant,
	occurredAt time.Time,
	reason string,
) {
	if uc.Publisher == nil || uc.IDGen == nil {
		return
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	envelope := newEngineEnvelope(eventID, eventType, "entitlement", grant.UserID, occurredAt, map[string]any{
		"user_id": grant.UserID,
		"tier":    string(grant.Tier),
		"reason":  reason,
	})
	_ = uc.Publisher.Publish(ctx, envelope.EventType, envelope)
}

func (uc EntitlementUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
