package workers

import (
	"context"
	"log/slog"
	"time"

	application "crossvote/engine/application"
	"crossvote/engine/application/commands"
	"crossvote/engine/application/queries"
	"crossvote/engine/ports"
)

// EntitlementExpirer sweeps grants whose expires_at has passed, revokes them
// and sends the expiry notice. One bad grant never stops the rest of the
// sweep.
type EntitlementExpirer struct {
	Queries      queries.EntitlementQueries
	Entitlements commands.EntitlementUseCase
	Notifier     ports.Notifier
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (e EntitlementExpirer) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(e.Logger)
	now := time.Now().UTC()
	if e.Clock != nil {
		now = e.Clock.Now().UTC()
	}

	expired, err := e.Queries.SweepExpired(ctx, now)
	if err != nil {
		logger.Error("entitlement expiry sweep failed",
			"event", "entitlement_expiry_sweep_failed",
			"module", "engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	revoked := 0
	for _, grant := range expired {
		if err := e.Entitlements.Revoke(ctx, grant.UserID, "expired"); err != nil {
			logger.Error("entitlement revoke failed; continuing sweep",
				"event", "entitlement_expiry_revoke_failed",
				"module", "engine",
				"layer", "worker",
				"user_id", grant.UserID,
				"error", err.Error(),
			)
			continue
		}
		revoked++
		if e.Notifier != nil {
			if err := e.Notifier.ExpiryNotice(ctx, grant.UserID, grant.Tier); err != nil {
				logger.Warn("expiry notice delivery failed",
					"event", "entitlement_expiry_notice_failed",
					"module", "engine",
					"layer", "worker",
					"user_id", grant.UserID,
					"error", err.Error(),
				)
			}
		}
	}

	if revoked > 0 {
		logger.Info("entitlement expiry sweep completed",
			"event", "entitlement_expiry_sweep_completed",
			"module", "engine",
			"layer", "worker",
			"revoked_count", revoked,
		)
	}
	return nil
}
