package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "crossvote/engine/application"
	"crossvote/engine/domain/entities"
	"crossvote/engine/ports"
)

// ReplicateCommand asks for a root post to be fanned out to every eligible
// linked space.
type ReplicateCommand struct {
	RootID        string
	OwnerID       string
	OriginSpaceID string
	Payload       ports.MessagePayload
}

// ReplicateResult reports which destinations received a copy.
type ReplicateResult struct {
	Delivered []string
	Skipped   int
}

// ReplicateUseCase fans a platinum owner's root post out to all configured
// destination spaces except the origin. Per-destination markers make the
// operation idempotent: re-invoking for the same root never produces a
// duplicate copy. Per-destination failures are isolated and no compensating
// action is taken for the root post.
type ReplicateUseCase struct {
	Entitlements ports.EntitlementRepository
	Spaces       ports.SpaceRepository
	Links        ports.CopyLinkRepository
	Markers      ports.ReplicationMarkerStore
	Transport    ports.Transport
	Publisher    ports.EventPublisher
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	// Fallback lists statically configured destinations, used only when no
	// space in the store has a post channel yet.
	Fallback     []entities.SpaceSettings
	Logger       *slog.Logger
}

func (uc ReplicateUseCase) Replicate(ctx context.Context, cmd ReplicateCommand) (ReplicateResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	ownerID := strings.TrimSpace(cmd.OwnerID)
	rootID := strings.TrimSpace(cmd.RootID)

	grant, found, err := uc.Entitlements.GetGrant(ctx, ownerID)
	if err != nil {
		return ReplicateResult{}, err
	}
	if !found || grant.Tier != entities.TierPlatinum {
		return ReplicateResult{}, nil
	}

	spaces, err := uc.Spaces.ListPostableSpaces(ctx)
	if err != nil {
		return ReplicateResult{}, err
	}
	if len(spaces) == 0 && len(uc.Fallback) > 0 {
		logger.Info("no stored destinations; using configured fallback spaces",
			"event", "replication_fallback_used",
			"module", "engine",
			"layer", "application",
			"root_id", rootID,
			"fallback_count", len(uc.Fallback),
		)
		spaces = uc.Fallback
	}

	result := ReplicateResult{}
	for _, space := range spaces {
		if space.SpaceID == cmd.OriginSpaceID || !space.Postable() {
			continue
		}

		reserved, err := uc.Markers.ReserveReplication(ctx, rootID, space.SpaceID)
		if err != nil {
			logger.Warn("replication marker reserve failed; skipping destination",
				"event", "replication_reserve_failed",
				"module", "engine",
				"layer", "application",
				"root_id", rootID,
				"space_id", space.SpaceID,
				"error", err.Error(),
			)
			result.Skipped++
			continue
		}
		if !reserved {
			result.Skipped++
			continue
		}

		replica := cmd.Payload
		replica.Replica = true
		copyID, err := uc.Transport.DeliverMessage(ctx, space.SpaceID, space.PostChannelID, replica)
		if err != nil {
			logger.Warn("copy delivery failed; continuing with remaining destinations",
				"event", "replication_delivery_failed",
				"module", "engine",
				"layer", "application",
				"root_id", rootID,
				"space_id", space.SpaceID,
				"error", err.Error(),
			)
			result.Skipped++
			continue
		}
		if err := uc.Links.LinkCopy(ctx, rootID, copyID); err != nil {
			logger.Error("copy link persistence failed; copy will not receive counter sync",
				"event", "replication_link_failed",
				"module", "engine",
				"layer", "application",
				"root_id", rootID,
				"copy_id", copyID,
				"error", err.Error(),
			)
			continue
		}
		result.Delivered = append(result.Delivered, copyID)
	}

	if len(result.Delivered) > 0 {
		logger.Info("post replicated",
			"event", "post_replicated",
			"module", "engine",
			"layer", "application",
			"root_id", rootID,
			"owner_id", ownerID,
			"copy_count", len(result.Delivered),
		)
		uc.publishReplicated(ctx, rootID, ownerID, result.Delivered)
	}
	return result, nil
}

func (uc ReplicateUseCase) publishReplicated(ctx context.Context, rootID string, ownerID string, copies []string) {
	if uc.Publisher == nil || uc.IDGen == nil {
		return
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	envelope := newEngineEnvelope(eventID, "post.replicated", "post", rootID, now, map[string]any{
		"root_id":  rootID,
		"owner_id": ownerID,
		"copies":   copies,
	})
	_ = uc.Publisher.Publish(ctx, envelope.EventType, envelope)
}
