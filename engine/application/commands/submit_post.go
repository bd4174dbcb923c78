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

// SubmitPostCommand carries one profile submission into the engine.
type SubmitPostCommand struct {
	OwnerID string
	SpaceID string
	Profile entities.Profile
}

// SubmitPostResult reports the delivered root and any premium side effects.
type SubmitPostResult struct {
	RootID    string
	Tier      entities.Tier
	Pinned    bool
	CopyCount int
}

// SubmitPostUseCase drives the submission flow: ban and quota policy, root
// delivery, persistence with the reflexive copy link, premium pinning, and
// platinum replication. Quota is consumed only after the root post exists.
type SubmitPostUseCase struct {
	Posts        ports.PostRepository
	Links        ports.CopyLinkRepository
	Bans         ports.BanRepository
	Entitlements ports.EntitlementRepository
	Spaces       ports.SpaceRepository
	Pins         ports.PinRepository
	Transport    ports.Transport
	Limiter      QuotaLimiter
	Replicator   ReplicateUseCase
	Publisher    ports.EventPublisher
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	PinDuration  time.Duration
	Logger       *slog.Logger
}

func (uc SubmitPostUseCase) SubmitPost(ctx context.Context, cmd SubmitPostCommand) (SubmitPostResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	ownerID := strings.TrimSpace(cmd.OwnerID)
	spaceID := strings.TrimSpace(cmd.SpaceID)
	if ownerID == "" || spaceID == "" || !cmd.Profile.Complete() {
		return SubmitPostResult{}, domainerrors.ErrInvalidPostInput
	}

	if ban, found, err := uc.Bans.GetBan(ctx, ownerID); err != nil {
		return SubmitPostResult{}, err
	} else if found && ban.Banned {
		return SubmitPostResult{}, domainerrors.ErrUserBanned
	}

	grant, hasGrant, err := uc.Entitlements.GetGrant(ctx, ownerID)
	if err != nil {
		return SubmitPostResult{}, err
	}
	tier := entities.Tier("")
	if hasGrant {
		tier = grant.Tier
	}
	exempt := tier.IncludesPrime()

	decision, err := uc.Limiter.CanPost(ctx, ownerID, exempt)
	if err != nil {
		return SubmitPostResult{}, err
	}
	if !decision.Allowed {
		return SubmitPostResult{}, domainerrors.ErrQuotaExceeded
	}

	settings, found, err := uc.Spaces.GetSpaceSettings(ctx, spaceID)
	if err != nil {
		return SubmitPostResult{}, err
	}
	if !found || !settings.Postable() {
		return SubmitPostResult{}, domainerrors.ErrSpaceNotConfigured
	}

	payload := ports.MessagePayload{
		OwnerID: ownerID,
		Profile: cmd.Profile,
	}
	rootID, err := uc.Transport.DeliverMessage(ctx, spaceID, settings.PostChannelID, payload)
	if err != nil {
		logger.Error("root post delivery failed",
			"event", "post_delivery_failed",
			"module", "engine",
			"layer", "application",
			"owner_id", ownerID,
			"space_id", spaceID,
			"error", err.Error(),
		)
		return SubmitPostResult{}, domainerrors.ErrDeliveryFailed
	}

	now := uc.now()
	if err := uc.Posts.CreatePost(ctx, entities.Post{
		MessageID: rootID,
		OwnerID:   ownerID,
		Profile:   cmd.Profile,
		CreatedAt: now,
	}); err != nil {
		return SubmitPostResult{}, err
	}
	if err := uc.Links.LinkCopy(ctx, rootID, rootID); err != nil {
		return SubmitPostResult{}, err
	}

	if err := uc.Limiter.RecordPost(ctx, ownerID); err != nil {
		logger.Error("quota record failed after delivery",
			"event", "post_quota_record_failed",
			"module", "engine",
			"layer", "application",
			"owner_id", ownerID,
			"error", err.Error(),
		)
	}

	result := SubmitPostResult{RootID: rootID, Tier: tier}
	if exempt {
		result.Pinned = uc.pinPost(ctx, rootID, now)
	}
	if tier == entities.TierPlatinum {
		replication, err := uc.Replicator.Replicate(ctx, ReplicateCommand{
			RootID:        rootID,
			OwnerID:       ownerID,
			OriginSpaceID: spaceID,
			Payload:       payload,
		})
		if err != nil {
			logger.Warn("replication failed; root post stands",
				"event", "post_replication_failed",
				"module", "engine",
				"layer", "application",
				"root_id", rootID,
				"error", err.Error(),
			)
		} else {
			result.CopyCount = len(replication.Delivered)
		}
	}

	logger.Info("post submitted",
		"event", "post_submitted",
		"module", "engine",
		"layer", "application",
		"root_id", rootID,
		"owner_id", ownerID,
		"space_id", spaceID,
		"tier", string(tier),
		"copy_count", result.CopyCount,
	)
	uc.publishCreated(ctx, rootID, ownerID, spaceID, tier, now)
	return result, nil
}

// pinPost pins the fresh root and schedules the automatic unpin. The pin
// itself is best-effort; the schedule row is written only when the pin
// landed, so the sweep never chases a message that was never pinned.
func (uc SubmitPostUseCase) pinPost(ctx context.Context, rootID string, now time.Time) bool {
	logger := application.ResolveLogger(uc.Logger)
	if err := uc.Transport.PinMessage(ctx, rootID); err != nil {
		logger.Warn("premium pin failed",
			"event", "post_pin_failed",
			"module", "engine",
			"layer", "application",
			"root_id", rootID,
			"error", err.Error(),
		)
		return false
	}
	if err := uc.Pins.SchedulePin(ctx, entities.PinSchedule{
		MessageID: rootID,
		UnpinAt:   now.Add(uc.pinDuration()),
	}); err != nil {
		logger.Error("pin schedule persistence failed",
			"event", "post_pin_schedule_failed",
			"module", "engine",
			"layer", "application",
			"root_id", rootID,
			"error", err.Error(),
		)
	}
	return true
}

func (uc SubmitPostUseCase) publishCreated(
	ctx context.Context,
	rootID string,
	ownerID string,
	spaceID string,
	tier entities.Tier,
	occurredAt time.Time,
) {
	if uc.Publisher == nil || uc.IDGen == nil {
		return
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	envelope := newEngineEnvelope(eventID, "post.created", "post", rootID, occurredAt, map[string]any{
		"root_id":  rootID,
		"owner_id": ownerID,
		"space_id": spaceID,
		"tier":     string(tier),
	})
	_ = uc.Publisher.Publish(ctx, envelope.EventType, envelope)
}

func (uc SubmitPostUseCase) pinDuration() time.Duration {
	if uc.PinDuration <= 0 {
		return 4 * time.Hour
	}
	return uc.PinDuration
}

func (uc SubmitPostUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
