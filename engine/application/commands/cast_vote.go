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

// CastVoteCommand is the intake for one vote against any copy of a post.
type CastVoteCommand struct {
	MessageID string
	VoterID   string
	Kind      entities.VoteKind
}

// CastVoteResult carries the authoritative counters after the vote commits.
type CastVoteResult struct {
	RootID      string
	SmashCount  int64
	RejectCount int64
}

// VoteUseCase coordinates vote intake: root resolution, ban/self-vote/dedup
// policy, the atomic counter mutation, and the best-effort fan-out of new
// counters to every copy. Counters equal the count of distinct accepted votes
// of each kind; a failed fan-out never under- or over-counts.
type VoteUseCase struct {
	Posts        ports.PostRepository
	Links        ports.CopyLinkRepository
	Votes        ports.VoteRepository
	Bans         ports.BanRepository
	Entitlements ports.EntitlementRepository
	Transport    ports.Transport
	Notifier     ports.Notifier
	Publisher    ports.EventPublisher
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

// CastVote applies one vote. Policy errors (unknown post, self-vote, banned
// voter, duplicate pair) are terminal and leave counters untouched. Both vote
// kinds share the one-record-per-pair dedup: the first accepted vote of
// either kind claims the pair.
func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	voterID := strings.TrimSpace(cmd.VoterID)
	messageID := strings.TrimSpace(cmd.MessageID)
	if voterID == "" || messageID == "" {
		return CastVoteResult{}, domainerrors.ErrInvalidPostInput
	}
	if !cmd.Kind.Valid() {
		return CastVoteResult{}, domainerrors.ErrInvalidVoteKind
	}

	if ban, found, err := uc.Bans.GetBan(ctx, voterID); err != nil {
		return CastVoteResult{}, err
	} else if found && ban.Banned {
		return CastVoteResult{}, domainerrors.ErrUserBanned
	}

	rootID, err := uc.Links.ResolveRoot(ctx, messageID)
	if err != nil {
		return CastVoteResult{}, err
	}
	post, err := uc.Posts.GetPost(ctx, rootID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if post.OwnerID == voterID {
		return CastVoteResult{}, domainerrors.ErrSelfVoteForbidden
	}

	if voted, err := uc.Votes.HasVote(ctx, post.OwnerID, voterID); err != nil {
		return CastVoteResult{}, err
	} else if voted {
		return CastVoteResult{}, domainerrors.ErrAlreadyVoted
	}

	now := uc.now()
	// The repository's pair uniqueness is the real guard; a racing duplicate
	// fails here rather than double-counting.
	if err := uc.Votes.RecordVote(ctx, entities.Vote{
		PosterID:  post.OwnerID,
		VoterID:   voterID,
		Kind:      cmd.Kind,
		MessageID: rootID,
		CreatedAt: now,
	}); err != nil {
		return CastVoteResult{}, err
	}

	smashDelta, rejectDelta := int64(0), int64(0)
	if cmd.Kind == entities.VoteKindSmash {
		smashDelta = 1
	} else {
		rejectDelta = 1
	}
	if err := uc.Posts.IncrementCounters(ctx, rootID, smashDelta, rejectDelta); err != nil {
		return CastVoteResult{}, err
	}

	updated, err := uc.Posts.GetPost(ctx, rootID)
	if err != nil {
		return CastVoteResult{}, err
	}

	logger.Info("vote accepted",
		"event", "vote_accepted",
		"module", "engine",
		"layer", "application",
		"root_id", rootID,
		"voter_id", voterID,
		"kind", string(cmd.Kind),
		"smash_count", updated.SmashCount,
		"reject_count", updated.RejectCount,
	)

	uc.syncCopies(ctx, rootID, updated.SmashCount, updated.RejectCount)

	if cmd.Kind == entities.VoteKindSmash {
		uc.notifySmash(ctx, updated, voterID)
	}
	uc.publishVoteEvent(ctx, updated, voterID, cmd.Kind, now)

	return CastVoteResult{
		RootID:      rootID,
		SmashCount:  updated.SmashCount,
		RejectCount: updated.RejectCount,
	}, nil
}

// syncCopies pushes the authoritative counters to every linked copy,
// including the root's own rendering. Each push is independent; a failure is
// logged and skipped, never retried, and never rolls back the counters.
func (uc VoteUseCase) syncCopies(ctx context.Context, rootID string, smashCount int64, rejectCount int64) {
	logger := application.ResolveLogger(uc.Logger)
	copies, err := uc.Links.ListCopies(ctx, rootID)
	if err != nil {
		logger.Error("copy listing failed; skipping counter fan-out",
			"event", "vote_fanout_list_failed",
			"module", "engine",
			"layer", "application",
			"root_id", rootID,
			"error", err.Error(),
		)
		return
	}
	for _, copyID := range copies {
		if err := uc.Transport.UpdateCounters(ctx, copyID, smashCount, rejectCount); err != nil {
			logger.Warn("counter push to copy failed",
				"event", "vote_fanout_copy_failed",
				"module", "engine",
				"layer", "application",
				"root_id", rootID,
				"copy_id", copyID,
				"error", err.Error(),
			)
		}
	}
}

// notifySmash delivers the reveal DM to the voter and, when the poster holds
// a prime or platinum grant, the instant smash alert to the poster. Both are
// best-effort and never affect the vote outcome.
func (uc VoteUseCase) notifySmash(ctx context.Context, post entities.Post, voterID string) {
	if uc.Notifier == nil {
		return
	}
	logger := application.ResolveLogger(uc.Logger)
	if err := uc.Notifier.RevealProfile(ctx, voterID, post); err != nil {
		logger.Warn("reveal notification failed",
			"event", "vote_reveal_notify_failed",
			"module", "engine",
			"layer", "application",
			"root_id", post.MessageID,
			"voter_id", voterID,
			"error", err.Error(),
		)
	}

	grant, found, err := uc.Entitlements.GetGrant(ctx, post.OwnerID)
	if err != nil {
		logger.Warn("entitlement lookup failed; skipping smash alert",
			"event", "vote_smash_alert_lookup_failed",
			"module", "engine",
			"layer", "application",
			"owner_id", post.OwnerID,
			"error", err.Error(),
		)
		return
	}
	if !found || !grant.Tier.IncludesPrime() {
		return
	}
	if err := uc.Notifier.SmashAlert(ctx, post.OwnerID, voterID); err != nil {
		logger.Warn("smash alert failed",
			"event", "vote_smash_alert_failed",
			"module", "engine",
			"layer", "application",
			"owner_id", post.OwnerID,
			"error", err.Error(),
		)
	}
}

func (uc VoteUseCase) publishVoteEvent(
	ctx context.Context,
	post entities.Post,
	voterID string,
	kind entities.VoteKind,
	occurredAt time.Time,
) {
	if uc.Publisher == nil || uc.IDGen == nil {
		return
	}
	logger := application.ResolveLogger(uc.Logger)
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	envelope := newEngineEnvelope(eventID, "vote.accepted", "post", post.MessageID, occurredAt, map[string]any{
		"root_id":      post.MessageID,
		"owner_id":     post.OwnerID,
		"voter_id":     voterID,
		"kind":         string(kind),
		"smash_count":  post.SmashCount,
		"reject_count": post.RejectCount,
	})
	if err := uc.Publisher.Publish(ctx, envelope.EventType, envelope); err != nil {
		logger.Warn("vote event publish failed",
			"event", "vote_event_publish_failed",
			"module", "engine",
			"layer", "application",
			"root_id", post.MessageID,
			"error", err.Error(),
		)
	}
}

func (uc VoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
