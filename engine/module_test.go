package engine

import (
	"context"
	"errors"
	"testing"

	"crossvote/engine/domain/entities"
	domainerrors "crossvote/engine/domain/errors"
	enginehttp "crossvote/engine/transport/http"
)

// End-to-end flow against the in-memory wiring: a platinum owner posts into
// one of three linked spaces, a voter smashes via a copy, and the single
// authoritative tally is visible through every message id.
func TestModulePlatinumPostVoteFlow(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()

	for _, spaceID := range []string{"space-a", "space-b", "space-c"} {
		if err := module.Handler.ConfigureSpaceHandler(ctx, enginehttp.ConfigureSpaceRequest{
			SpaceID:       spaceID,
			PostChannelID: "posts-" + spaceID,
		}); err != nil {
			t.Fatalf("configure %s: %v", spaceID, err)
		}
	}
	if _, err := module.Handler.GrantEntitlementHandler(ctx, enginehttp.GrantEntitlementRequest{
		UserID: "owner-1",
		Tier:   "platinum",
	}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	post, err := module.Handler.SubmitPostHandler(ctx, enginehttp.SubmitPostRequest{
		OwnerID: "owner-1",
		SpaceID: "space-a",
		Name:    "Robin",
		Age:     "29",
		City:    "Oslo",
		Bio:     "hey",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if post.CopyCount != 2 {
		t.Fatalf("expected 2 copies, got %d", post.CopyCount)
	}

	// Vote through a replica, not the root.
	var copyID string
	for _, msg := range module.Transport.Delivered() {
		if msg.Payload.Replica {
			copyID = msg.MessageID
			break
		}
	}
	if copyID == "" {
		t.Fatalf("no replica delivered")
	}

	vote, err := module.Handler.CastVoteHandler(ctx, enginehttp.CastVoteRequest{
		MessageID: copyID,
		VoterID:   "voter-1",
		Kind:      "smash",
	})
	if err != nil {
		t.Fatalf("vote via copy: %v", err)
	}
	if vote.RootID != post.RootID || vote.SmashCount != 1 {
		t.Fatalf("vote did not land on root tally: %+v", vote)
	}

	// Second vote by the same voter through the root must conflict.
	if _, err := module.Handler.CastVoteHandler(ctx, enginehttp.CastVoteRequest{
		MessageID: post.RootID,
		VoterID:   "voter-1",
		Kind:      "reject",
	}); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected duplicate-vote error via root, got %v", err)
	}

	// Tally is identical through every copy id.
	for _, id := range []string{post.RootID, copyID} {
		tally, err := module.Handler.PostTallyHandler(ctx, id)
		if err != nil {
			t.Fatalf("tally via %s: %v", id, err)
		}
		if tally.RootID != post.RootID || tally.SmashCount != 1 || tally.RejectCount != 0 {
			t.Fatalf("tally via %s diverged: %+v", id, tally)
		}
		if tally.CopyCount != 3 {
			t.Fatalf("expected 3 linked messages, got %d", tally.CopyCount)
		}
	}

	// The poster holds a grant, so the smash alert went out with the reveal.
	if len(module.Notifier.Reveals()) != 1 || len(module.Notifier.Alerts()) != 1 {
		t.Fatalf("expected one reveal and one alert, got %d/%d",
			len(module.Notifier.Reveals()), len(module.Notifier.Alerts()))
	}
}

func TestModuleBanBlocksEverything(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()

	if err := module.Handler.ConfigureSpaceHandler(ctx, enginehttp.ConfigureSpaceRequest{
		SpaceID:       "space-a",
		PostChannelID: "posts",
	}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	post, err := module.Handler.SubmitPostHandler(ctx, enginehttp.SubmitPostRequest{
		OwnerID: "owner-1",
		SpaceID: "space-a",
		Name:    "Kim",
		Age:     "31",
		City:    "Riga",
		Bio:     "yo",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := module.Handler.BanUserHandler(ctx, enginehttp.BanRequest{UserID: "voter-1", Reason: "abuse"}); err != nil {
		t.Fatalf("ban: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, enginehttp.CastVoteRequest{
		MessageID: post.RootID,
		VoterID:   "voter-1",
		Kind:      "smash",
	}); !errors.Is(err, domainerrors.ErrUserBanned) {
		t.Fatalf("expected banned error, got %v", err)
	}

	if err := module.Handler.UnbanUserHandler(ctx, "voter-1"); err != nil {
		t.Fatalf("unban: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(ctx, enginehttp.CastVoteRequest{
		MessageID: post.RootID,
		VoterID:   "voter-1",
		Kind:      "smash",
	}); err != nil {
		t.Fatalf("vote after unban failed: %v", err)
	}
}

func TestModuleEntitlementLifecycle(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()

	days := 30
	grant, err := module.Handler.GrantEntitlementHandler(ctx, enginehttp.GrantEntitlementRequest{
		UserID:       "user-1",
		Tier:         "prime",
		DurationDays: &days,
	})
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if grant.Tier != string(entities.TierPrime) || grant.ExpiresAt == "" {
		t.Fatalf("unexpected grant: %+v", grant)
	}

	fetched, found, err := module.Handler.GetEntitlementHandler(ctx, "user-1")
	if err != nil || !found {
		t.Fatalf("get grant: %v found=%v", err, found)
	}
	if fetched.Tier != "prime" {
		t.Fatalf("fetched tier %s", fetched.Tier)
	}

	if err := module.Handler.RevokeEntitlementHandler(ctx, "user-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, found, _ := module.Handler.GetEntitlementHandler(ctx, "user-1"); found {
		t.Fatalf("grant survived revoke")
	}
}
