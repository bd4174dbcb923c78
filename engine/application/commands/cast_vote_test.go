package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"crossvote/engine/adapters/memory"
	"crossvote/engine/domain/entities"
	domainerrors "crossvote/engine/domain/errors"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

func seedPost(store *memory.Store, messageID string, ownerID string) {
	store.SetPost(entities.Post{
		MessageID: messageID,
		OwnerID:   ownerID,
		Profile: entities.Profile{
			Name: "Alex",
			Age:  "24",
			City: "Berlin",
			Bio:  "hi",
		},
		CreatedAt: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC),
	})
}

func newVoteUseCase(store *memory.Store, transport *memory.Transport, notifier *memory.Notifier) VoteUseCase {
	return VoteUseCase{
		Posts:        store,
		Links:        store,
		Votes:        store,
		Bans:         store,
		Entitlements: store,
		Transport:    transport,
		Notifier:     notifier,
		Clock:        fixedClock{now: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)},
		IDGen:        store,
	}
}

func TestCastVoteCountsDistinctVoters(t *testing.T) {
	store := memory.NewStore()
	transport := memory.NewTransport()
	seedPost(store, "root-1", "owner-1")
	uc := newVoteUseCase(store, transport, memory.NewNotifier())

	for _, voterID := range []string{"v1", "v2", "v3"} {
		if _, err := uc.CastVote(context.Background(), CastVoteCommand{
			MessageID: "root-1",
			VoterID:   voterID,
			Kind:      entities.VoteKindSmash,
		}); err != nil {
			t.Fatalf("vote by %s failed: %v", voterID, err)
		}
	}
	result, err := uc.CastVote(context.Background(), CastVoteCommand{
		MessageID: "root-1",
		VoterID:   "v4",
		Kind:      entities.VoteKindReject,
	})
	if err != nil {
		t.Fatalf("reject vote failed: %v", err)
	}
	if result.SmashCount != 3 || result.RejectCount != 1 {
		t.Fatalf("expected 3/1 counters, got %d/%d", result.SmashCount, result.RejectCount)
	}
}

func TestCastVoteSecondVoteOfEitherKindConflicts(t *testing.T) {
	store := memory.NewStore()
	seedPost(store, "root-1", "owner-1")
	uc := newVoteUseCase(store, memory.NewTransport(), memory.NewNotifier())

	if _, err := uc.CastVote(context.Background(), CastVoteCommand{
		MessageID: "root-1",
		VoterID:   "voter-1",
		Kind:      entities.VoteKindSmash,
	}); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}

	for _, kind := range []entities.VoteKind{entities.VoteKindSmash, entities.VoteKindReject} {
		_, err := uc.CastVote(context.Background(), CastVoteCommand{
			MessageID: "root-1",
			VoterID:   "voter-1",
			Kind:      kind,
		})
		if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
			t.Fatalf("expected duplicate-vote error for kind %s, got %v", kind, err)
		}
	}

	result, err := uc.CastVote(context.Background(), CastVoteCommand{
		MessageID: "root-1",
		VoterID:   "voter-2",
		Kind:      entities.VoteKindReject,
	})
	if err != nil {
		t.Fatalf("other voter failed: %v", err)
	}
	if result.SmashCount != 1 || result.RejectCount != 1 {
		t.Fatalf("duplicate attempts mutated counters: %d/%d", result.SmashCount, result.RejectCount)
	}
}

func TestCastVoteDedupSpansCopies(t *testing.T) {
	store := memory.NewStore()
	seedPost(store, "root-1", "owner-1")
	if err := store.LinkCopy(context.Background(), "root-1", "copy-1"); err != nil {
		t.Fatalf("link copy: %v", err)
	}
	uc := newVoteUseCase(store, memory.NewTransport(), memory.NewNotifier())

	if _, err := uc.CastVote(context.Background(), CastVoteCommand{
		MessageID: "copy-1",
		VoterID:   "voter-1",
		Kind:      entities.VoteKindSmash,
	}); err != nil {
		t.Fatalf("vote via copy failed: %v", err)
	}
	_, err := uc.CastVote(context.Background(), CastVoteCommand{
		MessageID: "root-1",
		VoterID:   "voter-1",
		Kind:      entities.VoteKindSmash,
	})
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected duplicate-vote error via root after copy vote, got %v", err)
	}
}

func TestCastVoteSelfVoteForbidden(t *testing.T) {
	store := memory.NewStore()
	seedPost(store, "root-1", "owner-1")
	uc := newVoteUseCase(store, memory.NewTransport(), memory.NewNotifier())

	_, err := uc.CastVote(context.Background(), CastVoteCommand{
		MessageID: "root-1",
		VoterID:   "owner-1",
		Kind:      entities.VoteKindSmash,
	})
	if !errors.Is(err, domainerrors.ErrSelfVoteForbidden) {
		t.Fatalf("expected self-vote error, got %v", err)
	}
	post, err := store.GetPost(context.Background(), "root-1")
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if post.SmashCount != 0 || post.RejectCount != 0 {
		t.Fatalf("self-vote mutated counters: %d/%d", post.SmashCount, post.RejectCount)
	}
}

func TestCastVoteBannedVoterRejected(t *testing.T) {
	store := memory.NewStore()
	seedPost(store, "root-1", "owner-1")
	store.SetBanRecord(entities.Ban{UserID: "voter-1", Banned: true})
	uc := newVoteUseCase(store, memory.NewTransport(), memory.NewNotifier())

	_, err := uc.CastVote(context.Background(), CastVoteCommand{
		MessageID: "root-1",
		VoterID:   "voter-1",
		Kind:      entities.VoteKindSmash,
	})
	if !errors.Is(err, domainerrors.ErrUserBanned) {
		t.Fatalf("expected banned error, got %v", err)
	}
}

func TestCastVoteUnknownMessage(t *testing.T) {
	store := memory.NewStore()
	uc := newVoteUseCase(store, memory.NewTransport(), memory.NewNotifier())

	_, err := uc.CastVote(context.Background(), CastVoteCommand{
		MessageID: "ghost",
		VoterID:   "voter-1",
		Kind:      entities.VoteKindSmash,
	})
	if !errors.Is(err, domainerrors.ErrPostNotFound) {
		t.Fatalf("expected post-not-found error, got %v", err)
	}
}

func TestCastVoteFanOutFailureIsIsolated(t *testing.T) {
	store := memory.NewStore()
	transport := memory.NewTransport()
	seedPost(store, "root-1", "owner-1")
	if err := store.LinkCopy(context.Background(), "root-1", "copy-1"); err != nil {
		t.Fatalf("link copy: %v", err)
	}
	if err := store.LinkCopy(context.Background(), "root-1", "copy-2"); err != nil {
		t.Fatalf("link copy: %v", err)
	}
	transport.FailUpdatesFor("copy-1")
	uc := newVoteUseCase(store, transport, memory.NewNotifier())

	result, err := uc.CastVote(context.Background(), CastVoteCommand{
		MessageID: "root-1",
		VoterID:   "voter-1",
		Kind:      entities.VoteKindSmash,
	})
	if err != nil {
		t.Fatalf("vote failed despite best-effort fan-out: %v", err)
	}
	if result.SmashCount != 1 {
		t.Fatalf("expected counter 1, got %d", result.SmashCount)
	}
	if _, _, ok := transport.Counters("copy-1"); ok {
		t.Fatalf("failed copy unexpectedly received counters")
	}
	if smash, _, ok := transport.Counters("copy-2"); !ok || smash != 1 {
		t.Fatalf("healthy copy missing counter push")
	}
}

func TestCastVoteSmashNotifications(t *testing.T) {
	store := memory.NewStore()
	notifier := memory.NewNotifier()
	seedPost(store, "root-1", "owner-1")
	store.SetGrant(entities.EntitlementGrant{UserID: "owner-1", Tier: entities.TierPrime})
	uc := newVoteUseCase(store, memory.NewTransport(), notifier)

	if _, err := uc.CastVote(context.Background(), CastVoteCommand{
		MessageID: "root-1",
		VoterID:   "voter-1",
		Kind:      entities.VoteKindSmash,
	}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	reveals := notifier.Reveals()
	if len(reveals) != 1 || reveals[0].VoterID != "voter-1" {
		t.Fatalf("expected one reveal for voter-1, got %+v", reveals)
	}
	alerts := notifier.Alerts()
	if len(alerts) != 1 || alerts[0].PosterID != "owner-1" {
		t.Fatalf("expected one smash alert for owner-1, got %+v", alerts)
	}
}

func TestCastVoteRejectSendsNoNotifications(t *testing.T) {
	store := memory.NewStore()
	notifier := memory.NewNotifier()
	seedPost(store, "root-1", "owner-1")
	store.SetGrant(entities.EntitlementGrant{UserID: "owner-1", Tier: entities.TierPlatinum})
	uc := newVoteUseCase(store, memory.NewTransport(), notifier)

	if _, err := uc.CastVote(context.Background(), CastVoteCommand{
		MessageID: "root-1",
		VoterID:   "voter-1",
		Kind:      entities.VoteKindReject,
	}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if len(notifier.Reveals()) != 0 || len(notifier.Alerts()) != 0 {
		t.Fatalf("reject vote produced notifications")
	}
}

func TestCastVoteNotifierFailureDoesNotFailVote(t *testing.T) {
	store := memory.NewStore()
	notifier := memory.NewNotifier()
	notifier.FailAll(true)
	seedPost(store, "root-1", "owner-1")
	uc := newVoteUseCase(store, memory.NewTransport(), notifier)

	result, err := uc.CastVote(context.Background(), CastVoteCommand{
		MessageID: "root-1",
		VoterID:   "voter-1",
		Kind:      entities.VoteKindSmash,
	})
	if err != nil {
		t.Fatalf("vote failed on notifier error: %v", err)
	}
	if result.SmashCount != 1 {
		t.Fatalf("expected counter 1, got %d", result.SmashCount)
	}
}
