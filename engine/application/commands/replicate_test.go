package commands

import (
	"context"
	"testing"
	"time"

	"crossvote/engine/adapters/memory"
	"crossvote/engine/domain/entities"
	"crossvote/engine/ports"
)

func newReplicateUseCase(store *memory.Store, transport *memory.Transport) ReplicateUseCase {
	return ReplicateUseCase{
		Entitlements: store,
		Spaces:       store,
		Links:        store,
		Markers:      store,
		Transport:    transport,
		Clock:        fixedClock{now: time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC)},
		IDGen:        store,
	}
}

func replicateCommand() ReplicateCommand {
	return ReplicateCommand{
		RootID:        "root-1",
		OwnerID:       "owner-1",
		OriginSpaceID: "space-a",
		Payload: ports.MessagePayload{
			OwnerID: "owner-1",
			Profile: completeProfile(),
		},
	}
}

func TestReplicateRequiresPlatinum(t *testing.T) {
	store := memory.NewStore()
	transport := memory.NewTransport()
	seedSpace(store, "space-a")
	seedSpace(store, "space-b")
	store.SetGrant(entities.EntitlementGrant{UserID: "owner-1", Tier: entities.TierPrime})
	uc := newReplicateUseCase(store, transport)

	result, err := uc.Replicate(context.Background(), replicateCommand())
	if err != nil {
		t.Fatalf("replicate errored for prime owner: %v", err)
	}
	if len(result.Delivered) != 0 || len(transport.Delivered()) != 0 {
		t.Fatalf("prime owner got copies: %+v", result)
	}
}

func TestReplicateSkipsOrigin(t *testing.T) {
	store := memory.NewStore()
	transport := memory.NewTransport()
	seedSpace(store, "space-a")
	seedSpace(store, "space-b")
	seedSpace(store, "space-c")
	store.SetGrant(entities.EntitlementGrant{UserID: "owner-1", Tier: entities.TierPlatinum})
	uc := newReplicateUseCase(store, transport)

	result, err := uc.Replicate(context.Background(), replicateCommand())
	if err != nil {
		t.Fatalf("replicate failed: %v", err)
	}
	if len(result.Delivered) != 2 {
		t.Fatalf("expected 2 copies, got %d", len(result.Delivered))
	}
	for _, msg := range transport.Delivered() {
		if msg.SpaceID == "space-a" {
			t.Fatalf("copy delivered into origin space")
		}
	}
}

func TestReplicateIsolatesDestinationFailures(t *testing.T) {
	store := memory.NewStore()
	transport := memory.NewTransport()
	seedSpace(store, "space-a")
	seedSpace(store, "space-b")
	seedSpace(store, "space-c")
	transport.FailDeliveriesTo("space-b")
	store.SetGrant(entities.EntitlementGrant{UserID: "owner-1", Tier: entities.TierPlatinum})
	uc := newReplicateUseCase(store, transport)

	result, err := uc.Replicate(context.Background(), replicateCommand())
	if err != nil {
		t.Fatalf("replicate failed outright on one bad destination: %v", err)
	}
	if len(result.Delivered) != 1 {
		t.Fatalf("expected 1 delivered copy, got %d", len(result.Delivered))
	}
	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped destination, got %d", result.Skipped)
	}
}

func TestReplicateFallsBackToConfiguredSpaces(t *testing.T) {
	store := memory.NewStore()
	transport := memory.NewTransport()
	store.SetGrant(entities.EntitlementGrant{UserID: "owner-1", Tier: entities.TierPlatinum})
	uc := newReplicateUseCase(store, transport)
	// Nothing configured in the store: the static list carries the fan-out.
	uc.Fallback = []entities.SpaceSettings{
		{SpaceID: "space-a", PostChannelID: "posts-a"},
		{SpaceID: "space-b", PostChannelID: "posts-b"},
	}

	result, err := uc.Replicate(context.Background(), replicateCommand())
	if err != nil {
		t.Fatalf("replicate failed: %v", err)
	}
	if len(result.Delivered) != 1 {
		t.Fatalf("expected 1 fallback copy, got %d", len(result.Delivered))
	}
	delivered := transport.Delivered()
	if len(delivered) != 1 || delivered[0].SpaceID != "space-b" {
		t.Fatalf("fallback delivery went to %+v", delivered)
	}
}

func TestReplicateIgnoresFallbackWhenSpacesConfigured(t *testing.T) {
	store := memory.NewStore()
	transport := memory.NewTransport()
	seedSpace(store, "space-a")
	seedSpace(store, "space-b")
	store.SetGrant(entities.EntitlementGrant{UserID: "owner-1", Tier: entities.TierPlatinum})
	uc := newReplicateUseCase(store, transport)
	uc.Fallback = []entities.SpaceSettings{
		{SpaceID: "space-z", PostChannelID: "posts-z"},
	}

	result, err := uc.Replicate(context.Background(), replicateCommand())
	if err != nil {
		t.Fatalf("replicate failed: %v", err)
	}
	if len(result.Delivered) != 1 {
		t.Fatalf("expected 1 copy, got %d", len(result.Delivered))
	}
	for _, msg := range transport.Delivered() {
		if msg.SpaceID == "space-z" {
			t.Fatalf("fallback space used despite configured destinations")
		}
	}
}

func TestReplicateIsIdempotentPerDestination(t *testing.T) {
	store := memory.NewStore()
	transport := memory.NewTransport()
	seedSpace(store, "space-a")
	seedSpace(store, "space-b")
	store.SetGrant(entities.EntitlementGrant{UserID: "owner-1", Tier: entities.TierPlatinum})
	uc := newReplicateUseCase(store, transport)

	first, err := uc.Replicate(context.Background(), replicateCommand())
	if err != nil {
		t.Fatalf("first replicate failed: %v", err)
	}
	second, err := uc.Replicate(context.Background(), replicateCommand())
	if err != nil {
		t.Fatalf("second replicate failed: %v", err)
	}
	if len(first.Delivered) != 1 || len(second.Delivered) != 0 {
		t.Fatalf("re-invocation delivered duplicates: first=%d second=%d",
			len(first.Delivered), len(second.Delivered))
	}
	if len(transport.Delivered()) != 1 {
		t.Fatalf("transport saw %d deliveries, want 1", len(transport.Delivered()))
	}
}
