package workers

import (
	"context"
	"testing"
	"time"

	"crossvote/engine/adapters/memory"
	"crossvote/engine/application/commands"
	"crossvote/engine/application/queries"
	"crossvote/engine/domain/entities"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

func TestEntitlementExpirerRevokesAndNotifies(t *testing.T) {
	store := memory.NewStore()
	notifier := memory.NewNotifier()
	now := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)

	expired := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	store.SetGrant(entities.EntitlementGrant{UserID: "u-expired", Tier: entities.TierPrime, ExpiresAt: &expired})
	store.SetGrant(entities.EntitlementGrant{UserID: "u-active", Tier: entities.TierPlatinum, ExpiresAt: &future})
	store.SetGrant(entities.EntitlementGrant{UserID: "u-forever", Tier: entities.TierPrime})

	expirer := EntitlementExpirer{
		Queries:      queries.EntitlementQueries{Entitlements: store, Clock: fixedClock{now: now}},
		Entitlements: commands.EntitlementUseCase{Entitlements: store, Clock: fixedClock{now: now}, IDGen: store},
		Notifier:     notifier,
		Clock:        fixedClock{now: now},
	}
	if err := expirer.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if _, found, _ := store.GetGrant(context.Background(), "u-expired"); found {
		t.Fatalf("expired grant survived the sweep")
	}
	if _, found, _ := store.GetGrant(context.Background(), "u-active"); !found {
		t.Fatalf("active grant was revoked")
	}
	if _, found, _ := store.GetGrant(context.Background(), "u-forever"); !found {
		t.Fatalf("non-expiring grant was revoked")
	}
	notices := notifier.Notices()
	if len(notices) != 1 || notices[0].UserID != "u-expired" || notices[0].Tier != entities.TierPrime {
		t.Fatalf("expected one expiry notice for u-expired, got %+v", notices)
	}
}

func TestPinExpirerUnpinsDueMessages(t *testing.T) {
	store := memory.NewStore()
	transport := memory.NewTransport()
	now := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)

	store.SetSpace(entities.SpaceSettings{SpaceID: "space-a", PostChannelID: "chan-a"})
	if err := transport.PinMessage(context.Background(), "msg-due"); err != nil {
		t.Fatalf("seed pin: %v", err)
	}
	store.SetPin(entities.PinSchedule{MessageID: "msg-due", UnpinAt: now.Add(-time.Minute)})
	store.SetPin(entities.PinSchedule{MessageID: "msg-later", UnpinAt: now.Add(time.Hour)})

	expirer := PinExpirer{
		Pins:      store,
		Spaces:    store,
		Transport: transport,
		Clock:     fixedClock{now: now},
	}
	if err := expirer.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if transport.Pinned("msg-due") {
		t.Fatalf("due message still pinned")
	}
	remaining, err := store.ListDuePins(context.Background(), now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("list pins: %v", err)
	}
	if len(remaining) != 1 || remaining[0].MessageID != "msg-later" {
		t.Fatalf("expected only msg-later to remain scheduled, got %+v", remaining)
	}
}

func TestPinExpirerDropsScheduleEvenWhenUnpinFails(t *testing.T) {
	store := memory.NewStore()
	transport := memory.NewTransport()
	transport.FailUnpins(true)
	now := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)

	store.SetSpace(entities.SpaceSettings{SpaceID: "space-a", PostChannelID: "chan-a"})
	store.SetPin(entities.PinSchedule{MessageID: "msg-stuck", UnpinAt: now.Add(-time.Minute)})

	expirer := PinExpirer{
		Pins:      store,
		Spaces:    store,
		Transport: transport,
		Clock:     fixedClock{now: now},
	}
	if err := expirer.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	remaining, err := store.ListDuePins(context.Background(), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("list pins: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("schedule row survived a failed unpin; it would retry forever")
	}
}

type countingRunner struct {
	runs chan struct{}
}

func (c countingRunner) RunOnce(context.Context) error {
	select {
	case c.runs <- struct{}{}:
	default:
	}
	return nil
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	runner := countingRunner{runs: make(chan struct{}, 16)}
	scheduler := &Scheduler{
		Entitlements: runner,
		Pins:         runner,
		Interval:     5 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler.Start(ctx)
	scheduler.Start(ctx)

	select {
	case <-runner.runs:
	case <-time.After(time.Second):
		t.Fatalf("scheduler never ran a sweep")
	}
	cancel()
}
