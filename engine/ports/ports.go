package ports

import (
	"context"
	"time"

	"crossvote/engine/domain/entities"
	"crossvote/internal/shared/events"
)

// PostRepository owns root post rows. IncrementCounters must be a single
// atomic add statement so concurrent votes against the same root never lose
// an increment.
type PostRepository interface {
	CreatePost(ctx context.Context, post entities.Post) error
	GetPost(ctx context.Context, messageID string) (entities.Post, error)
	IncrementCounters(ctx context.Context, rootID string, smashDelta int64, rejectDelta int64) error
}

// CopyLinkRepository maps copy message ids to their root. The root is linked
// to itself, so ListCopies always includes the root id.
type CopyLinkRepository interface {
	LinkCopy(ctx context.Context, rootID string, copyID string) error
	ListCopies(ctx context.Context, rootID string) ([]string, error)
	ResolveRoot(ctx context.Context, anyID string) (string, error)
}

// VoteRepository stores accepted votes keyed by (poster, voter). RecordVote
// must fail with the duplicate-vote error when a record for the pair already
// exists, so a racing second vote loses even without an application check.
type VoteRepository interface {
	RecordVote(ctx context.Context, vote entities.Vote) error
	HasVote(ctx context.Context, posterID string, voterID string) (bool, error)
}

type BanRepository interface {
	SetBan(ctx context.Context, ban entities.Ban) error
	RemoveBan(ctx context.Context, userID string) error
	GetBan(ctx context.Context, userID string) (entities.Ban, bool, error)
}

type EntitlementRepository interface {
	UpsertGrant(ctx context.Context, grant entities.EntitlementGrant) error
	GetGrant(ctx context.Context, userID string) (entities.EntitlementGrant, bool, error)
	DeleteGrant(ctx context.Context, userID string) error
	ListExpiredGrants(ctx context.Context, now time.Time) ([]entities.EntitlementGrant, error)
}

// QuotaRepository keeps one day-bucketed counter per user. IncrementQuota
// upserts and replaces the stored day when it differs, so buckets roll over
// implicitly on the first write of a new day.
type QuotaRepository interface {
	GetQuota(ctx context.Context, userID string, day string) (int, error)
	IncrementQuota(ctx context.Context, userID string, day string) error
}

type PinRepository interface {
	SchedulePin(ctx context.Context, pin entities.PinSchedule) error
	ListDuePins(ctx context.Context, now time.Time) ([]entities.PinSchedule, error)
	DeletePin(ctx context.Context, messageID string) error
}

type SpaceRepository interface {
	SaveSpaceSettings(ctx context.Context, settings entities.SpaceSettings) error
	GetSpaceSettings(ctx context.Context, spaceID string) (entities.SpaceSettings, bool, error)
	ListPostableSpaces(ctx context.Context) ([]entities.SpaceSettings, error)
}

// ReplicationMarkerStore reserves one marker per (root, destination) pair so
// re-invoking replication never delivers a duplicate copy. Reserve returns
// false when the pair was already reserved.
type ReplicationMarkerStore interface {
	ReserveReplication(ctx context.Context, rootID string, spaceID string) (bool, error)
}

// MessagePayload is what the transport renders into a physical message.
// Replica marks cross-posted copies so the rendering layer can annotate them.
type MessagePayload struct {
	OwnerID     string
	Profile     entities.Profile
	SmashCount  int64
	RejectCount int64
	Replica     bool
}

// Transport is the messaging collaborator. Every call is a fallible remote
// operation; callers decide per call site whether a failure is terminal or
// best-effort.
type Transport interface {
	DeliverMessage(ctx context.Context, spaceID string, channelID string, payload MessagePayload) (string, error)
	UpdateCounters(ctx context.Context, messageID string, smashCount int64, rejectCount int64) error
	PinMessage(ctx context.Context, messageID string) error
	UnpinMessage(ctx context.Context, spaceID string, messageID string) error
}

// Notifier delivers direct messages to users. All calls are best-effort and
// never block or fail the primary operation that triggered them.
type Notifier interface {
	RevealProfile(ctx context.Context, voterID string, post entities.Post) error
	SmashAlert(ctx context.Context, posterID string, voterID string) error
	ExpiryNotice(ctx context.Context, userID string, tier entities.Tier) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = events.Envelope

// EventPublisher pushes engine events to the logging/notification bus.
// A nil publisher is treated as a no-op by all use cases.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}
