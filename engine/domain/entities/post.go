package entities

import "time"

// Profile is the user-submitted card rendered into every copy of a post.
type Profile struct {
	Name     string
	Age      string
	City     string
	Bio      string
	ImageURL string
}

func (p Profile) Complete() bool {
	return p.Name != "" && p.Age != "" && p.City != "" && p.Bio != ""
}

// Post is the root record of one logical submission. The message id is
// assigned by the transport when the root copy is delivered. Counters are
// authoritative here; copies only render them.
type Post struct {
	MessageID   string
	OwnerID     string
	Profile     Profile
	SmashCount  int64
	RejectCount int64
	CreatedAt   time.Time
}

// CopyLink maps a copy's message id back to its root post. The root links to
// itself, so resolving any known id yields exactly one root.
type CopyLink struct {
	RootID    string
	MessageID string
}

type VoteKind string

const (
	VoteKindSmash  VoteKind = "smash"
	VoteKindReject VoteKind = "reject"
)

func (k VoteKind) Valid() bool {
	return k == VoteKindSmash || k == VoteKindReject
}

// Vote records one accepted vote for a (poster, voter) pair. At most one
// record exists per pair system-wide, regardless of which copy carried it.
type Vote struct {
	PosterID  string
	VoterID   string
	Kind      VoteKind
	MessageID string
	CreatedAt time.Time
}
