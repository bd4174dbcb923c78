package memory

import (
	"context"
	"errors"
	"sync"

	"crossvote/engine/domain/entities"
)

// RevealRecord captures one profile reveal sent to a voter.
type RevealRecord struct {
	VoterID string
	Post    entities.Post
}

// AlertRecord captures one smash alert sent to a poster.
type AlertRecord struct {
	PosterID string
	VoterID  string
}

// NoticeRecord captures one expiry notice.
type NoticeRecord struct {
	UserID string
	Tier   entities.Tier
}

// Notifier is an in-process stand-in for direct-message delivery.
type Notifier struct {
	mu sync.Mutex

	reveals []RevealRecord
	alerts  []AlertRecord
	notices []NoticeRecord

	failAll bool
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) FailAll(fail bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failAll = fail
}

func (n *Notifier) Reveals() []RevealRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	items := make([]RevealRecord, len(n.reveals))
	copy(items, n.reveals)
	return items
}

func (n *Notifier) Alerts() []AlertRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	items := make([]AlertRecord, len(n.alerts))
	copy(items, n.alerts)
	return items
}

func (n *Notifier) Notices() []NoticeRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	items := make([]NoticeRecord, len(n.notices))
	copy(items, n.notices)
	return items
}

func (n *Notifier) RevealProfile(_ context.Context, voterID string, post entities.Post) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAll {
		return errors.New("direct message rejected")
	}
	n.reveals = append(n.reveals, RevealRecord{VoterID: voterID, Post: post})
	return nil
}

func (n *Notifier) SmashAlert(_ context.Context, posterID string, voterID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAll {
		return errors.New("direct message rejected")
	}
	n.alerts = append(n.alerts, AlertRecord{PosterID: posterID, VoterID: voterID})
	return nil
}

func (n *Notifier) ExpiryNotice(_ context.Context, userID string, tier entities.Tier) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAll {
		return errors.New("direct message rejected")
	}
	n.notices = append(n.notices, NoticeRecord{UserID: userID, Tier: tier})
	return nil
}
