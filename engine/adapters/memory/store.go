package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"crossvote/engine/domain/entities"
	domainerrors "crossvote/engine/domain/errors"

	"github.com/google/uuid"
)

type quotaKey struct {
	userID string
	day    string
}

type markerKey struct {
	rootID  string
	spaceID string
}

type voteKey struct {
	posterID string
	voterID  string
}

// Store is the in-memory implementation of every engine repository port. It
// backs tests and the in-memory module wiring.
type Store struct {
	mu sync.RWMutex

	posts        map[string]entities.Post
	links        map[string]string
	votes        map[voteKey]entities.Vote
	bans         map[string]entities.Ban
	entitlements map[string]entities.EntitlementGrant
	quotas       map[quotaKey]int
	pins         map[string]entities.PinSchedule
	spaces       map[string]entities.SpaceSettings
	markers      map[markerKey]struct{}
}

func NewStore() *Store {
	return &Store{
		posts:        make(map[string]entities.Post),
		links:        make(map[string]string),
		votes:        make(map[voteKey]entities.Vote),
		bans:         make(map[string]entities.Ban),
		entitlements: make(map[string]entities.EntitlementGrant),
		quotas:       make(map[quotaKey]int),
		pins:         make(map[string]entities.PinSchedule),
		spaces:       make(map[string]entities.SpaceSettings),
		markers:      make(map[markerKey]struct{}),
	}
}

func (s *Store) SetPost(post entities.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strings.TrimSpace(post.MessageID)
	s.posts[id] = post
	s.links[id] = id
}

func (s *Store) SetGrant(grant entities.EntitlementGrant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entitlements[strings.TrimSpace(grant.UserID)] = grant
}

func (s *Store) SetSpace(settings entities.SpaceSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spaces[strings.TrimSpace(settings.SpaceID)] = settings
}

func (s *Store) SetBanRecord(ban entities.Ban) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bans[strings.TrimSpace(ban.UserID)] = ban
}

func (s *Store) SetPin(pin entities.PinSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pins[strings.TrimSpace(pin.MessageID)] = pin
}

func (s *Store) SetQuota(userID string, day string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotas[quotaKey{userID: strings.TrimSpace(userID), day: day}] = count
}

func (s *Store) CreatePost(_ context.Context, post entities.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[strings.TrimSpace(post.MessageID)] = post
	return nil
}

func (s *Store) GetPost(_ context.Context, messageID string) (entities.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.posts[strings.TrimSpace(messageID)]
	if !ok {
		return entities.Post{}, domainerrors.ErrPostNotFound
	}
	return post, nil
}

func (s *Store) IncrementCounters(_ context.Context, rootID string, smashDelta int64, rejectDelta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[strings.TrimSpace(rootID)]
	if !ok {
		return domainerrors.ErrPostNotFound
	}
	post.SmashCount += smashDelta
	post.RejectCount += rejectDelta
	s.posts[strings.TrimSpace(rootID)] = post
	return nil
}

func (s *Store) LinkCopy(_ context.Context, rootID string, copyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[strings.TrimSpace(copyID)] = strings.TrimSpace(rootID)
	return nil
}

func (s *Store) ListCopies(_ context.Context, rootID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rootID = strings.TrimSpace(rootID)
	items := make([]string, 0)
	for copyID, root := range s.links {
		if root == rootID {
			items = append(items, copyID)
		}
	}
	sort.Strings(items)
	return items, nil
}

func (s *Store) ResolveRoot(_ context.Context, anyID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rootID, ok := s.links[strings.TrimSpace(anyID)]
	if !ok {
		return "", domainerrors.ErrPostNotFound
	}
	return rootID, nil
}

func (s *Store) RecordVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey{
		posterID: strings.TrimSpace(vote.PosterID),
		voterID:  strings.TrimSpace(vote.VoterID),
	}
	if _, exists := s.votes[key]; exists {
		return domainerrors.ErrAlreadyVoted
	}
	s.votes[key] = vote
	return nil
}

func (s *Store) HasVote(_ context.Context, posterID string, voterID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.votes[voteKey{
		posterID: strings.TrimSpace(posterID),
		voterID:  strings.TrimSpace(voterID),
	}]
	return exists, nil
}

func (s *Store) SetBan(_ context.Context, ban entities.Ban) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bans[strings.TrimSpace(ban.UserID)] = ban
	return nil
}

func (s *Store) RemoveBan(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bans, strings.TrimSpace(userID))
	return nil
}

func (s *Store) GetBan(_ context.Context, userID string) (entities.Ban, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ban, ok := s.bans[strings.TrimSpace(userID)]
	return ban, ok, nil
}

func (s *Store) UpsertGrant(_ context.Context, grant entities.EntitlementGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entitlements[strings.TrimSpace(grant.UserID)] = grant
	return nil
}

func (s *Store) GetGrant(_ context.Context, userID string) (entities.EntitlementGrant, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	grant, ok := s.entitlements[strings.TrimSpace(userID)]
	return grant, ok, nil
}

func (s *Store) DeleteGrant(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entitlements, strings.TrimSpace(userID))
	return nil
}

func (s *Store) ListExpiredGrants(_ context.Context, now time.Time) ([]entities.EntitlementGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.EntitlementGrant, 0)
	for _, grant := range s.entitlements {
		if grant.Expired(now) {
			items = append(items, grant)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].UserID < items[j].UserID
	})
	return items, nil
}

func (s *Store) GetQuota(_ context.Context, userID string, day string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quotas[quotaKey{userID: strings.TrimSpace(userID), day: day}], nil
}

func (s *Store) IncrementQuota(_ context.Context, userID string, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID = strings.TrimSpace(userID)
	// A new day replaces the old bucket outright.
	for key := range s.quotas {
		if key.userID == userID && key.day != day {
			delete(s.quotas, key)
		}
	}
	s.quotas[quotaKey{userID: userID, day: day}]++
	return nil
}

func (s *Store) SchedulePin(_ context.Context, pin entities.PinSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pins[strings.TrimSpace(pin.MessageID)] = pin
	return nil
}

func (s *Store) ListDuePins(_ context.Context, now time.Time) ([]entities.PinSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.PinSchedule, 0)
	for _, pin := range s.pins {
		if !pin.UnpinAt.After(now) {
			items = append(items, pin)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].UnpinAt.Before(items[j].UnpinAt)
	})
	return items, nil
}

func (s *Store) DeletePin(_ context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pins, strings.TrimSpace(messageID))
	return nil
}

func (s *Store) SaveSpaceSettings(_ context.Context, settings entities.SpaceSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spaces[strings.TrimSpace(settings.SpaceID)] = settings
	return nil
}

func (s *Store) GetSpaceSettings(_ context.Context, spaceID string) (entities.SpaceSettings, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings, ok := s.spaces[strings.TrimSpace(spaceID)]
	return settings, ok, nil
}

func (s *Store) ListPostableSpaces(_ context.Context) ([]entities.SpaceSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.SpaceSettings, 0)
	for _, settings := range s.spaces {
		if settings.Postable() {
			items = append(items, settings)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SpaceID < items[j].SpaceID
	})
	return items, nil
}

func (s *Store) ReserveReplication(_ context.Context, rootID string, spaceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := markerKey{
		rootID:  strings.TrimSpace(rootID),
		spaceID: strings.TrimSpace(spaceID),
	}
	if _, exists := s.markers[key]; exists {
		return false, nil
	}
	s.markers[key] = struct{}{}
	return true, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
