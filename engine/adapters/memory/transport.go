package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"crossvote/engine/ports"
)

// DeliveredMessage is one message the fake transport accepted.
type DeliveredMessage struct {
	MessageID string
	SpaceID   string
	ChannelID string
	Payload   ports.MessagePayload
}

// Transport is an in-process stand-in for the messaging platform. Failures
// can be injected per space or per message to exercise best-effort paths.
type Transport struct {
	mu sync.Mutex

	nextID    int
	delivered []DeliveredMessage
	counters  map[string][2]int64
	pinned    map[string]bool

	failDeliverTo map[string]bool
	failUpdateFor map[string]bool
	failPin       bool
	failUnpin     bool
}

func NewTransport() *Transport {
	return &Transport{
		counters:      make(map[string][2]int64),
		pinned:        make(map[string]bool),
		failDeliverTo: make(map[string]bool),
		failUpdateFor: make(map[string]bool),
	}
}

// FailDeliveriesTo makes every delivery into the given space fail.
func (t *Transport) FailDeliveriesTo(spaceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failDeliverTo[strings.TrimSpace(spaceID)] = true
}

// FailUpdatesFor makes counter updates for the given message fail.
func (t *Transport) FailUpdatesFor(messageID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failUpdateFor[strings.TrimSpace(messageID)] = true
}

func (t *Transport) FailPins(fail bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failPin = fail
}

func (t *Transport) FailUnpins(fail bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failUnpin = fail
}

func (t *Transport) Delivered() []DeliveredMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	items := make([]DeliveredMessage, len(t.delivered))
	copy(items, t.delivered)
	return items
}

// Counters returns the last counter pair pushed for a message.
func (t *Transport) Counters(messageID string) (int64, int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pair, ok := t.counters[strings.TrimSpace(messageID)]
	return pair[0], pair[1], ok
}

func (t *Transport) Pinned(messageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pinned[strings.TrimSpace(messageID)]
}

func (t *Transport) DeliverMessage(
	_ context.Context,
	spaceID string,
	channelID string,
	payload ports.MessagePayload,
) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	spaceID = strings.TrimSpace(spaceID)
	if t.failDeliverTo[spaceID] {
		return "", errors.New("delivery rejected")
	}
	t.nextID++
	messageID := fmt.Sprintf("msg-%d", t.nextID)
	t.delivered = append(t.delivered, DeliveredMessage{
		MessageID: messageID,
		SpaceID:   spaceID,
		ChannelID: strings.TrimSpace(channelID),
		Payload:   payload,
	})
	return messageID, nil
}

func (t *Transport) UpdateCounters(_ context.Context, messageID string, smashCount int64, rejectCount int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	messageID = strings.TrimSpace(messageID)
	if t.failUpdateFor[messageID] {
		return errors.New("counter update rejected")
	}
	t.counters[messageID] = [2]int64{smashCount, rejectCount}
	return nil
}

func (t *Transport) PinMessage(_ context.Context, messageID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failPin {
		return errors.New("pin rejected")
	}
	t.pinned[strings.TrimSpace(messageID)] = true
	return nil
}

func (t *Transport) UnpinMessage(_ context.Context, _ string, messageID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failUnpin {
		return errors.New("unpin rejected")
	}
	messageID = strings.TrimSpace(messageID)
	if !t.pinned[messageID] {
		return errors.New("message not pinned")
	}
	delete(t.pinned, messageID)
	return nil
}
