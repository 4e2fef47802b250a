// Package events provides the in-process progress event bus. The issuance
// orchestrator and the vault publish state transitions here; the UI boundary
// subscribes and streams them out over a websocket.
package events

import (
	"sync"
	"time"
)

// Event is a single progress notification.
type Event struct {
	// Type names the event (e.g. "issuance.propagating", "vault.locked").
	Type string `json:"type"`
	// At is the UTC timestamp the event was published.
	At time.Time `json:"at"`
	// Data carries the event payload.
	Data any `json:"data,omitempty"`
}

// Vault lock-state event types.
const (
	TypeVaultLocked   = "vault.locked"
	TypeVaultUnlocked = "vault.unlocked"
)

// Issuance progress event types.
const (
	TypeIssuanceState  = "issuance.state_changed"
	TypeIssuanceRecord = "issuance.record_updated"
)

// Publisher is the write side of the bus.
type Publisher interface {
	Publish(evt Event)
}

// Bus fans events out to all current subscribers. Slow subscribers drop
// events rather than blocking publishers.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Publish delivers the event to every subscriber. The timestamp is filled in
// when unset.
func (b *Bus) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// Subscriber is not keeping up; drop instead of blocking issuance.
		}
	}
}

// Subscribe registers a new subscriber with the given channel buffer.
// The returned cancel function removes the subscription and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Close terminates the bus and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
