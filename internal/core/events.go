package core

import "sync"

// Entity names published on the change bus.
const (
	EntityProcess    = "process"
	EntityPhase      = "phase"
	EntityMembership = "membership"
	EntityAttachment = "attachment"
	EntityLicense    = "license"
)

// Event signals that a read view of an entity is stale. Every mutation
// publishes one; list/detail readers subscribe and refetch.
type Event struct {
	Entity string
	ID     int64
	Op     string
}

// Bus is an in-process fan-out of entity change events. Publish never blocks:
// a subscriber that falls behind loses events and is expected to refetch on
// the next one it receives.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber with the given buffer size and returns its
// channel plus a cancel function that unsubscribes and closes it.
func (b *Bus) Subscribe(buf int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, buf)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers e to all subscribers, dropping it for any whose buffer is
// full.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
