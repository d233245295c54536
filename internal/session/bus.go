package session

import (
	"sync"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventProfileUpdated EventKind = "profile_updated"
	EventAccountDeleted EventKind = "account_deleted"
)

type Event struct {
	Kind   EventKind
	UserID uuid.UUID
}

// Bus fans session-change events out to subscribers synchronously.
type Bus struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[int]func(Event)
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[int]func(Event))}
}

// Subscribe registers fn and returns the function that removes it.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
		})
	}
}

func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subscribers := make([]func(Event), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		subscribers = append(subscribers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range subscribers {
		fn(event)
	}
}

func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
