package session

import "sync"

// Reasons carried by an Event.
const (
	ReasonChanged = "changed"
	ReasonExpired = "expired"
)

// Event announces a change to a stored token.
type Event struct {
	Key     string `json:"key"`
	Token   string `json:"token,omitempty"`
	Cleared bool   `json:"cleared"`
	Reason  string `json:"reason"`
}

// Bus fans token events out to every subscribed view of the same session.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers ev synchronously to all current subscribers.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
