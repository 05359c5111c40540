package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryRegistry hands out per-sid memory stores for single-process deployments.
// Views of the same sid share values and see each other's writes through Watch.
type MemoryRegistry struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	store    *MemoryStore
	lastSeen time.Time

	mu     sync.RWMutex
	nextID int
	subs   map[int]func(origin string, ev Event)
}

func (e *memoryEntry) subscribe(fn func(origin string, ev Event)) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

func (e *memoryEntry) publish(origin string, ev Event) {
	e.mu.RLock()
	fns := make([]func(string, Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.RUnlock()
	for _, fn := range fns {
		fn(origin, ev)
	}
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{sessions: make(map[string]*memoryEntry), now: time.Now}
}

// Open returns a store bound to sid, creating the session on first use.
func (r *MemoryRegistry) Open(sid string) Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		e = &memoryEntry{store: NewMemoryStore(), subs: make(map[int]func(string, Event))}
		r.sessions[sid] = e
	}
	e.lastSeen = r.now()
	return &memorySessionStore{entry: e, origin: uuid.NewString()}
}

// Len reports how many sessions are held.
func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions not opened within idle and returns how many were removed.
func (r *MemoryRegistry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for sid, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, sid)
			n++
		}
	}
	return n
}

type memorySessionStore struct {
	entry  *memoryEntry
	origin string
}

func (s *memorySessionStore) Get(ctx context.Context, key string) (string, error) {
	return s.entry.store.Get(ctx, key)
}

func (s *memorySessionStore) Set(ctx context.Context, key, value string) error {
	if err := s.entry.store.Set(ctx, key, value); err != nil {
		return err
	}
	s.announce(Event{Key: key, Token: value, Reason: ReasonChanged})
	return nil
}

func (s *memorySessionStore) Delete(ctx context.Context, key string) error {
	if err := s.entry.store.Delete(ctx, key); err != nil {
		return err
	}
	s.announce(Event{Key: key, Cleared: true, Reason: ReasonChanged})
	return nil
}

func (s *memorySessionStore) announce(ev Event) {
	s.entry.publish(s.origin, ev)
}

// Watch forwards writes made through other stores of the same sid onto bus until ctx is done.
func (s *memorySessionStore) Watch(ctx context.Context, bus *Bus, _ *zap.Logger) error {
	unsubscribe := s.entry.subscribe(func(origin string, ev Event) {
		if origin != s.origin {
			bus.Publish(ev)
		}
	})
	defer unsubscribe()
	<-ctx.Done()
	return nil
}
