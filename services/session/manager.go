package session

import (
	"context"
	"errors"

	"loadly/models"

	"go.uber.org/zap"
)

// Manager holds one bearer credential in a Store and announces every change on a Bus.
type Manager struct {
	key    string
	store  Store
	bus    *Bus
	logger *zap.Logger
}

func NewManager(key string, store Store, bus *Bus, logger *zap.Logger) *Manager {
	if bus == nil {
		bus = NewBus()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{key: key, store: store, bus: bus, logger: logger}
}

// Key is the storage key this manager owns.
func (m *Manager) Key() string { return m.key }

// Subscribe registers fn for events on this manager's key only.
func (m *Manager) Subscribe(fn func(Event)) func() {
	return m.bus.Subscribe(func(ev Event) {
		if ev.Key == m.key {
			fn(ev)
		}
	})
}

// SetToken persists token and notifies views of the same session immediately.
func (m *Manager) SetToken(ctx context.Context, token string) error {
	if err := m.store.Set(ctx, m.key, token); err != nil {
		return err
	}
	m.bus.Publish(Event{Key: m.key, Token: token, Reason: ReasonChanged})
	return nil
}

// GetToken returns the stored token or "" when none is stored.
func (m *Manager) GetToken(ctx context.Context) string {
	token, err := m.store.Get(ctx, m.key)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			m.logger.Warn("session: token lookup failed", zap.String("key", m.key), zap.Error(err))
		}
		return ""
	}
	return token
}

// RemoveToken clears the stored token and emits a cleared event.
func (m *Manager) RemoveToken(ctx context.Context) error {
	return m.clear(ctx, ReasonChanged)
}

// Expire clears the token after the backend rejected it.
func (m *Manager) Expire(ctx context.Context) error {
	return m.clear(ctx, ReasonExpired)
}

func (m *Manager) clear(ctx context.Context, reason string) error {
	if err := m.store.Delete(ctx, m.key); err != nil {
		return err
	}
	m.bus.Publish(Event{Key: m.key, Cleared: true, Reason: reason})
	return nil
}

// IsAuthenticated is a presence check; expiry and signature are not inspected.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	return m.GetToken(ctx) != ""
}

// GetUserData decodes the stored token's claims for UI branching, or nil.
func (m *Manager) GetUserData(ctx context.Context) *models.UserData {
	return UserDataFromToken(m.GetToken(ctx))
}
