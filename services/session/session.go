package session

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Session is the explicit token context for one browser session, shared by all its views.
type Session struct {
	ID    string
	Store Store
	Bus   *Bus
	Auth  *Manager
	Admin *AdminManager
}

func New(id string, store Store, bus *Bus, logger *zap.Logger) *Session {
	if bus == nil {
		bus = NewBus()
	}
	return &Session{
		ID:    id,
		Store: store,
		Bus:   bus,
		Auth:  NewManager(AuthTokenKey, store, bus, logger),
		Admin: NewAdminManager(store, bus, logger),
	}
}

// Role returns the display-only role hint.
func (s *Session) Role(ctx context.Context) string {
	role, err := s.Store.Get(ctx, UserRoleKey)
	if err != nil {
		return ""
	}
	return role
}

func (s *Session) SetRole(ctx context.Context, role string) error {
	return s.Store.Set(ctx, UserRoleKey, role)
}

// Clear removes every credential held by the session.
func (s *Session) Clear(ctx context.Context) error {
	return errors.Join(
		s.Auth.RemoveToken(ctx),
		s.Admin.RemoveToken(ctx),
		s.Store.Delete(ctx, UserRoleKey),
	)
}
