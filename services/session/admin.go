package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AdminManager is the stricter variant guarding the back-office.
type AdminManager struct {
	*Manager
	now func() time.Time
}

func NewAdminManager(store Store, bus *Bus, logger *zap.Logger) *AdminManager {
	return &AdminManager{
		Manager: NewManager(AdminTokenKey, store, bus, logger),
		now:     time.Now,
	}
}

// IsValidToken applies the admin checks to token at the current time.
func (a *AdminManager) IsValidToken(token string) bool {
	return IsValidToken(token, a.now())
}

// CheckAuth validates the stored admin token and clears it when it no longer passes.
func (a *AdminManager) CheckAuth(ctx context.Context) bool {
	token := a.GetToken(ctx)
	if token == "" {
		return false
	}
	if a.IsValidToken(token) {
		return true
	}
	a.logger.Info("session: clearing invalid admin token")
	if err := a.RemoveToken(ctx); err != nil {
		a.logger.Warn("session: failed to clear admin token", zap.Error(err))
	}
	return false
}
