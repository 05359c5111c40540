// File: loadly/handlers/bundle.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"loadly/services/admin"
	"loadly/services/api"
	"loadly/services/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Backend describes how handlers reach the logistics API.
type Backend struct {
	BaseURL string
	Timeout time.Duration
	Limiter *rate.Limiter
}

// ClientFor builds an API client authenticated with tokens (nil for anonymous calls).
func (b Backend) ClientFor(tokens api.TokenSource, logger *zap.Logger) *api.Client {
	return api.NewClient(b.BaseURL, tokens, b.Timeout, b.Limiter, logger)
}

// HandlerBundle groups the portal's endpoint handlers.
type HandlerBundle struct {
	Auth   *AuthHandler
	Driver *DriverHandler
	Admin  *AdminHandler
}

// NewHandlerBundle wires every handler against one backend.
func NewHandlerBundle(backend Backend, snapshots admin.SnapshotStore, refresh time.Duration, secureCookies bool) *HandlerBundle {
	return &HandlerBundle{
		Auth:   NewAuthHandler(backend, secureCookies),
		Driver: NewDriverHandler(backend),
		Admin:  NewAdminHandler(backend, snapshots, refresh, secureCookies),
	}
}

// watchable is implemented by stores that relay writes made by other processes.
type watchable interface {
	Watch(ctx context.Context, bus *session.Bus, logger *zap.Logger) error
}

// watchSession relays writes made by other requests of the session onto its bus until ctx is done.
func watchSession(ctx context.Context, sess *session.Session, logger *zap.Logger) {
	w, ok := sess.Store.(watchable)
	if !ok {
		return
	}
	go func() {
		if err := w.Watch(ctx, sess.Bus, logger); err != nil {
			logger.Warn("Session watch stopped", zap.Error(err))
		}
	}()
}

// openStream commits the event-stream headers so clients see the response before the first event.
func openStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()
}
