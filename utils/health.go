package utils

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HealthStatus represents current status of the portal's dependencies.
// A nil pointer means the dependency is not configured.
type HealthStatus struct {
	Backend   bool      `json:"backend"`
	Mongo     *bool     `json:"mongo,omitempty"`
	Redis     *bool     `json:"redis,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// HealthTargets are the dependencies probed by StartHealthMonitor; nil clients are skipped.
type HealthTargets struct {
	BackendURL string
	Redis      *redis.Client
	Mongo      *mongo.Client
}

// StartHealthMonitor probes dependencies every interval until ctx is done.
func StartHealthMonitor(ctx context.Context, t HealthTargets, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			checkHealth(ctx, t)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func checkHealth(ctx context.Context, t HealthTargets) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := HealthStatus{CheckedAt: time.Now()}

	// Any HTTP answer means the backend is reachable.
	if req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.BackendURL, nil); err == nil {
		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
			status.Backend = true
		}
	}
	if t.Redis != nil {
		up := t.Redis.Ping(ctx).Err() == nil
		status.Redis = &up
	}
	if t.Mongo != nil {
		up := t.Mongo.Ping(ctx, nil) == nil
		status.Mongo = &up
	}
	if !status.Backend {
		GetLogger().Warn("Health check: backend unreachable", zap.String("url", t.BackendURL))
	}

	mu.Lock()
	currentHealth = status
	mu.Unlock()
}
