package snapshotRepo

import (
	"context"
	"sync"

	"loadly/models"
)

// MemorySnapshotRepo keeps snapshots in process memory when Mongo is not configured.
type MemorySnapshotRepo struct {
	mu        sync.RWMutex
	snapshots []models.DashboardStats
}

func NewMemorySnapshotRepo() *MemorySnapshotRepo {
	return &MemorySnapshotRepo{}
}

func (r *MemorySnapshotRepo) Save(_ context.Context, stats models.DashboardStats) error {
	r.mu.Lock()
	r.snapshots = append(r.snapshots, stats)
	r.mu.Unlock()
	return nil
}

func (r *MemorySnapshotRepo) Latest(_ context.Context) (*models.DashboardStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.snapshots) == 0 {
		return nil, nil
	}
	s := r.snapshots[len(r.snapshots)-1]
	return &s, nil
}

func (r *MemorySnapshotRepo) Prune(_ context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) <= keep {
		return 0, nil
	}
	n := len(r.snapshots) - keep
	r.snapshots = append([]models.DashboardStats(nil), r.snapshots[n:]...)
	return int64(n), nil
}
