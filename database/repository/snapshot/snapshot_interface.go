package snapshotRepo

import (
	"context"

	"loadly/models"
)

// SnapshotRepository persists aggregated admin dashboard stats.
type SnapshotRepository interface {
	Save(ctx context.Context, stats models.DashboardStats) error
	// Latest returns nil, nil when no snapshot exists.
	Latest(ctx context.Context) (*models.DashboardStats, error)
	// Prune removes snapshots beyond the newest keep entries.
	Prune(ctx context.Context, keep int) (int64, error)
}
