package snapshotRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loadly/database"
	"loadly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSnapshotRepo implements SnapshotRepository using MongoDB.
type MongoSnapshotRepo struct {
	coll *mongo.Collection
}

// NewMongoSnapshotRepo creates a SnapshotRepository backed by the "dashboard_snapshots" collection.
func NewMongoSnapshotRepo() SnapshotRepository {
	coll := database.Database().Collection("dashboard_snapshots")
	repo := &MongoSnapshotRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoSnapshotRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "generated_at", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoSnapshotRepo) Save(ctx context.Context, stats models.DashboardStats) error {
	if stats.GeneratedAt.IsZero() {
		stats.GeneratedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, stats); err != nil {
		return fmt.Errorf("failed to save dashboard snapshot: %w", err)
	}
	return nil
}

func (r *MongoSnapshotRepo) Latest(ctx context.Context) (*models.DashboardStats, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "generated_at", Value: -1}})
	var stats models.DashboardStats
	err := r.coll.FindOne(ctx, bson.M{}, opts).Decode(&stats)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest dashboard snapshot: %w", err)
	}
	return &stats, nil
}

func (r *MongoSnapshotRepo) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "generated_at", Value: -1}}).
		SetSkip(int64(keep - 1)).
		SetLimit(1).
		SetProjection(bson.M{"generated_at": 1})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to locate prune boundary: %w", err)
	}
	defer cur.Close(ctx)

	var boundary []struct {
		GeneratedAt time.Time `bson:"generated_at"`
	}
	if err := cur.All(ctx, &boundary); err != nil {
		return 0, fmt.Errorf("failed to decode prune boundary: %w", err)
	}
	if len(boundary) == 0 {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"generated_at": bson.M{"$lt": boundary[0].GeneratedAt}})
	if err != nil {
		return 0, fmt.Errorf("failed to prune dashboard snapshots: %w", err)
	}
	return res.DeletedCount, nil
}
