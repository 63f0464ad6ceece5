package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crickline/scoring-service/internal/store"
	"github.com/crickline/scoring-service/pkg/models"
)

// TTL constants
const (
	LiveSnapshotTTL      = 2 * time.Hour
	CompletedSnapshotTTL = 6 * time.Hour
	PointsTableTTL       = 24 * time.Hour
)

const pointsTableKey = "tournament:points_table"

// RedisWriter projects read models into Redis after every committed scoring
// mutation. The database stays authoritative; a missing or stale key only
// costs a re-fetch.
type RedisWriter struct {
	client *redis.Client
}

// NewRedisWriter creates a new Redis writer
func NewRedisWriter(client *redis.Client) *RedisWriter {
	return &RedisWriter{
		client: client,
	}
}

// WriteInningsSnapshot stores the full live-scoring view for a match
func (w *RedisWriter) WriteInningsSnapshot(ctx context.Context, view *store.CurrentInningsView) error {
	key := snapshotKey(view.Match.ID)

	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshaling innings snapshot: %w", err)
	}

	ttl := LiveSnapshotTTL
	if view.Match.Status == models.MatchCompleted {
		ttl = CompletedSnapshotTTL
	}
	return w.client.Set(ctx, key, data, ttl).Err()
}

// ReadInningsSnapshot retrieves the live-scoring view for a match
func (w *RedisWriter) ReadInningsSnapshot(ctx context.Context, matchID string) (*store.CurrentInningsView, error) {
	data, err := w.client.Get(ctx, snapshotKey(matchID)).Result()
	if err != nil {
		return nil, err
	}

	var view store.CurrentInningsView
	if err := json.Unmarshal([]byte(data), &view); err != nil {
		return nil, fmt.Errorf("unmarshaling innings snapshot: %w", err)
	}
	return &view, nil
}

// DeleteInningsSnapshot drops a match's snapshot, e.g. when the match is
// deleted
func (w *RedisWriter) DeleteInningsSnapshot(ctx context.Context, matchID string) error {
	return w.client.Del(ctx, snapshotKey(matchID)).Err()
}

// WritePointsTable stores the computed standings
func (w *RedisWriter) WritePointsTable(ctx context.Context, table []models.PointsTableRow) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("marshaling points table: %w", err)
	}
	return w.client.Set(ctx, pointsTableKey, data, PointsTableTTL).Err()
}

// ReadPointsTable retrieves the cached standings
func (w *RedisWriter) ReadPointsTable(ctx context.Context) ([]models.PointsTableRow, error) {
	data, err := w.client.Get(ctx, pointsTableKey).Result()
	if err != nil {
		return nil, err
	}

	var table []models.PointsTableRow
	if err := json.Unmarshal([]byte(data), &table); err != nil {
		return nil, fmt.Errorf("unmarshaling points table: %w", err)
	}
	return table, nil
}

// InvalidatePointsTable drops the cached standings so the next read
// recomputes them
func (w *RedisWriter) InvalidatePointsTable(ctx context.Context) error {
	return w.client.Del(ctx, pointsTableKey).Err()
}

func snapshotKey(matchID string) string {
	return fmt.Sprintf("match:%s:innings", matchID)
}
