package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/crickline/scoring-service/pkg/models"
)

// ChangeStream is the Redis stream every scoring change is published to
const ChangeStream = "scoring.changes"

// StreamPublisher publishes change notifications to a Redis stream. The
// notification carries ids only; consumers re-fetch full state.
type StreamPublisher struct {
	client *redis.Client
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client *redis.Client) *StreamPublisher {
	return &StreamPublisher{
		client: client,
	}
}

// PublishChange publishes a change notification
func (p *StreamPublisher) PublishChange(ctx context.Context, n models.ChangeNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshaling change notification: %w", err)
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: ChangeStream,
		Values: map[string]interface{}{
			"data":     string(data),
			"type":     n.Type,
			"match_id": n.MatchID,
		},
	}).Err()
}
