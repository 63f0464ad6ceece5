package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crickline/scoring-service/pkg/models"
)

const (
	// Batch size for reading messages
	batchSize = 100

	// Block duration when waiting for new messages
	blockDuration = 1 * time.Second
)

// Broadcaster receives consumed change notifications, typically the
// WebSocket hub
type Broadcaster interface {
	Broadcast(n models.ChangeNotification)
}

// StreamConsumer consumes change notifications from the Redis stream and
// hands them to the broadcaster
type StreamConsumer struct {
	redis         *redis.Client
	broadcaster   Broadcaster
	consumerGroup string
	consumerID    string
}

// NewStreamConsumer creates a new stream consumer
func NewStreamConsumer(redisClient *redis.Client, b Broadcaster, group, id string) *StreamConsumer {
	return &StreamConsumer{
		redis:         redisClient,
		broadcaster:   b,
		consumerGroup: group,
		consumerID:    id,
	}
}

// Start begins consuming the change stream until the context is cancelled
func (sc *StreamConsumer) Start(ctx context.Context) error {
	fmt.Println("[Notifier] Stream consumer started")

	sc.createConsumerGroup(ctx)
	go sc.consume(ctx)

	<-ctx.Done()
	return nil
}

func (sc *StreamConsumer) createConsumerGroup(ctx context.Context) {
	err := sc.redis.XGroupCreateMkStream(ctx, ChangeStream, sc.consumerGroup, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		fmt.Printf("[Notifier] Failed to create consumer group: %v\n", err)
	}
}

func (sc *StreamConsumer) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			streams, err := sc.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    sc.consumerGroup,
				Consumer: sc.consumerID,
				Streams:  []string{ChangeStream, ">"},
				Count:    batchSize,
				Block:    blockDuration,
			}).Result()

			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				fmt.Printf("[Notifier] Stream read error: %v\n", err)
				time.Sleep(1 * time.Second)
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					sc.processMessage(ctx, message)
				}
			}
		}
	}
}

func (sc *StreamConsumer) processMessage(ctx context.Context, msg redis.XMessage) {
	dataStr, ok := msg.Values["data"].(string)
	if !ok {
		fmt.Printf("[Notifier] Invalid message format: %v\n", msg.Values)
		sc.ackMessage(ctx, msg.ID)
		return
	}

	var n models.ChangeNotification
	if err := json.Unmarshal([]byte(dataStr), &n); err != nil {
		fmt.Printf("[Notifier] Failed to parse change notification: %v\n", err)
		sc.ackMessage(ctx, msg.ID)
		return
	}

	sc.broadcaster.Broadcast(n)
	sc.ackMessage(ctx, msg.ID)
}

func (sc *StreamConsumer) ackMessage(ctx context.Context, messageID string) {
	if err := sc.redis.XAck(ctx, ChangeStream, sc.consumerGroup, messageID).Err(); err != nil {
		fmt.Printf("[Notifier] Failed to ack message %s: %v\n", messageID, err)
	}
}
