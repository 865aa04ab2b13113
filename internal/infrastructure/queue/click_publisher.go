// Package queue wraps the Redis Streams click-events queue the Redirect
// Handler's detached task enqueues onto and the Click Log Writer consumes
// from.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"shortcut/internal/core/domain/click"
	"shortcut/internal/infrastructure/database"
)

// ClickPublisher enqueues enriched click events for asynchronous
// aggregation. Publish failures are the caller's to log and swallow — the
// redirect path never fails on a downstream queue error.
type ClickPublisher struct {
	redis      *database.RedisDB
	streamName string
	maxLength  int64
}

// NewClickPublisher builds a publisher against the fixed click-events stream.
func NewClickPublisher(redis *database.RedisDB, streamName string, maxLength int64) *ClickPublisher {
	return &ClickPublisher{redis: redis, streamName: streamName, maxLength: maxLength}
}

// Publish enqueues a single click event as one Redis Streams message.
func (p *ClickPublisher) Publish(ctx context.Context, evt *click.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal click event: %w", err)
	}

	return p.redis.Client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.streamName,
		MaxLen: p.maxLength,
		Approx: true,
		Values: map[string]interface{}{"data": string(data)},
	}).Err()
}
