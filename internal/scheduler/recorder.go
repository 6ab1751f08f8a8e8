package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leonixyz/oncalendar/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Sorted set of replay keys scored by scheduled time
	replayKey = "replay"
	// Hash of replay key -> serialized ReplayItem
	replayDataKey = "replay:data"
)

// Recorder is the Redis side of the catch-up pipeline: occurrences the
// auditor finds are queued here, then drained by the notifier oldest
// first.
type Recorder struct {
	redis  *redis.Client
	logger *zap.Logger
	prefix string
}

func NewRecorder(redis *redis.Client, logger *zap.Logger, prefix string) *Recorder {
	return &Recorder{
		redis:  redis,
		logger: logger,
		prefix: prefix,
	}
}

func (r *Recorder) replayMember(item *models.ReplayItem) string {
	return fmt.Sprintf("%s:%d", item.ScheduleID.String(), item.ScheduledAt.Unix())
}

// Enqueue adds a replay item using an idempotent deterministic key, so
// repeated sweeps over the same window never queue a run twice.
func (r *Recorder) Enqueue(ctx context.Context, item *models.ReplayItem) error {
	member := r.replayMember(item)

	exists, err := r.redis.HExists(ctx, r.prefix+replayDataKey, member).Result()
	if err != nil {
		return fmt.Errorf("failed to check replay existence: %w", err)
	}
	if exists {
		return nil
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal replay item: %w", err)
	}

	score := float64(item.ScheduledAt.Unix())
	if err := r.redis.ZAdd(ctx, r.prefix+replayKey, redis.Z{
		Score:  score,
		Member: member,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add replay item to sorted set: %w", err)
	}
	if err := r.redis.HSet(ctx, r.prefix+replayDataKey, member, data).Err(); err != nil {
		return fmt.Errorf("failed to add replay item to hash: %w", err)
	}
	return nil
}

// Drain pops up to limit replay items, oldest scheduled time first.
// Items are removed from Redis as they are returned.
func (r *Recorder) Drain(ctx context.Context, limit int) ([]*models.ReplayItem, error) {
	members, err := r.redis.ZRangeByScore(ctx, r.prefix+replayKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "+inf",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read replay queue: %w", err)
	}

	var items []*models.ReplayItem
	for _, member := range members {
		data, err := r.redis.HGet(ctx, r.prefix+replayDataKey, member).Result()
		if err == redis.Nil {
			r.redis.ZRem(ctx, r.prefix+replayKey, member)
			continue
		} else if err != nil {
			return items, fmt.Errorf("failed to get replay data: %w", err)
		}

		var item models.ReplayItem
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			r.logger.Warn("Dropping malformed replay item", zap.String("member", member), zap.Error(err))
			r.redis.ZRem(ctx, r.prefix+replayKey, member)
			r.redis.HDel(ctx, r.prefix+replayDataKey, member)
			continue
		}

		if err := r.redis.ZRem(ctx, r.prefix+replayKey, member).Err(); err != nil {
			return items, fmt.Errorf("failed to remove replay item from sorted set: %w", err)
		}
		if err := r.redis.HDel(ctx, r.prefix+replayDataKey, member).Err(); err != nil {
			return items, fmt.Errorf("failed to remove replay item from hash: %w", err)
		}
		items = append(items, &item)
	}

	return items, nil
}

// Remove deletes a queued replay item, if present.
func (r *Recorder) Remove(ctx context.Context, item *models.ReplayItem) error {
	member := r.replayMember(item)
	if err := r.redis.ZRem(ctx, r.prefix+replayKey, member).Err(); err != nil {
		return fmt.Errorf("failed to remove replay item from sorted set: %w", err)
	}
	if err := r.redis.HDel(ctx, r.prefix+replayDataKey, member).Err(); err != nil {
		return fmt.Errorf("failed to remove replay item from hash: %w", err)
	}
	return nil
}

// Pending returns the number of queued replay items.
func (r *Recorder) Pending(ctx context.Context) (int64, error) {
	return r.redis.ZCard(ctx, r.prefix+replayKey).Result()
}
