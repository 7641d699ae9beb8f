package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

const ttl = constants.StatsCacheTTLHours * time.Hour

// Redis stores one hash per habit: field YYYY-MM-DD, value the JSON stats.
// Invalidation deletes the whole hash.
type Redis struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func habitKey(habitID string) string {
	return constants.AppName + ":stats:" + habitID
}

func (r *Redis) Get(ctx context.Context, habitID string, day time.Time) (models.HabitStats, bool, error) {
	raw, err := r.client.HGet(ctx, habitKey(habitID), utils.FormatDate(day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.HabitStats{}, false, nil
	}
	if err != nil {
		return models.HabitStats{}, false, err
	}

	var st models.HabitStats
	if err := json.Unmarshal(raw, &st); err != nil {
		return models.HabitStats{}, false, fmt.Errorf("corrupt stats entry for %s: %w", habitID, err)
	}
	return st, true, nil
}

func (r *Redis) Set(ctx context.Context, st models.HabitStats) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	key := habitKey(st.HabitID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, utils.FormatDate(st.AsOf), raw)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (r *Redis) Invalidate(ctx context.Context, habitID string) error {
	return r.client.Del(ctx, habitKey(habitID)).Err()
}

func (r *Redis) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
