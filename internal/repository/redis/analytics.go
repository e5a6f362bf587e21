package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deeppgcsca037/Rating-Prediction-Backend/internal/domain"
)

const (
	statsKey      = "feedback:analytics:stats"
	generationKey = "feedback:analytics:gen"
)

type cachedStats struct {
	Generation   int64       `json:"generation"`
	Total        int         `json:"total"`
	Sum          int         `json:"sum"`
	LowCount     int         `json:"low_count"`
	HighCount    int         `json:"high_count"`
	Distribution map[int]int `json:"distribution"`
}

// AnalyticsCache implements repository.AnalyticsCache using Redis. A counter
// key tracks the generation; stats stored under an older generation count as
// a miss, so a dashboard read racing a new review cannot pin a stale
// aggregate until the TTL runs out.
type AnalyticsCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewAnalyticsCache creates a Redis-backed analytics cache. Entries expire
// after ttl even without an explicit invalidation.
func NewAnalyticsCache(client redis.Cmdable, ttl time.Duration) *AnalyticsCache {
	return &AnalyticsCache{client: client, ttl: ttl}
}

// Get returns the cached aggregate and the current generation.
func (c *AnalyticsCache) Get(ctx context.Context) (*domain.RatingStats, int64, error) {
	vals, err := c.client.MGet(ctx, generationKey, statsKey).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis get analytics: %w", err)
	}

	gen, err := parseGeneration(vals[0])
	if err != nil {
		return nil, 0, err
	}

	raw, ok := vals[1].(string)
	if !ok {
		return nil, gen, nil
	}

	var cs cachedStats
	if err := json.Unmarshal([]byte(raw), &cs); err != nil {
		return nil, gen, fmt.Errorf("unmarshal analytics: %w", err)
	}
	if cs.Generation != gen {
		return nil, gen, nil
	}
	if cs.Distribution == nil {
		cs.Distribution = map[int]int{}
	}
	return &domain.RatingStats{
		Total:        cs.Total,
		Sum:          cs.Sum,
		LowCount:     cs.LowCount,
		HighCount:    cs.HighCount,
		Distribution: cs.Distribution,
	}, gen, nil
}

// Set stores stats under gen with the configured TTL.
func (c *AnalyticsCache) Set(ctx context.Context, gen int64, stats *domain.RatingStats) error {
	data, err := json.Marshal(cachedStats{
		Generation:   gen,
		Total:        stats.Total,
		Sum:          stats.Sum,
		LowCount:     stats.LowCount,
		HighCount:    stats.HighCount,
		Distribution: stats.Distribution,
	})
	if err != nil {
		return fmt.Errorf("marshal analytics: %w", err)
	}

	if err := c.client.Set(ctx, statsKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set analytics: %w", err)
	}
	return nil
}

// Invalidate advances the generation and drops the cached aggregate.
func (c *AnalyticsCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, statsKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate analytics: %w", err)
	}
	return nil
}

func parseGeneration(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	gen, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse analytics generation %q: %w", s, err)
	}
	return gen, nil
}
