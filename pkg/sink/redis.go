package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBadgeTTL bounds how long badges outlive the run that wrote them.
const DefaultBadgeTTL = 24 * time.Hour

// RedisBadges keeps contest badges in a Redis hash so a page or another process can
// display them while a run is still in progress.
type RedisBadges struct {
	redis  *redis.Client
	key    string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisBadges stores badges in the hash "<prefix>:badges".
func NewRedisBadges(redisClient *redis.Client, prefix string, ttl time.Duration) *RedisBadges {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if prefix == "" {
		prefix = "contest-status"
	}
	if ttl <= 0 {
		ttl = DefaultBadgeTTL
	}
	return &RedisBadges{
		redis:  redisClient,
		key:    prefix + ":badges",
		ttl:    ttl,
		logger: log.With().Str("component", "sink").Str("sink", "redis").Logger(),
	}
}

// Key returns the hash the badges are written to.
func (r *RedisBadges) Key() string {
	return r.key
}

// MarkLoading implements LoadingMarker.
func (r *RedisBadges) MarkLoading(ctx context.Context, contestSlug string) error {
	return r.set(ctx, contestSlug, LoadingBadge)
}

// Annotate implements Annotator.
func (r *RedisBadges) Annotate(ctx context.Context, contestSlug string, solved, total int) error {
	return r.set(ctx, contestSlug, Badge(solved, total))
}

// Badge returns the stored badge of a contest, or "" when none is stored.
func (r *RedisBadges) Badge(ctx context.Context, contestSlug string) (string, error) {
	badge, err := r.redis.HGet(ctx, r.key, contestSlug).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis hget: %w", err)
	}
	return badge, nil
}

// Badges returns all stored badges keyed by contest slug.
func (r *RedisBadges) Badges(ctx context.Context) (map[string]string, error) {
	badges, err := r.redis.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	return badges, nil
}

func (r *RedisBadges) set(ctx context.Context, contestSlug, badge string) error {
	pipe := r.redis.TxPipeline()
	pipe.HSet(ctx, r.key, contestSlug, badge)
	pipe.Expire(ctx, r.key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		annotationsTotal.WithLabelValues("redis", "error").Inc()
		return fmt.Errorf("redis badge %s: %w", contestSlug, err)
	}

	annotationsTotal.WithLabelValues("redis", "ok").Inc()
	r.logger.Debug().
		Str("contest", contestSlug).
		Str("badge", badge).
		Msg("Badge written")
	return nil
}
