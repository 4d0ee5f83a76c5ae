package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contact-stream/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// DefaultStatsPrefix é o prefixo das chaves gravadas no Redis.
const DefaultStatsPrefix = "contact:ratelimit"

// RedisStatsStore soma as decisões em hashes do Redis:
//
//	<prefix>:total               allowed / denied (cumulativo, sem TTL)
//	<prefix>:minute:YYYYMMDDhhmm allowed / denied (com TTL)
//	<prefix>:route               "<METHOD> <path>:allowed|denied"
//	<prefix>:key:<key>           allowed / denied (opcional, com TTL)
//
// Tudo vai num único pipeline por evento.
type RedisStatsStore struct {
	rdb redis.Cmdable

	prefix    string
	ttl       time.Duration
	perMinute bool
	trackKeys bool
	timeout   time.Duration
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

// WithStatsPerMinute liga/desliga a série por minuto.
func WithStatsPerMinute(on bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.perMinute = on }
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

// WithStatsTimeout limita cada pipeline; o middleware não espera o Redis além disso.
func WithStatsTimeout(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.timeout = d }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:       rdb,
		prefix:    DefaultStatsPrefix,
		ttl:       24 * time.Hour,
		perMinute: true,
		timeout:   200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)

	if s.perMinute {
		bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	if route := strings.TrimSpace(strings.TrimSpace(ev.Method) + " " + strings.TrimSpace(ev.Path)); route != "" {
		pipe.HIncrBy(ctx, s.prefix+":route", route+":"+field, 1)
	}

	if s.trackKeys {
		if k := strings.TrimSpace(string(ev.Key)); k != "" {
			keyKey := s.prefix + ":key:" + k
			pipe.HIncrBy(ctx, keyKey, field, 1)
			if s.ttl > 0 {
				pipe.Expire(ctx, keyKey, s.ttl)
			}
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record ratelimit stats: %w", err)
	}
	return nil
}
