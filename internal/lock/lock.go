// Package lock guards company-wide batch operations against overlapping runs
// from several server or CLI processes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultTTL bounds how long a crashed holder can block others.
const DefaultTTL = 30 * time.Second

// ErrLocked is returned when another holder owns the lock.
var ErrLocked = errors.New("operation already running for this company")

// Locker runs fn while holding the named lock for one company.
type Locker interface {
	WithCompanyLock(ctx context.Context, companyID int, name string, fn func(ctx context.Context) error) error
	Close() error
}

// Key formats the Redis key of a company lock.
func Key(name string, companyID int) string {
	return fmt.Sprintf("%s:%d", name, companyID)
}

type redisLocker struct {
	client *redis.Client
	locker *redislock.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisLocker connects to redisURL (redis://host:port/db). An empty URL
// returns a locker that never blocks, for single-process deployments.
func NewRedisLocker(ctx context.Context, redisURL string, log zerolog.Logger) (Locker, error) {
	if redisURL == "" {
		log.Warn().Msg("REDIS_URL not set; company locks are process-local no-ops")
		return Noop(), nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to ping redis at %s: %w", opts.Addr, err)
	}
	log.Info().Str("addr", opts.Addr).Msg("connected to redis")
	return &redisLocker{client: client, locker: redislock.New(client), ttl: DefaultTTL, log: log}, nil
}

func (l *redisLocker) WithCompanyLock(ctx context.Context, companyID int, name string, fn func(ctx context.Context) error) error {
	key := Key(name, companyID)
	lk, err := l.locker.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		l.log.Warn().Str("key", key).Msg("could not obtain lock")
		return ErrLocked
	} else if err != nil {
		return fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}
	defer func() {
		if err := lk.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Error().Err(err).Str("key", key).Msg("failed to release lock")
		}
	}()
	return fn(ctx)
}

func (l *redisLocker) Close() error {
	return l.client.Close()
}

type noopLocker struct{}

// Noop returns a Locker that always runs fn.
func Noop() Locker {
	return noopLocker{}
}

func (noopLocker) WithCompanyLock(ctx context.Context, _ int, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (noopLocker) Close() error { return nil }
