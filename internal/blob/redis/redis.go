// Package redis stores blob values in Redis and hands out best-effort locks
// through redislock.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultLockTTL bounds how long a lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

type Options struct {
	Address  string
	Password string
	DB       int
	// Prefix is prepended to every key.
	Prefix  string
	LockTTL time.Duration
}

type Store struct {
	rdb     goredis.UniversalClient
	locker  *redislock.Client
	prefix  string
	lockTTL time.Duration
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Address == "" {
		opts.Address = "localhost:6379"
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Address, err)
	}
	return NewWithClient(rdb, opts), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb goredis.UniversalClient, opts Options) *Store {
	ttl := opts.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &Store{
		rdb:     rdb,
		locker:  redislock.New(rdb),
		prefix:  opts.Prefix,
		lockTTL: ttl,
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Lock obtains "lock:<key>" for the configured TTL without retrying.
func (s *Store) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := s.locker.Obtain(ctx, s.prefix+"lock:"+key, s.lockTTL, nil)
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func() {
		_ = lock.Release(context.Background())
	}, nil
}

// ErrLockNotObtained reports that another holder owns the lock.
var ErrLockNotObtained = redislock.ErrNotObtained

func (s *Store) Close() error {
	return s.rdb.Close()
}
