package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a RedisSink.
type RedisOptions struct {
	// Addr is the Redis server address.
	Addr string
	// Password is the optional Redis password.
	Password string
	// DB is the Redis database index.
	DB int
	// Prefix is prepended to every key. Defaults to "plantnet".
	Prefix string
	// TTL is the lifetime of each stored sample and of the index. Defaults to 1 hour.
	TTL time.Duration
	// HistorySize is the number of samples kept in the index. Defaults to 100.
	HistorySize int
}

// RedisSink stores each record as a JSON value with a TTL and keeps a sorted-set index of the most
// recent HistorySize record keys per plant, scored by receive time.
type RedisSink struct {
	client      redis.UniversalClient
	prefix      string
	ttl         time.Duration
	historySize int
}

// NewRedisSink connects to Redis and checks the connection with a PING.
func NewRedisSink(ctx context.Context, opts RedisOptions) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     4,
		MinIdleConns: 1,
		MaxRetries:   3,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisSinkWithClient(client, opts), nil
}

// NewRedisSinkWithClient creates a RedisSink on an existing client. Address fields of opts are
// ignored.
func NewRedisSinkWithClient(client redis.UniversalClient, opts RedisOptions) *RedisSink {
	s := &RedisSink{
		client:      client,
		prefix:      opts.Prefix,
		ttl:         opts.TTL,
		historySize: opts.HistorySize,
	}
	if s.prefix == "" {
		s.prefix = "plantnet"
	}
	if s.ttl <= 0 {
		s.ttl = time.Hour
	}
	if s.historySize <= 0 {
		s.historySize = 100
	}

	return s
}

func (s *RedisSink) Name() string { return "redis" }

// RecordKey returns the key under which rec is stored.
func (s *RedisSink) RecordKey(rec Record) string {
	return fmt.Sprintf("%s:sample:%s:%d", s.prefix, rec.Plant, rec.Time.UnixNano())
}

// IndexKey returns the sorted-set key indexing the records of plant.
func (s *RedisSink) IndexKey(plant string) string {
	return fmt.Sprintf("%s:samples:%s", s.prefix, plant)
}

// Publish stores rec and updates the index in one transaction.
func (s *RedisSink) Publish(ctx context.Context, rec Record) error {
	data, err := rec.Marshal()
	if err != nil {
		return fmt.Errorf("%w: redis: %w", ErrPublish, err)
	}

	key := s.RecordKey(rec)
	index := s.IndexKey(rec.Plant)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, s.ttl)
	pipe.ZAdd(ctx, index, redis.Z{Score: float64(rec.Time.UnixNano()), Member: key})
	pipe.ZRemRangeByRank(ctx, index, 0, -int64(s.historySize)-1)
	pipe.Expire(ctx, index, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: redis: %w", ErrPublish, err)
	}

	return nil
}

// Close closes the Redis client.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
