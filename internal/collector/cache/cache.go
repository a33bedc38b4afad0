// Package cache is a Redis read-through cache in front of a price provider.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/newthinker/pairscope/internal/collector"
	"github.com/newthinker/pairscope/internal/core"
)

// Lookup results reported to the observer.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Cache wraps a Provider and stores fetched histories in Redis.
type Cache struct {
	next    collector.Provider
	client  *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
	observe func(result string)
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithObserver registers a callback invoked with the result of every lookup.
func WithObserver(fn func(result string)) Option {
	return func(c *Cache) { c.observe = fn }
}

// New creates a cache in front of next.
func New(next collector.Provider, client *redis.Client, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		next:    next,
		client:  client,
		ttl:     ttl,
		logger:  zap.NewNop(),
		observe: func(string) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (c *Cache) Name() string {
	return c.next.Name()
}

// Route implements collector.Router by asking the wrapped provider.
func (c *Cache) Route(symbol string) (collector.Provider, error) {
	if r, ok := c.next.(collector.Router); ok {
		return r.Route(symbol)
	}
	return c.next, nil
}

// Key returns the cache key of one history request.
func Key(symbol string, start, end time.Time) string {
	return fmt.Sprintf("pairscope:history:%s:%s:%s",
		strings.ToUpper(symbol), start.Format(time.DateOnly), end.Format(time.DateOnly))
}

// FetchHistory serves from Redis when possible. Redis failures degrade to a
// direct fetch; provider errors are never cached.
func (c *Cache) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	key := Key(symbol, start, end)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var s core.PriceSeries
		uerr := json.Unmarshal(data, &s)
		if uerr == nil {
			c.observe(ResultHit)
			return s, nil
		}
		c.logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(uerr))
		c.observe(ResultError)
	case errors.Is(err, redis.Nil):
		c.observe(ResultMiss)
	default:
		c.logger.Warn("price cache unavailable", zap.String("key", key), zap.Error(err))
		c.observe(ResultError)
	}

	s, err := c.next.FetchHistory(ctx, symbol, start, end)
	if err != nil {
		return core.PriceSeries{}, err
	}

	if payload, merr := json.Marshal(s); merr == nil {
		if serr := c.client.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.logger.Warn("failed to store price history", zap.String("key", key), zap.Error(serr))
		}
	}
	return s, nil
}
