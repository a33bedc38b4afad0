package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/pairscope/internal/collector"
	"github.com/newthinker/pairscope/internal/core"
)

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) Name() string { return "counting" }
func (p *countingProvider) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	p.calls++
	if p.err != nil {
		return core.PriceSeries{}, p.err
	}
	return core.PriceSeries{Symbol: symbol, Points: []core.PricePoint{
		{Date: start, Close: 10.5, Valid: true},
		{Date: start.AddDate(0, 0, 1)},
	}}, nil
}

// setupTestRedis creates a test Redis instance using miniredis
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	s, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() {
		client.Close()
		s.Close()
	})
	return s, client
}

type recorder struct {
	mu      sync.Mutex
	results []string
}

func (r *recorder) observe(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

var (
	start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
)

func TestCache_ReadThrough(t *testing.T) {
	mr, client := setupTestRedis(t)
	next := &countingProvider{}
	rec := &recorder{}
	c := New(next, client, time.Hour, WithObserver(rec.observe))

	first, err := c.FetchHistory(context.Background(), "KO", start, end)
	require.NoError(t, err)
	second, err := c.FetchHistory(context.Background(), "KO", start, end)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first.Symbol, second.Symbol)
	assert.Equal(t, first.Points[0].Close, second.Points[0].Close)
	assert.True(t, first.Points[0].Date.Equal(second.Points[0].Date))
	assert.False(t, second.Points[1].Valid)
	assert.Equal(t, []string{ResultMiss, ResultHit}, rec.results)

	assert.True(t, mr.Exists(Key("KO", start, end)))
	assert.Equal(t, time.Hour, mr.TTL(Key("KO", start, end)))

	mr.FastForward(2 * time.Hour)
	_, err = c.FetchHistory(context.Background(), "KO", start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	mr, client := setupTestRedis(t)
	next := &countingProvider{err: core.ErrSymbolNotFound}
	c := New(next, client, time.Hour)

	_, err := c.FetchHistory(context.Background(), "NOPE", start, end)
	assert.ErrorIs(t, err, core.ErrSymbolNotFound)
	assert.False(t, mr.Exists(Key("NOPE", start, end)))
}

func TestCache_RedisDownFallsThrough(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	next := &countingProvider{}
	rec := &recorder{}
	c := New(next, client, time.Hour, WithObserver(rec.observe))

	s, err := c.FetchHistory(context.Background(), "KO", start, end)
	require.NoError(t, err)
	assert.Equal(t, "KO", s.Symbol)
	assert.Equal(t, []string{ResultError}, rec.results)
}

func TestCache_CorruptEntry(t *testing.T) {
	mr, client := setupTestRedis(t)
	require.NoError(t, mr.Set(Key("KO", start, end), "{not json"))

	next := &countingProvider{}
	c := New(next, client, time.Hour)

	_, err := c.FetchHistory(context.Background(), "KO", start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestNewClient(t *testing.T) {
	mr, _ := setupTestRedis(t)

	client, err := NewClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	defer client.Close()

	_, err = NewClient(context.Background(), "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}

func TestKey_CaseInsensitive(t *testing.T) {
	assert.Equal(t, Key("ko", start, end), Key("KO", start, end))
	assert.NotEqual(t, Key("KO", start, end), Key("KO", start, end.AddDate(0, 0, 1)))
}

func TestCache_RoutesThroughRegistry(t *testing.T) {
	_, client := setupTestRedis(t)

	reg := collector.NewRegistry("counting")
	reg.Register(&countingProvider{})
	c := New(reg, client, time.Hour)

	p, err := c.Route("PEP")
	require.NoError(t, err)
	assert.Equal(t, "counting", p.Name())

	plain := New(&countingProvider{}, client, time.Hour)
	p, err = plain.Route("PEP")
	require.NoError(t, err)
	assert.Equal(t, "counting", p.Name())
}
