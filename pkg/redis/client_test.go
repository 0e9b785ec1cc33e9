package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/fitroom-backend/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return NewFromRaw(raw), mr
}

func TestKeysAreNamespaced(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "fr:cart:shopper-1", client.CartKey("shopper-1"))
	assert.Equal(t, "fr:counter:orders", client.CounterKey("orders"))
	assert.Equal(t, "fr:idempotency:checkout:abc", client.IdempotencyKey("checkout", "abc"))
	assert.Equal(t, "fr:idempotency:abc", client.IdempotencyKey(" ", "abc"))
	assert.Equal(t, "fr:rl:submit:shopper-1", client.RateLimitKey("submit:shopper-1"))
}

func TestSetNXOnlySetsOnce(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	set, err := client.SetNX(ctx, "k", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, set)

	set, err = client.SetNX(ctx, "k", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, set)

	value, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "first", value)
	assert.Equal(t, time.Minute, mr.TTL("k"))
}

func TestGetMissingReturnsErrNil(t *testing.T) {
	client, _ := newTestClient(t)
	_, err := client.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNil))
}

func TestNextSequenceIncrements(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	first, err := client.NextSequence(ctx, "orders")
	require.NoError(t, err)
	second, err := client.NextSequence(ctx, "orders")
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
	assert.True(t, mr.Exists("fr:counter:orders"))
}

func TestIncrWithTTLSetsExpiryOnFirstHit(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	count, err := client.IncrWithTTL(ctx, "rl", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Minute, mr.TTL("rl"))

	mr.FastForward(30 * time.Second)
	count, err = client.IncrWithTTL(ctx, "rl", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 30*time.Second, mr.TTL("rl"))

	mr.FastForward(31 * time.Second)
	count, err = client.IncrWithTTL(ctx, "rl", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIncrWithTTLRearmsCounterWithoutExpiry(t *testing.T) {
	client, mr := newTestClient(t)
	require.NoError(t, mr.Set("stuck", "4"))

	count, err := client.IncrWithTTL(context.Background(), "stuck", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
	assert.Equal(t, time.Minute, mr.TTL("stuck"))
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	assert.Error(t, client.Ping(ctx))
	assert.Error(t, client.Set(ctx, "k", "v", 0))
	assert.Error(t, client.Del(ctx, "k"))
	_, err := client.IncrWithTTL(ctx, "k", time.Minute)
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6380", DB: 3})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 3, opts.DB)
}
