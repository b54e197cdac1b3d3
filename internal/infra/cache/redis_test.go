package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/astro-web3/authz-gatekeeper/internal/domain/gatekeeper"
	"github.com/astro-web3/authz-gatekeeper/internal/infra/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestTallyKey(t *testing.T) {
	day := time.Date(2026, time.March, 9, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "gatekeeper:usage:acme:20260309", cache.TallyKey("acme", day))
}

func TestTallyKey_UsesUTCDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	day := time.Date(2026, time.March, 10, 1, 0, 0, 0, tokyo)
	assert.Equal(t, "gatekeeper:usage:acme:20260309", cache.TallyKey("acme", day))
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := cache.NewRedisClient("not a redis url", 4)
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := cache.NewRedisClient("redis://"+mr.Addr()+"/0", 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 4, client.Options().PoolSize)
}

func TestUsageTally_IncrementAndCount(t *testing.T) {
	_, client := newTestRedis(t)
	tally := cache.NewUsageTally(client, 0)
	ctx := context.Background()
	day := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)

	for range 2 {
		require.NoError(t, tally.Increment(ctx, gatekeeper.NewRequest("acme", "GET", "/question"), day))
	}
	require.NoError(t, tally.Increment(ctx, gatekeeper.NewRequest("globex", "GET", "/question"), day))

	n, err := tally.Count(ctx, "acme", day)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = tally.Count(ctx, "acme", day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, n, "counters are per day")
}

func TestUsageTally_UnknownTenantCountsZero(t *testing.T) {
	_, client := newTestRedis(t)
	tally := cache.NewUsageTally(client, time.Hour)

	n, err := tally.Count(context.Background(), "nobody", time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUsageTally_Retention(t *testing.T) {
	day := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)
	key := cache.TallyKey("acme", day)

	tests := []struct {
		name      string
		retention time.Duration
		wantTTL   time.Duration
	}{
		{name: "expires after retention", retention: 48 * time.Hour, wantTTL: 48 * time.Hour},
		{name: "zero keeps forever", retention: 0, wantTTL: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, client := newTestRedis(t)
			tally := cache.NewUsageTally(client, tt.retention)

			require.NoError(t, tally.Increment(context.Background(), gatekeeper.NewRequest("acme", "GET", "/"), day))

			assert.Equal(t, tt.wantTTL, mr.TTL(key))
		})
	}
}

func TestUsageTally_RedisDown(t *testing.T) {
	mr, client := newTestRedis(t)
	tally := cache.NewUsageTally(client, 0)
	mr.Close()

	err := tally.Increment(context.Background(), gatekeeper.NewRequest("acme", "GET", "/"), time.Now())
	assert.Error(t, err)

	_, err = tally.Count(context.Background(), "acme", time.Now())
	assert.Error(t, err)
}
