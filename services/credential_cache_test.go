package services_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/siparist/services"
)

func exerciseCache(t *testing.T, cache services.CredentialCache) {
	ctx := context.Background()
	got, err := cache.Get(ctx, "client-x")
	require.NoError(t, err)
	assert.Nil(t, got)

	creds := services.Credentials{TableID: "5", CustomerName: "Ayse", SessionID: "s-1", CachedAt: fixedNow}
	require.NoError(t, cache.Set(ctx, "client-x", creds))
	got, err = cache.Get(ctx, "client-x")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s-1", got.SessionID)
	assert.True(t, got.CachedAt.Equal(fixedNow))

	require.NoError(t, cache.Delete(ctx, "client-x"))
	got, err = cache.Get(ctx, "client-x")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryCredentialCache(t *testing.T) {
	cache := services.NewMemoryCredentialCache(time.Hour)
	exerciseCache(t, cache)

	now := fixedNow
	cache.Now = func() time.Time { return now }
	require.NoError(t, cache.Set(context.Background(), "c", services.Credentials{SessionID: "s"}))
	now = now.Add(time.Hour)
	got, err := cache.Get(context.Background(), "c")
	require.NoError(t, err)
	assert.Nil(t, got, "entry should expire after the ttl")
}

func TestRedisCredentialCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	exerciseCache(t, services.NewRedisCredentialCache(client, time.Minute))
}

func TestNewCredentialCacheFallsBackToMemory(t *testing.T) {
	_, ok := services.NewCredentialCache(nil, time.Minute).(*services.MemoryCredentialCache)
	assert.True(t, ok)
}
