package database

import (
	"context"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/finsight/finsight-go/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	client := &RedisClient{Client: redis.NewClient(&redis.Options{Addr: mini.Addr()})}
	t.Cleanup(client.Close)
	return client, mini
}

func miniRedisConfig(t *testing.T, mini *miniredis.Miniredis) config.RedisConfig {
	t.Helper()
	port, err := strconv.Atoi(mini.Port())
	require.NoError(t, err)
	return config.RedisConfig{Host: mini.Host(), Port: port}
}

func TestNewRedisConnection(t *testing.T) {
	mini := miniredis.RunT(t)

	client, err := NewRedisConnection(context.Background(), miniRedisConfig(t, mini), testLogger())
	require.NoError(t, err)
	t.Cleanup(client.Close)

	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestNewRedisConnectionUnreachable(t *testing.T) {
	mini := miniredis.RunT(t)
	cfg := miniRedisConfig(t, mini)
	mini.Close()

	_, err := NewRedisConnection(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestRedisClientSetGet(t *testing.T) {
	client, mini := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "dataset:ACME", "payload", time.Minute))

	value, err := client.Get(ctx, "dataset:ACME")
	require.NoError(t, err)
	assert.Equal(t, "payload", value)

	// Entries expire with their TTL.
	mini.FastForward(2 * time.Minute)
	_, err = client.Get(ctx, "dataset:ACME")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRedisClientGetMissingKey(t *testing.T) {
	client, _ := newTestRedis(t)

	_, err := client.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRedisClientDelete(t *testing.T) {
	client, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "a", "1", 0))
	require.NoError(t, client.Set(ctx, "b", "2", 0))
	require.NoError(t, client.Delete(ctx, "a", "b"))

	_, err := client.Get(ctx, "a")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRedisClientHealthCheck(t *testing.T) {
	client, mini := newTestRedis(t)

	require.NoError(t, client.HealthCheck(context.Background()))

	mini.Close()
	assert.Error(t, client.HealthCheck(context.Background()))
}
