package database

import (
	"context"
	"testing"
	"time"

	"byteplus-functions/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	assert.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestRedisClient_SetGet(t *testing.T) {
	client, _ := newTestRedis(t)
	ctx := context.Background()

	assert.NoError(t, client.Ping(ctx))

	err := client.Set(ctx, "badge:u1", "4", time.Minute)
	assert.NoError(t, err)

	val, err := client.Get(ctx, "badge:u1")
	assert.NoError(t, err)
	assert.Equal(t, "4", val)
}

func TestRedisClient_GetMissing(t *testing.T) {
	client, _ := newTestRedis(t)

	_, err := client.Get(context.Background(), "badge:missing")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRedisClient_Del(t *testing.T) {
	client, mr := newTestRedis(t)
	ctx := context.Background()

	assert.NoError(t, client.Set(ctx, "badge:u1", "2", 0))
	assert.NoError(t, client.Del(ctx, "badge:u1"))
	assert.False(t, mr.Exists("badge:u1"))
}

func TestRedisClient_Expiration(t *testing.T) {
	client, mr := newTestRedis(t)
	ctx := context.Background()

	assert.NoError(t, client.Set(ctx, "badge:u1", "7", 30*time.Second))

	mr.FastForward(31 * time.Second)

	_, err := client.Get(ctx, "badge:u1")
	assert.ErrorIs(t, err, redis.Nil)
}
