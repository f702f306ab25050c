package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jubmeng/rainbow/pkg/errors"
)

func setupTestRedis(t *testing.T) (*ResetTokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewResetTokenStore(client), mr
}

func TestResetTokenStore_SaveStoresHashOnly(t *testing.T) {
	store, mr := setupTestRedis(t)

	require.NoError(t, store.Save(context.Background(), "plain-token", "user-1", time.Hour))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "pwreset:"))
	assert.NotContains(t, keys[0], "plain-token")
	assert.Equal(t, time.Hour, mr.TTL(keys[0]))

	val, err := mr.Get(keys[0])
	require.NoError(t, err)
	assert.Equal(t, "user-1", val)
}

func TestResetTokenStore_ConsumeIsSingleUse(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tok", "user-1", time.Hour))

	userID, err := store.Consume(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = store.Consume(ctx, "tok")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestResetTokenStore_ConsumeExpired(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tok", "user-1", time.Hour))
	mr.FastForward(time.Hour + time.Second)

	_, err := store.Consume(ctx, "tok")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestResetTokenStore_ConsumeUnknown(t *testing.T) {
	store, _ := setupTestRedis(t)

	_, err := store.Consume(context.Background(), "never-issued")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestResetTokenStore_RedisDown(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	err := store.Save(context.Background(), "tok", "user-1", time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set reset token")
}
