package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreJSON(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer store.Close()
	ctx := context.Background()

	type snapshot struct {
		Status  string `json:"status"`
		Percent int    `json:"percent"`
	}

	var out snapshot
	found, err := store.GetJSON(ctx, "storybook:status:1", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SetJSON(ctx, "storybook:status:1", snapshot{Status: "completed", Percent: 100}, time.Minute))
	found, err = store.GetJSON(ctx, "storybook:status:1", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, snapshot{Status: "completed", Percent: 100}, out)

	mr.FastForward(2 * time.Minute)
	found, err = store.GetJSON(ctx, "storybook:status:1", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SetJSON(ctx, "k", snapshot{}, 0))
	require.NoError(t, store.Del(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}
