package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c := New(10 * time.Second)
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx, "stats")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "stats", []byte(`[1]`)))

	got, ok, err := c.Get(ctx, "stats")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`[1]`), got)

	now = now.Add(11 * time.Second)
	_, ok, err = c.Get(ctx, "stats")
	require.NoError(t, err)
	require.False(t, ok, "entry should expire after ttl")
}

func TestCache_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	require.NoError(t, c.Set(ctx, "a", []byte("1")))
	require.NoError(t, c.Set(ctx, "b", []byte("2")))

	require.NoError(t, c.Delete(ctx, "a"))
	_, ok, _ := c.Get(ctx, "a")
	require.False(t, ok)

	c.Clear()
	_, ok, _ = c.Get(ctx, "b")
	require.False(t, ok)
}

func TestNew_DefaultTTL(t *testing.T) {
	require.Equal(t, 5*time.Second, New(0).ttl)
}

func TestNop(t *testing.T) {
	var s Store = Nop{}
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, s.Delete(ctx, "k"))
}

func TestRedisDefaults(t *testing.T) {
	r := NewRedis(RedisConfig{Addr: "127.0.0.1:0"})
	defer func() { _ = r.Close() }()

	require.Equal(t, 5*time.Second, r.ttl)
	require.Equal(t, "userhub:", r.prefix)

	var _ Store = r
}
