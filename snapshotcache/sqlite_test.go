package snapshotcache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-pulse/models"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "cache", "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_PutLoad(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	created := time.Date(2026, 6, 1, 7, 30, 0, 123000000, time.UTC)

	_, ok, err := s.Load(ctx, "general|en|")
	require.NoError(t, err)
	assert.False(t, ok)

	snap := snapshot("s1", created, models.OriginLive, 2)
	snap.Key = "general|en|"
	require.NoError(t, s.Put(ctx, "general|en|", snap))

	got, ok, err := s.Load(ctx, "general|en|")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "s1", got.ID)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Len(t, got.Clusters, 2)

	require.NoError(t, s.Put(ctx, "general|en|", snapshot("s2", created.Add(time.Minute), models.OriginLive, 1)))
	got, _, err = s.Load(ctx, "general|en|")
	require.NoError(t, err)
	assert.Equal(t, "s2", got.ID)
	assert.Len(t, got.Clusters, 1)
}

func TestSQLiteStore_BehindFallbackCache(t *testing.T) {
	clk := &clock{now: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)}
	c := New(openTestSQLite(t), Options{Now: clk.Now})
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, "k", snapshot("s1", clk.Now(), models.OriginLive, 1)))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "k", got.Key)

	clk.Advance(6 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
