package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedulrx/engine/pkg/cache"
)

func TestMemory_PutThenGetRoundTrips(t *testing.T) {
	m := cache.NewMemory()
	entry := cache.Entry{
		Schedule:   map[string]cache.EntryAssignment{"T1": {Start: 540, End: 600, Resources: []string{"R"}}},
		Score:      12.5,
		SolverUsed: "backtracking",
	}
	m.Put(context.Background(), "fp1", entry, time.Minute)

	got, ok := m.Get(context.Background(), "fp1")
	require.True(t, ok)
	assert.Equal(t, entry, got)
}

func TestMemory_MissReturnsFalse(t *testing.T) {
	m := cache.NewMemory()
	_, ok := m.Get(context.Background(), "unknown")
	assert.False(t, ok)
}

func TestMemory_ExpiresAfterTTL(t *testing.T) {
	m := cache.NewMemory()
	m.Put(context.Background(), "fp1", cache.Entry{Score: 1}, -time.Second)

	_, ok := m.Get(context.Background(), "fp1")
	assert.False(t, ok, "entry with a TTL already in the past must be treated as expired")
}

func TestMemory_DeleteRemovesEntry(t *testing.T) {
	m := cache.NewMemory()
	m.Put(context.Background(), "fp1", cache.Entry{Score: 1}, time.Minute)
	m.Delete(context.Background(), "fp1")

	_, ok := m.Get(context.Background(), "fp1")
	assert.False(t, ok)
}

func TestMemory_LastWriteWins(t *testing.T) {
	m := cache.NewMemory()
	m.Put(context.Background(), "fp1", cache.Entry{Score: 1, SolverUsed: "backtracking"}, time.Minute)
	m.Put(context.Background(), "fp1", cache.Entry{Score: 2, SolverUsed: "cp-sat"}, time.Minute)

	got, ok := m.Get(context.Background(), "fp1")
	require.True(t, ok)
	assert.Equal(t, "cp-sat", got.SolverUsed)
	assert.Equal(t, 2.0, got.Score)
}
