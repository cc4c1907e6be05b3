package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreTopOrdersByScore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Now()
	for _, rec := range []Record{
		{PlayerName: "alice", Date: now, TotalScore: 7200, NumRounds: 2, AverageScore: 3600},
		{PlayerName: "bob", Date: now, TotalScore: 9800, NumRounds: 2, AverageScore: 4900},
		{PlayerName: "carol", Date: now, TotalScore: 1500, NumRounds: 2, AverageScore: 750},
	} {
		require.NoError(t, store.Append(ctx, rec))
	}

	top, err := store.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "bob", top[0].PlayerName)
	assert.Equal(t, "alice", top[1].PlayerName)
}

func TestMemoryStoreTopStableOnTies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Append(ctx, Record{PlayerName: "first", TotalScore: 5000}))
	require.NoError(t, store.Append(ctx, Record{PlayerName: "second", TotalScore: 5000}))

	top, err := store.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "first", top[0].PlayerName)
	assert.Equal(t, "second", top[1].PlayerName)
}

func TestMemoryStoreTopEmptyAndNoLimit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	top, err := store.Top(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, top)

	require.NoError(t, store.Append(ctx, Record{PlayerName: "solo", TotalScore: 100}))
	top, err = store.Top(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}
