package history

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Needs a docker daemon; opt in with GEOQUIZZ_TEST_PG=1.
func TestPostgresStore(t *testing.T) {
	if os.Getenv("GEOQUIZZ_TEST_PG") == "" {
		t.Skip("set GEOQUIZZ_TEST_PG=1 to run the postgres integration test")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("geoquizz"),
		postgres.WithUsername("geoquizz"),
		postgres.WithPassword("geoquizz"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Append(ctx, Record{
		PlayerName: "alice", Date: now, TotalScore: 9000,
		NumRounds: 2, AverageScore: 4500,
	}))
	require.NoError(t, store.Append(ctx, Record{
		PlayerName: "bob", Date: now, TotalScore: 4000,
		NumRounds: 2, AverageScore: 2000, Multiplayer: true, RoomName: "friday",
	}))

	top, err := store.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "alice", top[0].PlayerName)
	assert.Equal(t, 9000, top[0].TotalScore)
	assert.Equal(t, "bob", top[1].PlayerName)
	assert.True(t, top[1].Multiplayer)
	assert.Equal(t, "friday", top[1].RoomName)
}
