package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoloSessionLifecycle(t *testing.T) {
	fh := &fakeHistory{}
	s := NewSessions(fh)
	photos := testPhotos(2)

	id, err := s.CreateSession("alice", photos, 2)
	require.NoError(t, err)

	view, err := s.CurrentPhoto(id)
	require.NoError(t, err)
	assert.Equal(t, photos[0].Path, view.Path)
	assert.Equal(t, 1, view.Round)
	assert.Equal(t, 2, view.TotalRounds)

	// perfect guess on round one
	res, err := s.SubmitGuess(id, photos[0].Latitude, photos[0].Longitude)
	require.NoError(t, err)
	assert.Equal(t, MaxScore, res.Score)
	assert.Equal(t, photos[0].Latitude, res.TrueLat)

	// the session advanced on its own
	view, err = s.CurrentPhoto(id)
	require.NoError(t, err)
	assert.Equal(t, photos[1].Path, view.Path)
	assert.Equal(t, 2, view.Round)

	// a hopeless guess on round two scores zero and finishes the session
	res, err = s.SubmitGuess(id, -photos[1].Latitude, photos[1].Longitude+170)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)

	_, err = s.CurrentPhoto(id)
	assert.ErrorIs(t, err, ErrSessionNotFound, "a finished session has no current photo")

	summary, err := s.Summary(id)
	require.NoError(t, err)
	assert.True(t, summary.Finished)
	assert.Equal(t, MaxScore, summary.TotalScore)
	require.Len(t, summary.Guesses, 2)

	require.Eventually(t, func() bool {
		return len(fh.all()) == 1
	}, time.Second, 5*time.Millisecond)
	rec := fh.all()[0]
	assert.Equal(t, "alice", rec.PlayerName)
	assert.Equal(t, MaxScore, rec.TotalScore)
	assert.Equal(t, float64(MaxScore)/2, rec.AverageScore)
	assert.False(t, rec.Multiplayer)
}

func TestCreateSessionClampsRoundsToPhotos(t *testing.T) {
	s := NewSessions(nil)

	_, err := s.CreateSession("alice", nil, 5)
	assert.ErrorIs(t, err, ErrNoPhotos)

	id, err := s.CreateSession("alice", testPhotos(3), 10)
	require.NoError(t, err)
	view, err := s.CurrentPhoto(id)
	require.NoError(t, err)
	assert.Equal(t, 3, view.TotalRounds)
}

func TestSessionUnknownID(t *testing.T) {
	s := NewSessions(nil)
	_, err := s.CurrentPhoto("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.SubmitGuess("missing", 0, 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Summary("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFreeRoomLifecycle(t *testing.T) {
	fh := &fakeHistory{}
	s := NewSessions(fh)
	photos := testPhotos(2)

	roomID, err := s.CreateFreeRoom("Sunday", "alice", photos, 2)
	require.NoError(t, err)
	require.NoError(t, s.JoinFreeRoom(roomID, "bob"))
	require.NoError(t, s.JoinFreeRoom(roomID, "bob"), "rejoining with the same name is idempotent")

	// photos are gated behind the start
	_, err = s.FreeRoomPhoto(roomID, "alice")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	require.NoError(t, s.StartFreeRoom(roomID))
	err = s.StartFreeRoom(roomID)
	assert.ErrorIs(t, err, ErrWrongPhase, "a room starts once")

	// players progress independently: alice plays both rounds before bob
	// touches his first
	for round := 0; round < 2; round++ {
		view, err := s.FreeRoomPhoto(roomID, "alice")
		require.NoError(t, err)
		assert.Equal(t, photos[round].Path, view.Path)
		_, err = s.SubmitFreeGuess(roomID, "alice", photos[round].Latitude, photos[round].Longitude)
		require.NoError(t, err)
	}
	_, err = s.FreeRoomPhoto(roomID, "alice")
	assert.ErrorIs(t, err, ErrWrongPhase, "alice is done")

	view, err := s.FreeRoomPhoto(roomID, "bob")
	require.NoError(t, err)
	assert.Equal(t, photos[0].Path, view.Path)

	info, err := s.FreeRoomInfo(roomID)
	require.NoError(t, err)
	assert.True(t, info.Started)
	assert.False(t, info.Finished)

	// bob finishes with zero points; the room closes and records history
	for round := 0; round < 2; round++ {
		_, err = s.SubmitFreeGuess(roomID, "bob", -photos[round].Latitude, photos[round].Longitude+170)
		require.NoError(t, err)
	}

	info, err = s.FreeRoomInfo(roomID)
	require.NoError(t, err)
	assert.True(t, info.Finished)

	board, err := s.FreeRoomLeaderboard(roomID)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "alice", board[0].Name)
	assert.Equal(t, 2*MaxScore, board[0].TotalScore)
	assert.Equal(t, "bob", board[1].Name)
	assert.Equal(t, 0, board[1].TotalScore)

	require.Eventually(t, func() bool {
		return len(fh.all()) == 2
	}, time.Second, 5*time.Millisecond)
	for _, rec := range fh.all() {
		assert.True(t, rec.Multiplayer)
		assert.Equal(t, "Sunday", rec.RoomName)
	}
}

func TestFreeRoomUnknownPlayersAndRooms(t *testing.T) {
	s := NewSessions(nil)
	roomID, err := s.CreateFreeRoom("room", "alice", testPhotos(2), 2)
	require.NoError(t, err)
	require.NoError(t, s.StartFreeRoom(roomID))

	_, err = s.FreeRoomPhoto(roomID, "nobody")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	_, err = s.SubmitFreeGuess(roomID, "nobody", 0, 0)
	assert.ErrorIs(t, err, ErrUnknownPlayer)

	err = s.JoinFreeRoom("missing", "bob")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = s.FreeRoomLeaderboard("missing")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
