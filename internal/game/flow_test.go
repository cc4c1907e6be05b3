package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoquizz/geoquizz-backend/internal/geo"
)

// newStartedRoom builds a two-player room, readies both and starts the game.
func newStartedRoom(t *testing.T, fb *fakeBroadcaster, fh *fakeHistory, rounds int) (*Registry, string) {
	t.Helper()
	var hist HistoryAppender
	if fh != nil {
		hist = fh
	}
	g := NewRegistry(fb, hist, fastOptions())

	roomID, err := g.CreateRoom("room", "alice", testPhotos(rounds), rounds)
	require.NoError(t, err)
	_, err = g.Join(roomID, "bob")
	require.NoError(t, err)
	require.NoError(t, g.SetReady(roomID, "alice", true))
	require.NoError(t, g.SetReady(roomID, "bob", true))
	require.NoError(t, g.Start(roomID))
	return g, roomID
}

func TestStartRequiresLobbyAndReadyPlayers(t *testing.T) {
	g := NewRegistry(nil, nil, fastOptions())
	roomID, err := g.CreateRoom("room", "alice", testPhotos(5), 5)
	require.NoError(t, err)

	err = g.Start(roomID)
	assert.ErrorIs(t, err, ErrNotEnoughReadyPlayers, "host alone cannot start")

	_, err = g.Join(roomID, "bob")
	require.NoError(t, err)
	require.NoError(t, g.SetReady(roomID, "alice", true))
	err = g.Start(roomID)
	assert.ErrorIs(t, err, ErrNotEnoughReadyPlayers, "one ready player is not enough")

	require.NoError(t, g.SetReady(roomID, "bob", true))
	require.NoError(t, g.Start(roomID))
	assert.Equal(t, PhaseCountdown, phaseOf(t, g, roomID))

	err = g.Start(roomID)
	assert.ErrorIs(t, err, ErrWrongPhase, "starting twice must fail")
}

func TestCountdownLeadsToGuessing(t *testing.T) {
	fb := &fakeBroadcaster{}
	g, roomID := newStartedRoom(t, fb, nil, 3)

	waitForPhase(t, g, roomID, PhaseGuessing)

	msg, ok := fb.last("round_started")
	require.True(t, ok)
	data := msg.Data.(RoundStartedData)
	assert.Equal(t, 0, data.Round)
	assert.Equal(t, 3, data.TotalRounds)
	assert.Equal(t, "photos/p0.jpg", data.PhotoPath)
}

func TestSubmitGuessOutsideGuessingFails(t *testing.T) {
	g := NewRegistry(nil, nil, fastOptions())
	roomID, err := g.CreateRoom("room", "alice", testPhotos(5), 5)
	require.NoError(t, err)

	err = g.SubmitGuess(roomID, "alice", 10, 20)
	assert.ErrorIs(t, err, ErrWrongPhase)

	err = g.SubmitGuess(roomID, "nobody", 10, 20)
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestAllSubmittedResolvesEarly(t *testing.T) {
	fb := &fakeBroadcaster{}
	g, roomID := newStartedRoom(t, fb, nil, 3)
	waitForPhase(t, g, roomID, PhaseGuessing)

	truth := testPhotos(3)[0]
	bobGuess := Photo{Latitude: truth.Latitude + 2, Longitude: truth.Longitude + 2}

	require.NoError(t, g.SubmitGuess(roomID, "alice", truth.Latitude, truth.Longitude))
	assert.Equal(t, PhaseGuessing, phaseOf(t, g, roomID), "one of two submissions must not resolve the round")

	err := g.SubmitGuess(roomID, "alice", truth.Latitude, truth.Longitude)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	require.NoError(t, g.SubmitGuess(roomID, "bob", bobGuess.Latitude, bobGuess.Longitude))
	assert.Equal(t, PhaseResults, phaseOf(t, g, roomID), "last submission resolves immediately")

	msg, ok := fb.last("round_results")
	require.True(t, ok)
	data := msg.Data.(RoundResultsData)
	assert.Equal(t, truth.Latitude, data.TrueLat)
	assert.Equal(t, truth.Longitude, data.TrueLon)
	require.Len(t, data.Results, 2)

	// alice guessed the exact spot and must lead with a perfect score
	assert.Equal(t, "alice", data.Results[0].PlayerName)
	assert.Equal(t, MaxScore, data.Results[0].RoundScore)

	wantDist := geo.DistanceKm(bobGuess.Latitude, bobGuess.Longitude, truth.Latitude, truth.Longitude)
	assert.Equal(t, "bob", data.Results[1].PlayerName)
	assert.Equal(t, Score(wantDist), data.Results[1].RoundScore)
	require.NotNil(t, data.Results[1].DistanceKm)
	assert.InDelta(t, wantDist, *data.Results[1].DistanceKm, 0.01)
}

func TestGuessTimerExpiryScoresNonSubmitters(t *testing.T) {
	fb := &fakeBroadcaster{}
	g, roomID := newStartedRoom(t, fb, nil, 3)
	waitForPhase(t, g, roomID, PhaseGuessing)

	// nobody submits; wait for the round timer to run out
	waitForPhase(t, g, roomID, PhaseResults)

	msg, ok := fb.last("round_results")
	require.True(t, ok)
	data := msg.Data.(RoundResultsData)
	require.Len(t, data.Results, 2)
	for _, row := range data.Results {
		assert.Equal(t, 0, row.RoundScore)
		assert.Nil(t, row.GuessLat)
		assert.Nil(t, row.DistanceKm)
	}
	assert.Greater(t, fb.countType("timer_update"), 0, "round timer must tick before expiring")
}

func TestStaleTimerCannotFireAfterEarlyResolve(t *testing.T) {
	fb := &fakeBroadcaster{}
	g, roomID := newStartedRoom(t, fb, nil, 3)
	waitForPhase(t, g, roomID, PhaseGuessing)

	require.NoError(t, g.SubmitGuess(roomID, "alice", 1, 1))
	require.NoError(t, g.SubmitGuess(roomID, "bob", 2, 2))
	require.Equal(t, PhaseResults, phaseOf(t, g, roomID))

	// outlive the original guess timer; the superseded task must not
	// resolve the round a second time
	time.Sleep(fastOptions().GuessDuration + 50*time.Millisecond)
	assert.Equal(t, PhaseResults, phaseOf(t, g, roomID))
	assert.Equal(t, 1, fb.countType("round_results"))
}

func TestAdvanceRunsRemainingRoundsAndFinishes(t *testing.T) {
	fb := &fakeBroadcaster{}
	fh := &fakeHistory{}
	g, roomID := newStartedRoom(t, fb, fh, 2)

	truth := testPhotos(2)

	// round 0
	waitForPhase(t, g, roomID, PhaseGuessing)
	require.NoError(t, g.SubmitGuess(roomID, "alice", truth[0].Latitude, truth[0].Longitude))
	require.NoError(t, g.SubmitGuess(roomID, "bob", truth[0].Latitude+5, truth[0].Longitude))
	require.Equal(t, PhaseResults, phaseOf(t, g, roomID))

	err := g.Advance(roomID)
	require.NoError(t, err)
	assert.Equal(t, PhaseBetween, phaseOf(t, g, roomID))

	err = g.Advance(roomID)
	assert.ErrorIs(t, err, ErrWrongPhase, "advance is only valid from results")

	// round 1 arrives after between plus countdown
	waitForPhase(t, g, roomID, PhaseGuessing)
	msg, ok := fb.last("round_started")
	require.True(t, ok)
	assert.Equal(t, 1, msg.Data.(RoundStartedData).Round)

	require.NoError(t, g.SubmitGuess(roomID, "alice", truth[1].Latitude, truth[1].Longitude))
	require.NoError(t, g.SubmitGuess(roomID, "bob", truth[1].Latitude+5, truth[1].Longitude))
	require.Equal(t, PhaseResults, phaseOf(t, g, roomID))

	// last advance finishes the game
	require.NoError(t, g.Advance(roomID))
	assert.Equal(t, PhaseFinished, phaseOf(t, g, roomID))

	final, ok := fb.last("game_finished")
	require.True(t, ok)
	scores := final.Data.(GameFinishedData).FinalScores
	require.Len(t, scores, 2)
	assert.Equal(t, 1, scores[0].Rank)
	assert.Equal(t, "alice", scores[0].PlayerName)
	assert.Equal(t, 2*MaxScore, scores[0].TotalScore)
	assert.Equal(t, 2, scores[1].Rank)
	assert.Equal(t, "bob", scores[1].PlayerName)
	assert.Greater(t, scores[0].TotalScore, scores[1].TotalScore)

	// history records are written asynchronously after the finish
	require.Eventually(t, func() bool {
		return len(fh.all()) == 2
	}, time.Second, 5*time.Millisecond)
	for _, rec := range fh.all() {
		assert.True(t, rec.Multiplayer)
		assert.Equal(t, "room", rec.RoomName)
		assert.Equal(t, 2, rec.NumRounds)
	}
}

func TestRoundScoresAccumulate(t *testing.T) {
	fb := &fakeBroadcaster{}
	g, roomID := newStartedRoom(t, fb, nil, 2)
	truth := testPhotos(2)

	waitForPhase(t, g, roomID, PhaseGuessing)
	require.NoError(t, g.SubmitGuess(roomID, "alice", truth[0].Latitude, truth[0].Longitude))
	require.NoError(t, g.SubmitGuess(roomID, "bob", truth[0].Latitude, truth[0].Longitude))

	snap, err := g.Snapshot(roomID)
	require.NoError(t, err)
	for _, p := range snap.Players {
		assert.Equal(t, []int{MaxScore}, p.Scores)
		assert.Equal(t, MaxScore, p.TotalScore)
	}
}
