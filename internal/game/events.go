package game

// Message is the wire envelope for every event pushed to room members.
type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Broadcaster fans an event out to every connection currently joined to a
// room. Calls are best-effort and must never block phase progression; a slow
// recipient is the transport's problem, not the engine's.
type Broadcaster interface {
	Broadcast(roomID string, msg Message[any])
}

// NopBroadcaster discards every event. Useful when no transport is attached.
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(string, Message[any]) {}

type CountdownTickData struct {
	Seconds int `json:"seconds"`
}

type RoundStartedData struct {
	Round         int    `json:"round"`
	TotalRounds   int    `json:"total_rounds"`
	PhotoPath     string `json:"photo_path"`
	TimerDuration int    `json:"timer_duration"`
}

type PlayerSubmittedData struct {
	PlayerName string `json:"player_name"`
}

type TimerUpdateData struct {
	Seconds int `json:"seconds"`
}

// PlayerRoundResult is one row of a round_results event, already scored.
// Guess coordinates and distance are nil for players who never submitted.
type PlayerRoundResult struct {
	PlayerName string   `json:"player_name"`
	Color      string   `json:"color"`
	GuessLat   *float64 `json:"guess_lat,omitempty"`
	GuessLon   *float64 `json:"guess_lon,omitempty"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
	RoundScore int      `json:"round_score"`
	TotalScore int      `json:"total_score"`
}

type RoundResultsData struct {
	Results     []PlayerRoundResult `json:"results"`
	TrueLat     float64             `json:"true_lat"`
	TrueLon     float64             `json:"true_lon"`
	Round       int                 `json:"round"`
	TotalRounds int                 `json:"total_rounds"`
}

type GamePausedData struct {
	PlayerName    string `json:"player_name"`
	PauseDuration int    `json:"pause_duration"`
}

type PauseCountdownData struct {
	Seconds int `json:"seconds"`
}

type GameResumedData struct {
	RemainingSeconds int `json:"remaining_seconds"`
}

type FinalScore struct {
	Rank       int    `json:"rank"`
	PlayerName string `json:"player_name"`
	Color      string `json:"color"`
	TotalScore int    `json:"total_score"`
}

type GameFinishedData struct {
	FinalScores []FinalScore `json:"final_scores"`
}
