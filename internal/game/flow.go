package game

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"github.com/geoquizz/geoquizz-backend/internal/geo"
	"github.com/geoquizz/geoquizz-backend/internal/history"
)

// Start moves a lobby into the first round's countdown. It fails unless at
// least two connected players are ready.
func (g *Registry) Start(roomID string) error {
	room, err := g.Get(roomID)
	if err != nil {
		return err
	}

	room.mu.Lock()
	if room.Phase != PhaseLobby {
		room.mu.Unlock()
		return ErrWrongPhase
	}
	if room.readyConnectedCount() < MinPlayersToRun {
		room.mu.Unlock()
		return ErrNotEnoughReadyPlayers
	}
	g.enterCountdownLocked(room)
	snap := room.snapshot()
	room.mu.Unlock()

	log.Printf("[Start] room=%s entering countdown for round 0", roomID)
	g.broadcaster.Broadcast(roomID, Message[any]{Type: "room_updated", Data: snap})
	return nil
}

// SubmitGuess records a player's map click for the current round. If every
// connected player has now submitted, the round resolves immediately instead
// of waiting for the timer.
func (g *Registry) SubmitGuess(roomID, playerName string, lat, lon float64) error {
	room, err := g.Get(roomID)
	if err != nil {
		return err
	}

	room.mu.Lock()
	p, ok := room.Players[playerName]
	if !ok {
		room.mu.Unlock()
		return ErrUnknownPlayer
	}
	if room.Phase != PhaseGuessing {
		room.mu.Unlock()
		return ErrWrongPhase
	}
	if p.Submitted {
		room.mu.Unlock()
		return ErrAlreadySubmitted
	}

	p.Guess = &Guess{Lat: lat, Lon: lon, SubmittedAt: time.Now()}
	p.Submitted = true
	round := room.CurrentRound

	var results *RoundResultsData
	if room.allConnectedSubmitted() {
		d := g.resolveRoundLocked(room)
		results = &d
	}
	room.mu.Unlock()

	log.Printf("[SubmitGuess] room=%s player=%s round=%d", roomID, playerName, round)
	// notify that the player submitted, never what they submitted
	g.broadcaster.Broadcast(roomID, Message[any]{Type: "player_submitted", Data: PlayerSubmittedData{PlayerName: playerName}})
	if results != nil {
		g.broadcaster.Broadcast(roomID, Message[any]{Type: "round_results", Data: *results})
	}
	return nil
}

// Advance is the explicit next-round command issued from the results screen.
// It either schedules the next round's countdown or finishes the game.
func (g *Registry) Advance(roomID string) error {
	room, err := g.Get(roomID)
	if err != nil {
		return err
	}

	room.mu.Lock()
	if room.Phase != PhaseResults {
		room.mu.Unlock()
		return ErrWrongPhase
	}
	room.CurrentRound++

	if room.CurrentRound >= room.NumRounds {
		finished, records := g.finishLocked(room)
		room.mu.Unlock()
		log.Printf("[Advance] room=%s game finished after %d rounds", roomID, room.NumRounds)
		g.broadcaster.Broadcast(roomID, Message[any]{Type: "game_finished", Data: finished})
		go g.appendHistory(roomID, records)
		return nil
	}

	room.Phase = PhaseBetween
	gen := room.bumpGen()
	g.schedulePhaseTimer(room, PhaseBetween, gen, room.opts.BetweenDuration, "countdown_tick", func(gen uint64) {
		g.betweenExpired(room, gen)
	})
	snap := room.snapshot()
	room.mu.Unlock()

	log.Printf("[Advance] room=%s round=%d entering between", roomID, snap.CurrentRound)
	g.broadcaster.Broadcast(roomID, Message[any]{Type: "room_updated", Data: snap})
	return nil
}

// enterCountdownLocked assumes room.mu is held.
func (g *Registry) enterCountdownLocked(room *Room) {
	room.Phase = PhaseCountdown
	gen := room.bumpGen()
	g.schedulePhaseTimer(room, PhaseCountdown, gen, room.opts.CountdownDuration, "countdown_tick", func(gen uint64) {
		g.countdownExpired(room, gen)
	})
}

func (g *Registry) countdownExpired(room *Room, gen uint64) {
	room.mu.Lock()
	if room.Phase != PhaseCountdown || room.timerGen != gen {
		room.mu.Unlock()
		return
	}
	data := g.enterGuessingLocked(room)
	room.mu.Unlock()

	log.Printf("[StartGuessing] room=%s round=%d photo=%s", room.ID, data.Round, data.PhotoPath)
	g.broadcaster.Broadcast(room.ID, Message[any]{Type: "round_started", Data: data})
}

// enterGuessingLocked resets per-round guess state, anchors the round clock
// and schedules the full round timer. Assumes room.mu is held.
func (g *Registry) enterGuessingLocked(room *Room) RoundStartedData {
	room.Phase = PhaseGuessing
	gen := room.bumpGen()
	room.resetGuesses()
	room.RoundStartTime = time.Now()
	g.schedulePhaseTimer(room, PhaseGuessing, gen, room.opts.GuessDuration, "timer_update", func(gen uint64) {
		g.guessingExpired(room, gen)
	})
	return RoundStartedData{
		Round:       room.CurrentRound,
		TotalRounds: room.NumRounds,
		// the photo path only; coordinates stay server-side until results
		PhotoPath:     room.Photos[room.CurrentRound].Path,
		TimerDuration: int(room.opts.GuessDuration / time.Second),
	}
}

func (g *Registry) guessingExpired(room *Room, gen uint64) {
	room.mu.Lock()
	if room.Phase != PhaseGuessing || room.timerGen != gen {
		room.mu.Unlock()
		return
	}
	results := g.resolveRoundLocked(room)
	room.mu.Unlock()

	log.Printf("[RoundResults] room=%s round=%d", room.ID, results.Round)
	g.broadcaster.Broadcast(room.ID, Message[any]{Type: "round_results", Data: results})
}

func (g *Registry) betweenExpired(room *Room, gen uint64) {
	room.mu.Lock()
	if room.Phase != PhaseBetween || room.timerGen != gen {
		room.mu.Unlock()
		return
	}
	g.enterCountdownLocked(room)
	snap := room.snapshot()
	room.mu.Unlock()

	log.Printf("[Countdown] room=%s round=%d", room.ID, snap.CurrentRound)
	g.broadcaster.Broadcast(room.ID, Message[any]{Type: "room_updated", Data: snap})
}

// resolveRoundLocked scores the current round for every roster member and
// moves the room to results. Players who never submitted score zero with no
// distance. Assumes room.mu is held with Phase == guessing or paused.
func (g *Registry) resolveRoundLocked(room *Room) RoundResultsData {
	photo := room.Photos[room.CurrentRound]

	results := make([]PlayerRoundResult, 0, len(room.order))
	for _, name := range room.order {
		p := room.Players[name]
		row := PlayerRoundResult{PlayerName: p.Name, Color: p.Color}
		score := 0
		if p.Submitted && p.Guess != nil {
			dist := geo.DistanceKm(p.Guess.Lat, p.Guess.Lon, photo.Latitude, photo.Longitude)
			score = Score(dist)
			lat, lon := p.Guess.Lat, p.Guess.Lon
			row.GuessLat, row.GuessLon, row.DistanceKm = &lat, &lon, &dist
		}
		p.Scores = append(p.Scores, score)
		p.TotalScore += score
		row.RoundScore = score
		row.TotalScore = p.TotalScore
		results = append(results, row)
	}
	// this round's score descending; stable keeps roster order on ties
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RoundScore > results[j].RoundScore
	})

	room.Phase = PhaseResults
	room.bumpGen()

	return RoundResultsData{
		Results:     results,
		TrueLat:     photo.Latitude,
		TrueLon:     photo.Longitude,
		Round:       room.CurrentRound,
		TotalRounds: room.NumRounds,
	}
}

// finishLocked makes the game terminal and prepares the final standings plus
// one history record per roster member. Assumes room.mu is held.
func (g *Registry) finishLocked(room *Room) (GameFinishedData, []history.Record) {
	room.Phase = PhaseFinished
	room.bumpGen()
	room.finishedAt = time.Now()

	finals := make([]FinalScore, 0, len(room.order))
	for _, name := range room.order {
		p := room.Players[name]
		finals = append(finals, FinalScore{
			PlayerName: p.Name,
			Color:      p.Color,
			TotalScore: p.TotalScore,
		})
	}
	sort.SliceStable(finals, func(i, j int) bool {
		return finals[i].TotalScore > finals[j].TotalScore
	})
	for i := range finals {
		finals[i].Rank = i + 1
	}

	now := time.Now()
	records := make([]history.Record, 0, len(finals))
	for _, f := range finals {
		records = append(records, history.Record{
			PlayerName:   f.PlayerName,
			Date:         now,
			TotalScore:   f.TotalScore,
			NumRounds:    room.NumRounds,
			AverageScore: roundTo2(float64(f.TotalScore) / float64(room.NumRounds)),
			Multiplayer:  true,
			RoomName:     room.Name,
		})
	}
	return GameFinishedData{FinalScores: finals}, records
}

// appendHistory writes final records best-effort; a broken store must never
// block or corrupt phase progression.
func (g *Registry) appendHistory(roomID string, records []history.Record) {
	if g.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, rec := range records {
		if err := g.history.Append(ctx, rec); err != nil {
			log.Printf("[appendHistory] room=%s player=%s: %v", roomID, rec.PlayerName, err)
		}
	}
}

func roundTo2(x float64) float64 {
	return math.Round(x*100) / 100
}
