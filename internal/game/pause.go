package game

import (
	"context"
	"log"
	"time"
)

// PlayerDisconnected is the connectivity-loss trigger from the transport.
// Outside a guessing phase it only flips the player's connected flag; during
// guessing it freezes the round into paused and starts the pause watch.
//
// A second disconnect while already paused does not extend the deadline; the
// first pause window stands.
func (g *Registry) PlayerDisconnected(roomID, playerName string) {
	room, err := g.Get(roomID)
	if err != nil {
		return
	}

	room.mu.Lock()
	p, ok := room.Players[playerName]
	if !ok {
		room.mu.Unlock()
		return
	}
	p.Connected = false

	if room.Phase != PhaseGuessing {
		snap := room.snapshot()
		room.mu.Unlock()
		log.Printf("[PlayerDisconnected] room=%s player=%s phase=%s", roomID, playerName, snap.Phase)
		g.broadcaster.Broadcast(roomID, Message[any]{Type: "room_updated", Data: snap})
		return
	}

	room.Phase = PhasePaused
	gen := room.bumpGen()
	room.pausedBy = playerName
	room.pauseDeadline = time.Now().Add(room.opts.PauseDuration)
	pauseSecs := int(room.opts.PauseDuration / time.Second)
	g.startPauseWatch(room, gen)
	room.mu.Unlock()

	log.Printf("[PlayerDisconnected] room=%s player=%s paused for %ds", roomID, playerName, pauseSecs)
	g.broadcaster.Broadcast(roomID, Message[any]{Type: "game_paused", Data: GamePausedData{
		PlayerName:    playerName,
		PauseDuration: pauseSecs,
	}})
}

// startPauseWatch spawns the pause task. Assumes room.mu is held; gen is the
// generation set when the room entered paused.
func (g *Registry) startPauseWatch(room *Room, gen uint64) {
	ctx, cancel := context.WithCancel(context.Background())
	room.timerCancel = cancel
	go g.runPauseWatch(ctx, room, gen)
}

// runPauseWatch ticks until the disconnected player returns or the pause
// window closes, then resumes the round either way.
func (g *Registry) runPauseWatch(ctx context.Context, room *Room, gen uint64) {
	interval := room.opts.TickInterval
	total := int(room.opts.PauseDuration / interval)
	if total < 1 {
		total = 1
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for elapsed := 0; ; {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			room.mu.Lock()
			if room.Phase != PhasePaused || room.timerGen != gen {
				room.mu.Unlock()
				return
			}
			elapsed++
			remaining := total - elapsed
			reconnected := false
			if p, ok := room.Players[room.pausedBy]; ok {
				reconnected = p.Connected
			}
			if !reconnected && remaining > 0 {
				room.mu.Unlock()
				g.broadcastTick(room.ID, "pause_countdown", ticksToSeconds(remaining, interval))
				continue
			}
			resumed, results := g.resumeLocked(room)
			room.mu.Unlock()

			log.Printf("[PauseWatch] room=%s resuming (reconnected=%v remaining=%ds)",
				room.ID, reconnected, resumed.RemainingSeconds)
			g.broadcaster.Broadcast(room.ID, Message[any]{Type: "game_resumed", Data: resumed})
			if results != nil {
				g.broadcaster.Broadcast(room.ID, Message[any]{Type: "round_results", Data: *results})
			}
			return
		}
	}
}

// resumeLocked puts a paused room back into guessing with whatever time the
// round has left, measured from the original round start. If nothing is
// left, the round resolves on the spot. Assumes room.mu is held.
func (g *Registry) resumeLocked(room *Room) (GameResumedData, *RoundResultsData) {
	room.pausedBy = ""
	remaining := room.opts.GuessDuration - time.Since(room.RoundStartTime)
	if remaining <= 0 {
		results := g.resolveRoundLocked(room)
		return GameResumedData{RemainingSeconds: 0}, &results
	}

	room.Phase = PhaseGuessing
	gen := room.bumpGen()
	g.schedulePhaseTimer(room, PhaseGuessing, gen, remaining, "timer_update", func(gen uint64) {
		g.guessingExpired(room, gen)
	})
	return GameResumedData{RemainingSeconds: int(remaining / time.Second)}, nil
}
