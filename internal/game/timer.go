package game

import (
	"context"
	"time"
)

// schedulePhaseTimer spawns the timed task for the phase instance the caller
// just entered. The caller must hold room.mu and pass the generation it set;
// the task re-validates (phase, gen) under the lock on every tick and exits
// silently the moment either changed. The context cancel is an optimization
// so superseded tasks stop ticking promptly; correctness rests on the
// generation check alone.
func (g *Registry) schedulePhaseTimer(room *Room, phase Phase, gen uint64, d time.Duration, tickType string, expire func(gen uint64)) {
	ctx, cancel := context.WithCancel(context.Background())
	room.timerCancel = cancel
	go g.runPhaseTimer(ctx, room, phase, gen, d, tickType, expire)
}

func (g *Registry) runPhaseTimer(ctx context.Context, room *Room, phase Phase, gen uint64, d time.Duration, tickType string, expire func(gen uint64)) {
	interval := room.opts.TickInterval
	total := int(d / interval)
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
			if room.Phase != phase || room.timerGen != gen {
				// stale task: a faster path already moved the room on
				room.mu.Unlock()
				return
			}
			elapsed++
			remaining := total - elapsed
			earlyExit := phase == PhaseGuessing && room.allConnectedSubmitted()
			room.mu.Unlock()

			if remaining > 0 && !earlyExit {
				g.broadcastTick(room.ID, tickType, ticksToSeconds(remaining, interval))
				continue
			}
			// expire re-validates (phase, gen) under the lock before committing
			expire(gen)
			return
		}
	}
}

func (g *Registry) broadcastTick(roomID, tickType string, seconds int) {
	var msg Message[any]
	switch tickType {
	case "countdown_tick":
		msg = Message[any]{Type: tickType, Data: CountdownTickData{Seconds: seconds}}
	case "timer_update":
		msg = Message[any]{Type: tickType, Data: TimerUpdateData{Seconds: seconds}}
	case "pause_countdown":
		msg = Message[any]{Type: tickType, Data: PauseCountdownData{Seconds: seconds}}
	default:
		return
	}
	g.broadcaster.Broadcast(roomID, msg)
}

func ticksToSeconds(ticks int, interval time.Duration) int {
	return int(time.Duration(ticks) * interval / time.Second)
}
