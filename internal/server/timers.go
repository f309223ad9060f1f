package server

import (
	"context"
	"errors"
	"time"

	"incommon/internal/game"
)

const timerCallTimeout = 10 * time.Second

type roundTimer struct {
	round int
	timer *time.Timer
}

func (t *roundTimer) Stop() {
	t.timer.Stop()
}

// syncRoundTimer arms a timer for the running round's deadline, or clears it
// when the current round has no pending deadline.
func (s *Server) syncRoundTimer(ctx context.Context, code string) {
	snap, err := s.ctl.State(ctx, code)
	if err != nil {
		s.log.Warn().Err(err).Str("game_id", code).Msg("round timer state")
		return
	}
	round := snap.Round
	if round == nil || round.Deadline == 0 || round.TimerEnded || snap.State != game.StateSubmitting {
		s.cancelRoundTimer(code)
		return
	}
	s.scheduleRoundTimer(code, round.Number, time.UnixMilli(round.Deadline))
}

func (s *Server) scheduleRoundTimer(code string, number int, at time.Time) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if existing, ok := s.timers[code]; ok {
		if existing.round == number {
			return
		}
		existing.Stop()
	}
	wait := time.Until(at)
	if wait < 0 {
		wait = 0
	}
	s.timers[code] = &roundTimer{
		round: number,
		timer: time.AfterFunc(wait, func() {
			s.expireRound(code, number)
		}),
	}
}

func (s *Server) cancelRoundTimer(code string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[code]; ok {
		timer.Stop()
		delete(s.timers, code)
	}
}

// expireRound ends round number of code on timeout. Clients may race the same
// call; whichever write lands first wins and the others see the ended round.
func (s *Server) expireRound(code string, number int) {
	s.timersMu.Lock()
	if current, ok := s.timers[code]; ok && current.round == number {
		delete(s.timers, code)
	}
	s.timersMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timerCallTimeout)
	defer cancel()
	snap, err := s.ctl.State(ctx, code)
	if err != nil || snap.Round == nil || snap.Round.Number != number {
		return
	}
	round, err := s.ctl.EndTimer(ctx, code, "", game.EndTimeout)
	if err != nil {
		if errors.Is(err, game.ErrConflict) {
			s.log.Debug().Err(err).Str("game_id", code).Int("round", number).Msg("round timer skipped")
			return
		}
		s.log.Warn().Err(err).Str("game_id", code).Int("round", number).Msg("round timer failed")
		return
	}
	s.log.Info().Str("game_id", code).Int("round", round.Number).Msg("round timed out")
	s.ws.Broadcast(code, map[string]any{"type": "timer_expired", "round": round.Number})
}
