package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"incommon/internal/docstore"
)

const rejectAttempts = 3

func (c *Controller) rules(game Game) RevealRules {
	return RevealRules{Mode: game.Mode, MinWordLength: game.Settings.MinWordLength}
}

// StartReveal opens the reveal once submissions are latched and, for timed
// modes, the clock has stopped. Players of a timed round who never submitted
// reveal nothing.
func (c *Controller) StartReveal(ctx context.Context, code, actorID string) (Round, error) {
	game, players, round, err := c.loadCurrent(ctx, code)
	if err != nil {
		return Round{}, err
	}
	if err := requireFirstPlayer(players, actorID); err != nil {
		return Round{}, err
	}
	if round.RevealStarted {
		return round, nil
	}
	if state := RoundStateOf(game, round); state != StateRevealPending {
		return Round{}, conflict("round is %s", state)
	}
	if !round.ScoresCalculated {
		// A stopped clock closes a timed round with whatever has been submitted.
		force := game.Mode != ModeCardMatch && round.TimerEnded
		if round, err = c.evaluateSubmissions(ctx, game, round.Number, force); err != nil {
			return Round{}, err
		}
		if !round.ScoresCalculated {
			return Round{}, conflict("still waiting for submissions")
		}
	}
	if err := c.patch(ctx, roundPath(code, round.Number), startRevealFields(game.Mode, round), docstore.IfVersion(round.Version)); err != nil {
		if !isStale(err) {
			return Round{}, fmt.Errorf("start reveal: %w", err)
		}
		current, err := c.loadRound(ctx, code, round.Number)
		if err != nil {
			return Round{}, err
		}
		if current.RevealStarted {
			return current, nil
		}
		return Round{}, conflict("round changed, try again")
	}
	c.emit(ctx, Event{Type: EventRevealStarted, GameCode: code, Round: round.Number, PlayerID: actorID})
	return c.loadRound(ctx, code, round.Number)
}

// AdvanceReveal reveals the next item. Calls that arrive while another advance
// for the same round is in flight, or inside the reveal hold, return the round
// unchanged.
func (c *Controller) AdvanceReveal(ctx context.Context, code, actorID string) (Round, error) {
	game, players, round, err := c.loadCurrent(ctx, code)
	if err != nil {
		return Round{}, err
	}
	if err := requireFirstPlayer(players, actorID); err != nil {
		return Round{}, err
	}
	key := roundPath(code, round.Number)
	if !c.beginAdvance(key) {
		c.log.Debug().Str("game_id", code).Int("round", round.Number).Msg("reveal advance already in flight")
		return round, nil
	}
	defer c.endAdvance(key)

	if round, err = c.loadRound(ctx, code, round.Number); err != nil {
		return Round{}, err
	}
	if !round.RevealStarted {
		return Round{}, conflict("reveal has not started")
	}
	if round.RevealComplete {
		return c.completeRound(ctx, game, round)
	}
	now := c.millis()
	if hold := c.opts.RevealHold.Milliseconds(); hold > 0 && round.LastRevealAt > 0 && now-round.LastRevealAt < hold {
		return round, nil
	}

	next := AdvanceReveal(c.rules(game), round)
	if err := c.patch(ctx, key, revealFields(next, now), docstore.IfVersion(round.Version)); err != nil {
		if isStale(err) {
			return c.loadRound(ctx, code, round.Number)
		}
		return Round{}, fmt.Errorf("advance reveal: %w", err)
	}
	if item := next.Cursor.CurrentItem; item != "" {
		c.emit(ctx, Event{
			Type:     EventItemRevealed,
			GameCode: code,
			Round:    round.Number,
			PlayerID: next.Cursor.CurrentPlayer,
			Payload:  EventPayload{Item: item, Points: revealedPoints(next)},
		})
	}
	current, err := c.loadRound(ctx, code, round.Number)
	if err != nil {
		return Round{}, err
	}
	if current.RevealComplete {
		return c.completeRound(ctx, game, current)
	}
	return current, nil
}

func revealedPoints(round Round) int {
	key := round.Cursor.CurrentItem
	if round.Cursor.CategoryIndex > 0 {
		key = strconv.Itoa(round.Cursor.CategoryIndex - 1)
	}
	return round.RevealedItems[key].Points
}

func (c *Controller) completeRound(ctx context.Context, game Game, round Round) (Round, error) {
	if round.ScoresFolded {
		return round, nil
	}
	if err := c.foldScores(ctx, game, round); err != nil {
		return Round{}, err
	}
	c.emit(ctx, Event{Type: EventRoundComplete, GameCode: game.Code, Round: round.Number, Payload: EventPayload{Scores: round.Scores}})
	return c.loadRound(ctx, game.Code, round.Number)
}

// foldScores copies the round scores onto the players. Each round writes its
// own key and the totals are recomputed from them, so folding twice is harmless.
func (c *Controller) foldScores(ctx context.Context, game Game, round Round) error {
	if round.ScoresFolded {
		return nil
	}
	players, err := c.loadPlayers(ctx, game.Code)
	if err != nil {
		return err
	}
	key := roundID(round.Number)
	for _, player := range players {
		score, played := round.Scores[player.ID]
		if !played {
			continue
		}
		total := score
		for number, points := range player.RoundScores {
			if number != key {
				total += points
			}
		}
		fields := map[string]any{
			"roundScores." + key: score,
			"gameScore":          total,
		}
		if game.Mode == ModeCardMatch {
			mine := round.Connections[player.ID]
			if mine == nil {
				mine = map[string]int{}
			}
			sums := map[string]int{}
			for number, row := range player.RoundConnections {
				if number == key {
					continue
				}
				for other, value := range row {
					sums[other] += value
				}
			}
			for other, value := range mine {
				sums[other] += value
			}
			fields["roundConnections."+key] = mine
			fields["connections"] = sums
		}
		if err := c.patch(ctx, playerPath(game.Code, player.ID), fields); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				continue
			}
			return fmt.Errorf("fold scores for %s: %w", player.ID, err)
		}
	}
	if err := c.patch(ctx, roundPath(game.Code, round.Number), map[string]any{"scoresFolded": true}); err != nil {
		return fmt.Errorf("mark round folded: %w", err)
	}
	return nil
}

// SetRejected marks a Scattergories answer as rejected, or clears the mark,
// for a category that has not been scored yet.
func (c *Controller) SetRejected(ctx context.Context, code, actorID string, category int, answer string, rejected bool) (Round, error) {
	for attempt := 0; attempt < rejectAttempts; attempt++ {
		game, players, round, err := c.loadCurrent(ctx, code)
		if err != nil {
			return Round{}, err
		}
		if game.Mode != ModeScattergories {
			return Round{}, invalid("mode", "only category answers can be rejected")
		}
		if err := requireFirstPlayer(players, actorID); err != nil {
			return Round{}, err
		}
		if !round.ScoresCalculated {
			return Round{}, conflict("answers are not in yet")
		}
		if category < 0 || category >= len(round.Categories) {
			return Round{}, invalid("category", "unknown category %d", category)
		}
		key := strconv.Itoa(category)
		if _, scored := round.RevealedItems[key]; scored || round.RevealComplete {
			return Round{}, conflict("category %q is already scored", round.Categories[category])
		}
		normalized := NormalizeAnswer(answer)
		if _, ok := round.AllAnswers[key][normalized]; !ok {
			return Round{}, invalid("answer", "nobody answered %q", answer)
		}
		marks := map[string]bool{}
		for existing, flagged := range round.Rejected[key] {
			if flagged {
				marks[existing] = true
			}
		}
		if rejected {
			marks[normalized] = true
		} else {
			delete(marks, normalized)
		}
		err = c.patch(ctx, roundPath(code, round.Number), map[string]any{"rejected." + key: marks}, docstore.IfVersion(round.Version))
		if isStale(err) {
			continue
		}
		if err != nil {
			return Round{}, fmt.Errorf("set rejected: %w", err)
		}
		c.emit(ctx, Event{
			Type:     EventAnswerRejected,
			GameCode: code,
			Round:    round.Number,
			PlayerID: actorID,
			Payload:  EventPayload{Category: round.Categories[category], Answer: normalized, Rejected: rejected},
		})
		return c.loadRound(ctx, code, round.Number)
	}
	return Round{}, conflict("round kept changing, try again")
}
