package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var (
	handAda = []int{3, 1, 4, 0, 2}
	handBen = []int{1, 3, 0, 4, 2}
	handCam = []int{9, 8, 3, 7, 6}
)

// startCardRound runs a card game up to a latched first round.
func startCardRound(t *testing.T, env *testEnv, rounds int) (Game, []Player) {
	t.Helper()
	ctx := context.Background()
	game, players := env.setupGame(t, ModeCardMatch, Settings{Rounds: rounds}, "Ada", "Ben", "Cam")
	game, err := env.ctl.StartGame(ctx, game.Code, players[0].ID)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if game.Phase != PhaseStarted || game.CurrentRound != 1 || game.NumCards != 5 {
		t.Fatalf("unexpected started game %+v", game)
	}
	round := env.round(t, game.Code)
	if round.ChooserID != players[1].ID {
		t.Fatalf("expected second player to choose round 1, got %s", round.ChooserID)
	}
	if _, err := env.ctl.ChoosePrompt(ctx, game.Code, round.ChooserID, "Summer holiday"); err != nil {
		t.Fatalf("choose prompt: %v", err)
	}
	hands := [][]int{handAda, handBen, handCam}
	for i, player := range players {
		if _, err := env.ctl.SubmitChoice(ctx, game.Code, player.ID, Submission{Cards: hands[i]}); err != nil {
			t.Fatalf("submit %s: %v", player.Name, err)
		}
	}
	return game, players
}

func TestCardGameFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	game, players := startCardRound(t, env, 2)

	snap, err := env.ctl.State(ctx, game.Code)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if snap.State != StateRevealPending {
		t.Fatalf("expected reveal pending after last hand, got %s", snap.State)
	}
	if snap.FirstPlayerID != players[0].ID {
		t.Fatalf("expected %s as first player, got %s", players[0].ID, snap.FirstPlayerID)
	}
	if _, err := env.ctl.StartReveal(ctx, game.Code, players[0].ID); err != nil {
		t.Fatalf("start reveal: %v", err)
	}
	round, steps := env.revealAll(t, game.Code, players[0].ID)
	if steps != 9 {
		t.Fatalf("expected 9 reveal steps, got %d", steps)
	}
	want := map[string]int{players[0].ID: 336, players[1].ID: 335, players[2].ID: 127}
	for id, score := range want {
		if round.Scores[id] != score {
			t.Fatalf("expected round score %d for %s, got %d", score, id, round.Scores[id])
		}
	}
	if !round.ScoresFolded {
		t.Fatalf("expected scores folded on completion")
	}

	snap, _ = env.ctl.State(ctx, game.Code)
	for _, player := range snap.Players {
		if player.GameScore != want[player.ID] {
			t.Fatalf("expected game score %d for %s, got %d", want[player.ID], player.Name, player.GameScore)
		}
	}

	game, err = env.ctl.StartNextRound(ctx, game.Code, players[0].ID)
	if err != nil {
		t.Fatalf("next round: %v", err)
	}
	if game.CurrentRound != 2 {
		t.Fatalf("expected round 2, got %d", game.CurrentRound)
	}
	snap, _ = env.ctl.State(ctx, game.Code)
	for _, player := range snap.Players {
		if player.Submitted || len(player.Cards) != 0 {
			t.Fatalf("expected %s reset for the next round, got %+v", player.Name, player)
		}
		if player.GameScore != want[player.ID] {
			t.Fatalf("expected game score kept for %s", player.Name)
		}
	}
	if snap.Round.ChooserID != players[2].ID {
		t.Fatalf("expected third player to choose round 2, got %s", snap.Round.ChooserID)
	}
	if snap.State != StateChoosingPrompt {
		t.Fatalf("expected choosing prompt, got %s", snap.State)
	}
}

func TestCardGameEndsAfterLastRound(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	game, players := startCardRound(t, env, 1)
	if _, err := env.ctl.StartReveal(ctx, game.Code, players[0].ID); err != nil {
		t.Fatalf("start reveal: %v", err)
	}
	env.revealAll(t, game.Code, players[0].ID)

	game, err := env.ctl.StartNextRound(ctx, game.Code, players[0].ID)
	if err != nil {
		t.Fatalf("next round: %v", err)
	}
	if game.Phase != PhaseEnded {
		t.Fatalf("expected game ended, got %s", game.Phase)
	}
	again, err := env.ctl.StartNextRound(ctx, game.Code, players[0].ID)
	if err != nil || again.Phase != PhaseEnded {
		t.Fatalf("expected repeated next round to be a no-op, got %v %v", again.Phase, err)
	}

	summary, err := env.ctl.Summary(ctx, game.Code)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Standings[0].Name != "Ada" || summary.Standings[0].Score != 336 {
		t.Fatalf("expected Ada to lead with 336, got %+v", summary.Standings[0])
	}
	if summary.Cards == nil || summary.Cards.Strongest == nil || summary.Cards.Strongest.Value != 272 {
		t.Fatalf("expected strongest connection 272, got %+v", summary.Cards)
	}
	if env.events.count(EventGameEnded) != 1 {
		t.Fatalf("expected one game ended event, got %d", env.events.count(EventGameEnded))
	}

	game, err = env.ctl.ResetGame(ctx, game.Code, players[0].ID)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if game.Phase != PhaseSetup || game.CurrentRound != 0 {
		t.Fatalf("expected reset to setup, got %+v", game)
	}
	rounds, _ := env.ctl.Rounds(ctx, game.Code)
	if len(rounds) != 0 {
		t.Fatalf("expected rounds deleted, got %d", len(rounds))
	}
	snap, _ := env.ctl.State(ctx, game.Code)
	for _, player := range snap.Players {
		if player.GameScore != 0 || len(player.RoundScores) != 0 {
			t.Fatalf("expected scores cleared for %s, got %+v", player.Name, player)
		}
	}
}

func TestConcurrentAdvanceNeverDoubleAwards(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	game, players := startCardRound(t, env, 1)
	if _, err := env.ctl.StartReveal(ctx, game.Code, players[0].ID); err != nil {
		t.Fatalf("start reveal: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.ctl.AdvanceReveal(ctx, game.Code, players[0].ID); err != nil {
				t.Errorf("advance: %v", err)
			}
		}()
	}
	wg.Wait()
	round := env.round(t, game.Code)
	if !round.RevealComplete {
		round, _ = env.revealAll(t, game.Code, players[0].ID)
	}
	if len(round.RevealedItems) != 9 {
		t.Fatalf("expected 9 revealed items, got %d", len(round.RevealedItems))
	}
	if round.Scores[players[0].ID] != 336 || round.Scores[players[2].ID] != 127 {
		t.Fatalf("expected scores unaffected by concurrent drivers, got %v", round.Scores)
	}
}

func TestRevealHoldIgnoresEarlyAdvance(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.RevealHold = 2 * time.Second })
	ctx := context.Background()
	game, players := startCardRound(t, env, 1)
	if _, err := env.ctl.StartReveal(ctx, game.Code, players[0].ID); err != nil {
		t.Fatalf("start reveal: %v", err)
	}
	first, err := env.ctl.AdvanceReveal(ctx, game.Code, players[0].ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	early, err := env.ctl.AdvanceReveal(ctx, game.Code, players[0].ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(early.RevealedItems) != len(first.RevealedItems) {
		t.Fatalf("expected advance inside the hold to be ignored")
	}
	env.clock.Advance(2 * time.Second)
	later, err := env.ctl.AdvanceReveal(ctx, game.Code, players[0].ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(later.RevealedItems) != len(first.RevealedItems)+1 {
		t.Fatalf("expected advance after the hold, got %d items", len(later.RevealedItems))
	}
}

func TestOnlyFirstPlayerDrivesReveal(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	game, players := startCardRound(t, env, 1)
	if _, err := env.ctl.StartReveal(ctx, game.Code, players[1].ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden start, got %v", err)
	}
	if _, err := env.ctl.StartReveal(ctx, game.Code, players[0].ID); err != nil {
		t.Fatalf("start reveal: %v", err)
	}
	if _, err := env.ctl.AdvanceReveal(ctx, game.Code, players[2].ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden advance, got %v", err)
	}
}

func TestSubmissionAfterLatch(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	game, players := startCardRound(t, env, 1)

	if _, err := env.ctl.SubmitChoice(ctx, game.Code, players[0].ID, Submission{Cards: handAda}); err != nil {
		t.Fatalf("expected identical resubmission to be accepted, got %v", err)
	}
	_, err := env.ctl.SubmitChoice(ctx, game.Code, players[0].ID, Submission{Cards: []int{5, 6, 7, 8, 9}})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for a changed hand, got %v", err)
	}
	if env.events.count(EventAllSubmitted) != 1 {
		t.Fatalf("expected a single latch, got %d", env.events.count(EventAllSubmitted))
	}
}

func TestCardSubmissionValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	game, players := env.setupGame(t, ModeCardMatch, Settings{Rounds: 1}, "Ada", "Ben", "Cam")
	if _, err := env.ctl.StartGame(ctx, game.Code, players[0].ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	round := env.round(t, game.Code)
	if _, err := env.ctl.ChoosePrompt(ctx, game.Code, players[0].ID, "nope"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected only the chooser to pick, got %v", err)
	}
	if _, err := env.ctl.ChoosePrompt(ctx, game.Code, round.ChooserID, "ocean"); err != nil {
		t.Fatalf("choose: %v", err)
	}
	cases := [][]int{
		{1, 2, 3},
		{1, 1, 2, 3, 4},
		{1, 2, 3, 4, 99},
	}
	for _, cards := range cases {
		if _, err := env.ctl.SubmitChoice(ctx, game.Code, players[0].ID, Submission{Cards: cards}); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected validation error for %v, got %v", cards, err)
		}
	}
	if _, err := env.ctl.SubmitChoice(ctx, game.Code, "stranger", Submission{Cards: handAda}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected unknown player to be rejected, got %v", err)
	}
}

func TestStartRoundIsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	game, players := env.setupGame(t, ModeWordFind, Settings{Rounds: 2, RoundSeconds: 60}, "Ada", "Ben", "Cam")
	if _, err := env.ctl.StartGame(ctx, game.Code, players[0].ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	first := env.round(t, game.Code)
	again, err := env.ctl.StartRound(ctx, game.Code, 1)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if again.Version != first.Version || again.ChooserID != first.ChooserID {
		t.Fatalf("expected the existing round back, got %+v", again)
	}
	if env.events.count(EventRoundStarted) != 1 {
		t.Fatalf("expected one round started event, got %d", env.events.count(EventRoundStarted))
	}
}

func TestJoinRules(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.MaxPlayers = 3 })
	ctx := context.Background()
	game, players := env.setupGame(t, ModeWordFind, Settings{}, "Ada", "Ben", "Cam")

	rejoined, err := env.ctl.JoinGame(ctx, game.Code, "ada")
	if err != nil || rejoined.ID != players[0].ID {
		t.Fatalf("expected rejoin as the same player, got %+v %v", rejoined, err)
	}
	if _, err := env.ctl.JoinGame(ctx, game.Code, "Dee"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected full game to reject, got %v", err)
	}
	if _, err := env.ctl.JoinGame(ctx, game.Code, "a name that is too long"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected long name to be rejected, got %v", err)
	}
	if _, err := env.ctl.JoinGame(ctx, "ZZZZ", "Eve"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected unknown game, got %v", err)
	}
	if err := env.ctl.RemovePlayer(ctx, game.Code, players[1].ID, players[2].ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected only the first player to remove, got %v", err)
	}
	if err := env.ctl.RemovePlayer(ctx, game.Code, players[0].ID, players[2].ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := env.ctl.StartGame(ctx, game.Code, players[0].ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected too few players, got %v", err)
	}
}

func TestCustomDeckBuildsBeforeFirstRound(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	game, players := env.setupGame(t, ModeCardMatch, Settings{Rounds: 1, DeckType: DeckCustom}, "Ada", "Ben", "Cam")
	game, err := env.ctl.StartGame(ctx, game.Code, players[0].ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if game.Phase != PhaseBuildDeck || game.CurrentRound != 0 {
		t.Fatalf("expected deck building, got %+v", game)
	}
	if _, err := env.ctl.SubmitDeck(ctx, game.Code, players[0].ID, []int{1, 2}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected small deck to be rejected, got %v", err)
	}
	game, err = env.ctl.SubmitDeck(ctx, game.Code, players[0].ID, []int{2, 4, 6, 8, 10, 12})
	if err != nil {
		t.Fatalf("submit deck: %v", err)
	}
	if game.Phase != PhaseStarted || game.CurrentRound != 1 {
		t.Fatalf("expected round 1 after the deck, got %+v", game)
	}
	round := env.round(t, game.Code)
	if _, err := env.ctl.ChoosePrompt(ctx, game.Code, round.ChooserID, "ocean"); err != nil {
		t.Fatalf("choose: %v", err)
	}
	if _, err := env.ctl.SubmitChoice(ctx, game.Code, players[0].ID, Submission{Cards: handAda}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected cards outside the custom deck to be rejected, got %v", err)
	}
	if _, err := env.ctl.SubmitChoice(ctx, game.Code, players[0].ID, Submission{Cards: []int{2, 4, 6, 8, 10}}); err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestWordGameFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	game, players := env.setupGame(t, ModeWordFind, Settings{Rounds: 1, RoundSeconds: 60, MinWordLength: 4}, "Ada", "Ben", "Cam")
	if _, err := env.ctl.StartGame(ctx, game.Code, players[0].ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	round := env.round(t, game.Code)
	if len(round.Options) != 1 || round.Options[0] != "GARDEN" {
		t.Fatalf("expected GARDEN offered, got %v", round.Options)
	}
	if _, err := env.ctl.ChoosePrompt(ctx, game.Code, round.ChooserID, "PIZZA"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected unoffered prompt rejected, got %v", err)
	}
	round, err := env.ctl.ChoosePrompt(ctx, game.Code, round.ChooserID, "garden")
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if round.Prompt != "GARDEN" || round.Deadline != round.StartedAt+60_000 {
		t.Fatalf("unexpected round clock %+v", round)
	}

	invalid := [][]string{{"gardens"}, {"den"}, {"dear"}}
	for _, words := range invalid {
		if _, err := env.ctl.SubmitChoice(ctx, game.Code, players[0].ID, Submission{Words: words}); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected %v rejected, got %v", words, err)
		}
	}
	submissions := [][]string{{"garden", "dare", "rage", "DARE"}, {"dare"}, {}}
	for i, player := range players {
		if _, err := env.ctl.SubmitChoice(ctx, game.Code, player.ID, Submission{Words: submissions[i]}); err != nil {
			t.Fatalf("submit %s: %v", player.Name, err)
		}
	}
	if _, err := env.ctl.StartReveal(ctx, game.Code, players[0].ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected reveal to wait for the clock, got %v", err)
	}
	if _, err := env.ctl.EndTimer(ctx, game.Code, "", EndTimeout); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected early timeout rejected, got %v", err)
	}
	env.clock.Advance(60 * time.Second)
	round, err = env.ctl.EndTimer(ctx, game.Code, "", EndTimeout)
	if err != nil {
		t.Fatalf("end timer: %v", err)
	}
	if !round.TimerEnded || round.EndReason != EndTimeout {
		t.Fatalf("expected timer ended by timeout, got %+v", round)
	}
	if _, err := env.ctl.EndTimer(ctx, game.Code, players[0].ID, EndManual); err != nil {
		t.Fatalf("expected second end to be a no-op, got %v", err)
	}
	if _, err := env.ctl.SubmitChoice(ctx, game.Code, players[2].ID, Submission{Words: []string{"rage"}}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected a changed submission after the latch to be rejected, got %v", err)
	}

	if _, err := env.ctl.StartReveal(ctx, game.Code, players[0].ID); err != nil {
		t.Fatalf("start reveal: %v", err)
	}
	round, steps := env.revealAll(t, game.Code, players[0].ID)
	if steps != 3 {
		t.Fatalf("expected 3 reveal steps, got %d", steps)
	}
	if round.Scores[players[0].ID] != 3 || round.Scores[players[1].ID] != 1 || round.Scores[players[2].ID] != 0 {
		t.Fatalf("unexpected scores %v", round.Scores)
	}

	if _, err := env.ctl.StartNextRound(ctx, game.Code, players[0].ID); err != nil {
		t.Fatalf("next round: %v", err)
	}
	summary, err := env.ctl.Summary(ctx, game.Code)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalWords != 4 {
		t.Fatalf("expected 4 words found, got %d", summary.TotalWords)
	}
	awards := map[string]Award{}
	for _, award := range summary.Awards {
		awards[award.Key] = award
	}
	if awards[AwardWordWizard].Name != "Ada" || awards[AwardBigWordEnergy].Detail != "GARDEN" {
		t.Fatalf("unexpected awards %+v", summary.Awards)
	}
	if awards[AwardUniqueMind].Value != 2 {
		t.Fatalf("expected Ada to have 2 unique words, got %+v", awards[AwardUniqueMind])
	}
}

func TestScattergoriesFlowWithRejection(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	game, players := env.setupGame(t, ModeScattergories, Settings{Rounds: 1, RoundSeconds: 90}, "Ada", "Ben", "Cam")
	if _, err := env.ctl.StartGame(ctx, game.Code, players[0].ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	round := env.round(t, game.Code)
	if round.Letter == "" || round.Prompt != round.Letter || len(round.Categories) != 2 {
		t.Fatalf("expected letter and categories on round start, got %+v", round)
	}
	fruits, animals := "0", "1"
	if round.Categories[0] == "Animals" {
		fruits, animals = "1", "0"
	}
	answers := []map[string]string{
		{fruits: "apple", animals: "ant"},
		{fruits: "Apple "},
		{animals: "bear"},
	}
	for i, player := range players {
		if _, err := env.ctl.SubmitChoice(ctx, game.Code, player.ID, Submission{Answers: answers[i]}); err != nil {
			t.Fatalf("submit %s: %v", player.Name, err)
		}
	}
	if _, err := env.ctl.SubmitChoice(ctx, game.Code, players[0].ID, Submission{Answers: map[string]string{"7": "x"}}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected unknown category rejected, got %v", err)
	}
	if _, err := env.ctl.EndTimer(ctx, game.Code, players[1].ID, EndManual); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected manual end limited to the first player, got %v", err)
	}
	if _, err := env.ctl.EndTimer(ctx, game.Code, players[0].ID, EndManual); err != nil {
		t.Fatalf("end timer: %v", err)
	}

	animalsIdx := 1
	if animals == "0" {
		animalsIdx = 0
	}
	if _, err := env.ctl.SetRejected(ctx, game.Code, players[1].ID, animalsIdx, "bear", true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected judge limited to the first player, got %v", err)
	}
	round, err := env.ctl.SetRejected(ctx, game.Code, players[0].ID, animalsIdx, "bear", true)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if !round.Rejected[animals]["BEAR"] {
		t.Fatalf("expected BEAR rejected, got %v", round.Rejected)
	}

	if _, err := env.ctl.StartReveal(ctx, game.Code, players[0].ID); err != nil {
		t.Fatalf("start reveal: %v", err)
	}
	round, err = env.ctl.AdvanceReveal(ctx, game.Code, players[0].ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := env.ctl.SetRejected(ctx, game.Code, players[0].ID, 0, round.Categories[0], false); !errors.Is(err, ErrConflict) && !errors.Is(err, ErrValidation) {
		t.Fatalf("expected scored category to be locked, got %v", err)
	}
	round, _ = env.revealAll(t, game.Code, players[0].ID)
	if round.Scores[players[0].ID] != 1 || round.Scores[players[2].ID] != 0 || round.Scores[players[1].ID] != 0 {
		t.Fatalf("unexpected scores %v", round.Scores)
	}
}

func TestUpdateSettingsBeforeStart(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	game, players := env.setupGame(t, ModeWordFind, Settings{}, "Ada", "Ben", "Cam")

	if _, err := env.ctl.UpdateSettings(ctx, game.Code, players[1].ID, Settings{Rounds: 5}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected only the first player to change settings, got %v", err)
	}
	if _, err := env.ctl.UpdateSettings(ctx, game.Code, players[0].ID, Settings{MinWordLength: 12}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected minimum word length to be rejected, got %v", err)
	}
	updated, err := env.ctl.UpdateSettings(ctx, game.Code, players[0].ID, Settings{Rounds: 5, MinWordLength: 5})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if updated.TotalRounds != 5 || updated.Settings.MinWordLength != 5 {
		t.Fatalf("expected 5 rounds with min length 5, got %d and %d", updated.TotalRounds, updated.Settings.MinWordLength)
	}
	if updated.Settings.Language != "en" {
		t.Fatalf("expected default language, got %q", updated.Settings.Language)
	}

	if _, err := env.ctl.StartGame(ctx, game.Code, players[0].ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.ctl.UpdateSettings(ctx, game.Code, players[0].ID, Settings{Rounds: 2}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected settings to lock after start, got %v", err)
	}
}

// startTimedWordRound runs a one-round WordFind game to a chosen GARDEN prompt.
func startTimedWordRound(t *testing.T, env *testEnv) (Game, []Player) {
	t.Helper()
	ctx := context.Background()
	game, players := env.setupGame(t, ModeWordFind, Settings{Rounds: 1, RoundSeconds: 60, MinWordLength: 4}, "Ada", "Ben", "Cam")
	if _, err := env.ctl.StartGame(ctx, game.Code, players[0].ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	round := env.round(t, game.Code)
	if _, err := env.ctl.ChoosePrompt(ctx, game.Code, round.ChooserID, "garden"); err != nil {
		t.Fatalf("choose: %v", err)
	}
	return game, players
}

func TestSubmissionAfterTimeUp(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	game, players := startTimedWordRound(t, env)

	if _, err := env.ctl.SubmitChoice(ctx, game.Code, players[0].ID, Submission{Words: []string{"dare"}}); err != nil {
		t.Fatalf("submit Ada: %v", err)
	}
	if _, err := env.ctl.SubmitChoice(ctx, game.Code, players[1].ID, Submission{Words: []string{"dare"}}); err != nil {
		t.Fatalf("submit Ben: %v", err)
	}
	env.clock.Advance(60 * time.Second)
	if _, err := env.ctl.EndTimer(ctx, game.Code, "", EndTimeout); err != nil {
		t.Fatalf("end timer: %v", err)
	}

	if _, err := env.ctl.SubmitChoice(ctx, game.Code, players[1].ID, Submission{Words: []string{"range"}}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected Ben's changed words rejected after time up, got %v", err)
	}
	if _, err := env.ctl.SubmitChoice(ctx, game.Code, players[1].ID, Submission{Words: []string{"dare"}}); err != nil {
		t.Fatalf("expected Ben's repeated submission accepted, got %v", err)
	}
	round, err := env.ctl.SubmitChoice(ctx, game.Code, players[2].ID, Submission{Words: []string{"rage"}})
	if err != nil {
		t.Fatalf("expected Cam's first submission accepted after time up, got %v", err)
	}
	if !round.AllSubmitted || !round.ScoresCalculated {
		t.Fatalf("expected round latched once Cam submitted, got %+v", round)
	}
	if words := round.Submissions[players[2].ID].Words; len(words) != 1 || words[0] != "RAGE" {
		t.Fatalf("expected Cam's words in the scoring snapshot, got %v", words)
	}

	if _, err := env.ctl.StartReveal(ctx, game.Code, players[0].ID); err != nil {
		t.Fatalf("start reveal: %v", err)
	}
	round, _ = env.revealAll(t, game.Code, players[0].ID)
	if round.Scores[players[2].ID] == 0 {
		t.Fatalf("expected Cam to score for RAGE, got %v", round.Scores)
	}
}

func TestTimedRoundRevealsWithoutEveryPlayer(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	game, players := startTimedWordRound(t, env)

	if _, err := env.ctl.SubmitChoice(ctx, game.Code, players[0].ID, Submission{Words: []string{"dare"}}); err != nil {
		t.Fatalf("submit Ada: %v", err)
	}
	if _, err := env.ctl.StartReveal(ctx, game.Code, players[0].ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected reveal to wait for the clock, got %v", err)
	}
	env.clock.Advance(60 * time.Second)
	if _, err := env.ctl.EndTimer(ctx, game.Code, "", EndTimeout); err != nil {
		t.Fatalf("end timer: %v", err)
	}

	round, err := env.ctl.StartReveal(ctx, game.Code, players[0].ID)
	if err != nil {
		t.Fatalf("expected reveal to start without Ben and Cam, got %v", err)
	}
	if !round.AllSubmitted || !round.RevealStarted {
		t.Fatalf("expected latched round in reveal, got %+v", round)
	}
	if len(round.PlayerOrder) != 3 {
		t.Fatalf("expected every player in the reveal order, got %v", round.PlayerOrder)
	}
	if words := round.Submissions[players[1].ID].Words; len(words) != 0 {
		t.Fatalf("expected Ben to reveal nothing, got %v", words)
	}

	if _, err := env.ctl.SubmitChoice(ctx, game.Code, players[1].ID, Submission{Words: []string{"rage"}}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected submissions closed once the reveal latched, got %v", err)
	}
	round, _ = env.revealAll(t, game.Code, players[0].ID)
	if round.Scores[players[0].ID] == 0 || round.Scores[players[1].ID] != 0 || round.Scores[players[2].ID] != 0 {
		t.Fatalf("unexpected scores %v", round.Scores)
	}
}
