package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"incommon/internal/docstore"
)

const (
	maxCodeAttempts = 10
	latchAttempts   = 5
	// clockSkewMillis lets a timeout land slightly before the stored deadline.
	clockSkewMillis = 1000
)

func (c *Controller) CreateGame(ctx context.Context, mode Mode, settings Settings) (Game, error) {
	if !mode.Valid() {
		return Game{}, invalid("mode", "unknown game mode %q", mode)
	}
	settings = c.withDefaults(mode, settings)
	if err := validateSettings(mode, settings); err != nil {
		return Game{}, err
	}
	game := Game{
		Mode:        mode,
		Phase:       PhaseSetup,
		TotalRounds: settings.Rounds,
		DeckSize:    c.opts.DeckSize,
		Deck:        []int{},
		Categories:  []string{},
		UsedWords:   []string{},
		Settings:    settings,
		CreatedAt:   c.millis(),
	}
	fields, err := encodeFields(game)
	if err != nil {
		return Game{}, fmt.Errorf("encode game: %w", err)
	}
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := newJoinCode()
		err = retry(ctx, func() error {
			_, err := c.store.Create(ctx, gamesCollection, code, fields)
			return err
		})
		if errors.Is(err, docstore.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return Game{}, fmt.Errorf("create game: %w", err)
		}
		c.emit(ctx, Event{Type: EventGameCreated, GameCode: code, Payload: EventPayload{Mode: mode}})
		return c.loadGame(ctx, code)
	}
	return Game{}, fmt.Errorf("create game: no free join code after %d attempts", maxCodeAttempts)
}

// JoinGame adds a player, or returns the existing player when the name is
// already taken in this game.
func (c *Controller) JoinGame(ctx context.Context, code, name string) (Player, error) {
	name, err := ValidateName(name)
	if err != nil {
		return Player{}, err
	}
	game, err := c.loadGame(ctx, code)
	if err != nil {
		return Player{}, err
	}
	players, err := c.loadPlayers(ctx, game.Code)
	if err != nil {
		return Player{}, err
	}
	for _, player := range players {
		if strings.EqualFold(player.Name, name) {
			return player, nil
		}
	}
	if game.Phase != PhaseSetup {
		return Player{}, conflict("game has already started")
	}
	if c.opts.MaxPlayers > 0 && len(players) >= c.opts.MaxPlayers {
		return Player{}, invalid("name", "game is full")
	}
	fields, err := encodeFields(Player{
		Name:             name,
		JoinedAt:         c.millis(),
		RoundScores:      map[string]int{},
		Cards:            []int{},
		Words:            []string{},
		Answers:          map[string]string{},
		Connections:      map[string]int{},
		RoundConnections: map[string]map[string]int{},
	})
	if err != nil {
		return Player{}, fmt.Errorf("encode player: %w", err)
	}
	var id string
	err = retry(ctx, func() error {
		var err error
		id, err = c.store.Create(ctx, playersPath(game.Code), "", fields)
		return err
	})
	if err != nil {
		return Player{}, fmt.Errorf("add player: %w", err)
	}
	c.emit(ctx, Event{Type: EventPlayerJoined, GameCode: game.Code, PlayerID: id, Payload: EventPayload{PlayerName: name}})
	return c.loadPlayer(ctx, game.Code, id)
}

func (c *Controller) RemovePlayer(ctx context.Context, code, actorID, targetID string) error {
	game, err := c.loadGame(ctx, code)
	if err != nil {
		return err
	}
	if game.Phase != PhaseSetup && game.Phase != PhaseBuildDeck {
		return conflict("players can only be removed before the game starts")
	}
	players, err := c.loadPlayers(ctx, code)
	if err != nil {
		return err
	}
	if err := requireFirstPlayer(players, actorID); err != nil {
		return err
	}
	if actorID == targetID {
		return invalid("player", "the first player cannot remove themselves")
	}
	target, ok := findPlayer(players, targetID)
	if !ok {
		return fmt.Errorf("player %s: %w", targetID, ErrNotFound)
	}
	if err := retry(ctx, func() error { return c.store.Delete(ctx, playerPath(code, targetID)) }); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("remove player: %w", err)
	}
	c.emit(ctx, Event{Type: EventPlayerRemoved, GameCode: code, PlayerID: targetID, Payload: EventPayload{PlayerName: target.Name}})
	return nil
}

func (c *Controller) UpdateSettings(ctx context.Context, code, actorID string, settings Settings) (Game, error) {
	game, err := c.loadGame(ctx, code)
	if err != nil {
		return Game{}, err
	}
	if game.Phase != PhaseSetup {
		return Game{}, conflict("settings are locked once the game starts")
	}
	players, err := c.loadPlayers(ctx, code)
	if err != nil {
		return Game{}, err
	}
	if err := requireFirstPlayer(players, actorID); err != nil {
		return Game{}, err
	}
	settings = c.withDefaults(game.Mode, settings)
	if err := validateSettings(game.Mode, settings); err != nil {
		return Game{}, err
	}
	fields := map[string]any{"settings": settings, "totalRounds": settings.Rounds}
	if err := c.patch(ctx, gamePath(code), fields, docstore.IfVersion(game.Version)); err != nil {
		if isStale(err) {
			return Game{}, conflict("game changed, try again")
		}
		return Game{}, fmt.Errorf("update settings: %w", err)
	}
	c.emit(ctx, Event{Type: EventSettings, GameCode: code, PlayerID: actorID})
	return c.loadGame(ctx, code)
}

// StartGame leaves setup. Card games with a custom deck stop in deck building;
// everything else starts round 1.
func (c *Controller) StartGame(ctx context.Context, code, actorID string) (Game, error) {
	game, err := c.loadGame(ctx, code)
	if err != nil {
		return Game{}, err
	}
	players, err := c.loadPlayers(ctx, code)
	if err != nil {
		return Game{}, err
	}
	if err := requireFirstPlayer(players, actorID); err != nil {
		return Game{}, err
	}
	switch game.Phase {
	case PhaseStarted, PhaseBuildDeck:
		return game, nil
	case PhaseEnded:
		return Game{}, conflict("game has ended")
	}
	if len(players) < c.opts.MinPlayers {
		return Game{}, invalid("players", "at least %d players are needed to start", c.opts.MinPlayers)
	}

	numCards := 5
	if len(players) > 8 {
		numCards = 4
	}
	fields := map[string]any{"numCards": numCards, "deckSize": c.opts.DeckSize}
	if game.Mode == ModeScattergories {
		categories, err := c.opts.Words.Words(ctx, KindCategory, game.Settings.Language)
		if err != nil {
			return Game{}, fmt.Errorf("load categories: %w", err)
		}
		picked := c.pick(categories, c.opts.ScatterCategories, nil)
		if len(picked) == 0 {
			return Game{}, fmt.Errorf("load categories: no categories for %q", game.Settings.Language)
		}
		fields["categories"] = picked
	}
	next := PhaseStarted
	if game.Mode == ModeCardMatch && game.Settings.DeckType == DeckCustom {
		next = PhaseBuildDeck
	}
	fields["phase"] = next

	if err := c.patch(ctx, gamePath(code), fields, docstore.IfVersion(game.Version)); err != nil {
		if isStale(err) {
			return c.loadGame(ctx, code)
		}
		return Game{}, fmt.Errorf("start game: %w", err)
	}
	c.emit(ctx, Event{Type: EventGameStarted, GameCode: code, PlayerID: actorID, Payload: EventPayload{Mode: game.Mode, Phase: next}})
	if next == PhaseBuildDeck {
		return c.loadGame(ctx, code)
	}
	return c.beginRound(ctx, code, 1)
}

// SubmitDeck stores the custom deck and starts round 1.
func (c *Controller) SubmitDeck(ctx context.Context, code, actorID string, deck []int) (Game, error) {
	game, err := c.loadGame(ctx, code)
	if err != nil {
		return Game{}, err
	}
	players, err := c.loadPlayers(ctx, code)
	if err != nil {
		return Game{}, err
	}
	if err := requireFirstPlayer(players, actorID); err != nil {
		return Game{}, err
	}
	if game.Phase == PhaseStarted {
		return game, nil
	}
	if game.Phase != PhaseBuildDeck {
		return Game{}, conflict("game is not building a deck")
	}
	seen := map[int]struct{}{}
	for _, card := range deck {
		if card < 0 || card >= game.DeckSize {
			return Game{}, invalid("deck", "card %d is outside the deck", card)
		}
		if _, dup := seen[card]; dup {
			return Game{}, invalid("deck", "card %d appears twice", card)
		}
		seen[card] = struct{}{}
	}
	if len(deck) < game.NumCards {
		return Game{}, invalid("deck", "a deck needs at least %d cards", game.NumCards)
	}
	fields := map[string]any{"deck": deck, "phase": PhaseStarted}
	if err := c.patch(ctx, gamePath(code), fields, docstore.IfVersion(game.Version)); err != nil {
		if isStale(err) {
			return c.loadGame(ctx, code)
		}
		return Game{}, fmt.Errorf("submit deck: %w", err)
	}
	c.emit(ctx, Event{Type: EventDeckBuilt, GameCode: code, PlayerID: actorID})
	return c.beginRound(ctx, code, 1)
}

// beginRound creates round number and points the game at it.
func (c *Controller) beginRound(ctx context.Context, code string, number int) (Game, error) {
	if _, err := c.StartRound(ctx, code, number); err != nil {
		return Game{}, err
	}
	if err := c.patch(ctx, gamePath(code), map[string]any{"currentRound": number}); err != nil {
		return Game{}, fmt.Errorf("set current round: %w", err)
	}
	return c.loadGame(ctx, code)
}

// StartRound creates round number. The round number is the document id, so a
// second call returns the round that already exists.
func (c *Controller) StartRound(ctx context.Context, code string, number int) (Round, error) {
	game, err := c.loadGame(ctx, code)
	if err != nil {
		return Round{}, err
	}
	if game.Phase != PhaseStarted {
		return Round{}, conflict("game is %s", game.Phase)
	}
	if number < 1 || number > game.TotalRounds {
		return Round{}, invalid("round", "round %d is outside 1..%d", number, game.TotalRounds)
	}
	if existing, err := c.loadRound(ctx, code, number); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Round{}, err
	}
	players, err := c.loadPlayers(ctx, code)
	if err != nil {
		return Round{}, err
	}
	if len(players) == 0 {
		return Round{}, conflict("game has no players")
	}

	round := Round{
		Number:        number,
		ChooserID:     players[number%len(players)].ID,
		Options:       []string{},
		Categories:    []string{},
		PlayerOrder:   []string{},
		Submissions:   map[string]Submission{},
		AllAnswers:    map[string]map[string][]string{},
		Rejected:      map[string]map[string]bool{},
		Connections:   map[string]map[string]int{},
		TopCards:      []int{},
		RevealOrder:   []string{},
		RevealedItems: map[string]RevealedItem{},
		Scores:        map[string]int{},
	}
	var usedWords []string
	switch game.Mode {
	case ModeCardMatch:
		if game.Settings.WordSelection == WordSelectionList {
			if round.Options, err = c.promptOptions(ctx, game, KindCardPrompt); err != nil {
				return Round{}, err
			}
		}
	case ModeWordFind:
		if round.Options, err = c.promptOptions(ctx, game, KindWordPrompt); err != nil {
			return Round{}, err
		}
	case ModeScattergories:
		letters := c.pick(ScattergoriesLetters, 1, game.UsedWords)
		if len(letters) == 0 {
			letters = c.pick(ScattergoriesLetters, 1, nil)
		}
		now := c.millis()
		round.Letter = letters[0]
		round.Prompt = letters[0]
		round.Categories = append([]string(nil), game.Categories...)
		round.StartedAt = now
		round.Deadline = deadline(game, now)
		usedWords = append(append([]string(nil), game.UsedWords...), round.Letter)
	}

	fields, err := encodeFields(round)
	if err != nil {
		return Round{}, fmt.Errorf("encode round: %w", err)
	}
	err = retry(ctx, func() error {
		_, err := c.store.Create(ctx, roundsPath(code), roundID(number), fields)
		return err
	})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return c.loadRound(ctx, code, number)
	}
	if err != nil {
		return Round{}, fmt.Errorf("create round %d: %w", number, err)
	}
	if usedWords != nil {
		if err := c.patch(ctx, gamePath(code), map[string]any{"usedWords": usedWords}); err != nil {
			return Round{}, fmt.Errorf("record letter: %w", err)
		}
	}
	c.emit(ctx, Event{Type: EventRoundStarted, GameCode: code, Round: number, PlayerID: round.ChooserID, Payload: EventPayload{Prompt: round.Prompt}})
	return c.loadRound(ctx, code, number)
}

func (c *Controller) promptOptions(ctx context.Context, game Game, kind string) ([]string, error) {
	words, err := c.opts.Words.Words(ctx, kind, game.Settings.Language)
	if err != nil {
		return nil, fmt.Errorf("load %s words: %w", kind, err)
	}
	options := c.pick(words, c.opts.PromptOptions, game.UsedWords)
	if len(options) == 0 {
		return nil, conflict("no unused prompts left")
	}
	return options, nil
}

// ChoosePrompt records the chooser's prompt and starts the round clock.
func (c *Controller) ChoosePrompt(ctx context.Context, code, actorID, word string) (Round, error) {
	game, _, round, err := c.loadCurrent(ctx, code)
	if err != nil {
		return Round{}, err
	}
	if round.PromptChosen() {
		if strings.EqualFold(strings.TrimSpace(word), round.Prompt) {
			return round, nil
		}
		return Round{}, conflict("prompt already chosen")
	}
	if actorID != round.ChooserID {
		return Round{}, forbidden("only the chooser picks the prompt")
	}
	prompt := ""
	if len(round.Options) > 0 {
		for _, option := range round.Options {
			if strings.EqualFold(option, strings.TrimSpace(word)) {
				prompt = option
				break
			}
		}
		if prompt == "" {
			return Round{}, invalid("prompt", "%q is not one of the options", word)
		}
	} else {
		if prompt, err = validatePrompt(word); err != nil {
			return Round{}, err
		}
	}
	if game.Mode == ModeWordFind {
		prompt = strings.ToUpper(prompt)
	}

	now := c.millis()
	fields := map[string]any{
		"prompt":    prompt,
		"startedAt": now,
		"deadline":  deadline(game, now),
	}
	if err := c.patch(ctx, roundPath(code, round.Number), fields, docstore.IfVersion(round.Version)); err != nil {
		if !isStale(err) {
			return Round{}, fmt.Errorf("choose prompt: %w", err)
		}
		current, err := c.loadRound(ctx, code, round.Number)
		if err != nil {
			return Round{}, err
		}
		if current.PromptChosen() && strings.EqualFold(current.Prompt, prompt) {
			return current, nil
		}
		return Round{}, conflict("prompt already chosen")
	}
	used := append(append([]string(nil), game.UsedWords...), prompt)
	if err := c.patch(ctx, gamePath(code), map[string]any{"usedWords": used}); err != nil {
		return Round{}, fmt.Errorf("record prompt: %w", err)
	}
	c.emit(ctx, Event{Type: EventPromptChosen, GameCode: code, Round: round.Number, PlayerID: actorID, Payload: EventPayload{Prompt: prompt}})
	return c.loadRound(ctx, code, round.Number)
}

// SubmitChoice stores a player's submission and re-evaluates the round latch.
// After the latch, only a repeat of the recorded submission is accepted.
func (c *Controller) SubmitChoice(ctx context.Context, code, playerID string, sub Submission) (Round, error) {
	game, players, round, err := c.loadCurrent(ctx, code)
	if err != nil {
		return Round{}, err
	}
	player, ok := findPlayer(players, playerID)
	if !ok {
		return Round{}, forbidden("not a player in this game")
	}
	state := RoundStateOf(game, round)
	if state != StateSubmitting && state != StateRevealPending {
		return Round{}, conflict("round is not accepting submissions")
	}
	normalized, err := c.validateSubmission(ctx, game, round, sub)
	if err != nil {
		return Round{}, err
	}
	if round.AllSubmitted {
		if sameSubmission(game.Mode, round.Submissions[playerID], normalized) {
			return round, nil
		}
		return Round{}, conflict("submissions are closed")
	}
	// Once time is up each player still gets one write: clients flush what they
	// have when they see the clock stop.
	if game.Mode != ModeCardMatch && round.TimerEnded && player.Submitted {
		if sameSubmission(game.Mode, submissionOf(game, player), normalized) {
			return round, nil
		}
		return Round{}, conflict("time is up")
	}

	fields := map[string]any{"submitted": true}
	switch game.Mode {
	case ModeCardMatch:
		fields["cards"] = normalized.Cards
	case ModeWordFind:
		fields["words"] = normalized.Words
	case ModeScattergories:
		fields["answers"] = normalized.Answers
	}
	if err := c.patch(ctx, playerPath(code, playerID), fields); err != nil {
		return Round{}, fmt.Errorf("save submission: %w", err)
	}
	c.emit(ctx, Event{Type: EventSubmitted, GameCode: code, Round: round.Number, PlayerID: playerID})
	return c.evaluateSubmissions(ctx, game, round.Number, false)
}

func (c *Controller) validateSubmission(ctx context.Context, game Game, round Round, sub Submission) (Submission, error) {
	out := Submission{}
	switch game.Mode {
	case ModeCardMatch:
		if len(sub.Cards) != game.NumCards {
			return out, invalid("cards", "choose exactly %d cards", game.NumCards)
		}
		seen := map[int]struct{}{}
		for _, card := range sub.Cards {
			if _, dup := seen[card]; dup {
				return out, invalid("cards", "card %d chosen twice", card)
			}
			seen[card] = struct{}{}
			if len(game.Deck) > 0 {
				if indexOf(game.Deck, card) < 0 {
					return out, invalid("cards", "card %d is not in the deck", card)
				}
			} else if card < 0 || card >= game.DeckSize {
				return out, invalid("cards", "card %d is outside the deck", card)
			}
		}
		out.Cards = append([]int(nil), sub.Cards...)
	case ModeWordFind:
		words := normalizeWords(sub.Words)
		for _, word := range words {
			if wordLength(word) < game.Settings.MinWordLength {
				return out, invalid("words", "%s is shorter than %d letters", word, game.Settings.MinWordLength)
			}
			if !CanSpell(round.Prompt, word) {
				return out, invalid("words", "%s cannot be made from %s", word, round.Prompt)
			}
			if c.opts.Dictionary == nil {
				continue
			}
			ok, err := c.opts.Dictionary.Contains(ctx, game.Settings.Language, word)
			if err != nil {
				return out, fmt.Errorf("check %s: %w", word, err)
			}
			if !ok {
				return out, invalid("words", "%s is not in the word list", word)
			}
		}
		out.Words = words
	case ModeScattergories:
		out.Answers = make(map[string]string, len(sub.Answers))
		for key, answer := range sub.Answers {
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(round.Categories) || strconv.Itoa(idx) != key {
				return out, invalid("answers", "unknown category %q", key)
			}
			text, err := validateAnswer(answer)
			if err != nil {
				return out, err
			}
			if text != "" {
				out.Answers[key] = text
			}
		}
	}
	return out, nil
}

func sameSubmission(mode Mode, recorded, sub Submission) bool {
	switch mode {
	case ModeCardMatch:
		if len(recorded.Cards) != len(sub.Cards) {
			return false
		}
		for i := range sub.Cards {
			if recorded.Cards[i] != sub.Cards[i] {
				return false
			}
		}
		return true
	case ModeWordFind:
		if len(recorded.Words) != len(sub.Words) {
			return false
		}
		for i := range sub.Words {
			if recorded.Words[i] != sub.Words[i] {
				return false
			}
		}
		return true
	case ModeScattergories:
		if len(recorded.Answers) != len(sub.Answers) {
			return false
		}
		for key, answer := range sub.Answers {
			if recorded.Answers[key] != answer {
				return false
			}
		}
		return true
	}
	return false
}

// evaluateSubmissions latches the round once every player has submitted, or
// unconditionally when force is set. The latch and the scoring snapshot are
// written together, guarded by the round version so two drivers cannot both latch.
func (c *Controller) evaluateSubmissions(ctx context.Context, game Game, number int, force bool) (Round, error) {
	for attempt := 0; attempt < latchAttempts; attempt++ {
		round, err := c.loadRound(ctx, game.Code, number)
		if err != nil {
			return Round{}, err
		}
		if round.ScoresCalculated {
			return round, nil
		}
		players, err := c.loadPlayers(ctx, game.Code)
		if err != nil {
			return Round{}, err
		}
		if !force && !AllSubmitted(game, round, players) {
			return round, nil
		}
		err = c.patch(ctx, roundPath(game.Code, number), latchFields(game, round, players), docstore.IfVersion(round.Version))
		if isStale(err) {
			continue
		}
		if err != nil {
			return Round{}, fmt.Errorf("latch round %d: %w", number, err)
		}
		c.emit(ctx, Event{Type: EventAllSubmitted, GameCode: game.Code, Round: number})
		return c.loadRound(ctx, game.Code, number)
	}
	return c.loadRound(ctx, game.Code, number)
}

// EndTimer stops submissions for a timed round. A timeout is honoured only once
// the stored deadline has passed; a manual end needs the first player.
func (c *Controller) EndTimer(ctx context.Context, code, actorID string, reason EndReason) (Round, error) {
	game, players, round, err := c.loadCurrent(ctx, code)
	if err != nil {
		return Round{}, err
	}
	if game.Mode == ModeCardMatch {
		return Round{}, invalid("timer", "card rounds are not timed")
	}
	if round.TimerEnded {
		return round, nil
	}
	if RoundStateOf(game, round) != StateSubmitting {
		return Round{}, conflict("round is not running")
	}
	switch reason {
	case EndManual:
		if err := requireFirstPlayer(players, actorID); err != nil {
			return Round{}, err
		}
	case EndTimeout:
		if round.Deadline == 0 {
			return Round{}, conflict("round is untimed")
		}
		if c.millis() < round.Deadline-clockSkewMillis {
			return Round{}, conflict("round is still running")
		}
	default:
		return Round{}, invalid("reason", "unknown end reason %q", reason)
	}
	fields := map[string]any{"timerEnded": true, "endReason": reason}
	if err := c.patch(ctx, roundPath(code, round.Number), fields, docstore.IfVersion(round.Version)); err != nil {
		if !isStale(err) {
			return Round{}, fmt.Errorf("end timer: %w", err)
		}
		current, err := c.loadRound(ctx, code, round.Number)
		if err != nil {
			return Round{}, err
		}
		if current.TimerEnded {
			return current, nil
		}
		// A submission landed in between; end on the fresh version.
		if err := c.patch(ctx, roundPath(code, round.Number), fields, docstore.IfVersion(current.Version)); err != nil {
			if isStale(err) {
				return c.loadRound(ctx, code, round.Number)
			}
			return Round{}, fmt.Errorf("end timer: %w", err)
		}
	}
	c.emit(ctx, Event{Type: EventTimerEnded, GameCode: code, Round: round.Number, PlayerID: actorID, Payload: EventPayload{Reason: reason}})
	if _, err := c.evaluateSubmissions(ctx, game, round.Number, false); err != nil {
		return Round{}, err
	}
	return c.loadRound(ctx, code, round.Number)
}

// StartNextRound moves past a completed reveal: to the next round, or to the
// end of the game after the last one.
func (c *Controller) StartNextRound(ctx context.Context, code, actorID string) (Game, error) {
	game, err := c.loadGame(ctx, code)
	if err != nil {
		return Game{}, err
	}
	if game.Phase == PhaseEnded {
		return game, nil
	}
	if game.Phase != PhaseStarted {
		return Game{}, conflict("game is %s", game.Phase)
	}
	players, err := c.loadPlayers(ctx, code)
	if err != nil {
		return Game{}, err
	}
	if err := requireFirstPlayer(players, actorID); err != nil {
		return Game{}, err
	}
	round, err := c.loadRound(ctx, code, game.CurrentRound)
	if err != nil {
		return Game{}, err
	}
	if !round.RevealComplete {
		return Game{}, conflict("round %d is not finished", round.Number)
	}
	if err := c.foldScores(ctx, game, round); err != nil {
		return Game{}, err
	}

	if game.CurrentRound >= game.TotalRounds {
		fields := map[string]any{"phase": PhaseEnded, "endedAt": c.millis()}
		if err := c.patch(ctx, gamePath(code), fields, docstore.IfVersion(game.Version)); err != nil {
			if isStale(err) {
				return c.loadGame(ctx, code)
			}
			return Game{}, fmt.Errorf("end game: %w", err)
		}
		c.emit(ctx, Event{Type: EventGameEnded, GameCode: code, Round: round.Number})
		return c.loadGame(ctx, code)
	}

	for _, player := range players {
		if err := c.patch(ctx, playerPath(code, player.ID), clearedSubmission()); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return Game{}, fmt.Errorf("reset player %s: %w", player.ID, err)
		}
	}
	return c.beginRound(ctx, code, game.CurrentRound+1)
}

func clearedSubmission() map[string]any {
	return map[string]any{
		"submitted": false,
		"cards":     []int{},
		"words":     []string{},
		"answers":   map[string]string{},
	}
}

// ResetGame returns an ended game to setup with the same players.
func (c *Controller) ResetGame(ctx context.Context, code, actorID string) (Game, error) {
	game, err := c.loadGame(ctx, code)
	if err != nil {
		return Game{}, err
	}
	players, err := c.loadPlayers(ctx, code)
	if err != nil {
		return Game{}, err
	}
	if err := requireFirstPlayer(players, actorID); err != nil {
		return Game{}, err
	}
	if game.Phase == PhaseSetup {
		return game, nil
	}
	if game.Phase != PhaseEnded {
		return Game{}, conflict("game is still running")
	}
	rounds, err := c.store.Query(ctx, roundsPath(code), docstore.Query{})
	if err != nil {
		return Game{}, fmt.Errorf("list rounds: %w", err)
	}
	for _, doc := range rounds {
		err := retry(ctx, func() error { return c.store.Delete(ctx, doc.Path) })
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return Game{}, fmt.Errorf("delete round %s: %w", doc.ID, err)
		}
	}
	for _, player := range players {
		fields := clearedSubmission()
		fields["gameScore"] = 0
		fields["roundScores"] = map[string]int{}
		fields["connections"] = map[string]int{}
		fields["roundConnections"] = map[string]map[string]int{}
		if err := c.patch(ctx, playerPath(code, player.ID), fields); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return Game{}, fmt.Errorf("reset player %s: %w", player.ID, err)
		}
	}
	fields := map[string]any{
		"phase":        PhaseSetup,
		"currentRound": 0,
		"categories":   []string{},
		"deck":         []int{},
		"usedWords":    []string{},
		"endedAt":      docstore.DeleteField,
	}
	if err := c.patch(ctx, gamePath(code), fields); err != nil {
		return Game{}, fmt.Errorf("reset game: %w", err)
	}
	c.emit(ctx, Event{Type: EventGameReset, GameCode: code, PlayerID: actorID})
	return c.loadGame(ctx, code)
}

// State loads everything a client renders for code.
func (c *Controller) State(ctx context.Context, code string) (Snapshot, error) {
	game, err := c.loadGame(ctx, code)
	if err != nil {
		return Snapshot{}, err
	}
	players, err := c.loadPlayers(ctx, code)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Game: game, Players: players}
	if first, ok := firstPlayer(players); ok {
		snap.FirstPlayerID = first.ID
	}
	if game.CurrentRound > 0 {
		round, err := c.loadRound(ctx, code, game.CurrentRound)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Round = &round
		snap.State = RoundStateOf(game, round)
	} else if game.Phase == PhaseEnded {
		snap.State = StateGameEnded
	}
	return snap, nil
}

// Rounds lists every round of code in order.
func (c *Controller) Rounds(ctx context.Context, code string) ([]Round, error) {
	docs, err := c.store.Query(ctx, roundsPath(code), docstore.Query{OrderBy: "number"})
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	rounds := make([]Round, 0, len(docs))
	for _, doc := range docs {
		round, err := ParseRound(doc)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	return rounds, nil
}

// Summary builds the end-of-game leaderboard for code.
func (c *Controller) Summary(ctx context.Context, code string) (Summary, error) {
	game, err := c.loadGame(ctx, code)
	if err != nil {
		return Summary{}, err
	}
	players, err := c.loadPlayers(ctx, code)
	if err != nil {
		return Summary{}, err
	}
	rounds, err := c.Rounds(ctx, code)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(game, players, rounds, c.opts.Thresholds), nil
}
