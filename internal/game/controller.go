package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"incommon/internal/docstore"

	"github.com/rs/zerolog"
)

// Thresholds are the tunable limits of the end-of-game awards.
type Thresholds struct {
	ClosestScoreDiff int
	Overlap          int
}

type Options struct {
	MinPlayers        int
	MaxPlayers        int
	DeckSize          int
	PromptOptions     int
	ScatterCategories int
	RevealHold        time.Duration
	Defaults          map[Mode]Settings
	Thresholds        Thresholds

	Words      WordSource
	Dictionary Dictionary
	Events     EventSink
	Now        func() time.Time
	Rand       *rand.Rand
}

func DefaultOptions() Options {
	return Options{
		MinPlayers:        3,
		MaxPlayers:        12,
		DeckSize:          52,
		PromptOptions:     5,
		ScatterCategories: 6,
		Defaults: map[Mode]Settings{
			ModeCardMatch:     {Rounds: 3, DeckType: "life", WordSelection: WordSelectionCustom, Language: "en"},
			ModeWordFind:      {Rounds: 3, RoundSeconds: 120, MinWordLength: 4, Language: "en"},
			ModeScattergories: {Rounds: 3, RoundSeconds: 90, Language: "en"},
		},
		Thresholds: Thresholds{ClosestScoreDiff: 20, Overlap: 3},
	}
}

// Controller drives games through their rounds. All state lives in the document
// store; the controller keeps only the in-flight reveal guard.
type Controller struct {
	store docstore.Store
	opts  Options
	log   zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	advanceMu sync.Mutex
	advancing map[string]struct{}
}

func NewController(store docstore.Store, opts Options, logger zerolog.Logger) *Controller {
	defaults := DefaultOptions()
	if opts.Defaults == nil {
		opts.Defaults = defaults.Defaults
	}
	if opts.Words == nil {
		opts.Words = EmbeddedWords{}
	}
	if opts.Events == nil {
		opts.Events = LogSink{Log: logger}
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Controller{
		store:     store,
		opts:      opts,
		log:       logger.With().Str("component", "game").Logger(),
		rng:       opts.Rand,
		advancing: make(map[string]struct{}),
	}
}

func (c *Controller) Options() Options {
	return c.opts
}

func (c *Controller) millis() int64 {
	return c.opts.Now().UnixMilli()
}

func (c *Controller) pick(words []string, n int, exclude []string) []string {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return pickWords(c.rng, words, n, exclude)
}

func (c *Controller) patch(ctx context.Context, path string, fields map[string]any, opts ...docstore.PatchOption) error {
	return retry(ctx, func() error {
		return c.store.Patch(ctx, path, fields, opts...)
	})
}

func (c *Controller) emit(ctx context.Context, event Event) {
	c.opts.Events.Record(ctx, event)
}

func (c *Controller) loadGame(ctx context.Context, code string) (Game, error) {
	doc, err := c.store.Get(ctx, gamePath(code))
	if err != nil {
		return Game{}, notFound("game "+code, err)
	}
	return ParseGame(doc)
}

func (c *Controller) loadPlayers(ctx context.Context, code string) ([]Player, error) {
	docs, err := c.store.Query(ctx, playersPath(code), docstore.Query{OrderBy: "joinedAt"})
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	return parsePlayers(docs)
}

func (c *Controller) loadPlayer(ctx context.Context, code, id string) (Player, error) {
	doc, err := c.store.Get(ctx, playerPath(code, id))
	if err != nil {
		return Player{}, notFound("player "+id, err)
	}
	return ParsePlayer(doc)
}

func (c *Controller) loadRound(ctx context.Context, code string, number int) (Round, error) {
	doc, err := c.store.Get(ctx, roundPath(code, number))
	if err != nil {
		return Round{}, notFound(fmt.Sprintf("round %d", number), err)
	}
	return ParseRound(doc)
}

// loadCurrent loads a started game with its players and current round.
func (c *Controller) loadCurrent(ctx context.Context, code string) (Game, []Player, Round, error) {
	game, err := c.loadGame(ctx, code)
	if err != nil {
		return Game{}, nil, Round{}, err
	}
	if game.Phase != PhaseStarted {
		return Game{}, nil, Round{}, conflict("game is %s", game.Phase)
	}
	if game.CurrentRound < 1 {
		return Game{}, nil, Round{}, conflict("no round has started")
	}
	players, err := c.loadPlayers(ctx, code)
	if err != nil {
		return Game{}, nil, Round{}, err
	}
	round, err := c.loadRound(ctx, code, game.CurrentRound)
	if err != nil {
		return Game{}, nil, Round{}, err
	}
	return game, players, round, nil
}

// requireFirstPlayer checks that actorID holds the first-player capability.
func requireFirstPlayer(players []Player, actorID string) error {
	first, ok := firstPlayer(players)
	if !ok || first.ID != actorID {
		return forbidden("only the first player can do that")
	}
	return nil
}

// IsFirstPlayer reports whether playerID is the earliest joined player of code.
func (c *Controller) IsFirstPlayer(ctx context.Context, code, playerID string) (bool, error) {
	players, err := c.loadPlayers(ctx, code)
	if err != nil {
		return false, err
	}
	return requireFirstPlayer(players, playerID) == nil, nil
}

func (c *Controller) withDefaults(mode Mode, s Settings) Settings {
	d := c.opts.Defaults[mode]
	if s.Rounds == 0 {
		s.Rounds = d.Rounds
	}
	if s.DeckType == "" {
		s.DeckType = d.DeckType
	}
	if s.WordSelection == "" {
		s.WordSelection = d.WordSelection
	}
	if s.RoundSeconds == 0 {
		s.RoundSeconds = d.RoundSeconds
	}
	if s.MinWordLength == 0 {
		s.MinWordLength = d.MinWordLength
	}
	if s.Language == "" {
		s.Language = d.Language
	}
	if s.Language == "" {
		s.Language = "en"
	}
	return s
}

// deadline is when a round started at startedAt runs out, or 0 for untimed rounds.
func deadline(game Game, startedAt int64) int64 {
	if game.Mode == ModeCardMatch || game.Settings.Untimed || game.Settings.RoundSeconds <= 0 {
		return 0
	}
	return startedAt + int64(game.Settings.RoundSeconds)*1000
}

func (c *Controller) beginAdvance(key string) bool {
	c.advanceMu.Lock()
	defer c.advanceMu.Unlock()
	if _, busy := c.advancing[key]; busy {
		return false
	}
	c.advancing[key] = struct{}{}
	return true
}

func (c *Controller) endAdvance(key string) {
	c.advanceMu.Lock()
	delete(c.advancing, key)
	c.advanceMu.Unlock()
}

func isStale(err error) bool {
	return errors.Is(err, docstore.ErrStale)
}
