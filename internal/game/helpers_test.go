package game

import (
	"context"
	"io"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"incommon/internal/docstore"

	"github.com/rs/zerolog"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type staticWords map[string][]string

func (w staticWords) Words(_ context.Context, kind, _ string) ([]string, error) {
	return w[kind], nil
}

func staticDictionary(words ...string) *WordList {
	return NewWordList(func(context.Context, string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(strings.Join(words, "\n"))), nil
	})
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Record(_ context.Context, event Event) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *recordingSink) count(eventType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, event := range s.events {
		if event.Type == eventType {
			n++
		}
	}
	return n
}

type testEnv struct {
	ctl    *Controller
	store  *docstore.MemoryStore
	clock  *testClock
	events *recordingSink
}

func newTestEnv(t *testing.T, configure func(*Options)) *testEnv {
	t.Helper()
	clock := newTestClock()
	events := &recordingSink{}
	opts := DefaultOptions()
	opts.Words = staticWords{
		KindCardPrompt: {"ocean", "holiday", "memory"},
		KindWordPrompt: {"GARDEN"},
		KindCategory:   {"Fruits", "Animals"},
	}
	opts.Dictionary = staticDictionary("garden", "dare", "rage", "range", "den")
	opts.Events = events
	opts.Now = clock.Now
	opts.Rand = rand.New(rand.NewSource(1))
	opts.ScatterCategories = 2
	if configure != nil {
		configure(&opts)
	}
	store := docstore.NewMemoryStore()
	return &testEnv{
		ctl:    NewController(store, opts, zerolog.Nop()),
		store:  store,
		clock:  clock,
		events: events,
	}
}

// setupGame creates a game and joins the named players a millisecond apart.
func (e *testEnv) setupGame(t *testing.T, mode Mode, settings Settings, names ...string) (Game, []Player) {
	t.Helper()
	ctx := context.Background()
	game, err := e.ctl.CreateGame(ctx, mode, settings)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	players := make([]Player, 0, len(names))
	for _, name := range names {
		e.clock.Advance(time.Millisecond)
		player, err := e.ctl.JoinGame(ctx, game.Code, name)
		if err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
		players = append(players, player)
	}
	return game, players
}

func (e *testEnv) round(t *testing.T, code string) Round {
	t.Helper()
	snap, err := e.ctl.State(context.Background(), code)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if snap.Round == nil {
		t.Fatalf("expected a current round")
	}
	return *snap.Round
}

// revealAll advances until the reveal completes and returns the number of steps taken.
func (e *testEnv) revealAll(t *testing.T, code, driverID string) (Round, int) {
	t.Helper()
	steps := 0
	for i := 0; i < 100; i++ {
		round, err := e.ctl.AdvanceReveal(context.Background(), code, driverID)
		if err != nil {
			t.Fatalf("advance reveal: %v", err)
		}
		steps++
		if round.RevealComplete {
			return round, steps
		}
	}
	t.Fatalf("reveal did not complete")
	return Round{}, 0
}
