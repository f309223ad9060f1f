package server

import (
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"incommon/internal/config"
	"incommon/internal/docstore"
	"incommon/internal/game"

	"github.com/rs/zerolog"
)

// testClock starts at the wall clock and advances one millisecond per reading
// so join order is stable.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now().UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestApp(t *testing.T) (*Server, *testClock) {
	t.Helper()
	clock := newTestClock()
	store := docstore.NewMemoryStore()
	opts := game.DefaultOptions()
	opts.Now = clock.Now
	ctl := game.NewController(store, opts, zerolog.Nop())
	cfg := config.Default()
	cfg.TokenSecret = "test-secret"
	srv := New(ctl, store, nil, cfg, zerolog.Nop())
	t.Cleanup(srv.Close)
	return srv, clock
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}
