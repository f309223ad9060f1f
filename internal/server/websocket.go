package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"sync"
	"time"

	"incommon/internal/docstore"
	"incommon/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsSendBuffer   = 64
	wsWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient owns one connection. Only its writer goroutine writes to conn.
type wsClient struct {
	conn   *websocket.Conn
	send   chan []byte
	closed chan struct{}
	once   sync.Once
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		conn:   conn,
		send:   make(chan []byte, wsSendBuffer),
		closed: make(chan struct{}),
	}
}

// queue hands a message to the writer. A client that cannot keep up is dropped.
func (c *wsClient) queue(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case <-c.closed:
	case c.send <- data:
	default:
		c.close()
	}
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

func (c *wsClient) writeLoop() {
	for {
		select {
		case <-c.closed:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		}
	}
}

type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*wsClient]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*wsClient]struct{}),
	}
}

func (h *wsHub) Add(code string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[code]
	if group == nil {
		group = make(map[*wsClient]struct{})
		h.groups[code] = group
	}
	group[client] = struct{}{}
}

func (h *wsHub) Remove(code string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[code]
	if group == nil {
		return
	}
	delete(group, client)
	client.close()
	if len(group) == 0 {
		delete(h.groups, code)
	}
}

func (h *wsHub) Broadcast(code string, payload any) {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.groups[code]))
	for client := range h.groups[code] {
		clients = append(clients, client)
	}
	h.mu.Unlock()
	for _, client := range clients {
		client.queue(payload)
	}
}

func (h *wsHub) Count(code string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[code])
}

func (h *wsHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for code, group := range h.groups {
		for client := range group {
			client.close()
		}
		delete(h.groups, code)
	}
}

// handleWebsocket streams a game's documents: a full snapshot first, then every
// change to the game, its players and its rounds.
func (s *Server) handleWebsocket(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	// subscribe before loading the snapshot so no change can fall in between
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	paths := []string{game.GamePath(code), game.PlayersPath(code), game.RoundsPath(code)}
	feeds := make([]<-chan docstore.Document, 0, len(paths))
	for _, p := range paths {
		feed, unsubscribe, err := s.store.Subscribe(ctx, p)
		if err != nil {
			s.log.Warn().Err(err).Str("game_id", code).Str("path", p).Msg("ws subscribe")
			s.writeError(c, err)
			return
		}
		defer unsubscribe()
		feeds = append(feeds, feed)
	}
	snap, err := s.ctl.State(c.Request.Context(), code)
	if err != nil {
		s.writeError(c, err)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := newWSClient(conn)
	s.ws.Add(code, client)
	s.log.Debug().Str("game_id", code).Str("remote", c.Request.RemoteAddr).Int("clients", s.ws.Count(code)).Msg("ws connected")

	client.queue(struct {
		Type string `json:"type"`
		snapshotView
	}{Type: "snapshot", snapshotView: viewSnapshot(snap)})

	go client.writeLoop()
	for _, feed := range feeds {
		go s.relay(ctx, client, feed)
	}
	s.readWS(code, client)
}

func (s *Server) relay(ctx context.Context, client *wsClient, feed <-chan docstore.Document) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.closed:
			return
		case doc, ok := <-feed:
			if !ok {
				return
			}
			if msg, ok := documentMessage(doc); ok {
				client.queue(msg)
			}
		}
	}
}

// documentMessage converts a document snapshot into a client message.
func documentMessage(doc docstore.Document) (gin.H, bool) {
	switch doc.Collection() {
	case "games":
		if !doc.Exists {
			return gin.H{"type": "game_deleted", "code": doc.ID}, true
		}
		parsed, err := game.ParseGame(doc)
		if err != nil {
			return nil, false
		}
		return gin.H{"type": "game", "game": viewGame(parsed)}, true
	}
	switch path.Base(doc.Collection()) {
	case "players":
		if !doc.Exists {
			return gin.H{"type": "player_removed", "id": doc.ID}, true
		}
		parsed, err := game.ParsePlayer(doc)
		if err != nil {
			return nil, false
		}
		return gin.H{"type": "player", "player": viewPlayer(parsed)}, true
	case "rounds":
		if !doc.Exists {
			return gin.H{"type": "round_deleted", "id": doc.ID}, true
		}
		parsed, err := game.ParseRound(doc)
		if err != nil {
			return nil, false
		}
		return gin.H{"type": "round", "round": parsed}, true
	}
	return nil, false
}

func (s *Server) readWS(code string, client *wsClient) {
	defer s.ws.Remove(code, client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			s.log.Debug().Err(err).Str("game_id", code).Msg("ws disconnected")
			return
		}
	}
}
