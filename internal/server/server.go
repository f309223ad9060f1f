package server

import (
	"net/http"
	"sync"
	"time"

	"incommon/internal/config"
	"incommon/internal/docstore"
	"incommon/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Server struct {
	ctl      *game.Controller
	store    docstore.Store
	db       *gorm.DB
	cfg      config.Config
	log      zerolog.Logger
	tokens   *tokenIssuer
	ws       *wsHub
	timersMu sync.Mutex
	timers   map[string]*roundTimer
}

// New wires the HTTP layer around a controller. conn may be nil when no
// database is configured.
func New(ctl *game.Controller, store docstore.Store, conn *gorm.DB, cfg config.Config, logger zerolog.Logger) *Server {
	registerValidators()
	return &Server{
		ctl:    ctl,
		store:  store,
		db:     conn,
		cfg:    cfg,
		log:    logger.With().Str("component", "server").Logger(),
		tokens: newTokenIssuer(cfg.TokenSecret, cfg.TokenTTL),
		ws:     newWSHub(),
		timers: make(map[string]*roundTimer),
	}
}

func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/", s.handleHome)
	router.GET("/games/:code/results", s.handleResultsView)
	router.GET("/ws/games/:code", s.handleWebsocket)

	api := router.Group("/api/games")
	api.POST("", s.handleCreateGame)
	api.GET("/:code", s.handleGetState)
	api.GET("/:code/rounds", s.handleRounds)
	api.GET("/:code/summary", s.handleSummary)
	api.GET("/:code/events", s.handleEvents)
	api.GET("/:code/qr", s.handleJoinQR)
	api.POST("/:code/join", s.handleJoin)

	player := api.Group("/:code", s.requirePlayer())
	player.POST("/settings", s.handleSettings)
	player.POST("/kick", s.handleKick)
	player.POST("/start", s.handleStart)
	player.POST("/deck", s.handleDeck)
	player.POST("/prompt", s.handlePrompt)
	player.POST("/submit", s.handleSubmit)
	player.POST("/end-timer", s.handleEndTimer)
	player.POST("/reveal/start", s.handleStartReveal)
	player.POST("/reveal/next", s.handleAdvanceReveal)
	player.POST("/reject", s.handleReject)
	player.POST("/next-round", s.handleNextRound)
	player.POST("/reset", s.handleReset)
	return router
}

// Close stops pending round timers and drops websocket clients.
func (s *Server) Close() {
	s.timersMu.Lock()
	for code, timer := range s.timers {
		timer.Stop()
		delete(s.timers, code)
	}
	s.timersMu.Unlock()
	s.ws.CloseAll()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		event := s.log.Debug()
		if status >= http.StatusInternalServerError {
			event = s.log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
