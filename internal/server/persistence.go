package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"incommon/internal/db"
	"incommon/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventRecorder writes game events to the events table. Without a database,
// or when an insert fails, events go to the log instead.
type EventRecorder struct {
	db       *gorm.DB
	fallback game.LogSink
}

func NewEventRecorder(conn *gorm.DB, logger zerolog.Logger) *EventRecorder {
	return &EventRecorder{db: conn, fallback: game.LogSink{Log: logger}}
}

func (r *EventRecorder) Record(ctx context.Context, event game.Event) {
	if r.db == nil {
		r.fallback.Record(ctx, event)
		return
	}
	if err := r.persist(ctx, event); err != nil {
		r.fallback.Log.Warn().Err(err).Str("game_id", event.GameCode).Str("event", event.Type).Msg("persist event")
		r.fallback.Record(ctx, event)
	}
}

func (r *EventRecorder) persist(ctx context.Context, event game.Event) error {
	data, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	record := db.Event{
		GameCode:  event.GameCode,
		Type:      event.Type,
		Payload:   datatypes.JSON(data),
		CreatedAt: time.Now().UTC(),
	}
	if event.Round > 0 {
		round := event.Round
		record.RoundNumber = &round
	}
	if event.PlayerID != "" {
		player := event.PlayerID
		record.PlayerID = &player
	}
	return r.db.WithContext(ctx).Create(&record).Error
}

// LibraryWords serves prompt words and categories from the word_library table,
// using fallback for kinds the library has no rows for.
type LibraryWords struct {
	db       *gorm.DB
	fallback game.WordSource
}

func NewLibraryWords(conn *gorm.DB, fallback game.WordSource) *LibraryWords {
	if fallback == nil {
		fallback = game.EmbeddedWords{}
	}
	return &LibraryWords{db: conn, fallback: fallback}
}

func (l *LibraryWords) Words(ctx context.Context, kind, language string) ([]string, error) {
	if l.db == nil {
		return l.fallback.Words(ctx, kind, language)
	}
	words, err := db.ListWords(ctx, l.db, kind, language)
	if err != nil {
		return nil, fmt.Errorf("list %s words: %w", kind, err)
	}
	if len(words) == 0 {
		return l.fallback.Words(ctx, kind, language)
	}
	return words, nil
}

func (s *Server) handleEvents(c *gin.Context) {
	code, ok := bindCode(c)
	if !ok {
		return
	}
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "events not available"})
		return
	}
	var records []db.Event
	err := s.db.WithContext(c.Request.Context()).
		Where("game_code = ?", code).
		Order("created_at asc, id asc").
		Find(&records).Error
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.log.Error().Err(err).Str("game_id", code).Msg("load events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load events"})
		return
	}
	events := make([]gin.H, 0, len(records))
	for _, record := range records {
		events = append(events, gin.H{
			"id":         record.ID,
			"type":       record.Type,
			"round":      record.RoundNumber,
			"player_id":  record.PlayerID,
			"created_at": record.CreatedAt,
			"payload":    record.Payload,
		})
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "events": events})
}
