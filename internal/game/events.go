package game

import (
	"context"

	"github.com/rs/zerolog"
)

const (
	EventGameCreated    = "game_created"
	EventPlayerJoined   = "player_joined"
	EventPlayerRemoved  = "player_removed"
	EventSettings       = "settings_updated"
	EventGameStarted    = "game_started"
	EventDeckBuilt      = "deck_built"
	EventRoundStarted   = "round_started"
	EventPromptChosen   = "prompt_chosen"
	EventSubmitted      = "submission_received"
	EventAllSubmitted   = "all_submitted"
	EventTimerEnded     = "timer_ended"
	EventRevealStarted  = "reveal_started"
	EventItemRevealed   = "item_revealed"
	EventAnswerRejected = "answer_rejected"
	EventRoundComplete  = "round_complete"
	EventGameEnded      = "game_ended"
	EventGameReset      = "game_reset"
)

type EventPayload struct {
	Mode       Mode      `json:"mode,omitempty"`
	Phase      Phase     `json:"phase,omitempty"`
	PlayerName string    `json:"player_name,omitempty"`
	Prompt     string    `json:"prompt,omitempty"`
	Item       string    `json:"item,omitempty"`
	Points     int       `json:"points,omitempty"`
	Category   string    `json:"category,omitempty"`
	Answer     string    `json:"answer,omitempty"`
	Rejected   bool      `json:"rejected,omitempty"`
	Reason     EndReason `json:"reason,omitempty"`
	Scores     any       `json:"scores,omitempty"`
}

type Event struct {
	Type     string
	GameCode string
	Round    int
	PlayerID string
	Payload  EventPayload
}

// EventSink records game events. Recording is best effort.
type EventSink interface {
	Record(ctx context.Context, event Event)
}

// LogSink writes events to a zerolog logger.
type LogSink struct {
	Log zerolog.Logger
}

func (s LogSink) Record(_ context.Context, event Event) {
	entry := s.Log.Info().
		Str("event", event.Type).
		Str("game_id", event.GameCode)
	if event.Round > 0 {
		entry = entry.Int("round", event.Round)
	}
	if event.PlayerID != "" {
		entry = entry.Str("player_id", event.PlayerID)
	}
	entry.Msg("game event")
}
