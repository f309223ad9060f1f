package game

import (
	"encoding/json"
	"fmt"
	"strconv"

	"incommon/internal/docstore"

	"github.com/go-viper/mapstructure/v2"
)

const gamesCollection = "games"

func gamePath(code string) string {
	return docstore.Join(gamesCollection, code)
}

func playersPath(code string) string {
	return docstore.Join(gamesCollection, code, "players")
}

func playerPath(code, id string) string {
	return docstore.Join(playersPath(code), id)
}

func roundsPath(code string) string {
	return docstore.Join(gamesCollection, code, "rounds")
}

func roundID(number int) string {
	return strconv.Itoa(number)
}

func roundPath(code string, number int) string {
	return docstore.Join(roundsPath(code), roundID(number))
}

// GamePath, PlayersPath and RoundPath expose document locations to subscribers.
func GamePath(code string) string             { return gamePath(code) }
func PlayersPath(code string) string          { return playersPath(code) }
func RoundsPath(code string) string           { return roundsPath(code) }
func RoundPath(code string, number int) string { return roundPath(code, number) }

func decodeFields(fields map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: false,
		ErrorUnused:      false,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(fields)
}

func encodeFields(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseGame validates a game document. Documents that do not parse are rejected
// at the store boundary rather than trusted further in.
func ParseGame(doc docstore.Document) (Game, error) {
	if !doc.Exists {
		return Game{}, fmt.Errorf("game %s: %w", doc.ID, ErrNotFound)
	}
	var game Game
	if err := decodeFields(doc.Fields, &game); err != nil {
		return Game{}, fmt.Errorf("parse game %s: %w", doc.ID, err)
	}
	game.Code = doc.ID
	game.Version = doc.Version
	if !game.Mode.Valid() {
		return Game{}, fmt.Errorf("parse game %s: unknown mode %q", doc.ID, game.Mode)
	}
	switch game.Phase {
	case PhaseSetup, PhaseBuildDeck, PhaseStarted, PhaseEnded:
	default:
		return Game{}, fmt.Errorf("parse game %s: unknown phase %q", doc.ID, game.Phase)
	}
	if game.CurrentRound < 0 || game.TotalRounds < 0 {
		return Game{}, fmt.Errorf("parse game %s: negative round counters", doc.ID)
	}
	return game, nil
}

func ParsePlayer(doc docstore.Document) (Player, error) {
	if !doc.Exists {
		return Player{}, fmt.Errorf("player %s: %w", doc.ID, ErrNotFound)
	}
	var player Player
	if err := decodeFields(doc.Fields, &player); err != nil {
		return Player{}, fmt.Errorf("parse player %s: %w", doc.ID, err)
	}
	player.ID = doc.ID
	player.Version = doc.Version
	if player.Name == "" {
		return Player{}, fmt.Errorf("parse player %s: missing name", doc.ID)
	}
	return player, nil
}

func ParseRound(doc docstore.Document) (Round, error) {
	if !doc.Exists {
		return Round{}, fmt.Errorf("round %s: %w", doc.ID, ErrNotFound)
	}
	var round Round
	if err := decodeFields(doc.Fields, &round); err != nil {
		return Round{}, fmt.Errorf("parse round %s: %w", doc.ID, err)
	}
	round.ID = doc.ID
	round.Version = doc.Version
	if round.Number < 1 {
		return Round{}, fmt.Errorf("parse round %s: invalid number %d", doc.ID, round.Number)
	}
	if round.Cursor.PlayerIndex < 0 || round.Cursor.ItemIndex < 0 || round.Cursor.CategoryIndex < 0 {
		return Round{}, fmt.Errorf("parse round %s: negative reveal cursor", doc.ID)
	}
	if round.RevealComplete && !round.RevealStarted {
		return Round{}, fmt.Errorf("parse round %s: reveal complete before start", doc.ID)
	}
	return round, nil
}

func parsePlayers(docs []docstore.Document) ([]Player, error) {
	players := make([]Player, 0, len(docs))
	for _, doc := range docs {
		player, err := ParsePlayer(doc)
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	sortByJoin(players)
	return players, nil
}
