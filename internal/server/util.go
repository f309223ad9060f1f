package server

import (
	"incommon/internal/game"
)

// The stored documents keep ids out of their fields; the API puts them back.

type gameView struct {
	Code string `json:"code"`
	game.Game
}

type playerView struct {
	ID string `json:"id"`
	game.Player
}

type snapshotView struct {
	Game          gameView        `json:"game"`
	Players       []playerView    `json:"players"`
	Round         *game.Round     `json:"round,omitempty"`
	State         game.RoundState `json:"state,omitempty"`
	FirstPlayerID string          `json:"firstPlayerId,omitempty"`
}

func viewGame(g game.Game) gameView {
	return gameView{Code: g.Code, Game: g}
}

func viewPlayer(p game.Player) playerView {
	return playerView{ID: p.ID, Player: p}
}

func viewSnapshot(snap game.Snapshot) snapshotView {
	players := make([]playerView, 0, len(snap.Players))
	for _, player := range snap.Players {
		players = append(players, viewPlayer(player))
	}
	return snapshotView{
		Game:          viewGame(snap.Game),
		Players:       players,
		Round:         snap.Round,
		State:         snap.State,
		FirstPlayerID: snap.FirstPlayerID,
	}
}
