package match

import (
	"github.com/mitchelldurbincs/FlagWars/internal/game"
	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/game/states"
)

// UpdateType names an outbound message
type UpdateType string

const (
	UpdateSnapshot UpdateType = "snapshot"
	UpdateDelta    UpdateType = "delta"
	UpdateLobby    UpdateType = "lobby"
	UpdateEnded    UpdateType = "match_ended"
	UpdateError    UpdateType = "match_error"
)

// Update is one message for one viewer. The same value may be delivered
// to several sinks and must not be modified after delivery.
type Update struct {
	Type    UpdateType        `json:"type"`
	MatchID string            `json:"match_id"`
	Phase   states.MatchPhase `json:"phase"`
	Tick    int               `json:"tick"`

	// You is the viewer's player ID, or -1 for spectators
	You int `json:"you"`

	Width     int             `json:"width,omitempty"`
	Height    int             `json:"height,omitempty"`
	Tiles     []game.TileView `json:"tiles,omitempty"`
	Players   []PlayerInfo    `json:"players,omitempty"`
	Standings []game.Standing `json:"leaderboard,omitempty"`
	Countdown int             `json:"countdown,omitempty"`
	Outcome   *game.Outcome   `json:"outcome,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// Sink receives updates for one connection. Deliver must not block; it
// reports false when the update was dropped.
type Sink interface {
	Deliver(u *Update) bool
}

type subscriber struct {
	viewer int
	sink   Sink
}

func allVisible(n int) []bool {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return mask
}

// deltaTiles picks the tiles a viewer must be told about after a tick:
// changed tiles they can see, plus every tile whose visibility flipped.
func deltaTiles(g *core.Grid, changed []int, prev, mask []bool) []game.TileView {
	include := make(map[int]bool, len(changed))
	for _, idx := range changed {
		if mask[idx] {
			include[idx] = true
		}
	}
	if prev != nil {
		for idx := range mask {
			if prev[idx] != mask[idx] {
				include[idx] = true
			}
		}
	}

	out := make([]game.TileView, 0, len(include))
	for idx := range mask {
		if include[idx] {
			out = append(out, game.ViewTile(g, idx, mask[idx]))
		}
	}
	return out
}
