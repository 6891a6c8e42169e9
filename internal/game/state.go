package game

import "github.com/mitchelldurbincs/FlagWars/internal/game/core"

// Player is the engine's view of a participant.
type Player struct {
	ID    int             `json:"id"`
	Base  core.Coordinate `json:"base"`
	Alive bool            `json:"alive"`
	// EliminatedBy is the player who took the base, or -1 when the base was
	// lost to nobody (a tie, a clash or leaving the match).
	EliminatedBy int `json:"eliminated_by"`
	EliminatedAt int `json:"eliminated_at,omitempty"`
}

func (p Player) GetID() int    { return p.ID }
func (p Player) IsAlive() bool { return p.Alive }

// MatchState holds the mutable state a tick operates on
type MatchState struct {
	Tick    int
	Grid    *core.Grid
	Players []Player

	// ChangedTiles tracks tile indices modified during the current tick
	ChangedTiles map[int]struct{}
}

// Clone creates a deep copy of the state
func (ms *MatchState) Clone() *MatchState {
	players := make([]Player, len(ms.Players))
	copy(players, ms.Players)
	changed := make(map[int]struct{}, len(ms.ChangedTiles))
	for k := range ms.ChangedTiles {
		changed[k] = struct{}{}
	}
	return &MatchState{
		Tick:         ms.Tick,
		Grid:         ms.Grid.Clone(),
		Players:      players,
		ChangedTiles: changed,
	}
}

func (ms *MatchState) player(id int) *Player {
	for i := range ms.Players {
		if ms.Players[i].ID == id {
			return &ms.Players[i]
		}
	}
	return nil
}

// IsAlive reports whether id names a player who still holds their base
func (ms *MatchState) IsAlive(id int) bool {
	p := ms.player(id)
	return p != nil && p.Alive
}

func (ms *MatchState) markChanged(idx int) {
	ms.ChangedTiles[idx] = struct{}{}
}
