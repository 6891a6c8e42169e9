package game

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/game/events"
)

// Snapshot is a complete, JSON-encodable copy of an engine's state. It is
// enough to resume the simulation deterministically; terrain generation is
// not repeated on restore.
type Snapshot struct {
	MatchID  string      `json:"match_id"`
	Tick     int         `json:"tick"`
	Width    int         `json:"width"`
	Height   int         `json:"height"`
	Tiles    []core.Tile `json:"tiles"`
	Players  []Player    `json:"players"`
	Settings Settings    `json:"settings"`
	Outcome  *Outcome    `json:"outcome,omitempty"`
}

// Snapshot captures the current state
func (e *Engine) Snapshot() *Snapshot {
	tiles := make([]core.Tile, len(e.ms.Grid.T))
	copy(tiles, e.ms.Grid.T)
	return &Snapshot{
		MatchID:  e.matchID,
		Tick:     e.ms.Tick,
		Width:    e.ms.Grid.W,
		Height:   e.ms.Grid.H,
		Tiles:    tiles,
		Players:  e.Players(),
		Settings: e.settings,
		Outcome:  e.Outcome(),
	}
}

// MarshalSnapshot encodes the engine state as JSON
func (e *Engine) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(e.Snapshot())
}

// UnmarshalSnapshot decodes a snapshot produced by MarshalSnapshot
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// RestoreEngine rebuilds an engine from a snapshot. The restored state must
// satisfy the same invariants as a live one.
func RestoreEngine(s *Snapshot, bus *events.EventBus, logger zerolog.Logger) (*Engine, error) {
	if s.Width <= 0 || s.Height <= 0 || len(s.Tiles) != s.Width*s.Height {
		return nil, fmt.Errorf("snapshot has %d tiles for %dx%d", len(s.Tiles), s.Width, s.Height)
	}
	if s.Tick < 0 {
		return nil, fmt.Errorf("snapshot tick %d is negative", s.Tick)
	}
	if len(s.Players) == 0 {
		return nil, fmt.Errorf("snapshot has no players")
	}
	if err := s.Settings.Validate(); err != nil {
		return nil, err
	}

	grid := &core.Grid{W: s.Width, H: s.Height, T: make([]core.Tile, len(s.Tiles))}
	copy(grid.T, s.Tiles)
	players := make([]Player, len(s.Players))
	copy(players, s.Players)
	for _, p := range players {
		if !grid.InBounds(p.Base) || !grid.At(p.Base).IsBase() {
			return nil, fmt.Errorf("player %d has no base at %s", p.ID, p.Base)
		}
	}

	ms := &MatchState{
		Tick:         s.Tick,
		Grid:         grid,
		Players:      players,
		ChangedTiles: make(map[int]struct{}),
	}
	e := newEngine(s.MatchID, ms, s.Settings, bus, logger)
	if s.Outcome != nil {
		o := *s.Outcome
		e.outcome = &o
	}
	if err := e.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	e.logger.Info().Int("tick", s.Tick).Msg("Engine restored from snapshot")
	return e, nil
}
