package game

import (
	"fmt"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
)

// CheckInvariants verifies the state rules every committed tick must keep.
// A failure is an engine defect and is reported as core.ErrInvariantViolation.
func (e *Engine) CheckInvariants() error {
	grid := e.ms.Grid
	if len(grid.T) != grid.W*grid.H {
		return fmt.Errorf("%w: grid holds %d tiles for %dx%d", core.ErrInvariantViolation, len(grid.T), grid.W, grid.H)
	}

	known := make(map[int]bool, len(e.ms.Players))
	for _, p := range e.ms.Players {
		known[p.ID] = true
	}

	for idx := range grid.T {
		t := &grid.T[idx]
		at := grid.Coord(idx)
		switch {
		case t.Soldiers < 0:
			return fmt.Errorf("%w: %s has %d soldiers", core.ErrInvariantViolation, at, t.Soldiers)
		case t.CaptureRemaining < 0:
			return fmt.Errorf("%w: %s has capture remaining %d", core.ErrInvariantViolation, at, t.CaptureRemaining)
		case t.IsMountain() && (t.Owner != core.NeutralID || t.Soldiers != 0):
			return fmt.Errorf("%w: mountain %s is occupied", core.ErrInvariantViolation, at)
		case t.IsFortified() && (t.Owner != core.NeutralID || t.Soldiers != 0):
			return fmt.Errorf("%w: intact %s at %s is occupied", core.ErrInvariantViolation, t.Kind, at)
		case t.CaptureRemaining > 0 && !t.Kind.Behavior().Fortified:
			return fmt.Errorf("%w: %s at %s carries a capture threshold", core.ErrInvariantViolation, t.Kind, at)
		case t.Owner != core.NeutralID && !known[t.Owner]:
			return fmt.Errorf("%w: %s owned by unknown player %d", core.ErrInvariantViolation, at, t.Owner)
		}
	}

	for _, p := range e.ms.Players {
		if p.Alive && grid.At(p.Base).Owner != p.ID {
			return fmt.Errorf("%w: player %d is alive without their base", core.ErrInvariantViolation, p.ID)
		}
	}
	return nil
}

// checkMonotonic rejects any player coming back to life.
func checkMonotonic(before, after []Player) error {
	alive := make(map[int]bool, len(after))
	for _, p := range after {
		alive[p.ID] = p.Alive
	}
	for _, p := range before {
		if !p.Alive && alive[p.ID] {
			return fmt.Errorf("%w: player %d was revived", core.ErrInvariantViolation, p.ID)
		}
	}
	return nil
}
