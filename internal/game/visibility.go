package game

import "github.com/mitchelldurbincs/FlagWars/internal/game/core"

// TileView is a tile as one viewer sees it. Fogged tiles show their terrain
// but no owner or soldiers.
type TileView struct {
	X                int       `json:"x"`
	Y                int       `json:"y"`
	Kind             core.Kind `json:"kind"`
	Owner            int       `json:"owner"`
	Soldiers         int       `json:"soldiers"`
	CaptureRemaining int       `json:"capture_remaining,omitempty"`
	Fogged           bool      `json:"fogged,omitempty"`
}

// ComputeVisibility marks every tile within Manhattan radius of a tile the
// player owns.
func ComputeVisibility(grid *core.Grid, playerID, radius int) []bool {
	visible := make([]bool, len(grid.T))
	for idx := range grid.T {
		if grid.T[idx].Owner != playerID {
			continue
		}
		cx, cy := grid.XY(idx)
		for dy := -radius; dy <= radius; dy++ {
			y := cy + dy
			if y < 0 || y >= grid.H {
				continue
			}
			span := radius - abs(dy)
			for x := max(0, cx-span); x <= min(grid.W-1, cx+span); x++ {
				visible[grid.Idx(x, y)] = true
			}
		}
	}
	return visible
}

// ViewTile renders the tile at idx for a viewer who can or cannot see it
func ViewTile(grid *core.Grid, idx int, visible bool) TileView {
	t := grid.T[idx]
	x, y := grid.XY(idx)
	if !visible {
		// Terrain and fortification thresholds are public; ownership and
		// garrisons are not.
		return TileView{X: x, Y: y, Kind: t.Kind, Owner: core.NeutralID, CaptureRemaining: t.CaptureRemaining, Fogged: true}
	}
	return TileView{
		X:                x,
		Y:                y,
		Kind:             t.Kind,
		Owner:            t.Owner,
		Soldiers:         t.Soldiers,
		CaptureRemaining: t.CaptureRemaining,
	}
}

// VisibleMask returns what viewer can currently see. Spectators, eliminated
// players and matches without fog see everything; pass -1 for a spectator.
func (e *Engine) VisibleMask(viewer int) []bool {
	if !e.settings.FogOfWar || !e.ms.IsAlive(viewer) {
		all := make([]bool, len(e.ms.Grid.T))
		for i := range all {
			all[i] = true
		}
		return all
	}
	return ComputeVisibility(e.ms.Grid, viewer, e.settings.VisionRadius)
}

// View renders the whole grid for viewer
func (e *Engine) View(viewer int) []TileView {
	mask := e.VisibleMask(viewer)
	out := make([]TileView, len(e.ms.Grid.T))
	for idx := range out {
		out[idx] = ViewTile(e.ms.Grid, idx, mask[idx])
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
