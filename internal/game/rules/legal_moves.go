package rules

import "github.com/mitchelldurbincs/FlagWars/internal/game/core"

// LegalMoveCalculator computes legal orders for players
type LegalMoveCalculator struct{}

// NewLegalMoveCalculator creates a new legal move calculator
func NewLegalMoveCalculator() *LegalMoveCalculator {
	return &LegalMoveCalculator{}
}

// LegalOrders returns every full-strength order the player could submit
// right now, in tile index then direction order.
func (lmc *LegalMoveCalculator) LegalOrders(grid *core.Grid, player Player) []core.Order {
	if !player.IsAlive() {
		return nil
	}

	playerID := player.GetID()
	var out []core.Order
	for idx := range grid.T {
		tile := &grid.T[idx]
		if tile.Owner != playerID || tile.Soldiers == 0 {
			continue
		}
		origin := grid.Coord(idx)
		for _, dir := range core.Directions {
			o := core.Order{PlayerID: playerID, Origin: origin, Direction: dir}
			if o.Validate(grid) == nil {
				out = append(out, o)
			}
		}
	}
	return out
}
