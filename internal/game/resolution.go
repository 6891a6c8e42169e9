package game

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/game/events"
	"github.com/mitchelldurbincs/FlagWars/internal/game/processor"
)

// Resolution describes what happened on one destination tile.
type Resolution struct {
	Index         int
	PreviousOwner int
	Owner         int
	Soldiers      int
	// Contenders is set when more than one side fought for the tile.
	Contenders []events.Contender

	// Fortification damage, when the tile was still intact.
	Fortified bool
	Attacker  int
	Damage    int
	Remaining int
}

// Captured reports whether a player took the tile from someone else.
func (r Resolution) Captured() bool {
	return r.Owner != core.NeutralID && r.Owner != r.PreviousOwner
}

// ArrivalResolver merges every group landing on a tile into one owner and count
type ArrivalResolver struct {
	logger zerolog.Logger
}

// NewArrivalResolver creates a new arrival resolver
func NewArrivalResolver(logger zerolog.Logger) *ArrivalResolver {
	return &ArrivalResolver{
		logger: logger.With().Str("component", "ArrivalResolver").Logger(),
	}
}

// Resolve settles all arrivals on the tile at idx. Arrivals onto impassable
// terrain are an engine defect; movement never sends soldiers there.
func (ar *ArrivalResolver) Resolve(grid *core.Grid, idx int, arrivals []processor.Group) (Resolution, error) {
	tile := &grid.T[idx]
	res := Resolution{Index: idx, PreviousOwner: tile.Owner}

	if !tile.Behavior().Passable {
		return res, fmt.Errorf("%w: %d soldiers arrived on %s at %s", core.ErrInvariantViolation, len(arrivals), tile.Kind, grid.Coord(idx))
	}

	totals := sumByPlayer(arrivals)

	if tile.IsFortified() {
		res.Fortified = true
		if len(totals) > 1 {
			res.Contenders = totals
		}
		leader, surplus := cancel(totals)
		res.Attacker = leader
		if surplus > 0 {
			res.Damage = min(surplus, tile.CaptureRemaining)
			tile.CaptureRemaining -= res.Damage
			if tile.CaptureRemaining == 0 {
				tile.Owner = leader
				tile.Soldiers = surplus - res.Damage
			}
		}
		res.Remaining = tile.CaptureRemaining
		res.Owner = tile.Owner
		res.Soldiers = tile.Soldiers

		ar.logger.Debug().
			Int("tile_idx", idx).
			Int("attacker", leader).
			Int("damage", res.Damage).
			Int("remaining", res.Remaining).
			Msg("Fortification attacked")
		return res, nil
	}

	contenders := totals
	switch {
	case !tile.IsNeutral():
		contenders = addStrength(contenders, tile.Owner, tile.Soldiers)
	case tile.Soldiers > 0:
		contenders = addStrength(contenders, core.NeutralID, tile.Soldiers)
	}
	if len(contenders) > 1 {
		res.Contenders = contenders
	}

	tile.Owner, tile.Soldiers = cancel(contenders)
	res.Owner = tile.Owner
	res.Soldiers = tile.Soldiers

	if res.Contenders != nil {
		ar.logger.Debug().
			Int("tile_idx", idx).
			Int("contenders", len(res.Contenders)).
			Int("owner", res.Owner).
			Int("soldiers", res.Soldiers).
			Msg("Combat resolved")
	}
	return res, nil
}

// sumByPlayer totals arrivals per player, strongest first, ties by player ID.
func sumByPlayer(arrivals []processor.Group) []events.Contender {
	var out []events.Contender
	for _, g := range arrivals {
		out = addStrength(out, g.PlayerID, g.Soldiers)
	}
	return out
}

func addStrength(cs []events.Contender, playerID, soldiers int) []events.Contender {
	out := make([]events.Contender, 0, len(cs)+1)
	found := false
	for _, c := range cs {
		if c.PlayerID == playerID {
			c.Soldiers += soldiers
			found = true
		}
		out = append(out, c)
	}
	if !found {
		out = append(out, events.Contender{PlayerID: playerID, Soldiers: soldiers})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Soldiers != out[j].Soldiers {
			return out[i].Soldiers > out[j].Soldiers
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

// cancel applies top-two cancellation to contenders sorted strongest first.
// The leader keeps the difference to the runner-up; everyone else is
// destroyed. Equal leaders, or no soldiers at all, leave nothing behind.
func cancel(sorted []events.Contender) (owner, soldiers int) {
	switch len(sorted) {
	case 0:
		return core.NeutralID, 0
	case 1:
		return sorted[0].PlayerID, sorted[0].Soldiers
	}
	rem := sorted[0].Soldiers - sorted[1].Soldiers
	if rem == 0 {
		return core.NeutralID, 0
	}
	return sorted[0].PlayerID, rem
}
