package processor

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
)

// Roster reports which players may still act. It matches the engine's
// player set and avoids an import cycle with the game package.
type Roster interface {
	IsAlive(playerID int) bool
}

// Group is a body of soldiers in transit between two adjacent tiles.
type Group struct {
	PlayerID int
	From     int // tile index
	To       int // tile index
	Soldiers int
}

// Clash records a head-on meeting of two hostile groups on one edge.
type Clash struct {
	A, B      Group // as they left their origins
	Destroyed int   // soldiers lost by each side
}

// Skipped is an order that was drained but no longer applies.
type Skipped struct {
	Order  core.Order
	Reason error
}

// Result is the outcome of the movement phase.
type Result struct {
	Moves   []Group // every departure, in application order
	Clashes []Clash
	Skipped []Skipped
	// Arrivals holds the groups still in transit after clashes, keyed by
	// destination tile index. Groups with no soldiers left are dropped.
	Arrivals map[int][]Group
	// Vacated lists origins that lost their last defenders in a clash.
	Vacated []int
}

// MovementProcessor applies one tick of orders simultaneously: every origin
// is debited before any destination is resolved.
type MovementProcessor struct {
	logger zerolog.Logger
}

// NewMovementProcessor creates a new movement processor
func NewMovementProcessor(logger zerolog.Logger) *MovementProcessor {
	return &MovementProcessor{
		logger: logger.With().Str("component", "MovementProcessor").Logger(),
	}
}

// Apply debits origins for every still-valid order and returns the groups
// in transit. changed collects every tile index the phase touched.
func (mp *MovementProcessor) Apply(ctx context.Context, grid *core.Grid, roster Roster, orders []core.Order, changed map[int]struct{}) (*Result, error) {
	mp.logger.Debug().Int("orders", len(orders)).Msg("Sorting orders for deterministic processing")
	// One order per origin; a later order for the same origin replaces an earlier one.
	latest := make(map[core.Coordinate]int, len(orders))
	for i, o := range orders {
		latest[o.Origin] = i
	}
	sorted := make([]core.Order, 0, len(latest))
	for i, o := range orders {
		if latest[o.Origin] == i {
			sorted = append(sorted, o)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Origin.ToIndex(grid.W) < sorted[j].Origin.ToIndex(grid.W)
	})

	res := &Result{Arrivals: make(map[int][]Group)}

	for _, o := range sorted {
		select {
		case <-ctx.Done():
			mp.logger.Warn().Err(ctx.Err()).Msg("Movement interrupted by context cancellation")
			return nil, ctx.Err()
		default:
		}

		if reason := mp.check(grid, roster, o); reason != nil {
			mp.logger.Debug().Err(reason).Int("player_id", o.PlayerID).Stringer("origin", o.Origin).Msg("Skipping stale order")
			res.Skipped = append(res.Skipped, Skipped{Order: o, Reason: reason})
			continue
		}

		from := o.Origin.ToIndex(grid.W)
		to := o.Destination().ToIndex(grid.W)
		origin := &grid.T[from]
		n := o.Quantity(origin.Soldiers)
		origin.Soldiers -= n
		changed[from] = struct{}{}

		res.Moves = append(res.Moves, Group{PlayerID: o.PlayerID, From: from, To: to, Soldiers: n})
	}

	groups := make([]Group, len(res.Moves))
	copy(groups, res.Moves)
	res.Clashes = resolveClashes(groups)

	for _, c := range res.Clashes {
		for _, side := range [2]Group{c.A, c.B} {
			if side.Soldiers != c.Destroyed {
				continue
			}
			// The whole group died on the edge. If nothing stayed behind the
			// origin has no defenders left and falls out of its owner's hands.
			origin := &grid.T[side.From]
			if origin.Owner == side.PlayerID && origin.Soldiers == 0 {
				origin.Owner = core.NeutralID
				res.Vacated = append(res.Vacated, side.From)
			}
		}
	}

	for _, g := range groups {
		if g.Soldiers == 0 {
			continue
		}
		res.Arrivals[g.To] = append(res.Arrivals[g.To], g)
	}

	mp.logger.Debug().
		Int("moves", len(res.Moves)).
		Int("clashes", len(res.Clashes)).
		Int("skipped", len(res.Skipped)).
		Int("destinations", len(res.Arrivals)).
		Msg("Movement phase complete")
	return res, nil
}

// check re-validates a drained order against the grid as it stands after
// the orders before it in this tick were applied.
func (mp *MovementProcessor) check(grid *core.Grid, roster Roster, o core.Order) error {
	if !roster.IsAlive(o.PlayerID) {
		return core.ErrPlayerEliminated
	}
	if !o.Direction.Valid() {
		return core.ErrInvalidDirection
	}
	origin := grid.At(o.Origin)
	if origin == nil {
		return core.ErrOutOfBounds
	}
	if origin.Owner != o.PlayerID {
		return core.ErrNotOwned
	}
	if origin.Soldiers == 0 {
		return core.ErrInsufficientSoldiers
	}
	dest := grid.At(o.Destination())
	if dest == nil {
		return core.ErrOutOfBounds
	}
	if !dest.Behavior().Passable {
		return core.ErrImpassable
	}
	return nil
}

// resolveClashes cancels hostile groups crossing the same edge in opposite
// directions. groups is updated in place with the survivors' strength.
func resolveClashes(groups []Group) []Clash {
	byEdge := make(map[[2]int]int, len(groups))
	for i, g := range groups {
		byEdge[[2]int{g.From, g.To}] = i
	}

	var clashes []Clash
	for i := range groups {
		a := &groups[i]
		j, ok := byEdge[[2]int{a.To, a.From}]
		if !ok || j < i {
			continue
		}
		b := &groups[j]
		if a.PlayerID == b.PlayerID {
			continue
		}
		lost := min(a.Soldiers, b.Soldiers)
		clashes = append(clashes, Clash{A: *a, B: *b, Destroyed: lost})
		a.Soldiers -= lost
		b.Soldiers -= lost
	}
	return clashes
}
