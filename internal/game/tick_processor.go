package game

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/game/events"
	"github.com/mitchelldurbincs/FlagWars/internal/game/processor"
)

// TickResult is everything a committed tick changed.
type TickResult struct {
	Tick          int
	Changed       []int // tile indices, ascending
	Eliminated    []int // player IDs
	OrdersApplied int
	Skipped       []processor.Skipped
	Outcome       *Outcome // set on the tick that decided the match
	Events        []events.Event
	Duration      time.Duration
}

// TickProcessor handles the orchestration of a single tick
type TickProcessor struct {
	engine *Engine
	logger zerolog.Logger
}

// NewTickProcessor creates a new tick processor
func NewTickProcessor(engine *Engine) *TickProcessor {
	return &TickProcessor{
		engine: engine,
		logger: engine.logger,
	}
}

// ProcessTick runs generation, movement, arrival resolution, elimination and
// the win check, in that order. The tick either commits as a whole or leaves
// the state exactly as it was: a cancelled context or a failed invariant
// check rolls every phase back. Events are published only after commit.
func (tp *TickProcessor) ProcessTick(ctx context.Context, orders []core.Order) (*TickResult, error) {
	e := tp.engine
	if err := tp.checkContext(ctx, "before starting"); err != nil {
		return nil, err
	}
	if !e.inTick.CompareAndSwap(false, true) {
		return nil, core.ErrTickInProgress
	}
	defer e.inTick.Store(false)

	if e.outcome != nil {
		tp.logger.Warn().Int("tick", e.ms.Tick).Msg("Attempted to tick a match that is already over")
		return nil, core.WrapTickError(e.ms.Tick, "start", core.ErrMatchOver)
	}

	backup := e.ms.Clone()
	rollback := func(err error) (*TickResult, error) {
		tick := e.ms.Tick
		e.ms = backup
		e.outcome = nil
		tp.logger.Warn().Err(err).Int("tick", tick).Msg("Tick rolled back")
		return nil, err
	}

	start := time.Now()
	tp.initializeTick()
	tick := e.ms.Tick
	tickLogger := tp.logger.With().Int("tick", tick).Logger()
	tickLogger.Debug().Int("orders", len(orders)).Msg("Starting tick")

	res := &TickResult{Tick: tick}
	res.Events = append(res.Events, events.NewTickStartedEvent(e.matchID, tick))

	tp.generationPhase(res, tickLogger)

	if err := tp.checkContext(ctx, "before movement"); err != nil {
		return rollback(core.WrapTickError(tick, "movement", err))
	}
	moved, err := e.mover.Apply(ctx, e.ms.Grid, e.ms, orders, e.ms.ChangedTiles)
	if err != nil {
		return rollback(core.WrapTickError(tick, "movement", err))
	}
	tp.recordMovement(res, moved)

	if err := tp.checkContext(ctx, "before resolution"); err != nil {
		return rollback(core.WrapTickError(tick, "resolution", err))
	}
	if err := tp.resolutionPhase(res, moved.Arrivals); err != nil {
		return rollback(core.WrapTickError(tick, "resolution", err))
	}

	tp.eliminationPhase(res)
	if ended := e.checkWin(); ended != nil {
		res.Outcome = e.Outcome()
		res.Events = append(res.Events, ended)
	}

	if err := e.CheckInvariants(); err != nil {
		return rollback(core.WrapTickError(tick, "invariants", err))
	}
	if err := checkMonotonic(backup.Players, e.ms.Players); err != nil {
		return rollback(core.WrapTickError(tick, "invariants", err))
	}

	res.Changed = make([]int, 0, len(e.ms.ChangedTiles))
	for idx := range e.ms.ChangedTiles {
		res.Changed = append(res.Changed, idx)
	}
	sort.Ints(res.Changed)
	res.Duration = time.Since(start)
	res.Events = append(res.Events, events.NewTickEndedEvent(e.matchID, tick, res.OrdersApplied, len(res.Changed), res.Duration))

	e.publish(res.Events)
	tickLogger.Debug().
		Int("changed_tiles", len(res.Changed)).
		Dur("duration", res.Duration).
		Msg("Tick finished")
	return res, nil
}

// checkContext checks if the context is cancelled
func (tp *TickProcessor) checkContext(ctx context.Context, phase string) error {
	select {
	case <-ctx.Done():
		tp.logger.Warn().
			Err(ctx.Err()).
			Int("tick", tp.engine.ms.Tick).
			Str("phase", phase).
			Msg("Tick cancelled or timed out")
		return ctx.Err()
	default:
		return nil
	}
}

// initializeTick advances the counter and resets change tracking
func (tp *TickProcessor) initializeTick() {
	tp.engine.ms.Tick++
	for k := range tp.engine.ms.ChangedTiles {
		delete(tp.engine.ms.ChangedTiles, k)
	}
}

func (tp *TickProcessor) generationPhase(res *TickResult, tickLogger zerolog.Logger) {
	e := tp.engine
	sum := e.generation.Apply(e.ms, res.Tick)
	if sum.Generated > 0 || sum.Drained > 0 {
		res.Events = append(res.Events, events.NewGenerationAppliedEvent(e.matchID, res.Tick, sum.Tiles, sum.Generated, sum.Drained))
	}
	tickLogger.Debug().Int("generated", sum.Generated).Int("drained", sum.Drained).Msg("Generation phase done")
}

func (tp *TickProcessor) recordMovement(res *TickResult, moved *processor.Result) {
	e := tp.engine
	grid := e.ms.Grid
	res.OrdersApplied = len(moved.Moves)
	res.Skipped = moved.Skipped
	for _, m := range moved.Moves {
		res.Events = append(res.Events, events.NewOrderAppliedEvent(e.matchID, m.PlayerID, grid.Coord(m.From), grid.Coord(m.To), m.Soldiers, res.Tick))
	}
	for _, c := range moved.Clashes {
		contenders := []events.Contender{
			{PlayerID: c.A.PlayerID, Soldiers: c.A.Soldiers},
			{PlayerID: c.B.PlayerID, Soldiers: c.B.Soldiers},
		}
		survivor, left := core.NeutralID, 0
		switch {
		case c.A.Soldiers > c.B.Soldiers:
			survivor, left = c.A.PlayerID, c.A.Soldiers-c.Destroyed
		case c.B.Soldiers > c.A.Soldiers:
			survivor, left = c.B.PlayerID, c.B.Soldiers-c.Destroyed
		}
		// Clashes happen between tiles; they are reported at the first group's origin.
		res.Events = append(res.Events, events.NewCombatResolvedEvent(e.matchID, grid.Coord(c.A.From), contenders, c.A.PlayerID, survivor, left, res.Tick))
	}
	for _, idx := range moved.Vacated {
		e.ms.markChanged(idx)
	}
}

func (tp *TickProcessor) resolutionPhase(res *TickResult, arrivals map[int][]processor.Group) error {
	e := tp.engine
	grid := e.ms.Grid

	dests := make([]int, 0, len(arrivals))
	for idx := range arrivals {
		dests = append(dests, idx)
	}
	sort.Ints(dests)

	for _, idx := range dests {
		r, err := e.resolver.Resolve(grid, idx, arrivals[idx])
		if err != nil {
			return err
		}
		e.ms.markChanged(idx)

		loc := grid.Coord(idx)
		kind := grid.T[idx].Kind
		if r.Contenders != nil {
			res.Events = append(res.Events, events.NewCombatResolvedEvent(e.matchID, loc, r.Contenders, r.PreviousOwner, r.Owner, r.Soldiers, res.Tick))
		}
		if r.Damage > 0 {
			res.Events = append(res.Events, events.NewFortificationDamagedEvent(e.matchID, loc, kind, r.Attacker, r.Damage, r.Remaining, res.Tick))
		}
		if r.Captured() {
			res.Events = append(res.Events, events.NewTileCapturedEvent(e.matchID, loc, kind, r.Owner, r.PreviousOwner, res.Tick))
		}
	}
	return nil
}

// eliminationPhase retires every live player whose base changed hands this
// tick. Their own tiles stay put.
func (tp *TickProcessor) eliminationPhase(res *TickResult) {
	e := tp.engine
	for i := range e.ms.Players {
		p := &e.ms.Players[i]
		if !p.Alive {
			continue
		}
		owner := e.ms.Grid.At(p.Base).Owner
		if owner == p.ID {
			continue
		}
		reason := "base captured"
		if owner == core.NeutralID {
			reason = "base lost"
		}
		res.Events = append(res.Events, e.eliminate(p, owner, reason))
		res.Eliminated = append(res.Eliminated, p.ID)
	}
}
