package game

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/game/events"
	"github.com/mitchelldurbincs/FlagWars/internal/game/processor"
	"github.com/mitchelldurbincs/FlagWars/internal/game/rules"
)

// Outcome is the terminal result of a match.
type Outcome struct {
	Winner int  `json:"winner"` // -1 on a draw
	Draw   bool `json:"draw"`
	Tick   int  `json:"tick"`
}

// EngineConfig holds everything needed to start simulating a match
type EngineConfig struct {
	MatchID  string
	Grid     *core.Grid
	Players  []Player // ID and Base are read; everyone starts alive
	Settings Settings
	EventBus *events.EventBus
	Logger   zerolog.Logger
}

// Engine is the sole mutator of a match's grid and players. It is not safe
// for concurrent use; the owning match serialises access. A second tick
// started while one is running fails with core.ErrTickInProgress.
type Engine struct {
	matchID  string
	ms       *MatchState
	settings Settings
	eventBus *events.EventBus
	logger   zerolog.Logger

	generation    *GenerationManager
	mover         *processor.MovementProcessor
	resolver      *ArrivalResolver
	winChecker    *rules.WinConditionChecker
	tickProcessor *TickProcessor

	inTick    atomic.Bool
	outcome   *Outcome
	startedAt time.Time
}

// NewEngine creates an engine for a freshly started match. Every player's
// base must already be a Base tile owned by that player (see PlaceBase).
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Grid == nil {
		return nil, errors.New("engine needs a grid")
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Players) == 0 {
		return nil, errors.New("engine needs at least one player")
	}

	players := make([]Player, len(cfg.Players))
	seen := make(map[int]bool, len(cfg.Players))
	for i, p := range cfg.Players {
		if p.ID < 0 || seen[p.ID] {
			return nil, fmt.Errorf("player %d: %w", p.ID, core.ErrInvalidPlayer)
		}
		seen[p.ID] = true
		base := cfg.Grid.At(p.Base)
		if base == nil || !base.IsBase() || base.Owner != p.ID {
			return nil, fmt.Errorf("player %d has no base at %s", p.ID, p.Base)
		}
		players[i] = Player{ID: p.ID, Base: p.Base, Alive: true, EliminatedBy: core.NeutralID}
	}

	ms := &MatchState{
		Grid:         cfg.Grid,
		Players:      players,
		ChangedTiles: make(map[int]struct{}),
	}
	e := newEngine(cfg.MatchID, ms, cfg.Settings, cfg.EventBus, cfg.Logger)
	if err := e.CheckInvariants(); err != nil {
		return nil, err
	}

	e.logger.Info().
		Int("players", len(players)).
		Int("width", ms.Grid.W).
		Int("height", ms.Grid.H).
		Msg("Engine created")
	return e, nil
}

func newEngine(matchID string, ms *MatchState, settings Settings, bus *events.EventBus, logger zerolog.Logger) *Engine {
	logger = logger.With().Str("component", "Engine").Str("match_id", matchID).Logger()
	if bus == nil {
		bus = events.NewEventBus(logger)
	}
	e := &Engine{
		matchID:    matchID,
		ms:         ms,
		settings:   settings,
		eventBus:   bus,
		logger:     logger,
		generation: NewGenerationManager(settings.PlainPeriod, logger),
		mover:      processor.NewMovementProcessor(logger),
		resolver:   NewArrivalResolver(logger),
		winChecker: rules.NewWinConditionChecker(logger, len(ms.Players)),
		startedAt:  time.Now(),
	}
	e.tickProcessor = NewTickProcessor(e)
	return e
}

// Step advances the match by one tick using the drained orders
func (e *Engine) Step(ctx context.Context, orders []core.Order) (*TickResult, error) {
	return e.tickProcessor.ProcessTick(ctx, orders)
}

// PlaceBase hands the Base tile at c to playerID with the given garrison.
func PlaceBase(grid *core.Grid, playerID int, c core.Coordinate, soldiers int) error {
	t := grid.At(c)
	if t == nil {
		return fmt.Errorf("base %s: %w", c, core.ErrOutOfBounds)
	}
	if !t.IsBase() {
		return fmt.Errorf("tile %s is %s, not a base", c, t.Kind)
	}
	t.Owner = playerID
	t.Soldiers = soldiers
	return nil
}

func (e *Engine) MatchID() string    { return e.matchID }
func (e *Engine) Tick() int          { return e.ms.Tick }
func (e *Engine) Settings() Settings { return e.settings }
func (e *Engine) IsOver() bool       { return e.outcome != nil }

// EventBus returns the bus the engine publishes committed events on
func (e *Engine) EventBus() *events.EventBus { return e.eventBus }

// Outcome returns the terminal result, or nil while the match is running
func (e *Engine) Outcome() *Outcome {
	if e.outcome == nil {
		return nil
	}
	o := *e.outcome
	return &o
}

// Grid returns the live grid. Callers must treat it as read-only and only
// hold it while access to the engine is serialised.
func (e *Engine) Grid() *core.Grid { return e.ms.Grid }

// Players returns a copy of the player list
func (e *Engine) Players() []Player {
	out := make([]Player, len(e.ms.Players))
	copy(out, e.ms.Players)
	return out
}

// Player looks up a single player by ID
func (e *Engine) Player(id int) (Player, bool) {
	p := e.ms.player(id)
	if p == nil {
		return Player{}, false
	}
	return *p, true
}

// IsAlive reports whether the player still holds their base
func (e *Engine) IsAlive(id int) bool { return e.ms.IsAlive(id) }

// Eliminate removes a player outside of a tick, as when they leave a running
// match. Their tiles stay where they are. The win check runs at once; the
// returned outcome is non-nil if this ended the match.
func (e *Engine) Eliminate(playerID int, reason string) (*Outcome, error) {
	if !e.inTick.CompareAndSwap(false, true) {
		return nil, core.ErrTickInProgress
	}
	defer e.inTick.Store(false)

	if e.outcome != nil {
		return nil, core.ErrMatchOver
	}
	p := e.ms.player(playerID)
	if p == nil {
		return nil, fmt.Errorf("player %d: %w", playerID, core.ErrInvalidPlayer)
	}
	if !p.Alive {
		return nil, fmt.Errorf("player %d: %w", playerID, core.ErrPlayerEliminated)
	}

	var evs []events.Event
	evs = append(evs, e.eliminate(p, core.NeutralID, reason))
	if ended := e.checkWin(); ended != nil {
		evs = append(evs, ended)
	}
	e.publish(evs)
	return e.Outcome(), nil
}

func (e *Engine) eliminate(p *Player, by int, reason string) events.Event {
	p.Alive = false
	p.EliminatedBy = by
	p.EliminatedAt = e.ms.Tick
	e.logger.Info().
		Int("player_id", p.ID).
		Int("eliminated_by", by).
		Int("tick", e.ms.Tick).
		Str("reason", reason).
		Msg("Player eliminated")
	return events.NewPlayerEliminatedEvent(e.matchID, p.ID, by, reason, e.ms.Tick)
}

// checkWin records the outcome the first time the match becomes decided
// and returns the match-ended event for it.
func (e *Engine) checkWin() events.Event {
	if e.outcome != nil {
		return nil
	}
	players := make([]rules.Player, len(e.ms.Players))
	for i := range e.ms.Players {
		players[i] = e.ms.Players[i]
	}
	v := e.winChecker.Check(players)
	if !v.Over {
		return nil
	}
	e.outcome = &Outcome{Winner: v.Winner, Draw: v.Draw, Tick: e.ms.Tick}
	e.logger.Info().
		Int("winner", v.Winner).
		Bool("draw", v.Draw).
		Int("final_tick", e.ms.Tick).
		Msg("Match decided")
	return events.NewMatchEndedEvent(e.matchID, v.Winner, v.Draw, e.ms.Tick, time.Since(e.startedAt))
}

func (e *Engine) publish(evs []events.Event) {
	for _, ev := range evs {
		e.eventBus.Publish(ev)
	}
}
