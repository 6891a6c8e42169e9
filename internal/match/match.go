// Package match binds a generated grid, a tick engine and the people
// playing or watching it, and exposes the command and query surface used
// by the transport layer.
package match

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/FlagWars/internal/game"
	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/game/events"
	"github.com/mitchelldurbincs/FlagWars/internal/game/mapgen"
	"github.com/mitchelldurbincs/FlagWars/internal/game/orders"
	"github.com/mitchelldurbincs/FlagWars/internal/game/states"
	"github.com/mitchelldurbincs/FlagWars/internal/results"
)

// Config fixes a match's rules. It is copied at creation and never read
// again, so later configuration reloads only affect new matches.
type Config struct {
	Map            mapgen.MapConfig
	Settings       game.Settings
	MinPlayers     int
	MaxPlayers     int
	CountdownTicks int
	Seed           int64
}

// DefaultConfig returns the standard 20×15, 2–8 player setup
func DefaultConfig() Config {
	return Config{
		Map:            mapgen.DefaultMapConfig(20, 15, 8),
		Settings:       game.DefaultSettings(),
		MinPlayers:     2,
		MaxPlayers:     8,
		CountdownTicks: 5,
	}
}

// Validate rejects configurations a match cannot be created with
func (c Config) Validate() error {
	if c.MinPlayers < 1 {
		return fmt.Errorf("min players must be at least 1, got %d", c.MinPlayers)
	}
	if c.MaxPlayers < c.MinPlayers {
		return fmt.Errorf("max players (%d) must not be below min players (%d)", c.MaxPlayers, c.MinPlayers)
	}
	if c.CountdownTicks < 0 {
		return fmt.Errorf("countdown ticks must not be negative, got %d", c.CountdownTicks)
	}
	return c.Settings.Validate()
}

// Session identifies one connection's seat in a match. Players keep their
// session ID (their token) across reconnects.
type Session struct {
	ID        string
	MatchID   string
	PlayerID  int // -1 for spectators
	Spectator bool
}

// Info is the room listing entry for a match
type Info struct {
	ID         string            `json:"id"`
	Phase      states.MatchPhase `json:"phase"`
	Players    int               `json:"players"`
	Capacity   int               `json:"capacity"`
	Spectators int               `json:"spectators"`
	Tick       int               `json:"tick"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Match is safe for concurrent use. Order submission and queries share a
// read lock; everything that changes the match takes the write lock, so a
// tick is never observed half applied.
type Match struct {
	id     string
	cfg    Config
	logger zerolog.Logger
	root   zerolog.Logger
	bus    *events.EventBus
	sm     *states.StateMachine
	queue  *orders.Queue

	mu        sync.RWMutex
	grid      *core.Grid // lobby layout; the engine's grid once started
	bases     []core.Coordinate
	engine    *game.Engine
	players   map[int]*Participant
	tokens    map[string]int
	subs      map[string]subscriber
	masks     map[string][]bool
	countdown int
	result    *results.MatchResult
	closed    bool
	createdAt time.Time
	endedAt   time.Time

	onEnd        func(results.MatchResult)
	ticking      atomic.Bool
	lastActivity atomic.Int64
}

// New generates the terrain and opens the lobby. Generation failures are
// fatal to creation and wrap mapgen.ErrGenerationFailed.
func New(id string, cfg Config, logger zerolog.Logger) (*Match, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("match %s: %w", id, err)
	}
	mc := cfg.Map
	mc.BaseSlots = cfg.MaxPlayers
	layout, err := mapgen.NewGenerator(mc, rand.New(rand.NewSource(cfg.Seed))).Generate()
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", id, err)
	}

	bus := events.NewEventBus(logger.With().Str("match_id", id).Logger())
	m := &Match{
		id:        id,
		cfg:       cfg,
		logger:    logger.With().Str("component", "Match").Str("match_id", id).Logger(),
		root:      logger,
		bus:       bus,
		sm:        states.NewStateMachine(states.NewMatchContext(id, cfg.MinPlayers, cfg.MaxPlayers, logger), bus),
		queue:     orders.NewQueue(layout.Grid.W, layout.Grid.H),
		grid:      layout.Grid,
		bases:     layout.Bases,
		players:   make(map[int]*Participant),
		tokens:    make(map[string]int),
		subs:      make(map[string]subscriber),
		masks:     make(map[string][]bool),
		createdAt: time.Now(),
	}
	m.touch()

	if err := m.sm.TransitionTo(states.PhaseLobby, "match created"); err != nil {
		return nil, fmt.Errorf("match %s: failed to open lobby: %w", id, err)
	}
	m.logger.Info().
		Int("width", layout.Grid.W).
		Int("height", layout.Grid.H).
		Int("base_slots", len(layout.Bases)).
		Int64("seed", cfg.Seed).
		Msg("Match created")
	return m, nil
}

func (m *Match) ID() string { return m.id }
func (m *Match) Config() Config { return m.cfg }
func (m *Match) EventBus() *events.EventBus { return m.bus }
func (m *Match) Phase() states.MatchPhase { return m.sm.CurrentPhase() }
func (m *Match) History() []states.Transition { return m.sm.GetHistory() }

// OnEnd registers fn to run once, outside the match lock, when the match
// reaches its outcome.
func (m *Match) OnEnd(fn func(results.MatchResult)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnd = fn
}

func (m *Match) touch() { m.lastActivity.Store(time.Now().UnixNano()) }

// LastActivity is the time of the last command or tick
func (m *Match) LastActivity() time.Time { return time.Unix(0, m.lastActivity.Load()) }

// Join seats a new player in the next free base slot. sink may be nil.
func (m *Match) Join(name string, sink Sink) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Session{}, ErrMatchClosed
	}
	if !m.sm.CurrentPhase().CanAddPlayers() {
		return Session{}, ErrMatchStarted
	}
	slot := m.freeSlot()
	if slot < 0 {
		return Session{}, ErrMatchFull
	}

	p := newParticipant(slot, name, m.bases[slot])
	if err := game.PlaceBase(m.grid, slot, p.Base, m.cfg.Settings.InitialBaseSoldiers); err != nil {
		return Session{}, fmt.Errorf("match %s: %w", m.id, err)
	}
	m.players[slot] = p
	m.tokens[p.Token] = slot
	m.sm.Context().PlayerCount = len(m.players)
	m.touch()

	m.bus.Publish(events.NewPlayerJoinedEvent(m.id, slot, p.Name, p.Base))
	m.logger.Info().
		Int("player_id", slot).
		Str("name", p.Name).
		Str("base", p.Base.String()).
		Int("player_count", len(m.players)).
		Msg("Player joined")

	if sink != nil {
		m.subs[p.Token] = subscriber{viewer: slot, sink: sink}
		m.sendSnapshot(p.Token)
	}
	m.broadcastLobby()
	return Session{ID: p.Token, MatchID: m.id, PlayerID: slot}, nil
}

// Spectate attaches an observer who sees the whole board
func (m *Match) Spectate(sink Sink) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Session{}, ErrMatchClosed
	}
	id := uuid.NewString()
	m.subs[id] = subscriber{viewer: core.NeutralID, sink: sink}
	m.sendSnapshot(id)
	m.logger.Debug().Str("session_id", id).Int("connections", len(m.subs)).Msg("Spectator attached")
	return Session{ID: id, MatchID: m.id, PlayerID: core.NeutralID, Spectator: true}, nil
}

// Rejoin reattaches a seated player's connection using their token
func (m *Match) Rejoin(token string, sink Sink) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Session{}, ErrMatchClosed
	}
	id, ok := m.tokens[token]
	if !ok {
		return Session{}, ErrUnknownSession
	}
	m.subs[token] = subscriber{viewer: id, sink: sink}
	delete(m.masks, token)
	m.sendSnapshot(token)
	m.touch()
	m.logger.Info().Int("player_id", id).Msg("Player reconnected")
	return Session{ID: token, MatchID: m.id, PlayerID: id}, nil
}

// Detach drops a closed connection. Players waiting in the lobby give up
// their seat; players in a running match stay seated and may rejoin.
func (m *Match) Detach(sessionID string) {
	m.mu.Lock()
	delete(m.subs, sessionID)
	delete(m.masks, sessionID)
	var ended *results.MatchResult
	if _, seated := m.tokens[sessionID]; seated {
		switch m.sm.CurrentPhase() {
		case states.PhaseLobby, states.PhaseCountdown:
			ended, _ = m.leaveLocked(sessionID)
		}
	}
	m.mu.Unlock()
	m.notifyEnd(ended)
}

// Leave removes the session from the match. In the lobby the base slot is
// freed; in a running match the player is eliminated on the spot, their
// queued orders are discarded and the win check runs at once.
func (m *Match) Leave(sessionID string) error {
	m.mu.Lock()
	ended, err := m.leaveLocked(sessionID)
	m.mu.Unlock()
	m.notifyEnd(ended)
	return err
}

func (m *Match) leaveLocked(sessionID string) (*results.MatchResult, error) {
	id, seated := m.tokens[sessionID]
	if !seated {
		if _, ok := m.subs[sessionID]; ok {
			delete(m.subs, sessionID)
			delete(m.masks, sessionID)
			return nil, nil
		}
		return nil, ErrUnknownSession
	}
	delete(m.subs, sessionID)
	delete(m.masks, sessionID)
	delete(m.tokens, sessionID)
	m.touch()
	m.bus.Publish(events.NewPlayerLeftEvent(m.id, id))

	switch m.sm.CurrentPhase() {
	case states.PhaseLobby, states.PhaseCountdown:
		p := m.players[id]
		base := m.grid.At(p.Base)
		base.Owner = core.NeutralID
		base.Soldiers = 0
		delete(m.players, id)
		m.sm.Context().PlayerCount = len(m.players)
		m.logger.Info().Int("player_id", id).Int("player_count", len(m.players)).Msg("Player left lobby")
		err := m.refreshCountdown()
		m.broadcastLobby()
		return nil, err

	case states.PhaseRunning:
		outcome, err := m.engine.Eliminate(id, "left match")
		if err != nil && !errors.Is(err, core.ErrPlayerEliminated) {
			return nil, fmt.Errorf("match %s: %w", m.id, err)
		}
		dropped := m.queue.DiscardPlayer(id)
		m.logger.Info().Int("player_id", id).Int("orders_discarded", dropped).Msg("Player left running match")
		m.broadcastPlayers()
		if outcome != nil {
			return m.finishLocked(*outcome, "last player standing"), nil
		}
	}
	return nil, nil
}

// SetReady toggles a lobby player's readiness. When enough players are
// seated and all are ready the countdown starts; un-readying cancels it.
func (m *Match) SetReady(sessionID string, ready bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.participant(sessionID)
	if err != nil {
		return err
	}
	switch m.sm.CurrentPhase() {
	case states.PhaseLobby, states.PhaseCountdown:
	default:
		return ErrMatchStarted
	}
	p.Ready = ready
	m.touch()
	err = m.refreshCountdown()
	m.broadcastLobby()
	return err
}

// Start begins the match immediately, skipping any countdown
func (m *Match) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrMatchClosed
	}
	switch m.sm.CurrentPhase() {
	case states.PhaseLobby, states.PhaseCountdown:
		return m.startLocked("started on request")
	default:
		return ErrMatchStarted
	}
}

// SubmitOrder validates and queues a movement order for the next tick.
// Rejections are returned to the caller only.
func (m *Match) SubmitOrder(sessionID string, origin core.Coordinate, dir core.Direction, amount int) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrMatchClosed
	}
	id, ok := m.tokens[sessionID]
	if !ok {
		if _, watching := m.subs[sessionID]; watching {
			return ErrSpectator
		}
		return ErrUnknownSession
	}
	if !m.sm.CurrentPhase().CanReceiveOrders() {
		return ErrNotAcceptingOrders
	}

	o := core.Order{PlayerID: id, Origin: origin, Direction: dir, Amount: amount}
	if err := m.queue.Submit(m.engine.Grid(), m.engine, o); err != nil {
		m.bus.Publish(events.NewOrderRejectedEvent(m.id, o, err.Error(), m.engine.Tick()))
		return err
	}
	m.touch()
	m.bus.Publish(events.NewOrderAcceptedEvent(m.id, o, m.engine.Tick()))
	return nil
}

// Tick advances the match by one scheduler beat: a countdown step while
// counting down, an engine tick while running, nothing otherwise.
func (m *Match) Tick(ctx context.Context) error {
	if !m.ticking.CompareAndSwap(false, true) {
		return core.ErrTickInProgress
	}
	defer m.ticking.Store(false)

	m.mu.Lock()
	ended, err := m.tickLocked(ctx)
	m.mu.Unlock()
	m.notifyEnd(ended)
	return err
}

func (m *Match) tickLocked(ctx context.Context) (*results.MatchResult, error) {
	if m.closed {
		return nil, ErrMatchClosed
	}
	switch m.sm.CurrentPhase() {
	case states.PhaseCountdown:
		m.countdown--
		if m.countdown > 0 {
			m.broadcastLobby()
			return nil, nil
		}
		return nil, m.startLocked("countdown finished")
	case states.PhaseRunning:
		return m.advance(ctx)
	}
	return nil, nil
}

func (m *Match) advance(ctx context.Context) (*results.MatchResult, error) {
	pending := m.queue.Drain()
	res, err := m.engine.Step(ctx, pending)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// The engine rolled back, so the orders are as valid as before.
			m.requeue(pending)
			return nil, err
		}
		m.fail(err)
		return nil, err
	}
	m.touch()
	m.broadcastDelta(res)
	if res.Outcome != nil {
		return m.finishLocked(*res.Outcome, "match decided"), nil
	}
	return nil, nil
}

func (m *Match) requeue(pending []core.Order) {
	for _, o := range pending {
		if err := m.queue.Submit(m.engine.Grid(), m.engine, o); err != nil {
			m.logger.Debug().Err(err).Msg("Dropped order after cancelled tick")
		}
	}
}

func (m *Match) fail(err error) {
	m.sm.Context().Error = err
	if terr := m.sm.TransitionTo(states.PhaseError, "engine failure"); terr != nil {
		m.logger.Error().Err(terr).Msg("Failed to enter error phase")
	}
	m.endedAt = time.Now()
	u := &Update{Type: UpdateError, MatchID: m.id, Phase: m.sm.CurrentPhase(), Tick: m.engine.Tick(), Message: "match stopped by an internal error"}
	for sid, sub := range m.subs {
		m.deliver(sid, sub, u)
	}
}

func (m *Match) finishLocked(o game.Outcome, reason string) *results.MatchResult {
	mc := m.sm.Context()
	mc.Winner = o.Winner
	mc.Draw = o.Draw
	if err := m.sm.TransitionTo(states.PhaseEnded, reason); err != nil {
		m.logger.Error().Err(err).Msg("Failed to enter ended phase")
	}
	m.endedAt = time.Now()

	r := m.buildResult(o)
	m.result = &r

	players := m.playerInfos()
	standings := m.engine.Leaderboard()
	for sid, sub := range m.subs {
		m.deliver(sid, sub, &Update{
			Type:      UpdateEnded,
			MatchID:   m.id,
			Phase:     states.PhaseEnded,
			Tick:      o.Tick,
			You:       sub.viewer,
			Players:   players,
			Standings: standings,
			Outcome:   &o,
		})
	}
	return &r
}

func (m *Match) notifyEnd(r *results.MatchResult) {
	if r == nil {
		return
	}
	m.mu.RLock()
	fn := m.onEnd
	m.mu.RUnlock()
	if fn != nil {
		fn(*r)
	}
}

func (m *Match) startLocked(reason string) error {
	ids := make([]int, 0, len(m.players))
	for id := range m.players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	players := make([]game.Player, len(ids))
	for i, id := range ids {
		players[i] = game.Player{ID: id, Base: m.players[id].Base}
	}

	// Validate the transition before the engine takes the grid.
	if !m.sm.CanTransitionTo(states.PhaseRunning) || !m.sm.Context().HasEnoughPlayers() {
		return fmt.Errorf("match %s: cannot start with %d players in %s", m.id, len(players), m.sm.CurrentPhase())
	}
	e, err := game.NewEngine(game.EngineConfig{
		MatchID:  m.id,
		Grid:     m.grid,
		Players:  players,
		Settings: m.cfg.Settings,
		EventBus: m.bus,
		Logger:   m.root,
	})
	if err != nil {
		return fmt.Errorf("match %s: %w", m.id, err)
	}
	if err := m.sm.TransitionTo(states.PhaseRunning, reason); err != nil {
		return fmt.Errorf("match %s: %w", m.id, err)
	}
	m.engine = e
	m.countdown = 0
	m.bus.Publish(events.NewMatchStartedEvent(m.id, len(players), m.grid.W, m.grid.H))

	for sid := range m.subs {
		m.sendSnapshot(sid)
	}
	return nil
}

func (m *Match) refreshCountdown() error {
	ready := len(m.players) >= m.cfg.MinPlayers
	for _, p := range m.players {
		ready = ready && p.Ready
	}

	switch phase := m.sm.CurrentPhase(); {
	case phase == states.PhaseLobby && ready:
		if m.cfg.CountdownTicks == 0 {
			return m.startLocked("all players ready")
		}
		if err := m.sm.TransitionTo(states.PhaseCountdown, "all players ready"); err != nil {
			return err
		}
		m.countdown = m.cfg.CountdownTicks
	case phase == states.PhaseCountdown && !ready:
		m.countdown = 0
		return m.sm.TransitionTo(states.PhaseLobby, "countdown cancelled")
	}
	return nil
}

// SnapshotFor renders the full state as the session's viewer sees it
func (m *Match) SnapshotFor(sessionID string) (*Update, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subs[sessionID]
	if !ok {
		id, seated := m.tokens[sessionID]
		if !seated {
			return nil, ErrUnknownSession
		}
		sub.viewer = id
	}
	u, _ := m.snapshot(sub.viewer)
	return u, nil
}

// Snapshot renders the full state for a viewer ID; -1 sees everything
func (m *Match) Snapshot(viewer int) *Update {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, _ := m.snapshot(viewer)
	return u
}

func (m *Match) snapshot(viewer int) (*Update, []bool) {
	var mask []bool
	if m.engine != nil {
		mask = m.engine.VisibleMask(viewer)
	} else {
		mask = allVisible(len(m.grid.T))
	}
	tiles := make([]game.TileView, len(m.grid.T))
	for idx := range tiles {
		tiles[idx] = game.ViewTile(m.grid, idx, mask[idx])
	}

	u := &Update{
		Type:      UpdateSnapshot,
		MatchID:   m.id,
		Phase:     m.sm.CurrentPhase(),
		You:       viewer,
		Width:     m.grid.W,
		Height:    m.grid.H,
		Tiles:     tiles,
		Players:   m.playerInfos(),
		Countdown: m.countdown,
	}
	if m.engine != nil {
		u.Tick = m.engine.Tick()
		u.Standings = m.engine.Leaderboard()
		u.Outcome = m.engine.Outcome()
	}
	return u, mask
}

func (m *Match) sendSnapshot(sessionID string) {
	sub, ok := m.subs[sessionID]
	if !ok {
		return
	}
	u, mask := m.snapshot(sub.viewer)
	m.masks[sessionID] = mask
	m.deliver(sessionID, sub, u)
}

func (m *Match) broadcastDelta(res *game.TickResult) {
	players := m.playerInfos()
	standings := m.engine.Leaderboard()
	for sid, sub := range m.subs {
		mask := m.engine.VisibleMask(sub.viewer)
		tiles := deltaTiles(m.grid, res.Changed, m.masks[sid], mask)
		m.masks[sid] = mask
		m.deliver(sid, sub, &Update{
			Type:      UpdateDelta,
			MatchID:   m.id,
			Phase:     m.sm.CurrentPhase(),
			Tick:      res.Tick,
			You:       sub.viewer,
			Tiles:     tiles,
			Players:   players,
			Standings: standings,
		})
	}
}

// broadcastPlayers tells everyone about a roster change between ticks
func (m *Match) broadcastPlayers() {
	players := m.playerInfos()
	for sid, sub := range m.subs {
		m.deliver(sid, sub, &Update{
			Type:    UpdateDelta,
			MatchID: m.id,
			Phase:   m.sm.CurrentPhase(),
			Tick:    m.engine.Tick(),
			You:     sub.viewer,
			Players: players,
		})
	}
}

func (m *Match) broadcastLobby() {
	players := m.playerInfos()
	phase := m.sm.CurrentPhase()
	for sid, sub := range m.subs {
		m.deliver(sid, sub, &Update{
			Type:      UpdateLobby,
			MatchID:   m.id,
			Phase:     phase,
			You:       sub.viewer,
			Players:   players,
			Countdown: m.countdown,
		})
	}
}

func (m *Match) deliver(sessionID string, sub subscriber, u *Update) {
	if !sub.sink.Deliver(u) {
		m.logger.Warn().
			Str("session_id", sessionID).
			Str("update", string(u.Type)).
			Int("tick", u.Tick).
			Msg("Outbound buffer full, dropping update")
	}
}

func (m *Match) playerInfos() []PlayerInfo {
	out := make([]PlayerInfo, 0, len(m.players))
	for _, p := range m.players {
		info := PlayerInfo{
			ID:           p.ID,
			Name:         p.Name,
			Color:        p.Color,
			Base:         p.Base,
			Ready:        p.Ready,
			Alive:        true,
			EliminatedBy: core.NeutralID,
		}
		if m.engine != nil {
			if ep, ok := m.engine.Player(p.ID); ok {
				info.Alive = ep.Alive
				info.EliminatedBy = ep.EliminatedBy
			}
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Match) buildResult(o game.Outcome) results.MatchResult {
	standings := make(map[int]game.Standing)
	for _, s := range m.engine.Leaderboard() {
		standings[s.PlayerID] = s
	}
	r := results.MatchResult{
		MatchID:   m.id,
		Winner:    o.Winner,
		Draw:      o.Draw,
		Ticks:     o.Tick,
		StartedAt: m.sm.Context().StartTime,
		EndedAt:   m.endedAt,
	}
	for _, ep := range m.engine.Players() {
		p := m.players[ep.ID]
		s := standings[ep.ID]
		r.Players = append(r.Players, results.PlayerResult{
			PlayerID:     ep.ID,
			Name:         p.Name,
			Color:        p.Color,
			Soldiers:     s.Soldiers,
			Tiles:        s.Tiles,
			Alive:        ep.Alive,
			EliminatedAt: ep.EliminatedAt,
			EliminatedBy: ep.EliminatedBy,
		})
	}
	return r
}

func (m *Match) participant(sessionID string) (*Participant, error) {
	id, ok := m.tokens[sessionID]
	if !ok {
		if _, watching := m.subs[sessionID]; watching {
			return nil, ErrSpectator
		}
		return nil, ErrUnknownSession
	}
	return m.players[id], nil
}

func (m *Match) freeSlot() int {
	for slot := range m.bases {
		if _, taken := m.players[slot]; !taken {
			return slot
		}
	}
	return -1
}

// Result returns the recorded outcome once the match has ended
func (m *Match) Result() (results.MatchResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.result == nil {
		return results.MatchResult{}, false
	}
	return *m.result, true
}

// Info returns the room listing entry
func (m *Match) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info := Info{
		ID:        m.id,
		Phase:     m.sm.CurrentPhase(),
		Players:   len(m.players),
		Capacity:  m.cfg.MaxPlayers,
		CreatedAt: m.createdAt,
	}
	for _, sub := range m.subs {
		if sub.viewer == core.NeutralID {
			info.Spectators++
		}
	}
	if m.engine != nil {
		info.Tick = m.engine.Tick()
	}
	return info
}

// Connections counts attached sinks
func (m *Match) Connections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

// EndedAt is zero until the match reaches Ended or Error
func (m *Match) EndedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.endedAt
}

// Leaderboard returns the current standings; nil before the match starts
func (m *Match) Leaderboard() []game.Standing {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.engine == nil {
		return nil
	}
	return m.engine.Leaderboard()
}

// Close tears the match down. It waits for an in-flight tick to finish.
func (m *Match) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	if !m.sm.CurrentPhase().IsTerminal() {
		u := &Update{Type: UpdateError, MatchID: m.id, Phase: m.sm.CurrentPhase(), Message: "match closed"}
		for sid, sub := range m.subs {
			m.deliver(sid, sub, u)
		}
	}
	m.subs = make(map[string]subscriber)
	m.masks = make(map[string][]bool)
	m.logger.Info().Msg("Match closed")
}
