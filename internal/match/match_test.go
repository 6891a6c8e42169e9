package match

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/FlagWars/internal/game"
	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/game/mapgen"
	"github.com/mitchelldurbincs/FlagWars/internal/game/states"
	"github.com/mitchelldurbincs/FlagWars/internal/results"
	"github.com/mitchelldurbincs/FlagWars/internal/testutil"
)

type recordingSink struct {
	mu      sync.Mutex
	updates []*Update
	refuse  bool
}

func (s *recordingSink) Deliver(u *Update) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refuse {
		return false
	}
	s.updates = append(s.updates, u)
	return true
}

func (s *recordingSink) last(typ UpdateType) *Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.updates) - 1; i >= 0; i-- {
		if s.updates[i].Type == typ {
			return s.updates[i]
		}
	}
	return nil
}

func (s *recordingSink) count(typ UpdateType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.updates {
		if u.Type == typ {
			n++
		}
	}
	return n
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Map = mapgen.DefaultMapConfig(20, 15, 2)
	cfg.MaxPlayers = 2
	cfg.CountdownTicks = 2
	cfg.Seed = 7
	return cfg
}

func newTestMatch(t *testing.T, cfg Config) *Match {
	t.Helper()
	m, err := New("test-match", cfg, testutil.NopLogger())
	require.NoError(t, err)
	return m
}

type seat struct {
	sess Session
	sink *recordingSink
}

func join(t *testing.T, m *Match, name string) seat {
	t.Helper()
	sink := &recordingSink{}
	sess, err := m.Join(name, sink)
	require.NoError(t, err)
	return seat{sess, sink}
}

func startedMatch(t *testing.T) (*Match, seat, seat) {
	t.Helper()
	m := newTestMatch(t, testConfig())
	a, b := join(t, m, "alice"), join(t, m, "bob")
	require.NoError(t, m.Start())
	return m, a, b
}

func basesOf(m *Match) []core.Coordinate {
	var out []core.Coordinate
	for _, p := range m.Snapshot(core.NeutralID).Players {
		out = append(out, p.Base)
	}
	return out
}

// exit finds a direction soldiers can leave from c
func exit(t *testing.T, m *Match, c core.Coordinate) core.Direction {
	t.Helper()
	snap := m.Snapshot(core.NeutralID)
	for _, d := range core.Directions {
		n := c.Move(d)
		if n.IsValid(snap.Width, snap.Height) && snap.Tiles[n.ToIndex(snap.Width)].Kind.Behavior().Passable {
			return d
		}
	}
	t.Fatalf("no exit from %s", c)
	return 0
}

func tileAt(tiles []game.TileView, c core.Coordinate) (game.TileView, bool) {
	for _, tv := range tiles {
		if tv.X == c.X && tv.Y == c.Y {
			return tv, true
		}
	}
	return game.TileView{}, false
}

func TestNew_OpensLobby(t *testing.T) {
	m := newTestMatch(t, testConfig())

	info := m.Info()
	assert.Equal(t, "test-match", info.ID)
	assert.Equal(t, states.PhaseLobby, info.Phase)
	assert.Equal(t, 2, info.Capacity)
	assert.Zero(t, info.Players)
	assert.Nil(t, m.Leaderboard())

	snap := m.Snapshot(core.NeutralID)
	assert.Equal(t, 20, snap.Width)
	assert.Equal(t, 15, snap.Height)
	assert.Len(t, snap.Tiles, 20*15)
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MinPlayers = 3
	_, err := New("bad", cfg, testutil.NopLogger())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Map = mapgen.DefaultMapConfig(3, 3, 2)
	_, err = New("tiny", cfg, testutil.NopLogger())
	assert.ErrorIs(t, err, mapgen.ErrGenerationFailed)
}

func TestJoin_AssignsSlots(t *testing.T) {
	m := newTestMatch(t, testConfig())
	a := join(t, m, "alice")
	b := join(t, m, "bob")

	assert.Equal(t, 0, a.sess.PlayerID)
	assert.Equal(t, 1, b.sess.PlayerID)
	assert.NotEqual(t, a.sess.ID, b.sess.ID)

	_, err := m.Join("carol", nil)
	assert.ErrorIs(t, err, ErrMatchFull)

	snap := a.sink.last(UpdateSnapshot)
	require.NotNil(t, snap)
	assert.Equal(t, 0, snap.You)
	assert.Len(t, snap.Tiles, 20*15)

	lobby := a.sink.last(UpdateLobby)
	require.NotNil(t, lobby)
	require.Len(t, lobby.Players, 2)
	assert.Equal(t, "bob", lobby.Players[1].Name)
	assert.Equal(t, "#0000FF", lobby.Players[1].Color)

	full := m.Snapshot(core.NeutralID)
	for _, p := range full.Players {
		tv, ok := tileAt(full.Tiles, p.Base)
		require.True(t, ok)
		assert.Equal(t, core.KindBase, tv.Kind)
		assert.Equal(t, p.ID, tv.Owner)
		assert.Equal(t, 10, tv.Soldiers)
	}
}

func TestLeave_LobbyFreesSlot(t *testing.T) {
	m := newTestMatch(t, testConfig())
	a := join(t, m, "alice")
	join(t, m, "bob")
	base := basesOf(m)[0]

	require.NoError(t, m.Leave(a.sess.ID))
	assert.Equal(t, 1, m.Info().Players)

	tv, _ := tileAt(m.Snapshot(core.NeutralID).Tiles, base)
	assert.Equal(t, core.NeutralID, tv.Owner)
	assert.Zero(t, tv.Soldiers)

	c := join(t, m, "carol")
	assert.Equal(t, 0, c.sess.PlayerID, "lowest free slot is reused")

	assert.ErrorIs(t, m.Leave("nobody"), ErrUnknownSession)
}

func TestDetach_LobbyGivesUpSeat(t *testing.T) {
	m := newTestMatch(t, testConfig())
	a := join(t, m, "alice")
	join(t, m, "bob")

	m.Detach(a.sess.ID)
	assert.Equal(t, 1, m.Info().Players)
	assert.Equal(t, 1, m.Connections())
}

func TestReadyCountdown(t *testing.T) {
	m := newTestMatch(t, testConfig())
	a, b := join(t, m, "alice"), join(t, m, "bob")
	ctx := context.Background()

	require.NoError(t, m.SetReady(a.sess.ID, true))
	assert.Equal(t, states.PhaseLobby, m.Phase())

	require.NoError(t, m.SetReady(b.sess.ID, true))
	assert.Equal(t, states.PhaseCountdown, m.Phase())
	assert.Equal(t, 2, a.sink.last(UpdateLobby).Countdown)

	_, err := m.Join("late", nil)
	assert.ErrorIs(t, err, ErrMatchStarted)

	require.NoError(t, m.SetReady(b.sess.ID, false))
	assert.Equal(t, states.PhaseLobby, m.Phase(), "un-readying cancels the countdown")

	require.NoError(t, m.SetReady(b.sess.ID, true))
	require.NoError(t, m.Tick(ctx))
	assert.Equal(t, states.PhaseCountdown, m.Phase())
	assert.Equal(t, 1, a.sink.last(UpdateLobby).Countdown)

	require.NoError(t, m.Tick(ctx))
	assert.Equal(t, states.PhaseRunning, m.Phase())

	snap := b.sink.last(UpdateSnapshot)
	require.NotNil(t, snap)
	assert.Equal(t, states.PhaseRunning, snap.Phase)
	assert.Len(t, snap.Standings, 2)

	var path []states.MatchPhase
	for _, tr := range m.History() {
		path = append(path, tr.To)
	}
	assert.Equal(t, []states.MatchPhase{
		states.PhaseLobby, states.PhaseCountdown, states.PhaseLobby, states.PhaseCountdown, states.PhaseRunning,
	}, path)

	assert.ErrorIs(t, m.SetReady(a.sess.ID, false), ErrMatchStarted)
}

func TestReady_NoCountdownStartsAtOnce(t *testing.T) {
	cfg := testConfig()
	cfg.CountdownTicks = 0
	m := newTestMatch(t, cfg)
	a, b := join(t, m, "alice"), join(t, m, "bob")

	require.NoError(t, m.SetReady(a.sess.ID, true))
	require.NoError(t, m.SetReady(b.sess.ID, true))
	assert.Equal(t, states.PhaseRunning, m.Phase())
}

func TestStart_NeedsEnoughPlayers(t *testing.T) {
	m := newTestMatch(t, testConfig())
	join(t, m, "alice")

	assert.Error(t, m.Start())
	assert.Equal(t, states.PhaseLobby, m.Phase())
}

func TestSubmitOrder_Errors(t *testing.T) {
	m := newTestMatch(t, testConfig())
	a, _ := join(t, m, "alice"), join(t, m, "bob")
	base := basesOf(m)[0]
	dir := exit(t, m, base)

	assert.ErrorIs(t, m.SubmitOrder(a.sess.ID, base, dir, 0), ErrNotAcceptingOrders)

	require.NoError(t, m.Start())
	watcher, err := m.Spectate(&recordingSink{})
	require.NoError(t, err)

	assert.ErrorIs(t, m.SubmitOrder(watcher.ID, base, dir, 0), ErrSpectator)
	assert.ErrorIs(t, m.SubmitOrder("nobody", base, dir, 0), ErrUnknownSession)

	other := basesOf(m)[1]
	err = m.SubmitOrder(a.sess.ID, other, exit(t, m, other), 0)
	assert.ErrorIs(t, err, core.ErrNotOwned)
	var oe *core.OrderError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, other, oe.Order.Origin)

	assert.ErrorIs(t, m.SubmitOrder(a.sess.ID, base, dir, 11), core.ErrInsufficientSoldiers)
}

func TestTick_AppliesOrdersAndSendsFoggedDeltas(t *testing.T) {
	m, a, b := startedMatch(t)
	base := basesOf(m)[0]
	dir := exit(t, m, base)
	dest := base.Move(dir)

	require.NoError(t, m.SubmitOrder(a.sess.ID, base, dir, 4))
	require.NoError(t, m.Tick(context.Background()))

	delta := a.sink.last(UpdateDelta)
	require.NotNil(t, delta)
	assert.Equal(t, 1, delta.Tick)

	tv, ok := tileAt(delta.Tiles, dest)
	require.True(t, ok, "own arrival is in the delta")
	assert.Equal(t, 0, tv.Owner)
	assert.Equal(t, 4, tv.Soldiers)

	home, ok := tileAt(delta.Tiles, base)
	require.True(t, ok)
	assert.Equal(t, 10-4+1, home.Soldiers)

	theirs := b.sink.last(UpdateDelta)
	require.NotNil(t, theirs)
	_, seen := tileAt(theirs.Tiles, dest)
	assert.False(t, seen, "fog hides the opponent's move")

	board := m.Leaderboard()
	require.Len(t, board, 2)
	assert.Equal(t, 11, board[0].Soldiers)
}

func TestTick_CancelledKeepsOrders(t *testing.T) {
	m, a, _ := startedMatch(t)
	base := basesOf(m)[0]
	dir := exit(t, m, base)

	require.NoError(t, m.SubmitOrder(a.sess.ID, base, dir, 3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Tick(ctx), context.Canceled)
	assert.Zero(t, m.Info().Tick)

	require.NoError(t, m.Tick(context.Background()))
	tv, _ := tileAt(m.Snapshot(core.NeutralID).Tiles, base.Move(dir))
	assert.Equal(t, 3, tv.Soldiers)
}

func TestLeave_RunningEndsMatch(t *testing.T) {
	m, a, b := startedMatch(t)

	var ended []results.MatchResult
	m.OnEnd(func(r results.MatchResult) { ended = append(ended, r) })

	require.NoError(t, m.Tick(context.Background()))
	require.NoError(t, m.Leave(b.sess.ID))

	assert.Equal(t, states.PhaseEnded, m.Phase())
	require.Len(t, ended, 1)
	assert.Equal(t, 0, ended[0].Winner)
	assert.False(t, ended[0].Draw)
	assert.Equal(t, 1, ended[0].Ticks)
	require.Len(t, ended[0].Players, 2)
	assert.True(t, ended[0].Players[0].Alive)
	assert.False(t, ended[0].Players[1].Alive)
	assert.Equal(t, "bob", ended[0].Players[1].Name)
	assert.Equal(t, core.NeutralID, ended[0].Players[1].EliminatedBy)

	res, ok := m.Result()
	require.True(t, ok)
	assert.Equal(t, ended[0], res)
	assert.False(t, m.EndedAt().IsZero())

	final := a.sink.last(UpdateEnded)
	require.NotNil(t, final)
	require.NotNil(t, final.Outcome)
	assert.Equal(t, 0, final.Outcome.Winner)

	assert.ErrorIs(t, m.SubmitOrder(a.sess.ID, basesOf(m)[0], core.North, 0), ErrNotAcceptingOrders)
	require.NoError(t, m.Tick(context.Background()), "ticking an ended match is a no-op")
}

func TestRejoin(t *testing.T) {
	m, a, _ := startedMatch(t)

	m.Detach(a.sess.ID)
	assert.Equal(t, 1, m.Connections())
	assert.Equal(t, 2, m.Info().Players, "running players keep their seat")

	fresh := &recordingSink{}
	sess, err := m.Rejoin(a.sess.ID, fresh)
	require.NoError(t, err)
	assert.Equal(t, a.sess, sess)

	snap := fresh.last(UpdateSnapshot)
	require.NotNil(t, snap)
	assert.Equal(t, 0, snap.You)

	_, err = m.Rejoin("bogus", fresh)
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestSpectator_SeesWholeBoard(t *testing.T) {
	m, _, _ := startedMatch(t)
	sink := &recordingSink{}
	sess, err := m.Spectate(sink)
	require.NoError(t, err)
	assert.True(t, sess.Spectator)

	snap := sink.last(UpdateSnapshot)
	require.NotNil(t, snap)
	assert.Equal(t, core.NeutralID, snap.You)
	for _, tv := range snap.Tiles {
		assert.False(t, tv.Fogged)
	}
	assert.Equal(t, 1, m.Info().Spectators)

	require.NoError(t, m.Leave(sess.ID))
	assert.Zero(t, m.Info().Spectators)
}

func TestSnapshotFor(t *testing.T) {
	m, a, _ := startedMatch(t)

	u, err := m.SnapshotFor(a.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, u.You)
	fogged := 0
	for _, tv := range u.Tiles {
		if tv.Fogged {
			fogged++
		}
	}
	assert.Positive(t, fogged)

	_, err = m.SnapshotFor("nobody")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestDroppedUpdatesDoNotBlock(t *testing.T) {
	m := newTestMatch(t, testConfig())
	_, err := m.Join("alice", &recordingSink{refuse: true})
	require.NoError(t, err)
	join(t, m, "bob")
	require.NoError(t, m.Start())
	require.NoError(t, m.Tick(context.Background()))
}

func TestClose(t *testing.T) {
	m := newTestMatch(t, testConfig())
	a := join(t, m, "alice")

	m.Close()
	m.Close()

	closing := a.sink.last(UpdateError)
	require.NotNil(t, closing)
	assert.Equal(t, "match closed", closing.Message)
	assert.Zero(t, m.Connections())
	assert.ErrorIs(t, m.Tick(context.Background()), ErrMatchClosed)

	_, err := m.Join("bob", nil)
	assert.ErrorIs(t, err, ErrMatchClosed)
}

func TestConcurrentSubmitAndTick(t *testing.T) {
	m, a, b := startedMatch(t)
	bases := basesOf(m)
	seats := []seat{a, b}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := i % 2
			dir := exit(t, m, bases[p])
			for j := 0; j < 10; j++ {
				_ = m.SubmitOrder(seats[p].sess.ID, bases[p], dir, 1)
				_ = m.Info()
			}
		}(i)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Tick(ctx)
			_, _ = m.SnapshotFor(a.sess.ID)
		}()
	}
	wg.Wait()

	assert.Positive(t, m.Info().Tick)
	assert.Positive(t, a.sink.count(UpdateDelta))
}
