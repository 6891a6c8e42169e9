package match

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/FlagWars/internal/game/states"
	"github.com/mitchelldurbincs/FlagWars/internal/monitoring"
	"github.com/mitchelldurbincs/FlagWars/internal/testutil"
)

type fixedSource []*Match

func (s fixedSource) Matches() []*Match { return s }

func TestScheduler_BeatAdvancesEveryMatch(t *testing.T) {
	var src fixedSource
	for i := 0; i < 4; i++ {
		m, _, _ := startedMatch(t)
		src = append(src, m)
	}
	lobby := newTestMatch(t, testConfig())
	src = append(src, lobby)

	mon := monitoring.NewTickMonitor(testutil.NopLogger())
	s := NewScheduler(src, time.Second, 2, testutil.NopLogger()).WithMonitor(mon)

	assert.Zero(t, s.Beat(context.Background()))
	assert.Zero(t, s.Beat(context.Background()))

	for _, m := range src[:4] {
		assert.Equal(t, 2, m.Info().Tick)
	}
	assert.Equal(t, states.PhaseLobby, lobby.Phase())

	metrics := mon.Metrics()
	assert.Equal(t, int64(2), metrics.Beats)
	assert.Equal(t, int64(10), metrics.MatchesTicked)
	assert.Zero(t, metrics.Failures)
}

func TestScheduler_SkipsClosedMatches(t *testing.T) {
	m, _, _ := startedMatch(t)
	m.Close()

	s := NewScheduler(fixedSource{m}, time.Second, 1, testutil.NopLogger())
	assert.Zero(t, s.Beat(context.Background()))
}

func TestScheduler_SkipsMatchMidTick(t *testing.T) {
	m, _, _ := startedMatch(t)
	m.ticking.Store(true)

	s := NewScheduler(fixedSource{m}, time.Second, 1, testutil.NopLogger())
	assert.Zero(t, s.Beat(context.Background()))
	assert.Zero(t, m.Info().Tick)

	m.ticking.Store(false)
	s.Beat(context.Background())
	assert.Equal(t, 1, m.Info().Tick)
}

func TestScheduler_Run(t *testing.T) {
	m, _, _ := startedMatch(t)
	s := NewScheduler(fixedSource{m}, 2*time.Millisecond, 4, testutil.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return m.Info().Tick >= 3 }, time.Second, time.Millisecond)
	assert.True(t, s.Running())
	assert.Error(t, s.Run(ctx), "a second Run is refused")

	cancel()
	require.NoError(t, <-errc)
	assert.False(t, s.Running())
}

func TestScheduler_RejectsBadInterval(t *testing.T) {
	s := NewScheduler(fixedSource{}, 0, 1, testutil.NopLogger())
	assert.Error(t, s.Run(context.Background()))
}
