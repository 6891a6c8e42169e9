package scenario

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/FlagWars/internal/game"
	"github.com/mitchelldurbincs/FlagWars/internal/testutil"
)

func run(t *testing.T, s *Scenario) (*Report, *game.Engine) {
	t.Helper()
	e, err := s.NewEngine("scenario-"+s.Name, nil, testutil.NopLogger())
	require.NoError(t, err)
	rep, err := s.Run(context.Background(), e, nil)
	require.NoError(t, err)
	return rep, e
}

func TestScenarioFiles(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, path := range files {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := Load(path)
			require.NoError(t, err)

			rep, _ := run(t, s)
			for _, m := range rep.Mismatches {
				t.Error(m)
			}
			assert.True(t, rep.Passed())
		})
	}
}

func TestRun_SwapEndsEarly(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "swap_draw.yaml"))
	require.NoError(t, err)
	s.Ticks = 50

	var seen []int
	e, err := s.NewEngine("swap", nil, testutil.NopLogger())
	require.NoError(t, err)
	rep, err := s.Run(context.Background(), e, func(res *game.TickResult) {
		seen = append(seen, res.Tick)
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1}, seen, "no ticks after the terminal one")
	require.NotNil(t, rep.Outcome)
	assert.True(t, rep.Outcome.Draw)
}

func TestRun_ReportsMismatches(t *testing.T) {
	s, err := Parse([]byte(`
name: wrong
settings: {fog_of_war: false}
grid: ["B0:0 P0:5 . B1:0"]
script:
  - tick: 1
    orders: [{player: 0, x: 1, y: 0, dir: east, amount: 2}]
expect:
  - tick: 1
    tiles: [{x: 2, y: 0, owner: 1, soldiers: 9}]
    eliminated: [1]
    outcome: {winner: 0}
  - tick: 4
    alive: [0]
`))
	require.NoError(t, err)

	rep, _ := run(t, s)
	assert.False(t, rep.Passed())
	assert.Equal(t, 4, rep.Ticks)

	var what []string
	for _, m := range rep.Mismatches {
		assert.Equal(t, 1, m.Tick)
		what = append(what, m.What)
	}
	assert.ElementsMatch(t, []string{
		"tile (2,0) owner = 0, want 1",
		"tile (2,0) soldiers = 2, want 9",
		"player 1 is alive, want eliminated",
		"match still running, want outcome {Winner:0 Draw:false}",
	}, what)
}

func TestRun_UnreachedExpectation(t *testing.T) {
	s, err := Parse([]byte(`
settings: {fog_of_war: false}
grid: ["B0:0 P0:9 B1:0"]
script:
  - tick: 1
    orders: [{player: 0, x: 1, y: 0, dir: r}]
expect:
  - tick: 8
    alive: [1]
`))
	require.NoError(t, err)

	rep, e := run(t, s)
	assert.True(t, e.IsOver())
	require.Len(t, rep.Mismatches, 1)
	assert.Equal(t, "tick 8: never reached, match stopped at tick 1", rep.Mismatches[0].String())
}

func TestGameSettings_Overrides(t *testing.T) {
	s, err := Parse([]byte(`
grid: ["B0 . B1"]
settings:
  plain_period: 3
  fog_of_war: false
`))
	require.NoError(t, err)

	got := s.GameSettings()
	want := game.DefaultSettings()
	want.PlainPeriod = 3
	want.FogOfWar = false
	assert.Equal(t, want, got)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"NotYAML", "grid: [unterminated"},
		{"NoGrid", "name: empty"},
		{"BadGrid", `grid: ["B0 X"]`},
		{"BadSettings", "grid: [\"B0 . B1\"]\nsettings: {plain_period: 0}"},
		{"NegativeTicks", "grid: [\"B0 . B1\"]\nticks: -1"},
		{"ScriptTickZero", "grid: [\"B0 . B1\"]\nscript: [{tick: 0}]"},
		{"BadDirection", "grid: [\"B0 . B1\"]\nscript: [{tick: 1, orders: [{dir: sideways}]}]"},
		{"NegativeAmount", "grid: [\"B0 . B1\"]\nscript: [{tick: 1, orders: [{dir: up, amount: -2}]}]"},
		{"ExpectOffGrid", "grid: [\"B0 . B1\"]\nexpect: [{tick: 1, tiles: [{x: 7, y: 0}]}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
