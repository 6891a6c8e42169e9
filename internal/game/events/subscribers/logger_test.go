package subscribers_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/game/events"
	"github.com/mitchelldurbincs/FlagWars/internal/game/events/subscribers"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLoggerSubscriber(t *testing.T) {
	logSub := subscribers.NewLoggerSubscriber("test-logger", zerolog.Nop(), zerolog.InfoLevel)

	assert.Equal(t, "test-logger", logSub.ID())
	assert.True(t, logSub.InterestedIn(events.TypeMatchStarted))
	assert.True(t, logSub.InterestedIn("any.event.type"))

	logSub.SetEventFilter([]string{events.TypePlayerEliminated})
	assert.True(t, logSub.InterestedIn(events.TypePlayerEliminated))
	assert.False(t, logSub.InterestedIn(events.TypeTickStarted))

	logSub.SetEventFilter(nil)
	assert.True(t, logSub.InterestedIn(events.TypeTickStarted))
}

func TestLoggerSubscriberEventFields(t *testing.T) {
	var buf bytes.Buffer
	logSub := subscribers.NewLoggerSubscriber("event-logger", zerolog.New(&buf), zerolog.InfoLevel)

	testCases := []struct {
		name  string
		event events.Event
		check func(t *testing.T, line map[string]interface{})
	}{
		{
			name:  "MatchEnded",
			event: events.NewMatchEndedEvent("m-1", -1, true, 42, time.Second),
			check: func(t *testing.T, line map[string]interface{}) {
				assert.Equal(t, float64(-1), line["winner"])
				assert.Equal(t, true, line["draw"])
				assert.Equal(t, float64(42), line["final_tick"])
			},
		},
		{
			name:  "PlayerEliminated",
			event: events.NewPlayerEliminatedEvent("m-1", 2, 0, "base captured", 9),
			check: func(t *testing.T, line map[string]interface{}) {
				assert.Equal(t, float64(2), line["player_id"])
				assert.Equal(t, float64(0), line["eliminated_by"])
				assert.Equal(t, "base captured", line["reason"])
			},
		},
		{
			name:  "FortificationDamaged",
			event: events.NewFortificationDamagedEvent("m-1", core.Coordinate{X: 3, Y: 4}, core.KindWall, 1, 4, 6, 2),
			check: func(t *testing.T, line map[string]interface{}) {
				assert.Equal(t, "(3,4)", line["location"])
				assert.Equal(t, "wall", line["kind"])
				assert.Equal(t, float64(6), line["remaining"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			logSub.HandleEvent(tc.event)
			lines := decodeLines(t, &buf)
			require.Len(t, lines, 1)
			assert.Equal(t, "Match event", lines[0]["message"])
			assert.Equal(t, "info", lines[0]["level"])
			assert.Equal(t, "m-1", lines[0]["match_id"])
			assert.Equal(t, tc.event.Type(), lines[0]["event_type"])
			tc.check(t, lines[0])
		})
	}
}

func TestLoggerSubscriberDevMode(t *testing.T) {
	var buf bytes.Buffer
	logSub := subscribers.NewLoggerSubscriber("dev", zerolog.New(&buf), zerolog.DebugLevel)
	logSub.SetDevMode(true)

	logSub.HandleEvent(events.NewTickStartedEvent("m-2", 5))
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	data, ok := lines[0]["event_data"].(map[string]interface{})
	require.True(t, ok, "dev mode embeds the raw event")
	assert.Equal(t, float64(5), data["tick"])
	assert.Equal(t, "debug", lines[0]["level"])
}

func TestLoggerSubscriberOnBus(t *testing.T) {
	var buf bytes.Buffer
	bus := events.NewEventBus(zerolog.Nop())
	logSub := subscribers.NewLoggerSubscriber("bus-logger", zerolog.New(&buf), zerolog.InfoLevel)
	logSub.SetEventFilter([]string{events.TypeMatchStarted})
	bus.Subscribe(logSub)

	bus.Publish(events.NewTickStartedEvent("m-3", 1))
	bus.Publish(events.NewMatchStartedEvent("m-3", 2, 20, 15))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, events.TypeMatchStarted, lines[0]["event_type"])
}
