package monitoring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mitchelldurbincs/FlagWars/internal/testutil"
)

func TestTickMonitor_Record(t *testing.T) {
	tm := NewTickMonitor(testutil.NopLogger())

	tm.Record(Beat{Matches: 3, Duration: 10 * time.Millisecond})
	tm.Record(Beat{Matches: 2, Failures: 1, Duration: 30 * time.Millisecond, Overrun: true})

	m := tm.Metrics()
	assert.Equal(t, int64(2), m.Beats)
	assert.Equal(t, int64(5), m.MatchesTicked)
	assert.Equal(t, int64(1), m.Failures)
	assert.Equal(t, int64(1), m.Overruns)
	assert.Equal(t, 30*time.Millisecond, m.LastBeat)
	assert.Equal(t, 30*time.Millisecond, m.SlowestBeat)
	assert.Equal(t, 20*time.Millisecond, m.MeanBeat)
}

func TestTickMonitor_Empty(t *testing.T) {
	m := NewTickMonitor(testutil.NopLogger()).Metrics()
	assert.Zero(t, m.Beats)
	assert.Zero(t, m.MeanBeat)
	assert.Positive(t, m.Goroutines)
}

func TestTickMonitor_ConcurrentRecord(t *testing.T) {
	tm := NewTickMonitor(testutil.NopLogger())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Record(Beat{Matches: 1, Duration: time.Millisecond})
			_ = tm.Metrics()
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), tm.Metrics().MatchesTicked)
}

func TestTickMonitor_StartStop(t *testing.T) {
	tm := NewTickMonitor(testutil.NopLogger())
	tm.reportInterval = time.Millisecond
	tm.Start()
	time.Sleep(5 * time.Millisecond)
	tm.Stop()
	tm.Stop()
	assert.GreaterOrEqual(t, tm.Metrics().PeakGoroutine, tm.baseline)
}
