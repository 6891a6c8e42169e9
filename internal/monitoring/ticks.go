// Package monitoring keeps running counters for the tick scheduler and
// samples the process goroutine count.
package monitoring

import (
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TickMonitor aggregates scheduler beats. Record is cheap and safe to call
// from the scheduler loop; Start adds a background reporter.
type TickMonitor struct {
	mu        sync.RWMutex
	beats     int64
	ticked    int64
	failures  int64
	overruns  int64
	last      time.Duration
	slowest   time.Duration
	total     time.Duration
	baseline  int
	peak      int
	lastAlert time.Time

	reportInterval time.Duration
	alertThreshold int
	alertCooldown  time.Duration
	logger         zerolog.Logger
	stopChan       chan struct{}
	stopOnce       sync.Once
}

// NewTickMonitor creates a monitor with the current goroutine count as its baseline
func NewTickMonitor(logger zerolog.Logger) *TickMonitor {
	baseline := runtime.NumGoroutine()
	return &TickMonitor{
		baseline:       baseline,
		peak:           baseline,
		reportInterval: 30 * time.Second,
		alertThreshold: 1000,
		alertCooldown:  5 * time.Minute,
		logger:         logger.With().Str("component", "TickMonitor").Logger(),
		stopChan:       make(chan struct{}),
	}
}

// Beat describes one scheduler pass over the live matches
type Beat struct {
	Matches  int
	Failures int
	Duration time.Duration
	Overrun  bool
}

// Record adds one beat to the counters
func (tm *TickMonitor) Record(b Beat) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.beats++
	tm.ticked += int64(b.Matches)
	tm.failures += int64(b.Failures)
	if b.Overrun {
		tm.overruns++
	}
	tm.last = b.Duration
	tm.total += b.Duration
	tm.slowest = max(tm.slowest, b.Duration)
}

// Start begins periodic reporting
func (tm *TickMonitor) Start() {
	go tm.monitor()
	tm.logger.Info().
		Int("goroutine_baseline", tm.baseline).
		Dur("report_interval", tm.reportInterval).
		Msg("Started tick monitoring")
}

// Stop ends periodic reporting. It may be called more than once.
func (tm *TickMonitor) Stop() {
	tm.stopOnce.Do(func() { close(tm.stopChan) })
}

func (tm *TickMonitor) monitor() {
	defer func() {
		if r := recover(); r != nil {
			tm.logger.Error().
				Interface("panic", r).
				Msg("Tick monitor panicked - restarting")
			time.Sleep(5 * time.Second)
			go tm.monitor()
		}
	}()

	ticker := time.NewTicker(tm.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tm.report()
		case <-tm.stopChan:
			return
		}
	}
}

// report samples goroutines and logs the counters, warning on a high
// goroutine count at most once per cooldown.
func (tm *TickMonitor) report() {
	goroutines := runtime.NumGoroutine()

	tm.mu.Lock()
	tm.peak = max(tm.peak, goroutines)
	alert := goroutines > tm.alertThreshold && time.Since(tm.lastAlert) > tm.alertCooldown
	if alert {
		tm.lastAlert = time.Now()
	}
	tm.mu.Unlock()

	m := tm.Metrics()
	tm.logger.Debug().
		Int64("beats", m.Beats).
		Int64("matches_ticked", m.MatchesTicked).
		Int64("failures", m.Failures).
		Int64("overruns", m.Overruns).
		Dur("mean_beat", m.MeanBeat).
		Dur("slowest_beat", m.SlowestBeat).
		Int("goroutines", goroutines).
		Msg("Tick metrics")

	if alert {
		tm.logger.Warn().
			Int("goroutines", goroutines).
			Int("threshold", tm.alertThreshold).
			Int("baseline", tm.baseline).
			Msg("High goroutine count detected - possible leak")
	}
}

// Metrics returns a copy of the counters
func (tm *TickMonitor) Metrics() TickMetrics {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	m := TickMetrics{
		Beats:         tm.beats,
		MatchesTicked: tm.ticked,
		Failures:      tm.failures,
		Overruns:      tm.overruns,
		LastBeat:      tm.last,
		SlowestBeat:   tm.slowest,
		Goroutines:    runtime.NumGoroutine(),
		PeakGoroutine: tm.peak,
	}
	if tm.beats > 0 {
		m.MeanBeat = tm.total / time.Duration(tm.beats)
	}
	return m
}

// TickMetrics is a point-in-time view of the scheduler
type TickMetrics struct {
	Beats         int64         `json:"beats"`
	MatchesTicked int64         `json:"matches_ticked"`
	Failures      int64         `json:"failures"`
	Overruns      int64         `json:"overruns"`
	LastBeat      time.Duration `json:"last_beat"`
	MeanBeat      time.Duration `json:"mean_beat"`
	SlowestBeat   time.Duration `json:"slowest_beat"`
	Goroutines    int           `json:"goroutines"`
	PeakGoroutine int           `json:"peak_goroutines"`
}
