package progress

import (
	"log/slog"
	"sync"
	"time"

	"github.com/platewise/platewise/pkg/models"
)

// TickFunc observes run snapshots. It is called on every tick and on every
// status transition, in causal order.
type TickFunc func(Snapshot)

// ResolveFunc receives the terminal outcome of a run: success for Completed,
// failure with a human-readable reason for Overrun. It fires exactly once per
// run and never for a Cancelled run.
type ResolveFunc func(success bool, reason string)

// OverrunReason is the user-facing failure reason attached to overrun runs.
const OverrunReason = "generation is taking longer than expected"

// Engine drives the generation progress simulation. It owns the stage table,
// the ticker, and the single mutable Run; all transition logic lives in the
// pure Advance function, the engine is only the clock driver and publisher.
//
// One run is active at a time: Start tears down any previous run before
// arming a new one, so no two runs ever share a ticker.
type Engine struct {
	cfg          Config
	totalSeconds float64
	logger       *slog.Logger

	mu         sync.Mutex
	run        Run
	generation int  // Increments per Start; stale tickers and delayed resolutions check it
	resolved   bool // Terminal callback fired for the current generation
	stop       chan struct{}

	onTick     []TickFunc
	onResolved []ResolveFunc
}

// NewEngine creates an engine for the given configuration. Subscribers may be
// registered any time before Start.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	cfg = cfg.withDefaults()

	return &Engine{
		cfg:          cfg,
		totalSeconds: cfg.TotalSeconds,
		logger:       logger.With("module", "progress_engine"),
		run:          Run{Status: models.RunStatusIdle},
	}
}

// OnTick registers a snapshot observer. Observers registered before Start see
// every transition, including the reset snapshot emitted by Start itself.
func (e *Engine) OnTick(fn TickFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.onTick = append(e.onTick, fn)
}

// OnResolved registers a terminal-outcome observer.
func (e *Engine) OnResolved(fn ResolveFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.onResolved = append(e.onResolved, fn)
}

// Snapshot returns the current observable state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.run.Snapshot()
}

// Start begins a fresh run. Any active run is stopped first; state never
// leaks between runs. On invalid configuration it returns
// ErrInvalidConfiguration without arming a timer or emitting a snapshot.
func (e *Engine) Start() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()

	e.stopTimerLocked()
	e.generation++
	e.resolved = false
	e.run = NewRun()
	e.stop = make(chan struct{})

	generation := e.generation
	stop := e.stop
	snapshot := e.run.Snapshot()

	e.mu.Unlock()

	e.logger.Debug("Starting generation run",
		"stages", len(e.cfg.Stages),
		"total_seconds", e.totalSeconds,
		"tick_interval", e.cfg.TickInterval)

	e.publish(snapshot)

	go e.drive(generation, stop)

	return nil
}

// Cancel terminates the current run without firing the resolution callback.
// It is safe to call from any state, including Idle, terminal states, and
// reentrantly from an OnTick observer; repeated calls are no-ops.
func (e *Engine) Cancel() {
	e.mu.Lock()

	if e.run.Status != models.RunStatusRunning {
		e.mu.Unlock()

		return
	}

	e.stopTimerLocked()
	e.run.Status = models.RunStatusCancelled
	e.resolved = true // Suppresses any resolution for this generation
	snapshot := e.run.Snapshot()

	e.mu.Unlock()

	e.logger.Debug("Generation run cancelled", "elapsed_seconds", snapshot.ElapsedSeconds)

	e.publish(snapshot)
}

// drive is the clock loop for one generation. It only advances the run; every
// transition decision lives in Advance.
func (e *Engine) drive(generation int, stop chan struct{}) {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	deltaSeconds := e.cfg.TickInterval.Seconds()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !e.tick(generation, deltaSeconds) {
				return
			}
		}
	}
}

// tick applies one simulated time step. It reports whether the drive loop
// should keep ticking.
func (e *Engine) tick(generation int, deltaSeconds float64) bool {
	e.mu.Lock()

	if e.generation != generation || e.run.Status != models.RunStatusRunning {
		e.mu.Unlock()

		return false
	}

	e.run = Advance(e.run, e.cfg.Stages, e.totalSeconds, e.cfg.GraceWindow.Seconds(), deltaSeconds)
	snapshot := e.run.Snapshot()

	var resolveAfter time.Duration

	var success bool

	terminal := e.run.Status.IsTerminal()
	if terminal {
		// The timer must stop as part of the transition, not on the next
		// tick, so a reentrant Cancel from a subscriber cannot race a
		// further tick.
		e.stopTimerLocked()

		switch e.run.Status {
		case models.RunStatusCompleted:
			resolveAfter, success = e.cfg.CompletionDelay, true
		case models.RunStatusOverrun:
			resolveAfter, success = e.cfg.OverrunDelay, false
		}
	}

	e.mu.Unlock()

	e.publish(snapshot)

	if terminal {
		e.logger.Debug("Generation run reached terminal state",
			"status", snapshot.Status,
			"elapsed_seconds", snapshot.ElapsedSeconds)
		e.scheduleResolution(generation, resolveAfter, success)
	}

	return !terminal
}

// scheduleResolution fires the terminal callback after the configured display
// delay, unless the run was cancelled or replaced in the meantime.
func (e *Engine) scheduleResolution(generation int, after time.Duration, success bool) {
	time.AfterFunc(after, func() {
		e.mu.Lock()

		if e.generation != generation || e.resolved {
			e.mu.Unlock()

			return
		}

		e.resolved = true
		subscribers := make([]ResolveFunc, len(e.onResolved))
		copy(subscribers, e.onResolved)

		e.mu.Unlock()

		reason := ""
		if !success {
			reason = OverrunReason
		}

		for _, fn := range subscribers {
			fn(success, reason)
		}
	})
}

func (e *Engine) publish(snapshot Snapshot) {
	e.mu.Lock()
	subscribers := make([]TickFunc, len(e.onTick))
	copy(subscribers, e.onTick)
	e.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

// stopTimerLocked stops the current drive loop. Callers must hold e.mu.
func (e *Engine) stopTimerLocked() {
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
}
