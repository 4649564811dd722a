package progress

import "github.com/platewise/platewise/pkg/models"

// Run is the state of one in-flight simulation. It is a plain value: the
// engine owns the single mutable copy, and Advance produces the successor
// state without touching its input.
type Run struct {
	Status models.RunStatus

	// ElapsedSeconds is total simulated time, monotonically non-decreasing
	// while the run is Running.
	ElapsedSeconds float64

	// StageElapsedSeconds is time spent in the current stage; reset to zero
	// on each stage transition (the overshoot-reset policy: any remainder
	// beyond the stage duration is dropped, not carried into the next stage).
	StageElapsedSeconds float64

	// StageIndex is the active stage, always in [0, len(stages)-1].
	StageIndex int

	// Percent is the derived overall progress in [0, 100]. It is a function
	// of ElapsedSeconds and the static total only, never of StageIndex.
	Percent float64
}

// NewRun returns the initial Running state: progress zero, first stage active.
func NewRun() Run {
	return Run{Status: models.RunStatusRunning}
}

// Snapshot is the observable state published to subscribers on every tick
// and on every status transition.
type Snapshot struct {
	Status         models.RunStatus `json:"status"`
	Percent        float64          `json:"percent"`
	StageIndex     int              `json:"stage_index"`
	ElapsedSeconds float64          `json:"elapsed_seconds"`
}

// Snapshot derives the observable view of the run.
func (r Run) Snapshot() Snapshot {
	return Snapshot{
		Status:         r.Status,
		Percent:        r.Percent,
		StageIndex:     r.StageIndex,
		ElapsedSeconds: r.ElapsedSeconds,
	}
}

// Advance is the pure transition function of the engine: it applies one tick
// of deltaSeconds simulated time to the run and returns the successor state.
// It never mutates its input, performs no I/O, and holds no clock, so a run
// is fully replayable: the same stage table and tick sequence always produce
// the same snapshots.
//
// Rules, applied in order:
//  1. Elapsed time and stage-elapsed time advance by deltaSeconds.
//  2. Percent = min(elapsed/total, 1) * 100.
//  3. If the active stage has been fully consumed and is not the last stage,
//     the next stage becomes active and stage-elapsed resets to zero. At most
//     one stage advances per tick, even when deltaSeconds spans several
//     stages.
//  4. If the last stage has been fully consumed the run completes and Percent
//     is forced to exactly 100, clamping away float error.
//  5. If elapsed time exceeds the total budget by more than graceSeconds
//     without completion having triggered, the run is overrun. Only a stage
//     table whose durations fail to cover the advertised total can reach
//     this; it is kept as a defensive outcome, not an expected path.
//
// Ticks on a run that is not Running return the input unchanged.
func Advance(run Run, stages models.StageTable, totalSeconds, graceSeconds, deltaSeconds float64) Run {
	if run.Status != models.RunStatusRunning {
		return run
	}

	next := run
	next.ElapsedSeconds += deltaSeconds
	next.StageElapsedSeconds += deltaSeconds

	ratio := next.ElapsedSeconds / totalSeconds
	if ratio > 1 {
		ratio = 1
	}

	next.Percent = ratio * 100

	active := stages[next.StageIndex]
	lastStage := next.StageIndex == len(stages)-1

	switch {
	case !lastStage && next.StageElapsedSeconds >= active.DurationSeconds:
		next.StageIndex++
		next.StageElapsedSeconds = 0

	case lastStage && next.StageElapsedSeconds >= active.DurationSeconds:
		next.Status = models.RunStatusCompleted
		next.Percent = 100

	case next.ElapsedSeconds > totalSeconds+graceSeconds:
		next.Status = models.RunStatusOverrun
	}

	return next
}
