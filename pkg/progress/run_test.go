package progress

import (
	"testing"

	"github.com/platewise/platewise/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nominalStages() models.StageTable {
	return models.StageTable{
		{ID: "plan-scan", Title: "Reading your plan", DurationSeconds: 2},
		{ID: "pantry-match", Title: "Matching your pantry", DurationSeconds: 1.5},
		{ID: "drafting", Title: "Drafting the recipe", DurationSeconds: 4},
		{ID: "nutrition-check", Title: "Checking nutrition", DurationSeconds: 1.5},
		{ID: "plating", Title: "Plating it up", DurationSeconds: 2},
	}
}

// driveTicks replays n fixed-size ticks through the pure transition function.
func driveTicks(run Run, stages models.StageTable, total, grace, delta float64, n int) Run {
	for range n {
		run = Advance(run, stages, total, grace, delta)
	}

	return run
}

func TestAdvance_NominalCompletion(t *testing.T) {
	stages := nominalStages()
	total := stages.TotalDurationSeconds()
	require.InDelta(t, 11.0, total, 1e-9)

	run := driveTicks(NewRun(), stages, total, 3, 0.1, 110)

	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.InDelta(t, 100.0, run.Percent, 0)
	assert.Equal(t, 4, run.StageIndex)
}

func TestAdvance_PercentIsExactlyHundredAtCompletion(t *testing.T) {
	stages := nominalStages()
	total := stages.TotalDurationSeconds()

	run := driveTicks(NewRun(), stages, total, 3, 0.1, 110)

	// Float error from 110 additions of 0.1 must be clamped away.
	assert.Equal(t, 100.0, run.Percent)
}

func TestAdvance_Monotonicity(t *testing.T) {
	stages := nominalStages()
	total := stages.TotalDurationSeconds()

	run := NewRun()
	prevElapsed, prevPercent := run.ElapsedSeconds, run.Percent

	for range 200 {
		run = Advance(run, stages, total, 3, 0.1)

		assert.GreaterOrEqual(t, run.ElapsedSeconds, prevElapsed)
		assert.GreaterOrEqual(t, run.Percent, prevPercent)
		assert.LessOrEqual(t, run.Percent, 100.0)

		prevElapsed, prevPercent = run.ElapsedSeconds, run.Percent
	}
}

func TestAdvance_StageOrdering(t *testing.T) {
	stages := nominalStages()
	total := stages.TotalDurationSeconds()

	run := NewRun()
	prevIndex := run.StageIndex

	for range 200 {
		run = Advance(run, stages, total, 3, 0.1)

		step := run.StageIndex - prevIndex
		assert.Contains(t, []int{0, 1}, step, "stage index must only move forward by at most one")
		assert.Less(t, run.StageIndex, len(stages))

		prevIndex = run.StageIndex
	}

	assert.Equal(t, len(stages)-1, run.StageIndex)
}

func TestAdvance_AtMostOneStagePerTick(t *testing.T) {
	// A single large tick spans several stages; the reference behavior still
	// advances only one stage per tick.
	stages := models.StageTable{
		{ID: "a", DurationSeconds: 0.1},
		{ID: "b", DurationSeconds: 0.1},
		{ID: "c", DurationSeconds: 5},
	}
	total := stages.TotalDurationSeconds()

	run := Advance(NewRun(), stages, total, 3, 1.0)

	assert.Equal(t, 1, run.StageIndex)
	assert.Equal(t, models.RunStatusRunning, run.Status)
}

func TestAdvance_StageElapsedResetsOnTransition(t *testing.T) {
	stages := models.StageTable{
		{ID: "a", DurationSeconds: 0.3},
		{ID: "b", DurationSeconds: 1},
	}
	total := stages.TotalDurationSeconds()

	run := driveTicks(NewRun(), stages, total, 3, 0.1, 3)

	require.Equal(t, 1, run.StageIndex)
	assert.Equal(t, 0.0, run.StageElapsedSeconds, "overshoot is dropped, not carried over")
}

func TestAdvance_Overrun(t *testing.T) {
	// A table whose durations never cover the advertised 5s budget: the last
	// stage needs 100s, so natural completion never fires and the run must
	// be declared overrun once elapsed exceeds 5 + 3 = 8s.
	stages := models.StageTable{{ID: "stuck", DurationSeconds: 100}}

	run := NewRun()
	for range 79 {
		run = Advance(run, stages, 5, 3, 0.1)
	}

	require.Equal(t, models.RunStatusRunning, run.Status)

	run = Advance(run, stages, 5, 3, 0.1)

	assert.Equal(t, models.RunStatusOverrun, run.Status)
	assert.Equal(t, 100.0, run.Percent, "progress is clamped at the budget even while stuck")
}

func TestAdvance_TerminalStatesIgnoreTicks(t *testing.T) {
	stages := nominalStages()
	total := stages.TotalDurationSeconds()

	completed := driveTicks(NewRun(), stages, total, 3, 0.1, 110)
	require.Equal(t, models.RunStatusCompleted, completed.Status)

	after := Advance(completed, stages, total, 3, 0.1)
	assert.Equal(t, completed, after, "a terminal run must not mutate")

	cancelled := Run{Status: models.RunStatusCancelled, ElapsedSeconds: 3}
	assert.Equal(t, cancelled, Advance(cancelled, stages, total, 3, 0.1))
}

func TestAdvance_Determinism(t *testing.T) {
	stages := nominalStages()
	total := stages.TotalDurationSeconds()

	first := make([]Snapshot, 0, 110)
	second := make([]Snapshot, 0, 110)

	run := NewRun()
	for range 110 {
		run = Advance(run, stages, total, 3, 0.1)
		first = append(first, run.Snapshot())
	}

	run = NewRun()
	for range 110 {
		run = Advance(run, stages, total, 3, 0.1)
		second = append(second, run.Snapshot())
	}

	assert.Equal(t, first, second, "snapshots must be a pure function of tick count")
}

func TestAdvance_DoesNotMutateInput(t *testing.T) {
	stages := nominalStages()
	total := stages.TotalDurationSeconds()

	run := NewRun()
	before := run

	_ = Advance(run, stages, total, 3, 0.1)

	assert.Equal(t, before, run)
}
