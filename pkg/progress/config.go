// Package progress implements the generation progress engine: a deterministic
// tick-driven state machine that turns an ordered stage table into a single
// monotonically advancing percentage, drives stage transitions, detects
// overrun, and resolves exactly once to success or failure while staying
// cancellable at any time.
package progress

import (
	"fmt"
	"time"

	"github.com/platewise/platewise/pkg/models"
)

// Reference timing values. Callers may override any of them; zero values
// fall back to these defaults.
const (
	DefaultTickInterval    = 100 * time.Millisecond
	DefaultGraceWindow     = 3 * time.Second
	DefaultCompletionDelay = 1500 * time.Millisecond
	DefaultOverrunDelay    = 2 * time.Second
)

// Config is the full configuration surface of the engine. The stage table is
// fixed for the lifetime of a run; TotalSeconds is precomputed once so the
// progress percentage stays a pure function of elapsed time.
type Config struct {
	// Stages is the ordered, non-empty stage sequence.
	Stages models.StageTable

	// TotalSeconds is the advertised run budget. Zero means the sum of the
	// stage durations, which is the only configuration in which progress
	// and stage index agree at completion. A caller-supplied budget the
	// table does not cover is what makes the Overrun outcome reachable.
	TotalSeconds float64

	// TickInterval is the simulation resolution.
	TickInterval time.Duration

	// GraceWindow is how far elapsed time may exceed the stage budget
	// before the run is declared overrun.
	GraceWindow time.Duration

	// CompletionDelay is the post-completion display delay before the
	// resolution callback fires with a success outcome.
	CompletionDelay time.Duration

	// OverrunDelay is the post-overrun display delay before the resolution
	// callback fires with a failure outcome.
	OverrunDelay time.Duration
}

// withDefaults fills unset timing options with the reference values.
func (c Config) withDefaults() Config {
	if c.TotalSeconds == 0 {
		c.TotalSeconds = c.Stages.TotalDurationSeconds()
	}

	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}

	if c.GraceWindow == 0 {
		c.GraceWindow = DefaultGraceWindow
	}

	if c.CompletionDelay == 0 {
		c.CompletionDelay = DefaultCompletionDelay
	}

	if c.OverrunDelay == 0 {
		c.OverrunDelay = DefaultOverrunDelay
	}

	return c
}

// Validate fails fast on configuration that would produce a silently broken
// run: an empty stage table, a non-positive stage duration, or a non-positive
// tick interval.
func (c Config) Validate() error {
	if len(c.Stages) == 0 {
		return fmt.Errorf("%w: stage table is empty", ErrInvalidConfiguration)
	}

	for i, stage := range c.Stages {
		if stage.DurationSeconds <= 0 {
			return fmt.Errorf("%w: stage %d (%s) has non-positive duration %v",
				ErrInvalidConfiguration, i, stage.ID, stage.DurationSeconds)
		}
	}

	if c.TickInterval < 0 {
		return fmt.Errorf("%w: tick interval %v is not positive", ErrInvalidConfiguration, c.TickInterval)
	}

	return nil
}

