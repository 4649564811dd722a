// Package generation couples the progress engine with the real asynchronous
// recipe generation work: it owns run records, publishes lifecycle events,
// and reconciles the requester's result with the engine's outcome.
package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/platewise/platewise/pkg/models"
)

// Requester is the opaque capability that actually produces a recipe. The
// engine only simulates elapsed time; the requester runs in parallel and its
// result is reconciled with the engine's outcome when the run resolves.
type Requester interface {
	Generate(ctx context.Context, planID, query string) (*models.Recipe, error)
}

// StaticRequester produces a canned recipe after a fixed delay. It stands in
// for the real backend in tests and local development.
type StaticRequester struct {
	Delay       time.Duration
	SafetyScore int
}

func (r *StaticRequester) Generate(ctx context.Context, planID, query string) (*models.Recipe, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(r.Delay):
	}

	score := r.SafetyScore
	if score == 0 {
		score = 90
	}

	return &models.Recipe{
		ID:          uuid.New().String(),
		Title:       fmt.Sprintf("Suggested: %s", query),
		Description: fmt.Sprintf("A generated recipe for plan %s", planID),
		Servings:    2,
		SafetyScore: score,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
