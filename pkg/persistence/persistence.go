// Package persistence provides the storage abstraction layer for meal plans,
// recipes, generation runs, and plan schedules.
package persistence

import (
	"context"

	"github.com/platewise/platewise/pkg/models"
)

type Persistence interface {
	MealPlanRepository() MealPlanRepository
	RecipeRepository() RecipeRepository
	GenerationRunRepository() GenerationRunRepository
	PlanScheduleRepository() PlanScheduleRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

type MealPlanRepository interface {
	List(ctx context.Context, owner string) ([]*models.MealPlan, error)
	GetByID(ctx context.Context, id string) (*models.MealPlan, error)
	Save(ctx context.Context, plan *models.MealPlan) error
	Delete(ctx context.Context, id string) error
}

type RecipeRepository interface {
	GetByID(ctx context.Context, id string) (*models.Recipe, error)
	Save(ctx context.Context, recipe *models.Recipe) error
}

type GenerationRunRepository interface {
	GetByID(ctx context.Context, id string) (*models.GenerationRun, error)
	ListByPlan(ctx context.Context, planID string) ([]*models.GenerationRun, error)
	Save(ctx context.Context, run *models.GenerationRun) error
}

type PlanScheduleRepository interface {
	ListActive(ctx context.Context) ([]*models.PlanSchedule, error)
	GetByID(ctx context.Context, id string) (*models.PlanSchedule, error)
	Save(ctx context.Context, schedule *models.PlanSchedule) error
	Delete(ctx context.Context, id string) error
}
