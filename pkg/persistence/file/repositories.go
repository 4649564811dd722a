package file

import (
	"context"
	"errors"
	"io/fs"
	"sort"

	"github.com/platewise/platewise/pkg/models"
	"github.com/platewise/platewise/pkg/persistence"
)

// MealPlanRepository handles meal-plan file operations.
type MealPlanRepository struct {
	store store
}

func (r *MealPlanRepository) List(ctx context.Context, owner string) ([]*models.MealPlan, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, err
	}

	plans := make([]*models.MealPlan, 0, len(ids))

	for _, id := range ids {
		plan, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if owner != "" && plan.Owner != owner {
			continue
		}

		if plan.DeletedAt != nil {
			continue
		}

		plans = append(plans, plan)
	}

	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})

	return plans, nil
}

func (r *MealPlanRepository) GetByID(_ context.Context, id string) (*models.MealPlan, error) {
	var plan models.MealPlan

	if err := r.store.read(id, &plan); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewStoreError("GetByID", id, persistence.ErrMealPlanNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", id, err)
	}

	return &plan, nil
}

func (r *MealPlanRepository) Save(_ context.Context, plan *models.MealPlan) error {
	if err := r.store.write(plan.ID, plan); err != nil {
		return persistence.NewStoreError("Save", plan.ID, err)
	}

	return nil
}

func (r *MealPlanRepository) Delete(_ context.Context, id string) error {
	if err := r.store.delete(id); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return persistence.NewStoreError("Delete", id, persistence.ErrMealPlanNotFound)
		}

		return persistence.NewStoreError("Delete", id, err)
	}

	return nil
}

// RecipeRepository handles recipe file operations.
type RecipeRepository struct {
	store store
}

func (r *RecipeRepository) GetByID(_ context.Context, id string) (*models.Recipe, error) {
	var recipe models.Recipe

	if err := r.store.read(id, &recipe); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewStoreError("GetByID", id, persistence.ErrRecipeNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", id, err)
	}

	return &recipe, nil
}

func (r *RecipeRepository) Save(_ context.Context, recipe *models.Recipe) error {
	if err := r.store.write(recipe.ID, recipe); err != nil {
		return persistence.NewStoreError("Save", recipe.ID, err)
	}

	return nil
}

// GenerationRunRepository handles generation-run file operations.
type GenerationRunRepository struct {
	store store
}

func (r *GenerationRunRepository) GetByID(_ context.Context, id string) (*models.GenerationRun, error) {
	var run models.GenerationRun

	if err := r.store.read(id, &run); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewStoreError("GetByID", id, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", id, err)
	}

	return &run, nil
}

func (r *GenerationRunRepository) ListByPlan(ctx context.Context, planID string) ([]*models.GenerationRun, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, err
	}

	runs := make([]*models.GenerationRun, 0, len(ids))

	for _, id := range ids {
		run, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if run.PlanID != planID {
			continue
		}

		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	return runs, nil
}

func (r *GenerationRunRepository) Save(_ context.Context, run *models.GenerationRun) error {
	if err := r.store.write(run.ID, run); err != nil {
		return persistence.NewStoreError("Save", run.ID, err)
	}

	return nil
}

// PlanScheduleRepository handles plan-schedule file operations.
type PlanScheduleRepository struct {
	store store
}

func (r *PlanScheduleRepository) ListActive(ctx context.Context) ([]*models.PlanSchedule, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, err
	}

	schedules := make([]*models.PlanSchedule, 0, len(ids))

	for _, id := range ids {
		schedule, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if !schedule.Active {
			continue
		}

		schedules = append(schedules, schedule)
	}

	return schedules, nil
}

func (r *PlanScheduleRepository) GetByID(_ context.Context, id string) (*models.PlanSchedule, error) {
	var schedule models.PlanSchedule

	if err := r.store.read(id, &schedule); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewStoreError("GetByID", id, persistence.ErrScheduleNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", id, err)
	}

	return &schedule, nil
}

func (r *PlanScheduleRepository) Save(_ context.Context, schedule *models.PlanSchedule) error {
	if err := r.store.write(schedule.ID, schedule); err != nil {
		return persistence.NewStoreError("Save", schedule.ID, err)
	}

	return nil
}

func (r *PlanScheduleRepository) Delete(_ context.Context, id string) error {
	if err := r.store.delete(id); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return persistence.NewStoreError("Delete", id, persistence.ErrScheduleNotFound)
		}

		return persistence.NewStoreError("Delete", id, err)
	}

	return nil
}
