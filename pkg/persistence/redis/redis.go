// Package redis provides redis-backed persistence for shared deployments.
// Entities are stored as JSON values keyed "platewise:<kind>:<id>", with a
// per-kind set index so listings do not need key scans.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/platewise/platewise/pkg/models"
	"github.com/platewise/platewise/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "platewise"

// Persistence implements the persistence.Persistence interface on redis.
type Persistence struct {
	client    goredis.UniversalClient
	plans     *MealPlanRepository
	recipes   *RecipeRepository
	runs      *GenerationRunRepository
	schedules *PlanScheduleRepository
}

// NewPersistence connects to the redis instance described by the URL
// ("redis://host:port/db").
func NewPersistence(redisURL string) (*Persistence, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	return &Persistence{
		client:    client,
		plans:     &MealPlanRepository{store: store{client: client, kind: "plans"}},
		recipes:   &RecipeRepository{store: store{client: client, kind: "recipes"}},
		runs:      &GenerationRunRepository{store: store{client: client, kind: "runs"}},
		schedules: &PlanScheduleRepository{store: store{client: client, kind: "schedules"}},
	}, nil
}

func (p *Persistence) MealPlanRepository() persistence.MealPlanRepository {
	return p.plans
}

func (p *Persistence) RecipeRepository() persistence.RecipeRepository {
	return p.recipes
}

func (p *Persistence) GenerationRunRepository() persistence.GenerationRunRepository {
	return p.runs
}

func (p *Persistence) PlanScheduleRepository() persistence.PlanScheduleRepository {
	return p.schedules
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

// store holds the shared JSON-value-plus-index plumbing.
type store struct {
	client goredis.UniversalClient
	kind   string
}

func (s store) key(id string) string {
	return strings.Join([]string{keyPrefix, s.kind, id}, ":")
}

func (s store) indexKey() string {
	return keyPrefix + ":" + s.kind
}

func (s store) read(ctx context.Context, id string, out any) error {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, out)
}

func (s store) write(ctx context.Context, id string, in any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", s.kind, id, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(id), data, 0)
	pipe.SAdd(ctx, s.indexKey(), id)

	_, err = pipe.Exec(ctx)

	return err
}

func (s store) delete(ctx context.Context, id string) error {
	removed, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return err
	}

	if removed == 0 {
		return goredis.Nil
	}

	return s.client.SRem(ctx, s.indexKey(), id).Err()
}

func (s store) ids(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, s.indexKey()).Result()
}

func notFound(err error) bool {
	return errors.Is(err, goredis.Nil)
}

// MealPlanRepository handles meal-plan redis operations.
type MealPlanRepository struct {
	store store
}

func (r *MealPlanRepository) List(ctx context.Context, owner string) ([]*models.MealPlan, error) {
	ids, err := r.store.ids(ctx)
	if err != nil {
		return nil, err
	}

	plans := make([]*models.MealPlan, 0, len(ids))

	for _, id := range ids {
		plan, err := r.GetByID(ctx, id)
		if err != nil {
			if persistence.IsMealPlanNotFound(err) {
				continue // Index can briefly outlive a deleted value
			}

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

	return plans, nil
}

func (r *MealPlanRepository) GetByID(ctx context.Context, id string) (*models.MealPlan, error) {
	var plan models.MealPlan

	if err := r.store.read(ctx, id, &plan); err != nil {
		if notFound(err) {
			return nil, persistence.NewStoreError("GetByID", id, persistence.ErrMealPlanNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", id, err)
	}

	return &plan, nil
}

func (r *MealPlanRepository) Save(ctx context.Context, plan *models.MealPlan) error {
	if err := r.store.write(ctx, plan.ID, plan); err != nil {
		return persistence.NewStoreError("Save", plan.ID, err)
	}

	return nil
}

func (r *MealPlanRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.delete(ctx, id); err != nil {
		if notFound(err) {
			return persistence.NewStoreError("Delete", id, persistence.ErrMealPlanNotFound)
		}

		return persistence.NewStoreError("Delete", id, err)
	}

	return nil
}

// RecipeRepository handles recipe redis operations.
type RecipeRepository struct {
	store store
}

func (r *RecipeRepository) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	var recipe models.Recipe

	if err := r.store.read(ctx, id, &recipe); err != nil {
		if notFound(err) {
			return nil, persistence.NewStoreError("GetByID", id, persistence.ErrRecipeNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", id, err)
	}

	return &recipe, nil
}

func (r *RecipeRepository) Save(ctx context.Context, recipe *models.Recipe) error {
	if err := r.store.write(ctx, recipe.ID, recipe); err != nil {
		return persistence.NewStoreError("Save", recipe.ID, err)
	}

	return nil
}

// GenerationRunRepository handles generation-run redis operations.
type GenerationRunRepository struct {
	store store
}

func (r *GenerationRunRepository) GetByID(ctx context.Context, id string) (*models.GenerationRun, error) {
	var run models.GenerationRun

	if err := r.store.read(ctx, id, &run); err != nil {
		if notFound(err) {
			return nil, persistence.NewStoreError("GetByID", id, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", id, err)
	}

	return &run, nil
}

func (r *GenerationRunRepository) ListByPlan(ctx context.Context, planID string) ([]*models.GenerationRun, error) {
	ids, err := r.store.ids(ctx)
	if err != nil {
		return nil, err
	}

	runs := make([]*models.GenerationRun, 0, len(ids))

	for _, id := range ids {
		run, err := r.GetByID(ctx, id)
		if err != nil {
			if persistence.IsRunNotFound(err) {
				continue
			}

			return nil, err
		}

		if run.PlanID != planID {
			continue
		}

		runs = append(runs, run)
	}

	return runs, nil
}

func (r *GenerationRunRepository) Save(ctx context.Context, run *models.GenerationRun) error {
	if err := r.store.write(ctx, run.ID, run); err != nil {
		return persistence.NewStoreError("Save", run.ID, err)
	}

	return nil
}

// PlanScheduleRepository handles plan-schedule redis operations.
type PlanScheduleRepository struct {
	store store
}

func (r *PlanScheduleRepository) ListActive(ctx context.Context) ([]*models.PlanSchedule, error) {
	ids, err := r.store.ids(ctx)
	if err != nil {
		return nil, err
	}

	schedules := make([]*models.PlanSchedule, 0, len(ids))

	for _, id := range ids {
		schedule, err := r.GetByID(ctx, id)
		if err != nil {
			if persistence.IsScheduleNotFound(err) {
				continue
			}

			return nil, err
		}

		if !schedule.Active {
			continue
		}

		schedules = append(schedules, schedule)
	}

	return schedules, nil
}

func (r *PlanScheduleRepository) GetByID(ctx context.Context, id string) (*models.PlanSchedule, error) {
	var schedule models.PlanSchedule

	if err := r.store.read(ctx, id, &schedule); err != nil {
		if notFound(err) {
			return nil, persistence.NewStoreError("GetByID", id, persistence.ErrScheduleNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", id, err)
	}

	return &schedule, nil
}

func (r *PlanScheduleRepository) Save(ctx context.Context, schedule *models.PlanSchedule) error {
	if err := r.store.write(ctx, schedule.ID, schedule); err != nil {
		return persistence.NewStoreError("Save", schedule.ID, err)
	}

	return nil
}

func (r *PlanScheduleRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.delete(ctx, id); err != nil {
		if notFound(err) {
			return persistence.NewStoreError("Delete", id, persistence.ErrScheduleNotFound)
		}

		return persistence.NewStoreError("Delete", id, err)
	}

	return nil
}
