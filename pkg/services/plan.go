package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/platewise/platewise/pkg/models"
	"github.com/platewise/platewise/pkg/persistence"
)

// Plan owns meal-plan business logic above the persistence layer.
type Plan struct {
	persistence persistence.Persistence
}

func NewPlan(persistence persistence.Persistence) *Plan {
	return &Plan{persistence: persistence}
}

// CreatePlanRequest carries the caller-supplied plan fields.
type CreatePlanRequest struct {
	Name      string             `json:"name"      validate:"required,min=3"`
	Owner     string             `json:"owner"     validate:"required"`
	Entries   []models.PlanEntry `json:"entries"`
	Variables map[string]any     `json:"variables"`
}

func (p *Plan) CreatePlan(ctx context.Context, req CreatePlanRequest) (*models.MealPlan, error) {
	if req.Name == "" {
		return nil, NewValidationError("CreatePlan", "plan_name_required", "plan name is required", ErrPlanNameRequired)
	}

	if req.Owner == "" {
		return nil, NewValidationError("CreatePlan", "owner_required", "owner is required", ErrEmptyOwnerID)
	}

	now := time.Now().UTC()
	plan := &models.MealPlan{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Owner:     req.Owner,
		Entries:   req.Entries,
		Variables: req.Variables,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := p.persistence.MealPlanRepository().Save(ctx, plan); err != nil {
		return nil, err
	}

	return plan, nil
}

func (p *Plan) ListPlans(ctx context.Context, owner string) ([]*models.MealPlan, error) {
	return p.persistence.MealPlanRepository().List(ctx, owner)
}

func (p *Plan) GetPlan(ctx context.Context, id string) (*models.MealPlan, error) {
	return p.persistence.MealPlanRepository().GetByID(ctx, id)
}

// DeletePlan soft-deletes the plan so in-flight generation runs can still
// resolve against it.
func (p *Plan) DeletePlan(ctx context.Context, id string) error {
	plan, err := p.persistence.MealPlanRepository().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if plan.DeletedAt != nil {
		return NewValidationError("DeletePlan", "plan_deleted", "plan is already deleted", ErrPlanDeleted)
	}

	now := time.Now().UTC()
	plan.DeletedAt = &now
	plan.UpdatedAt = now

	return p.persistence.MealPlanRepository().Save(ctx, plan)
}
