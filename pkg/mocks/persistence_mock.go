package mocks

import (
	"context"

	"github.com/platewise/platewise/pkg/models"
	"github.com/platewise/platewise/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockMealPlanRepository is a mock implementation of persistence.MealPlanRepository interface.
type MockMealPlanRepository struct {
	mock.Mock
}

func (m *MockMealPlanRepository) List(ctx context.Context, owner string) ([]*models.MealPlan, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.MealPlan), args.Error(1)
}

func (m *MockMealPlanRepository) GetByID(ctx context.Context, id string) (*models.MealPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.MealPlan), args.Error(1)
}

func (m *MockMealPlanRepository) Save(ctx context.Context, plan *models.MealPlan) error {
	args := m.Called(ctx, plan)

	return args.Error(0)
}

func (m *MockMealPlanRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockRecipeRepository is a mock implementation of persistence.RecipeRepository interface.
type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) Save(ctx context.Context, recipe *models.Recipe) error {
	args := m.Called(ctx, recipe)

	return args.Error(0)
}

// MockGenerationRunRepository is a mock implementation of persistence.GenerationRunRepository interface.
type MockGenerationRunRepository struct {
	mock.Mock
}

func (m *MockGenerationRunRepository) GetByID(ctx context.Context, id string) (*models.GenerationRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.GenerationRun), args.Error(1)
}

func (m *MockGenerationRunRepository) ListByPlan(ctx context.Context, planID string) ([]*models.GenerationRun, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.GenerationRun), args.Error(1)
}

func (m *MockGenerationRunRepository) Save(ctx context.Context, run *models.GenerationRun) error {
	args := m.Called(ctx, run)

	return args.Error(0)
}

// MockPlanScheduleRepository is a mock implementation of persistence.PlanScheduleRepository interface.
type MockPlanScheduleRepository struct {
	mock.Mock
}

func (m *MockPlanScheduleRepository) ListActive(ctx context.Context) ([]*models.PlanSchedule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.PlanSchedule), args.Error(1)
}

func (m *MockPlanScheduleRepository) GetByID(ctx context.Context, id string) (*models.PlanSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.PlanSchedule), args.Error(1)
}

func (m *MockPlanScheduleRepository) Save(ctx context.Context, schedule *models.PlanSchedule) error {
	args := m.Called(ctx, schedule)

	return args.Error(0)
}

func (m *MockPlanScheduleRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	MealPlans *MockMealPlanRepository
	Recipes   *MockRecipeRepository
	Runs      *MockGenerationRunRepository
	Schedules *MockPlanScheduleRepository
}

func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		MealPlans: &MockMealPlanRepository{},
		Recipes:   &MockRecipeRepository{},
		Runs:      &MockGenerationRunRepository{},
		Schedules: &MockPlanScheduleRepository{},
	}
}

func (m *MockPersistence) MealPlanRepository() persistence.MealPlanRepository {
	return m.MealPlans
}

func (m *MockPersistence) RecipeRepository() persistence.RecipeRepository {
	return m.Recipes
}

func (m *MockPersistence) GenerationRunRepository() persistence.GenerationRunRepository {
	return m.Runs
}

func (m *MockPersistence) PlanScheduleRepository() persistence.PlanScheduleRepository {
	return m.Schedules
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
