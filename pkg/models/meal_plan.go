package models

import "time"

// MealSlot names one of the meals in a day.
type MealSlot string

const (
	MealSlotBreakfast MealSlot = "breakfast"
	MealSlotLunch     MealSlot = "lunch"
	MealSlotDinner    MealSlot = "dinner"
	MealSlotSnack     MealSlot = "snack"
)

// PlanEntry puts a recipe into a day/meal cell of the plan.
type PlanEntry struct {
	Date     string   `json:"date"     validate:"required"` // ISO date, YYYY-MM-DD
	Meal     MealSlot `json:"meal"     validate:"required"`
	RecipeID string   `json:"recipe_id"`
}

// MealPlan is a user's planned week of meals.
type MealPlan struct {
	ID        string         `json:"id"    validate:"required"`
	Name      string         `json:"name"  validate:"required,min=3"`
	Owner     string         `json:"owner" validate:"required"`
	Entries   []PlanEntry    `json:"entries"`
	Variables map[string]any `json:"variables,omitempty"` // Dietary preferences, household size, etc.
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt *time.Time     `json:"deleted_at,omitempty"`
}
