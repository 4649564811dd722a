// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrMealPlanNotFound indicates a meal plan was not found by the given identifier.
	ErrMealPlanNotFound = errors.New("meal plan not found")

	// ErrRecipeNotFound indicates a recipe was not found by the given identifier.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrRunNotFound indicates a generation run was not found by the given identifier.
	ErrRunNotFound = errors.New("generation run not found")

	// ErrScheduleNotFound indicates a plan schedule was not found by the given identifier.
	ErrScheduleNotFound = errors.New("plan schedule not found")
)

// StoreError wraps storage errors with operation context.
type StoreError struct {
	Op       string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	EntityID string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s operation failed for %s: %v", e.Op, e.EntityID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for store errors.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a new store error with context.
func NewStoreError(op, entityID string, err error) *StoreError {
	return &StoreError{Op: op, EntityID: entityID, Err: err}
}

// IsMealPlanNotFound checks if an error indicates a missing meal plan.
func IsMealPlanNotFound(err error) bool {
	return errors.Is(err, ErrMealPlanNotFound)
}

// IsRecipeNotFound checks if an error indicates a missing recipe.
func IsRecipeNotFound(err error) bool {
	return errors.Is(err, ErrRecipeNotFound)
}

// IsRunNotFound checks if an error indicates a missing generation run.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// IsScheduleNotFound checks if an error indicates a missing plan schedule.
func IsScheduleNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound)
}
