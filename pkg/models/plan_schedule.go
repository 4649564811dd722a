package models

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

// PlanSchedule is a recurring regeneration schedule for a meal plan.
// It stores the cron expression and a precomputed next execution time so
// the poller can query due schedules without arming individual timers.
type PlanSchedule struct {
	// ID uniquely identifies this schedule entry
	ID string `json:"id" validate:"required"`

	// PlanID identifies the meal plan this schedule regenerates
	PlanID string `json:"plan_id" validate:"required"`

	// Query is the generation request issued each time the schedule fires
	Query string `json:"query" validate:"required"`

	// CronExpression defines when this schedule should trigger
	// Uses standard 5-field cron format (minute hour day month weekday)
	CronExpression string `json:"cron_expression" validate:"required"`

	// NextDueAt is the precomputed next execution time
	NextDueAt time.Time `json:"next_due_at" validate:"required"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Active indicates if this schedule is currently processed by the poller
	Active bool `json:"active"`
}

// NewPlanSchedule creates a schedule with its first execution time calculated.
func NewPlanSchedule(id, planID, query, cronExpression string) (*PlanSchedule, error) {
	now := time.Now().UTC()
	schedule := &PlanSchedule{
		ID:             id,
		PlanID:         planID,
		Query:          query,
		CronExpression: cronExpression,
		CreatedAt:      now,
		UpdatedAt:      now,
		Active:         true,
	}

	if err := schedule.calculateNextDueAt(now); err != nil {
		return nil, err
	}

	return schedule, nil
}

// UpdateNextDueAt recalculates the next execution time from the current time.
func (s *PlanSchedule) UpdateNextDueAt() error {
	return s.calculateNextDueAt(time.Now().UTC())
}

func (s *PlanSchedule) calculateNextDueAt(referenceTime time.Time) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	cronSchedule, err := parser.Parse(s.CronExpression)
	if err != nil {
		return err
	}

	s.NextDueAt = cronSchedule.Next(referenceTime)
	s.UpdatedAt = time.Now().UTC()

	return nil
}

// IsDue checks if this schedule is due for execution at the given time.
func (s *PlanSchedule) IsDue(now time.Time) bool {
	return s.Active && !s.NextDueAt.After(now)
}

// Validate performs validation on the schedule fields.
func (s *PlanSchedule) Validate() error {
	if s.ID == "" || s.PlanID == "" || s.CronExpression == "" {
		return ErrInvalidPlanSchedule
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(s.CronExpression)

	return err
}

// ErrInvalidPlanSchedule is returned when schedule validation fails.
var ErrInvalidPlanSchedule = errors.New("invalid plan schedule configuration")
