package models

import "time"

// RunStatus represents the lifecycle state of a generation run.
type RunStatus string

const (
	RunStatusIdle      RunStatus = "idle"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed" // Terminal, success
	RunStatusOverrun   RunStatus = "overrun"   // Elapsed time exceeded the stage budget
	RunStatusCancelled RunStatus = "cancelled" // Terminal, user-initiated
)

// IsTerminal reports whether no further progress may be recorded for the run.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusCancelled || s == RunStatusOverrun
}

// GenerationRun is the persisted record of one recipe-generation attempt.
type GenerationRun struct {
	ID              string     `json:"id"         validate:"required"`
	PlanID          string     `json:"plan_id"    validate:"required"`
	Query           string     `json:"query"      validate:"required"`
	Status          RunStatus  `json:"status"`
	ProgressPercent float64    `json:"progress_percent"`
	StageIndex      int        `json:"stage_index"`
	ElapsedSeconds  float64    `json:"elapsed_seconds"`
	RecipeID        string     `json:"recipe_id,omitempty"`
	FailureReason   string     `json:"failure_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}
