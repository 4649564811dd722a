// Package models defines the core domain models for meal planning and recipe generation.
package models

import "time"

// Stage is one named phase of the simulated generation experience.
// Stages are fixed configuration: they are validated once and never
// mutated while a run is in flight.
type Stage struct {
	ID              string  `json:"id"               validate:"required"`
	Title           string  `json:"title"            validate:"required"`
	Description     string  `json:"description"`
	DurationSeconds float64 `json:"duration_seconds" validate:"required,gt=0"`
	Icon            string  `json:"icon"`
}

// Duration returns the stage duration as a time.Duration.
func (s Stage) Duration() time.Duration {
	return time.Duration(s.DurationSeconds * float64(time.Second))
}

// StageTable is the ordered, non-empty stage sequence for a generation run.
type StageTable []Stage

// TotalDurationSeconds sums the per-stage durations. The overall progress
// percentage is derived from this total, so it must cover the whole table
// for progress and stage index to agree at completion.
func (t StageTable) TotalDurationSeconds() float64 {
	var total float64
	for _, stage := range t {
		total += stage.DurationSeconds
	}

	return total
}

// DefaultStageTable is the nominal recipe-generation stage sequence (11s total).
func DefaultStageTable() StageTable {
	return StageTable{
		{ID: "plan-scan", Title: "Reading your plan", Description: "Looking at the week you already have", DurationSeconds: 2, Icon: "calendar"},
		{ID: "pantry-match", Title: "Matching your pantry", Description: "Checking ingredients you have on hand", DurationSeconds: 1.5, Icon: "basket"},
		{ID: "drafting", Title: "Drafting the recipe", Description: "Writing steps and quantities", DurationSeconds: 4, Icon: "pencil"},
		{ID: "nutrition-check", Title: "Checking nutrition", Description: "Balancing macros and portions", DurationSeconds: 1.5, Icon: "scale"},
		{ID: "plating", Title: "Plating it up", Description: "Final touches before serving", DurationSeconds: 2, Icon: "sparkles"},
	}
}
