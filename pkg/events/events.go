// Package events defines event types and structures for generation lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/platewise/platewise/pkg/models"
)

type EventType string

// Topic carries all generation lifecycle events.
const Topic = "platewise.generations"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Generation lifecycle events.
	GenerationRequestedEvent  EventType = "generation.requested"
	GenerationStartedEvent    EventType = "generation.started"
	GenerationProgressedEvent EventType = "generation.progressed"
	StageAdvancedEvent        EventType = "generation.stage.advanced"
	GenerationCompletedEvent  EventType = "generation.completed"
	GenerationOverrunEvent    EventType = "generation.overrun"
	GenerationCancelledEvent  EventType = "generation.cancelled"

	// Plan schedule events.
	PlanScheduleDueEvent EventType = "plan.schedule.due"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// GenerationRequested asks a generator worker to start a run.
type GenerationRequested struct {
	BaseEvent

	PlanID string `json:"plan_id"`
	Query  string `json:"query"`
}

func (g GenerationRequested) GetType() EventType {
	return GenerationRequestedEvent
}

// GenerationStarted marks the reset snapshot of a fresh run: progress zero,
// first stage active.
type GenerationStarted struct {
	BaseEvent

	PlanID       string  `json:"plan_id"`
	Query        string  `json:"query"`
	StageCount   int     `json:"stage_count"`
	TotalSeconds float64 `json:"total_seconds"`
}

func (g GenerationStarted) GetType() EventType {
	return GenerationStartedEvent
}

// GenerationProgressed carries one tick snapshot of a running simulation.
type GenerationProgressed struct {
	BaseEvent

	Status         models.RunStatus `json:"status"`
	Percent        float64          `json:"percent"`
	StageIndex     int              `json:"stage_index"`
	ElapsedSeconds float64          `json:"elapsed_seconds"`
}

func (g GenerationProgressed) GetType() EventType {
	return GenerationProgressedEvent
}

// StageAdvanced marks a stage boundary.
type StageAdvanced struct {
	BaseEvent

	StageIndex int    `json:"stage_index"`
	StageID    string `json:"stage_id"`
	StageTitle string `json:"stage_title"`
}

func (s StageAdvanced) GetType() EventType {
	return StageAdvancedEvent
}

// GenerationCompleted reports the success outcome of a run.
type GenerationCompleted struct {
	BaseEvent

	RecipeID string        `json:"recipe_id,omitempty"`
	Duration time.Duration `json:"duration"`
}

func (g GenerationCompleted) GetType() EventType {
	return GenerationCompletedEvent
}

// GenerationOverrun reports the non-fatal failure outcome: elapsed time
// exceeded the stage budget beyond the grace window without completion.
type GenerationOverrun struct {
	BaseEvent

	Reason         string  `json:"reason"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

func (g GenerationOverrun) GetType() EventType {
	return GenerationOverrunEvent
}

// GenerationCancelled reports a user-initiated cancellation. It is published
// for observability only; the resolution contract never fires for it.
type GenerationCancelled struct {
	BaseEvent

	ElapsedSeconds float64 `json:"elapsed_seconds"`
	CancelledBy    string  `json:"cancelled_by"`
}

func (g GenerationCancelled) GetType() EventType {
	return GenerationCancelledEvent
}

// PlanScheduleDue signals that a recurring plan regeneration is due.
type PlanScheduleDue struct {
	BaseEvent

	ScheduleID string `json:"schedule_id"`
	PlanID     string `json:"plan_id"`
	Query      string `json:"query"`
}

func (p PlanScheduleDue) GetType() EventType {
	return PlanScheduleDueEvent
}

func NewBaseEvent(eventType EventType, runID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		Metadata:  make(map[string]any),
	}
}
