package generation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/platewise/platewise/pkg/eventbus"
	"github.com/platewise/platewise/pkg/events"
	"github.com/platewise/platewise/pkg/models"
	"github.com/platewise/platewise/pkg/otelhelper"
	"github.com/platewise/platewise/pkg/persistence"
	"github.com/platewise/platewise/pkg/progress"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Service drives generation runs: one progress engine per run, the requester
// running alongside it, lifecycle events on the bus, and the run record kept
// current in persistence.
type Service struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	requester   Requester
	engineCfg   progress.Config
	logger      *slog.Logger
	tracer      trace.Tracer // Optional; nil disables spans
	workerID    string

	mu   sync.Mutex
	runs map[string]*activeRun
}

type activeRun struct {
	engine *progress.Engine
	cancel context.CancelFunc
	span   trace.Span

	mu     sync.Mutex
	recipe *models.Recipe
}

func NewService(
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	requester Requester,
	engineCfg progress.Config,
	logger *slog.Logger,
	tracer trace.Tracer,
	workerID string,
) *Service {
	return &Service{
		persistence: persistence,
		eventBus:    eventBus,
		requester:   requester,
		engineCfg:   engineCfg,
		logger:      logger.With("module", "generation_service", "worker_id", workerID),
		tracer:      tracer,
		workerID:    workerID,
		runs:        make(map[string]*activeRun),
	}
}

// StartRun begins a generation run for the plan. The run record is persisted
// before the engine is armed; configuration problems surface synchronously as
// progress.ErrInvalidConfiguration and leave nothing running.
func (s *Service) StartRun(ctx context.Context, planID, query string) (*models.GenerationRun, error) {
	if _, err := s.persistence.MealPlanRepository().GetByID(ctx, planID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &models.GenerationRun{
		ID:        uuid.New().String(),
		PlanID:    planID,
		Query:     query,
		Status:    models.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}

	logger := s.logger.With("run_id", record.ID, "plan_id", planID)

	engine := progress.NewEngine(s.engineCfg, logger)

	requestCtx, cancelRequest := context.WithCancel(context.WithoutCancel(ctx))
	active := &activeRun{engine: engine, cancel: cancelRequest}

	if s.tracer != nil {
		_, span := otelhelper.StartSpan(context.WithoutCancel(ctx), s.tracer, "generation.run",
			attribute.String(otelhelper.RunIDKey, record.ID),
			attribute.String(otelhelper.PlanIDKey, planID),
			attribute.String(otelhelper.QueryKey, query),
			attribute.String(otelhelper.WorkerIDKey, s.workerID),
		)
		active.span = span
	}

	var (
		stageMu        sync.Mutex
		lastStageIndex int
	)

	engine.OnTick(func(snapshot progress.Snapshot) {
		s.publishProgress(record.ID, snapshot)

		stageMu.Lock()
		advanced := snapshot.StageIndex > lastStageIndex
		if advanced {
			lastStageIndex = snapshot.StageIndex
		}
		stageMu.Unlock()

		if advanced {
			s.publishStageAdvanced(record.ID, snapshot)
			s.updateRecord(record.ID, snapshot)

			if active.span != nil {
				active.span.AddEvent("stage.advanced", trace.WithAttributes(
					attribute.String(otelhelper.StageIDKey, s.engineCfg.Stages[snapshot.StageIndex].ID),
					attribute.Int(otelhelper.StageIndexKey, snapshot.StageIndex),
				))
			}
		}
	})

	engine.OnResolved(func(success bool, reason string) {
		s.resolve(record.ID, success, reason)
	})

	if err := s.persistence.GenerationRunRepository().Save(ctx, record); err != nil {
		cancelRequest()

		return nil, err
	}

	s.mu.Lock()
	s.runs[record.ID] = active
	s.mu.Unlock()

	if err := engine.Start(); err != nil {
		cancelRequest()
		s.forget(record.ID)

		return nil, err
	}

	logger.InfoContext(ctx, "Started generation run", "query", query)

	startedEvent := events.GenerationStarted{
		BaseEvent:    events.NewBaseEvent(events.GenerationStartedEvent, record.ID),
		PlanID:       planID,
		Query:        query,
		StageCount:   len(s.engineCfg.Stages),
		TotalSeconds: s.engineCfg.Stages.TotalDurationSeconds(),
	}
	startedEvent.WorkerID = s.workerID

	if err := s.eventBus.Publish(ctx, record.ID, startedEvent); err != nil {
		logger.ErrorContext(ctx, "Failed to publish generation started event", "error", err)
	}

	go s.request(requestCtx, active, record.ID, planID, query)

	return record, nil
}

// CancelRun terminates an active run. Confirmation is the caller's gesture:
// the service refuses unconfirmed cancellations so an accidental tap never
// kills a run. The resolution contract never fires for a cancelled run.
func (s *Service) CancelRun(ctx context.Context, runID, cancelledBy string, confirmed bool) error {
	if !confirmed {
		return ErrCancelNotConfirmed
	}

	s.mu.Lock()
	active, ok := s.runs[runID]
	s.mu.Unlock()

	if !ok {
		// Distinguish unknown runs from runs that already resolved.
		if _, err := s.persistence.GenerationRunRepository().GetByID(ctx, runID); err != nil {
			return err
		}

		return ErrRunNotActive
	}

	active.engine.Cancel()
	active.cancel()

	snapshot := active.engine.Snapshot()

	s.logger.InfoContext(ctx, "Cancelled generation run", "run_id", runID, "cancelled_by", cancelledBy)

	if record, err := s.persistence.GenerationRunRepository().GetByID(ctx, runID); err == nil {
		now := time.Now().UTC()
		record.Status = models.RunStatusCancelled
		record.ProgressPercent = snapshot.Percent
		record.StageIndex = snapshot.StageIndex
		record.ElapsedSeconds = snapshot.ElapsedSeconds
		record.UpdatedAt = now
		record.ResolvedAt = &now

		if err := s.persistence.GenerationRunRepository().Save(ctx, record); err != nil {
			s.logger.ErrorContext(ctx, "Failed to persist cancelled run", "run_id", runID, "error", err)
		}
	}

	cancelledEvent := events.GenerationCancelled{
		BaseEvent:      events.NewBaseEvent(events.GenerationCancelledEvent, runID),
		ElapsedSeconds: snapshot.ElapsedSeconds,
		CancelledBy:    cancelledBy,
	}
	cancelledEvent.WorkerID = s.workerID

	if err := s.eventBus.Publish(ctx, runID, cancelledEvent); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish generation cancelled event", "error", err)
	}

	if active.span != nil {
		active.span.SetAttributes(attribute.String(otelhelper.OutcomeKey, "cancelled"))
		active.span.End()
	}

	s.forget(runID)

	return nil
}

// GetRun returns the live snapshot for active runs, or the persisted record.
func (s *Service) GetRun(ctx context.Context, runID string) (*models.GenerationRun, error) {
	record, err := s.persistence.GenerationRunRepository().GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	active, ok := s.runs[runID]
	s.mu.Unlock()

	if ok {
		snapshot := active.engine.Snapshot()
		record.Status = snapshot.Status
		record.ProgressPercent = snapshot.Percent
		record.StageIndex = snapshot.StageIndex
		record.ElapsedSeconds = snapshot.ElapsedSeconds
	}

	return record, nil
}

// request runs the real generation work in parallel with the simulation.
func (s *Service) request(ctx context.Context, active *activeRun, runID, planID, query string) {
	recipe, err := s.requester.Generate(ctx, planID, query)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("Recipe generation request failed", "run_id", runID, "error", err)

			if active.span != nil {
				otelhelper.SetError(active.span, err, attribute.String(otelhelper.RunIDKey, runID))
			}
		}

		return
	}

	active.mu.Lock()
	active.recipe = recipe
	active.mu.Unlock()
}

// resolve finalizes a run after the engine's post-terminal display delay.
func (s *Service) resolve(runID string, success bool, reason string) {
	ctx := context.Background()

	s.mu.Lock()
	active, ok := s.runs[runID]
	s.mu.Unlock()

	if !ok {
		return
	}

	record, err := s.persistence.GenerationRunRepository().GetByID(ctx, runID)
	if err != nil {
		s.logger.Error("Failed to load resolving run", "run_id", runID, "error", err)

		if active.span != nil {
			otelhelper.SetError(active.span, err, attribute.String(otelhelper.RunIDKey, runID))
			active.span.End()
		}

		s.forget(runID)

		return
	}

	snapshot := active.engine.Snapshot()
	now := time.Now().UTC()

	record.Status = snapshot.Status
	record.ProgressPercent = snapshot.Percent
	record.StageIndex = snapshot.StageIndex
	record.ElapsedSeconds = snapshot.ElapsedSeconds
	record.UpdatedAt = now
	record.ResolvedAt = &now

	outcome := "completed"

	if success {
		active.mu.Lock()
		recipe := active.recipe
		active.mu.Unlock()

		if recipe != nil {
			if err := s.persistence.RecipeRepository().Save(ctx, recipe); err != nil {
				s.logger.Error("Failed to persist generated recipe", "run_id", runID, "error", err)

				if active.span != nil {
					otelhelper.SetError(active.span, err, attribute.String(otelhelper.RunIDKey, runID))
				}
			} else {
				record.RecipeID = recipe.ID
			}
		}

		completedEvent := events.GenerationCompleted{
			BaseEvent: events.NewBaseEvent(events.GenerationCompletedEvent, runID),
			RecipeID:  record.RecipeID,
			Duration:  time.Duration(snapshot.ElapsedSeconds * float64(time.Second)),
		}
		completedEvent.WorkerID = s.workerID

		if err := s.eventBus.Publish(ctx, runID, completedEvent); err != nil {
			s.logger.Error("Failed to publish generation completed event", "error", err)
		}
	} else {
		outcome = "overrun"
		record.FailureReason = reason

		overrunEvent := events.GenerationOverrun{
			BaseEvent:      events.NewBaseEvent(events.GenerationOverrunEvent, runID),
			Reason:         reason,
			ElapsedSeconds: snapshot.ElapsedSeconds,
		}
		overrunEvent.WorkerID = s.workerID

		if err := s.eventBus.Publish(ctx, runID, overrunEvent); err != nil {
			s.logger.Error("Failed to publish generation overrun event", "error", err)
		}
	}

	if err := s.persistence.GenerationRunRepository().Save(ctx, record); err != nil {
		s.logger.Error("Failed to persist resolved run", "run_id", runID, "error", err)

		if active.span != nil {
			otelhelper.SetError(active.span, err, attribute.String(otelhelper.RunIDKey, runID))
		}
	}

	if active.span != nil {
		active.span.SetAttributes(attribute.String(otelhelper.OutcomeKey, outcome))
		active.span.End()
	}

	active.cancel()
	s.forget(runID)

	s.logger.Info("Generation run resolved", "run_id", runID, "outcome", outcome)
}

func (s *Service) publishProgress(runID string, snapshot progress.Snapshot) {
	event := events.GenerationProgressed{
		BaseEvent:      events.NewBaseEvent(events.GenerationProgressedEvent, runID),
		Status:         snapshot.Status,
		Percent:        snapshot.Percent,
		StageIndex:     snapshot.StageIndex,
		ElapsedSeconds: snapshot.ElapsedSeconds,
	}
	event.WorkerID = s.workerID

	if err := s.eventBus.Publish(context.Background(), runID, event); err != nil {
		s.logger.Error("Failed to publish progress event", "run_id", runID, "error", err)
	}
}

func (s *Service) publishStageAdvanced(runID string, snapshot progress.Snapshot) {
	stage := s.engineCfg.Stages[snapshot.StageIndex]

	event := events.StageAdvanced{
		BaseEvent:  events.NewBaseEvent(events.StageAdvancedEvent, runID),
		StageIndex: snapshot.StageIndex,
		StageID:    stage.ID,
		StageTitle: stage.Title,
	}
	event.WorkerID = s.workerID

	if err := s.eventBus.Publish(context.Background(), runID, event); err != nil {
		s.logger.Error("Failed to publish stage advanced event", "run_id", runID, "error", err)
	}
}

// updateRecord persists the run snapshot at stage boundaries so observers
// that only read storage still see coarse progress.
func (s *Service) updateRecord(runID string, snapshot progress.Snapshot) {
	ctx := context.Background()

	record, err := s.persistence.GenerationRunRepository().GetByID(ctx, runID)
	if err != nil {
		return
	}

	record.ProgressPercent = snapshot.Percent
	record.StageIndex = snapshot.StageIndex
	record.ElapsedSeconds = snapshot.ElapsedSeconds
	record.UpdatedAt = time.Now().UTC()

	if err := s.persistence.GenerationRunRepository().Save(ctx, record); err != nil {
		s.logger.Error("Failed to persist run progress", "run_id", runID, "error", err)
	}
}

func (s *Service) forget(runID string) {
	s.mu.Lock()
	delete(s.runs, runID)
	s.mu.Unlock()
}
