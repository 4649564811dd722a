package generation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/platewise/platewise/pkg/eventbus"
	"github.com/platewise/platewise/pkg/events"
	"github.com/platewise/platewise/pkg/persistence"
)

// Scheduler polls plan schedules and publishes a generation request for each
// due one. Schedules carry a precomputed next-due time, so a single poller
// covers every plan without per-schedule timers.
type Scheduler struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	logger      *slog.Logger
	interval    time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewScheduler(
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	interval time.Duration,
) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &Scheduler{
		persistence: persistence,
		eventBus:    eventBus,
		logger:      logger.With("module", "plan_scheduler"),
		interval:    interval,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start runs the poll loop until Stop is called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.poll(ctx)
			}
		}
	}()
}

// Stop terminates the poll loop and waits for it to drain.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

// poll publishes a generation request for every due schedule and advances
// its next-due time.
func (s *Scheduler) poll(ctx context.Context) {
	schedules, err := s.persistence.PlanScheduleRepository().ListActive(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list plan schedules", "error", err)

		return
	}

	now := time.Now().UTC()

	for _, schedule := range schedules {
		if !schedule.IsDue(now) {
			continue
		}

		dueEvent := events.PlanScheduleDue{
			BaseEvent:  events.NewBaseEvent(events.PlanScheduleDueEvent, ""),
			ScheduleID: schedule.ID,
			PlanID:     schedule.PlanID,
			Query:      schedule.Query,
		}

		if err := s.eventBus.Publish(ctx, schedule.PlanID, dueEvent); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish schedule due event",
				"schedule_id", schedule.ID, "error", err)
		}

		event := events.GenerationRequested{
			BaseEvent: events.NewBaseEvent(events.GenerationRequestedEvent, ""),
			PlanID:    schedule.PlanID,
			Query:     schedule.Query,
		}
		event.Metadata["schedule_id"] = schedule.ID

		if err := s.eventBus.Publish(ctx, schedule.PlanID, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish scheduled generation request",
				"schedule_id", schedule.ID, "error", err)

			continue
		}

		if err := schedule.UpdateNextDueAt(); err != nil {
			s.logger.ErrorContext(ctx, "Failed to advance schedule",
				"schedule_id", schedule.ID, "error", err)

			continue
		}

		if err := s.persistence.PlanScheduleRepository().Save(ctx, schedule); err != nil {
			s.logger.ErrorContext(ctx, "Failed to save advanced schedule",
				"schedule_id", schedule.ID, "error", err)
		}

		s.logger.InfoContext(ctx, "Published scheduled generation request",
			"schedule_id", schedule.ID, "plan_id", schedule.PlanID, "next_due_at", schedule.NextDueAt)
	}
}
