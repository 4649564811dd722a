package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platewise/platewise/pkg/eventbus"
	"github.com/platewise/platewise/pkg/events"
	"github.com/platewise/platewise/pkg/generation"
	"github.com/platewise/platewise/pkg/models"
	"github.com/platewise/platewise/pkg/otelhelper"
	"github.com/platewise/platewise/pkg/persistence"
	"github.com/platewise/platewise/pkg/progress"
)

// GeneratorManager subscribes to generation requests and drives each run
// through the generation service. It also owns the schedule poller, so a
// single generator process covers on-demand and recurring generations.
type GeneratorManager struct {
	id               string
	logger           *slog.Logger
	persistence      persistence.Persistence
	eventBus         eventbus.EventBus
	stages           models.StageTable
	scheduleInterval time.Duration
}

func NewGeneratorManager(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	stages models.StageTable,
	scheduleInterval time.Duration,
	logger *slog.Logger,
) *GeneratorManager {
	return &GeneratorManager{
		id:               id,
		logger:           logger.With("module", "platewise-generator", "worker_id", id),
		persistence:      persistence,
		eventBus:         eventBus,
		stages:           stages,
		scheduleInterval: scheduleInterval,
	}
}

func (g *GeneratorManager) Start(ctx context.Context) error {
	g.logger.InfoContext(ctx, "Starting generator manager", "worker_id", g.id)

	tracer, err := otelhelper.NewTracer(ctx, "platewise-generator")
	if err != nil {
		g.logger.WarnContext(ctx, "Tracing disabled", "error", err)

		tracer = nil
	}

	service := generation.NewService(
		g.persistence,
		g.eventBus,
		&generation.StaticRequester{},
		progress.Config{Stages: g.stages},
		g.logger,
		tracer,
		g.id,
	)

	err = g.eventBus.Handle(events.GenerationRequestedEvent, g.handleGenerationRequested(service))
	if err != nil {
		return err
	}

	err = g.eventBus.Subscribe(ctx)
	if err != nil {
		g.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	scheduler := generation.NewScheduler(g.persistence, g.eventBus, g.logger, g.scheduleInterval)
	scheduler.Start(ctx)

	defer scheduler.Stop()

	g.logger.InfoContext(ctx, "Generator started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	g.logger.InfoContext(ctx, "Shutting down generator...")

	return nil
}

func (g *GeneratorManager) handleGenerationRequested(service *generation.Service) eventbus.EventHandler {
	return func(ctx context.Context, event any) error {
		requestedEvent, ok := event.(*events.GenerationRequested)
		if !ok {
			g.logger.ErrorContext(ctx, "Invalid event type for GenerationRequested")

			return nil
		}

		logger := g.logger.With(
			"plan_id", requestedEvent.PlanID,
			"event_id", requestedEvent.ID,
		)
		logger.InfoContext(ctx, "Processing generation request")

		run, err := service.StartRun(ctx, requestedEvent.PlanID, requestedEvent.Query)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to start generation run", "error", err)

			return err
		}

		logger.InfoContext(ctx, "Generation run started", "run_id", run.ID)

		return nil
	}
}
