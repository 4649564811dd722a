package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/platewise/platewise/pkg/cmd"
	"github.com/platewise/platewise/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "platewise-generator",
		EnableShellCompletion: true,
		Usage:                 "Start a worker that executes recipe generation runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file:// or redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "stage-table",
				Usage:   "Path to a JSON stage table overriding the built-in one",
				Sources: cli.EnvVars("STAGE_TABLE"),
			},
			&cli.DurationFlag{
				Name:    "schedule-interval",
				Usage:   "How often to poll plan schedules for due regenerations",
				Value:   30 * time.Second,
				Sources: cli.EnvVars("SCHEDULE_INTERVAL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "generator-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("platewise-generator").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing Platewise generator")

			stages, err := cmd.LoadStageTable(command.String("stage-table"))
			if err != nil {
				return err
			}

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			manager := NewGeneratorManager(
				workerID,
				persistence,
				eventBus,
				stages,
				command.Duration("schedule-interval"),
				logger,
			)

			if err := manager.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to start generator", "error", err)
			}

			return nil
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
