// Package main provides the Platewise API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/platewise/platewise/pkg/eventbus"
	"github.com/platewise/platewise/pkg/generation"
	"github.com/platewise/platewise/pkg/models"
	"github.com/platewise/platewise/pkg/persistence"
	"github.com/platewise/platewise/pkg/progress"
	"github.com/platewise/platewise/pkg/services"
	"github.com/platewise/platewise/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	stages      models.StageTable
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	stages models.StageTable,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		stages:      stages,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	planService := services.NewPlan(a.persistence)
	generationService := generation.NewService(
		a.persistence,
		a.eventBus,
		&generation.StaticRequester{},
		progress.Config{Stages: a.stages},
		a.logger,
		nil,
		"api",
	)

	handlers := web.NewAPIHandlers(planService, generationService, a.persistence, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Platewise API")
	})

	p := app.Group("/plans")
	p.Get("/", handlers.GetPlans)
	p.Post("/", handlers.CreatePlan)
	p.Get("/:id", handlers.GetPlan)
	p.Delete("/:id", handlers.DeletePlan)
	p.Post("/:id/generations", handlers.StartGeneration)

	g := app.Group("/generations")
	g.Get("/:id", handlers.GetGeneration)
	g.Delete("/:id", handlers.CancelGeneration)

	app.Get("/recipes/:id", handlers.GetRecipe)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
