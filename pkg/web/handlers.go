// Package web provides HTTP handlers and REST API endpoints for meal plans
// and recipe generation runs.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/platewise/platewise/pkg/generation"
	"github.com/platewise/platewise/pkg/persistence"
	"github.com/platewise/platewise/pkg/services"
)

type APIHandlers struct {
	planService       *services.Plan
	generationService *generation.Service
	persistence       persistence.Persistence
	validator         *validator.Validate
}

func NewAPIHandlers(
	planService *services.Plan,
	generationService *generation.Service,
	persistence persistence.Persistence,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		planService:       planService,
		generationService: generationService,
		persistence:       persistence,
		validator:         validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryErr := h.persistence.HealthCheck(c.Context())

	status := "healthy"
	message := "Platewise API is healthy"
	httpStatus := http.StatusOK

	if repositoryErr != nil {
		status = "unhealthy"
		message = "Platewise API is unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetPlans(c fiber.Ctx) error {
	plans, err := h.planService.ListPlans(c.Context(), c.Query("owner"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"plans":       plans,
		"total_count": len(plans),
	})
}

func (h *APIHandlers) GetPlan(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Plan ID is required")
	}

	plan, err := h.planService.GetPlan(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(plan)
}

func (h *APIHandlers) CreatePlan(c fiber.Ctx) error {
	var req services.CreatePlanRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.planService.CreatePlan(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) DeletePlan(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Plan ID is required")
	}

	if err := h.planService.DeletePlan(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// StartGeneration admits a new recipe generation run for the plan. The run
// resolves asynchronously; the response carries the run identifier to poll.
func (h *APIHandlers) StartGeneration(c fiber.Ctx) error {
	planID := c.Params("id")
	if planID == "" {
		return badRequest(c, "Plan ID is required")
	}

	var req StartGenerationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	run, err := h.generationService.StartRun(c.Context(), planID, req.Query)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(GenerationAcceptedResponse{
		RunID:    run.ID,
		PlanID:   run.PlanID,
		Status:   string(run.Status),
		StatusAt: "/generations/" + run.ID,
	})
}

func (h *APIHandlers) GetGeneration(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	run, err := h.generationService.GetRun(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(run)
}

// CancelGeneration stops an active run. Cancellation is destructive for the
// in-flight work, so the caller must acknowledge with confirm=true.
func (h *APIHandlers) CancelGeneration(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	confirmed, err := strconv.ParseBool(c.Query("confirm", "false"))
	if err != nil {
		return badRequest(c, "Invalid confirm parameter")
	}

	cancelledBy := c.Query("cancelled_by", "api")

	if err := h.generationService.CancelRun(c.Context(), id, cancelledBy, confirmed); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetRecipe(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recipe ID is required")
	}

	recipe, err := h.persistence.RecipeRepository().GetByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(recipe)
}
