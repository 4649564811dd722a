package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
	"github.com/platewise/platewise/pkg/generation"
	"github.com/platewise/platewise/pkg/persistence"
	"github.com/platewise/platewise/pkg/progress"
	"github.com/platewise/platewise/pkg/services"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case errors.Is(err, progress.ErrInvalidConfiguration):
		return badRequest(c, err.Error())

	case errors.Is(err, generation.ErrCancelNotConfirmed):
		return badRequest(c, "cancellation requires the confirm=true acknowledgment")

	case services.IsConflictError(err):
		return conflict(c, err.Error())

	case errors.Is(err, generation.ErrRunNotActive):
		return conflict(c, "generation run already resolved")

	case persistence.IsMealPlanNotFound(err):
		return notFound(c, "meal plan not found")

	case persistence.IsRunNotFound(err):
		return notFound(c, "generation run not found")

	case persistence.IsRecipeNotFound(err):
		return notFound(c, "recipe not found")

	case persistence.IsScheduleNotFound(err):
		return notFound(c, "plan schedule not found")

	default:
		return internalError(c, err)
	}
}
