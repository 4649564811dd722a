package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/platewise/platewise/pkg/channels/gochannel"
	"github.com/platewise/platewise/pkg/eventbus"
	"github.com/platewise/platewise/pkg/generation"
	"github.com/platewise/platewise/pkg/models"
	"github.com/platewise/platewise/pkg/persistence/file"
	"github.com/platewise/platewise/pkg/progress"
	"github.com/platewise/platewise/pkg/services"
	"github.com/platewise/platewise/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) (*fiber.App, *file.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	engineCfg := progress.Config{
		Stages: models.StageTable{
			{ID: "a", Title: "First", DurationSeconds: 0.02},
			{ID: "b", Title: "Second", DurationSeconds: 0.02},
		},
		TickInterval:    5 * time.Millisecond,
		GraceWindow:     time.Second,
		CompletionDelay: 5 * time.Millisecond,
		OverrunDelay:    5 * time.Millisecond,
	}

	planService := services.NewPlan(store)
	generationService := generation.NewService(
		store, bus, &generation.StaticRequester{}, engineCfg, logger, nil, "worker-test")
	handlers := web.NewAPIHandlers(planService, generationService, store, validator.New())

	app := fiber.New()
	app.Get("/", handlers.HealthCheck)

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

	return app, store
}

func seedPlan(t *testing.T, store *file.Persistence) *models.MealPlan {
	t.Helper()

	plan := &models.MealPlan{ID: "plan-1", Name: "Family week", Owner: "user-1", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.MealPlanRepository().Save(context.Background(), plan))

	return plan
}

func doJSON(t *testing.T, app *fiber.App, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/", nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIHandlers_CreatePlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
	}{
		{
			name: "successful creation",
			requestBody: services.CreatePlanRequest{
				Name:  "Weeknight dinners",
				Owner: "user-1",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "validation error - missing name",
			requestBody:    services.CreatePlanRequest{Owner: "user-1"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "validation error - name too short",
			requestBody:    services.CreatePlanRequest{Name: "We", Owner: "user-1"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "validation error - missing owner",
			requestBody:    services.CreatePlanRequest{Name: "Weeknight dinners"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t)

			resp := doJSON(t, app, http.MethodPost, "/plans/", tt.requestBody)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusCreated {
				var plan models.MealPlan
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&plan))
				assert.NotEmpty(t, plan.ID)
				assert.Equal(t, "Weeknight dinners", plan.Name)
			}
		})
	}
}

func TestAPIHandlers_GetPlan(t *testing.T) {
	t.Parallel()

	app, store := setupTestApp(t)
	plan := seedPlan(t, store)

	resp := doJSON(t, app, http.MethodGet, "/plans/"+plan.ID, nil)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.MealPlan
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, plan.ID, got.ID)

	missing := doJSON(t, app, http.MethodGet, "/plans/nope", nil)
	defer func() { _ = missing.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestAPIHandlers_DeletePlan(t *testing.T) {
	t.Parallel()

	app, store := setupTestApp(t)
	plan := seedPlan(t, store)

	resp := doJSON(t, app, http.MethodDelete, "/plans/"+plan.ID, nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	again := doJSON(t, app, http.MethodDelete, "/plans/"+plan.ID, nil)
	defer func() { _ = again.Body.Close() }()

	assert.Equal(t, http.StatusConflict, again.StatusCode)
}

func TestAPIHandlers_StartGeneration(t *testing.T) {
	t.Parallel()

	app, store := setupTestApp(t)
	plan := seedPlan(t, store)

	resp := doJSON(t, app, http.MethodPost, "/plans/"+plan.ID+"/generations",
		web.StartGenerationRequest{Query: "high protein vegetarian dinner"})
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted web.GenerationAcceptedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	assert.NotEmpty(t, accepted.RunID)
	assert.Equal(t, plan.ID, accepted.PlanID)
	assert.Equal(t, string(models.RunStatusRunning), accepted.Status)

	status := doJSON(t, app, http.MethodGet, "/generations/"+accepted.RunID, nil)
	defer func() { _ = status.Body.Close() }()

	assert.Equal(t, http.StatusOK, status.StatusCode)
}

func TestAPIHandlers_StartGeneration_UnknownPlan(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/plans/nope/generations",
		web.StartGenerationRequest{Query: "anything tasty"})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_StartGeneration_InvalidQuery(t *testing.T) {
	t.Parallel()

	app, store := setupTestApp(t)
	plan := seedPlan(t, store)

	resp := doJSON(t, app, http.MethodPost, "/plans/"+plan.ID+"/generations",
		web.StartGenerationRequest{Query: "go"})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_CancelGeneration(t *testing.T) {
	t.Parallel()

	app, store := setupTestApp(t)
	plan := seedPlan(t, store)

	resp := doJSON(t, app, http.MethodPost, "/plans/"+plan.ID+"/generations",
		web.StartGenerationRequest{Query: "slow braised short ribs"})
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted web.GenerationAcceptedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))

	unconfirmed := doJSON(t, app, http.MethodDelete, "/generations/"+accepted.RunID, nil)
	defer func() { _ = unconfirmed.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, unconfirmed.StatusCode)

	confirmed := doJSON(t, app, http.MethodDelete, "/generations/"+accepted.RunID+"?confirm=true", nil)
	defer func() { _ = confirmed.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, confirmed.StatusCode)
}

func TestAPIHandlers_CancelGeneration_UnknownRun(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp := doJSON(t, app, http.MethodDelete, "/generations/nope?confirm=true", nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GetRecipe(t *testing.T) {
	t.Parallel()

	app, store := setupTestApp(t)

	recipe := &models.Recipe{ID: "recipe-1", Title: "Sheet pan salmon", SafetyScore: 92, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.RecipeRepository().Save(context.Background(), recipe))

	resp := doJSON(t, app, http.MethodGet, "/recipes/"+recipe.ID, nil)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.Recipe
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Sheet pan salmon", got.Title)

	missing := doJSON(t, app, http.MethodGet, "/recipes/nope", nil)
	defer func() { _ = missing.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
