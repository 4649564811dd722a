package generation

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/platewise/platewise/pkg/channels/gochannel"
	"github.com/platewise/platewise/pkg/eventbus"
	"github.com/platewise/platewise/pkg/events"
	"github.com/platewise/platewise/pkg/models"
	"github.com/platewise/platewise/pkg/persistence/file"
	"github.com/platewise/platewise/pkg/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func fastEngineConfig() progress.Config {
	return progress.Config{
		Stages: models.StageTable{
			{ID: "a", Title: "First", DurationSeconds: 0.02},
			{ID: "b", Title: "Second", DurationSeconds: 0.02},
		},
		TickInterval:    5 * time.Millisecond,
		GraceWindow:     time.Second,
		CompletionDelay: 5 * time.Millisecond,
		OverrunDelay:    5 * time.Millisecond,
	}
}

func newTestService(t *testing.T, cfg progress.Config, requester Requester) (*Service, *file.Persistence, eventbus.EventBus) {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	store := file.NewPersistence(t.TempDir())

	service := NewService(store, bus, requester, cfg, testLogger(), nil, "worker-test")

	return service, store, bus
}

func seedPlan(t *testing.T, store *file.Persistence) *models.MealPlan {
	t.Helper()

	plan := &models.MealPlan{ID: "plan-1", Name: "Family week", Owner: "user-1", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.MealPlanRepository().Save(context.Background(), plan))

	return plan
}

func TestService_StartRun_UnknownPlan(t *testing.T) {
	service, _, _ := newTestService(t, fastEngineConfig(), &StaticRequester{})

	_, err := service.StartRun(context.Background(), "missing-plan", "pasta night")

	assert.Error(t, err)
}

func TestService_StartRun_InvalidConfiguration(t *testing.T) {
	cfg := fastEngineConfig()
	cfg.Stages = nil

	service, store, _ := newTestService(t, cfg, &StaticRequester{})
	seedPlan(t, store)

	_, err := service.StartRun(context.Background(), "plan-1", "pasta night")

	require.Error(t, err)
	assert.ErrorIs(t, err, progress.ErrInvalidConfiguration)
}

func TestService_RunToCompletion(t *testing.T) {
	ctx := context.Background()

	service, store, bus := newTestService(t, fastEngineConfig(), &StaticRequester{Delay: time.Millisecond})
	seedPlan(t, store)

	completed := make(chan *events.GenerationCompleted, 1)

	require.NoError(t, bus.Handle(events.GenerationCompletedEvent, func(ctx context.Context, event any) error {
		if e, ok := event.(*events.GenerationCompleted); ok {
			select {
			case completed <- e:
			default:
			}
		}

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	record, err := service.StartRun(ctx, "plan-1", "pasta night")
	require.NoError(t, err)
	require.Equal(t, models.RunStatusRunning, record.Status)

	var resolvedEvent *events.GenerationCompleted

	select {
	case resolvedEvent = <-completed:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not complete in time")
	}

	assert.Equal(t, record.ID, resolvedEvent.RunID)

	// Terminal persistence can land just after the event.
	require.Eventually(t, func() bool {
		stored, err := service.GetRun(ctx, record.ID)

		return err == nil && stored.Status == models.RunStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	stored, err := service.GetRun(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.ProgressPercent)
	assert.NotEmpty(t, stored.RecipeID, "completed run must reference the generated recipe")

	recipe, err := store.RecipeRepository().GetByID(ctx, stored.RecipeID)
	require.NoError(t, err)
	assert.Contains(t, recipe.Title, "pasta night")
}

func TestService_CancelRun(t *testing.T) {
	ctx := context.Background()

	cfg := fastEngineConfig()
	cfg.Stages = models.StageTable{{ID: "slow", Title: "Slow", DurationSeconds: 10}}

	service, store, bus := newTestService(t, cfg, &StaticRequester{Delay: time.Minute})
	seedPlan(t, store)

	resolutions := make(chan events.EventType, 4)

	for _, eventType := range []events.EventType{events.GenerationCompletedEvent, events.GenerationOverrunEvent} {
		et := eventType
		require.NoError(t, bus.Handle(et, func(ctx context.Context, event any) error {
			resolutions <- et

			return nil
		}))
	}

	require.NoError(t, bus.Subscribe(ctx))

	record, err := service.StartRun(ctx, "plan-1", "pasta night")
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	require.NoError(t, service.CancelRun(ctx, record.ID, "user-1", true))

	stored, err := service.GetRun(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCancelled, stored.Status)

	select {
	case et := <-resolutions:
		t.Fatalf("no resolution event may follow a cancellation, got %s", et)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestService_CancelRequiresConfirmation(t *testing.T) {
	service, _, _ := newTestService(t, fastEngineConfig(), &StaticRequester{})

	err := service.CancelRun(context.Background(), "any", "user-1", false)

	assert.ErrorIs(t, err, ErrCancelNotConfirmed)
}

func TestService_CancelUnknownRun(t *testing.T) {
	service, _, _ := newTestService(t, fastEngineConfig(), &StaticRequester{})

	err := service.CancelRun(context.Background(), "missing-run", "user-1", true)

	assert.Error(t, err)
}

type failingRequester struct{}

func (f *failingRequester) Generate(ctx context.Context, planID, query string) (*models.Recipe, error) {
	return nil, errors.New("model backend unavailable")
}

func TestService_RequesterFailureIsRecordedOnSpan(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	store := file.NewPersistence(t.TempDir())

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	service := NewService(store, bus, &failingRequester{}, fastEngineConfig(), testLogger(), tracer, "worker-test")
	seedPlan(t, store)

	_, err = service.StartRun(context.Background(), "plan-1", "pasta night")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(recorder.Ended()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	span := recorder.Ended()[0]
	assert.Equal(t, "generation.run", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)

	names := make([]string, 0, len(span.Events()))
	for _, event := range span.Events() {
		names = append(names, event.Name)
	}

	assert.Contains(t, names, "error_occurred")
	assert.Contains(t, names, "stage.advanced")
}
