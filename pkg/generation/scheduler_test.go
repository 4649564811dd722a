package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/platewise/platewise/pkg/channels/gochannel"
	"github.com/platewise/platewise/pkg/eventbus"
	"github.com/platewise/platewise/pkg/events"
	"github.com/platewise/platewise/pkg/mocks"
	"github.com/platewise/platewise/pkg/models"
	"github.com/platewise/platewise/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestScheduler_PublishesDueSchedules(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	store := file.NewPersistence(t.TempDir())

	requested := make(chan *events.GenerationRequested, 1)
	due := make(chan *events.PlanScheduleDue, 1)

	require.NoError(t, bus.Handle(events.GenerationRequestedEvent, func(ctx context.Context, event any) error {
		if e, ok := event.(*events.GenerationRequested); ok {
			select {
			case requested <- e:
			default:
			}
		}

		return nil
	}))
	require.NoError(t, bus.Handle(events.PlanScheduleDueEvent, func(ctx context.Context, event any) error {
		if e, ok := event.(*events.PlanScheduleDue); ok {
			select {
			case due <- e:
			default:
			}
		}

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	schedule, err := models.NewPlanSchedule("s1", "plan-1", "weekly refresh", "0 9 * * 1")
	require.NoError(t, err)

	// Force the schedule to be due immediately.
	schedule.NextDueAt = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, store.PlanScheduleRepository().Save(ctx, schedule))

	scheduler := NewScheduler(store, bus, testLogger(), 10*time.Millisecond)
	scheduler.Start(ctx)

	defer scheduler.Stop()

	select {
	case event := <-due:
		assert.Equal(t, "s1", event.ScheduleID)
		assert.Equal(t, "plan-1", event.PlanID)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not publish the due notification in time")
	}

	select {
	case event := <-requested:
		assert.Equal(t, "plan-1", event.PlanID)
		assert.Equal(t, "weekly refresh", event.Query)
		assert.Equal(t, "s1", event.Metadata["schedule_id"])
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not publish a due request in time")
	}

	// The schedule advances so it is not republished immediately.
	require.Eventually(t, func() bool {
		stored, err := store.PlanScheduleRepository().GetByID(ctx, "s1")

		return err == nil && stored.NextDueAt.After(time.Now().UTC())
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_SkipsNotDueSchedules(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	store := file.NewPersistence(t.TempDir())

	requested := make(chan *events.GenerationRequested, 1)

	require.NoError(t, bus.Handle(events.GenerationRequestedEvent, func(ctx context.Context, event any) error {
		if e, ok := event.(*events.GenerationRequested); ok {
			select {
			case requested <- e:
			default:
			}
		}

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	schedule, err := models.NewPlanSchedule("s1", "plan-1", "weekly refresh", "0 9 * * 1")
	require.NoError(t, err)
	require.NoError(t, store.PlanScheduleRepository().Save(ctx, schedule))

	scheduler := NewScheduler(store, bus, testLogger(), 10*time.Millisecond)
	scheduler.Start(ctx)

	defer scheduler.Stop()

	select {
	case <-requested:
		t.Fatal("a schedule that is not due must not be published")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScheduler_PublishFailureLeavesScheduleDue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := file.NewPersistence(t.TempDir())

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker unavailable"))

	schedule, err := models.NewPlanSchedule("s1", "plan-1", "weekly refresh", "0 9 * * 1")
	require.NoError(t, err)

	dueAt := time.Now().UTC().Add(-time.Minute)
	schedule.NextDueAt = dueAt
	require.NoError(t, store.PlanScheduleRepository().Save(ctx, schedule))

	scheduler := NewScheduler(store, bus, testLogger(), 10*time.Millisecond)
	scheduler.Start(ctx)

	time.Sleep(100 * time.Millisecond)
	scheduler.Stop()

	// A failed request publish must not consume the schedule slot.
	stored, err := store.PlanScheduleRepository().GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, stored.NextDueAt.Equal(dueAt))

	bus.AssertCalled(t, "Publish", mock.Anything, "plan-1", mock.Anything)
}

func TestScheduler_ListFailurePublishesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := mocks.NewMockPersistence()
	store.Schedules.On("ListActive", mock.Anything).Return(nil, errors.New("store offline"))

	bus := &mocks.MockEventBus{}

	scheduler := NewScheduler(store, bus, testLogger(), 10*time.Millisecond)
	scheduler.Start(ctx)

	time.Sleep(100 * time.Millisecond)
	scheduler.Stop()

	store.Schedules.AssertCalled(t, "ListActive", mock.Anything)
	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
