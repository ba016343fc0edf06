package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxionhq/fluxion/pkg/channels/gochannel"
	"github.com/fluxionhq/fluxion/pkg/events"
	"github.com/fluxionhq/fluxion/pkg/models"
)

func testBus(t *testing.T) EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	return NewWatermillEventBus(pub, sub)
}

func TestWatermillEventBus_PublishSubscribeRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := testBus(t)
	received := make(chan any, 1)

	require.NoError(t, bus.Handle(events.NodeFinishedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "exec-1", events.NodeFinished{
		BaseEvent: events.BaseEvent{
			ID:          bus.GenerateID(),
			Type:        events.NodeFinishedEvent,
			Timestamp:   time.Now(),
			ExecutionID: "exec-1",
		},
		NodeID: "ask",
		Kind:   models.NodeKindLLM,
		Status: string(models.NodeStatusSuccess),
	}))

	select {
	case event := <-received:
		finished, ok := event.(*events.NodeFinished)
		require.True(t, ok, "handler receives the typed event")
		assert.Equal(t, "ask", finished.NodeID)
		assert.Equal(t, models.NodeKindLLM, finished.Kind)
		assert.Equal(t, "exec-1", finished.ExecutionID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_UnhandledEventTypesAreAcked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := testBus(t)
	received := make(chan any, 1)

	// Only node.finished is handled; the skill.invoked event published first
	// must be acked and dropped without blocking delivery.
	require.NoError(t, bus.Handle(events.NodeFinishedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "exec-1", events.SkillInvoked{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.SkillInvokedEvent},
		SkillName: "sum",
	}))
	require.NoError(t, bus.Publish(ctx, "exec-1", events.NodeFinished{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.NodeFinishedEvent},
		NodeID:    "out",
	}))

	select {
	case event := <-received:
		finished, ok := event.(*events.NodeFinished)
		require.True(t, ok)
		assert.Equal(t, "out", finished.NodeID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}
