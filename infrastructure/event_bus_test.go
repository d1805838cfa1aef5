package infrastructure

import (
	"context"
	"sync"
	"testing"
	"time"

	"prizedraw/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestBus_EmitReachesSubscribers(t *testing.T) {
	bus := NewBus()
	received := make(chan events.Event, 1)

	bus.Subscribe(events.EventTypeInventoryChanged, func(ctx context.Context, e events.Event) {
		received <- e
	})

	bus.Emit(context.Background(), events.InventoryChangedEvent{})

	e := waitFor(t, received)
	assert.Equal(t, events.EventTypeInventoryChanged, e.Type())
}

func TestBus_EmitOnlyMatchingType(t *testing.T) {
	bus := NewBus()
	inventory := make(chan events.Event, 1)
	config := make(chan events.Event, 1)

	bus.Subscribe(events.EventTypeInventoryChanged, func(ctx context.Context, e events.Event) {
		inventory <- e
	})
	bus.Subscribe(events.EventTypeConfigUpdated, func(ctx context.Context, e events.Event) {
		config <- e
	})

	bus.Emit(context.Background(), events.ConfigUpdatedEvent{})

	waitFor(t, config)
	select {
	case <-inventory:
		t.Fatal("inventory handler should not receive config events")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_HandlerPanicDoesNotPoisonOthers(t *testing.T) {
	bus := NewBus()
	received := make(chan events.Event, 1)

	bus.Subscribe(events.EventTypeInventoryChanged, func(ctx context.Context, e events.Event) {
		panic("boom")
	})
	bus.Subscribe(events.EventTypeInventoryChanged, func(ctx context.Context, e events.Event) {
		received <- e
	})

	bus.Emit(context.Background(), events.InventoryChangedEvent{})

	waitFor(t, received)
}

func TestBus_ConcurrentSubscribeAndEmit(t *testing.T) {
	bus := NewBus()
	var count sync.WaitGroup
	count.Add(10)

	for i := 0; i < 10; i++ {
		bus.Subscribe(events.EventTypeRedemptionCompleted, func(ctx context.Context, e events.Event) {
			count.Done()
		})
	}

	var emitters sync.WaitGroup
	for i := 0; i < 4; i++ {
		emitters.Add(1)
		go func() {
			defer emitters.Done()
			bus.Emit(context.Background(), events.InventoryChangedEvent{})
		}()
	}
	emitters.Wait()

	require.NoError(t, bus.Publish(events.RedemptionCompletedEvent{DrawID: "d1"}))

	done := make(chan struct{})
	go func() {
		count.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not all handlers ran")
	}
}
