package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"wagerpool/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventDeliveryIntegration tests the complete event flow from TransactionalBus to main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BettorAddedEvent, 1)
	mainBus.Subscribe(EventTypeBettorAdded, func(ctx context.Context, event Event) {
		if added, ok := event.(BettorAddedEvent); ok {
			eventReceived <- added
		} else {
			t.Errorf("Expected BettorAddedEvent, got %T", event)
		}
	})

	testEvent := BettorAddedEvent{
		BetID:    1,
		Group:    models.GroupTwo,
		Position: 0,
		Address:  "0xabc",
		Wager:    decimal.NewFromInt(2000),
		PoolSize: decimal.NewFromInt(2000),
	}

	transactionalBus.Publish(testEvent)
	assert.Equal(t, 1, transactionalBus.Pending())

	err := transactionalBus.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, transactionalBus.Pending())

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent.BetID, received.BetID)
		assert.Equal(t, testEvent.Group, received.Group)
		assert.Equal(t, testEvent.Address, received.Address)
		assert.True(t, testEvent.Wager.Equal(received.Wager))
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestMultipleEventsDelivery tests delivering multiple events in sequence
func TestMultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan BetStatusChangedEvent, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	mainBus.Subscribe(EventTypeBetStatusChanged, func(ctx context.Context, event Event) {
		defer wg.Done()
		if changed, ok := event.(BetStatusChangedEvent); ok {
			received <- changed
		}
	})

	transitions := []BetStatusChangedEvent{
		{BetID: 7, OldStatus: models.BetStatusCreated, NewStatus: models.BetStatusApproved},
		{BetID: 7, OldStatus: models.BetStatusApproved, NewStatus: models.BetStatusClosed},
		{BetID: 7, OldStatus: models.BetStatusClosed, NewStatus: models.BetStatusSettled},
	}
	for _, ev := range transitions {
		transactionalBus.Publish(ev)
	}

	require.NoError(t, transactionalBus.Flush(context.Background()))
	wg.Wait()
	close(received)

	seen := make(map[models.BetStatus]bool)
	for ev := range received {
		seen[ev.NewStatus] = true
	}
	assert.Len(t, seen, 3)
}

// TestDiscardDropsPendingEvents verifies rollback never reaches subscribers
func TestDiscardDropsPendingEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	called := make(chan struct{}, 1)
	mainBus.Subscribe(EventTypeBetSettled, func(ctx context.Context, event Event) {
		called <- struct{}{}
	})

	transactionalBus.Publish(BetSettledEvent{BetID: 3})
	transactionalBus.Discard()
	require.NoError(t, transactionalBus.Flush(context.Background()))

	select {
	case <-called:
		t.Fatal("discarded event was delivered")
	case <-time.After(200 * time.Millisecond):
	}
}

// TestPanickingHandlerDoesNotBreakOthers tests handler isolation
func TestPanickingHandlerDoesNotBreakOthers(t *testing.T) {
	bus := NewBus()
	done := make(chan struct{}, 1)

	bus.Subscribe(EventTypeBetPlaced, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeBetPlaced, func(ctx context.Context, event Event) {
		done <- struct{}{}
	})

	bus.Emit(context.Background(), BetPlacedEvent{BetID: 1})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("healthy handler was not invoked")
	}
}

func TestSubscribeAll(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	var types []EventType
	var wg sync.WaitGroup
	wg.Add(len(AllEventTypes()))

	bus.SubscribeAll(func(ctx context.Context, event Event) {
		defer wg.Done()
		mu.Lock()
		types = append(types, event.Type())
		mu.Unlock()
	})

	bus.Emit(context.Background(), BetPlacedEvent{})
	bus.Emit(context.Background(), BettorAddedEvent{})
	bus.Emit(context.Background(), BetStatusChangedEvent{})
	bus.Emit(context.Background(), BetSettledEvent{})
	bus.Emit(context.Background(), BalanceChangeEvent{})
	wg.Wait()

	assert.ElementsMatch(t, AllEventTypes(), types)
}
