package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestEventDeliveryIntegration tests the complete event flow from TransactionalBus to main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan TransferCompletedEvent, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	mainBus.Subscribe(EventTypeTransferCompleted, func(ctx context.Context, event Event) {
		defer wg.Done()
		if transferEvent, ok := event.(TransferCompletedEvent); ok {
			select {
			case eventReceived <- transferEvent:
			case <-time.After(1 * time.Second):
				t.Error("Timeout sending event to channel")
			}
		} else {
			t.Errorf("Expected TransferCompletedEvent, got %T", event)
		}
	})

	testEvent := TransferCompletedEvent{
		TransferID: 17,
		SenderID:   123456,
		ReceiverID: 789,
		Amount:     40,
	}

	// Publish to the transactional bus, then flush as a commit would
	transactionalBus.Publish(testEvent)
	transactionalBus.Flush(context.Background())

	wg.Wait()

	select {
	case receivedEvent := <-eventReceived:
		assert.Equal(t, testEvent, receivedEvent)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestMultipleEventsDelivery tests delivering multiple events in sequence
func TestMultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventsReceived := make(chan BonusGrantedEvent, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	mainBus.Subscribe(EventTypeBonusGranted, func(ctx context.Context, event Event) {
		defer wg.Done()
		if bonusEvent, ok := event.(BonusGrantedEvent); ok {
			eventsReceived <- bonusEvent
		}
	})

	published := []BonusGrantedEvent{
		{UserID: 1, Kind: BonusKindDaily, BaseAmount: 15, ActualAmount: 15},
		{UserID: 2, Kind: BonusKindWeekly, BaseAmount: 100, ActualAmount: 150},
		{UserID: 3, Kind: BonusKindSpin, BaseAmount: 30, ActualAmount: 30},
	}

	for _, event := range published {
		transactionalBus.Publish(event)
	}

	transactionalBus.Flush(context.Background())
	wg.Wait()

	// Handlers run on their own goroutines, so arrival order may vary
	receivedUsers := make(map[int64]bool)
	for i := 0; i < 3; i++ {
		select {
		case event := <-eventsReceived:
			receivedUsers[event.UserID] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("Only received %d out of 3 events", len(receivedUsers))
		}
	}

	assert.True(t, receivedUsers[1])
	assert.True(t, receivedUsers[2])
	assert.True(t, receivedUsers[3])
}

// TestTransactionalBusDiscard tests that discarded events are not delivered
func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)

	mainBus.Subscribe(EventTypeGameClosed, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	transactionalBus.Publish(GameClosedEvent{
		GameSessionID: 5,
		HostID:        10,
		UserIDs:       []int64{10, 20},
		TotalPot:      100,
	})

	// Discard instead of flush, as a rollback would
	transactionalBus.Discard()

	select {
	case <-eventReceived:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
		// Expected - no event should be received
	}
}

func TestBonusGrantedEvent_Attributable(t *testing.T) {
	eventID := int64(42)

	boosted := BonusGrantedEvent{UserID: 1, Kind: BonusKindDaily, BaseAmount: 15, ActualAmount: 35, EventID: &eventID}
	assert.Equal(t, int64(20), boosted.Attributable())

	plain := BonusGrantedEvent{UserID: 1, Kind: BonusKindDaily, BaseAmount: 15, ActualAmount: 15}
	assert.Equal(t, int64(0), plain.Attributable())
}
