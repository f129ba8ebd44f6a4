package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeAccountCreated    EventType = "account_created"
	EventTypeTransferCompleted EventType = "transfer_completed"
	EventTypeGameClosed        EventType = "game_closed"
	EventTypeBonusGranted      EventType = "bonus_granted"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// AccountCreatedEvent represents a newly provisioned account
type AccountCreatedEvent struct {
	UserID          int64
	StartingBalance int64
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// TransferCompletedEvent is emitted after a transfer commits. The achievement
// subsystem rechecks both parties off this event; nothing here can roll the
// transfer back.
type TransferCompletedEvent struct {
	TransferID int64
	SenderID   int64
	ReceiverID int64
	Amount     int64
}

func (e TransferCompletedEvent) Type() EventType {
	return EventTypeTransferCompleted
}

// GameClosedEvent is emitted after a session settles. UserIDs covers every
// participant, cashed out early or settled at close.
type GameClosedEvent struct {
	GameSessionID int64
	HostID        int64
	UserIDs       []int64
	TotalPot      int64
}

func (e GameClosedEvent) Type() EventType {
	return EventTypeGameClosed
}

// BonusKind distinguishes the three minting mechanisms
type BonusKind string

const (
	BonusKindWeekly BonusKind = "weekly"
	BonusKindDaily  BonusKind = "daily"
	BonusKindSpin   BonusKind = "spin"
)

// BonusGrantedEvent carries the attributable amount (actual minus base) that
// the event subsystem records as participation credit.
type BonusGrantedEvent struct {
	UserID       int64
	Kind         BonusKind
	BaseAmount   int64
	ActualAmount int64
	EventID      *int64
}

func (e BonusGrantedEvent) Type() EventType {
	return EventTypeBonusGranted
}

// Attributable returns the portion of the grant owed to the active event
func (e BonusGrantedEvent) Attributable() int64 {
	return e.ActualAmount - e.BaseAmount
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers. Handlers run in their
// own goroutines; a failing or panicking handler is logged and never
// propagates to the caller.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events published during a unit of work and only
// hands them to the real bus once the transaction commits. Rolled-back work
// never produces side effects.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a transactional bus wrapping the real one
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish queues an event until Flush
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful commit; uses a
// background context so event handling outlives the request that produced it.
func (b *TransactionalBus) Flush(ctx context.Context) {
	eventCtx := context.Background()

	for _, ev := range b.pending {
		log.WithFields(log.Fields{
			"eventType": ev.Type(),
		}).Debug("Flushing committed event")
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events. Called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
