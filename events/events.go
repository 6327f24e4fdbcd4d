package events

import (
	"context"
	"sync"

	"wagerpool/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBetPlaced        EventType = "bet_placed"
	EventTypeBettorAdded      EventType = "bettor_added"
	EventTypeBetStatusChanged EventType = "bet_status_changed"
	EventTypeBetSettled       EventType = "bet_settled"
	EventTypeBalanceChange    EventType = "balance_change"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BetPlacedEvent is emitted when a new bet is opened
type BetPlacedEvent struct {
	BetID     int64
	Initiator string
	Subject   string
	Direction models.Direction
	Wager     decimal.Decimal
	Duration  int64
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// BettorAddedEvent is emitted when a member joins one of the groups
type BettorAddedEvent struct {
	BetID    int64
	Group    models.Group
	Position int
	Address  string
	Wager    decimal.Decimal
	PoolSize decimal.Decimal
}

func (e BettorAddedEvent) Type() EventType {
	return EventTypeBettorAdded
}

// BetStatusChangedEvent represents a bet lifecycle transition
type BetStatusChangedEvent struct {
	BetID     int64
	OldStatus models.BetStatus
	NewStatus models.BetStatus
}

func (e BetStatusChangedEvent) Type() EventType {
	return EventTypeBetStatusChanged
}

// BetSettledEvent carries the settlement summary
type BetSettledEvent struct {
	BetID         int64
	ObservedValue decimal.Decimal
	WinningGroup  *models.Group
	Void          bool
	TotalPool     decimal.Decimal
	TotalPaid     decimal.Decimal
	Residual      decimal.Decimal
	WinnerCount   int
}

func (e BetSettledEvent) Type() EventType {
	return EventTypeBetSettled
}

// BalanceChangeEvent represents a ledger movement that occurred
type BalanceChangeEvent struct {
	Address      string
	BetID        *int64
	OldBalance   decimal.Decimal
	NewBalance   decimal.Decimal
	EntryType    models.EntryType
	ChangeAmount decimal.Decimal
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
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
	}).Debug("Subscribed handler to event type on main event bus")
}

// SubscribeAll adds the same handler for every event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes() {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	// Handlers run asynchronously so a slow subscriber never blocks the caller
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// AllEventTypes lists every event type emitted by the service layer
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeBetPlaced,
		EventTypeBettorAdded,
		EventTypeBetStatusChanged,
		EventTypeBetSettled,
		EventTypeBalanceChange,
	}
}

// TransactionalBus holds pending events coupled to a unit of work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Pending returns the number of events waiting for a flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus to main event bus")

	// Events outlive the request; don't tie them to the transaction context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
