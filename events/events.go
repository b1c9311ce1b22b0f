package events

import (
	"context"
	"sync"

	"tally/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserCreated         EventType = "user_created"
	EventTypeResponseRecorded    EventType = "response_recorded"
	EventTypeTransactionExecuted EventType = "transaction_executed"
	EventTypeQuestionResolved    EventType = "question_resolved"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserCreatedEvent represents a new user creation
type UserCreatedEvent struct {
	UserID         int64
	Username       string
	StartingBudget float64
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// ResponseRecordedEvent represents a prediction a user submitted
type ResponseRecordedEvent struct {
	UserID     int64
	QuestionID int64
	Answer     models.Side
}

func (e ResponseRecordedEvent) Type() EventType {
	return EventTypeResponseRecorded
}

// TransactionExecutedEvent represents a buy or sell that went through the
// position engine, including forced sells during settlement
type TransactionExecutedEvent struct {
	UserID      int64
	QuestionID  int64
	Kind        models.TransactionType
	Side        models.Side
	Amount      float64
	BudgetDelta float64
	Forced      bool
}

func (e TransactionExecutedEvent) Type() EventType {
	return EventTypeTransactionExecuted
}

// QuestionResolvedEvent represents a question settling to a terminal outcome
type QuestionResolvedEvent struct {
	QuestionID int64
	Question   string
	Outcome    models.Outcome
	Graded     int
	Liquidated int
}

func (e QuestionResolvedEvent) Type() EventType {
	return EventTypeQuestionResolved
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
}

// Emit publishes an event to all registered handlers. Dispatch is
// synchronous: each invocation is one short-lived CLI session and events
// must be observed before the process exits.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			handler(ctx, event)
		}()
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	for _, ev := range b.pending {
		b.real.Emit(ctx, ev)
	}
	b.pending = nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
