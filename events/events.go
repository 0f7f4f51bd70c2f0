package events

import (
	"context"
	"sync"

	"arenabot/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange      EventType = "balance_change"
	EventTypeUserCreated        EventType = "user_created"
	EventTypeChallengeCreated   EventType = "challenge_created"
	EventTypeChallengeAccepted  EventType = "challenge_accepted"
	EventTypeChallengeJoined    EventType = "challenge_joined"
	EventTypeChallengeDeclined  EventType = "challenge_declined"
	EventTypeChallengeCancelled EventType = "challenge_cancelled"
	EventTypeChallengeCompleted EventType = "challenge_completed"
	EventTypeBetPlaced          EventType = "bet_placed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64
	OldBalance      int64
	NewBalance      int64
	TransactionType models.TransactionType
	ChangeAmount    int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a new user creation
type UserCreatedEvent struct {
	DiscordID      int64
	Username       string
	InitialBalance int64
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// ChallengeCreatedEvent represents a newly created challenge
type ChallengeCreatedEvent struct {
	ChallengeID   int64
	ChallengeType models.ChallengeType
	CreatorID     int64
	OpponentID    int64 // zero for open challenges
	Title         string
	WagerAmount   int64
}

func (e ChallengeCreatedEvent) Type() EventType {
	return EventTypeChallengeCreated
}

// ChallengeAcceptedEvent represents a direct challenge going active
type ChallengeAcceptedEvent struct {
	ChallengeID int64
	AcceptorID  int64
	Title       string
}

func (e ChallengeAcceptedEvent) Type() EventType {
	return EventTypeChallengeAccepted
}

// ChallengeJoinedEvent represents a user joining an open challenge
type ChallengeJoinedEvent struct {
	ChallengeID      int64
	JoinerID         int64
	ParticipantCount int
	Activated        bool
	Title            string
}

func (e ChallengeJoinedEvent) Type() EventType {
	return EventTypeChallengeJoined
}

// ChallengeDeclinedEvent represents a challenge being declined or expiring unaccepted
type ChallengeDeclinedEvent struct {
	ChallengeID int64
	DeclinerID  int64 // zero when auto-declined by the scheduler
	Title       string
}

func (e ChallengeDeclinedEvent) Type() EventType {
	return EventTypeChallengeDeclined
}

// ChallengeCancelledEvent represents a challenge being cancelled before completion
type ChallengeCancelledEvent struct {
	ChallengeID int64
	ActorID     int64 // zero when auto-cancelled by the scheduler
	Title       string
}

func (e ChallengeCancelledEvent) Type() EventType {
	return EventTypeChallengeCancelled
}

// ChallengeCompletedEvent represents a settled challenge
type ChallengeCompletedEvent struct {
	ChallengeID int64
	Outcome     models.SettlementOutcome
	WinnerID    int64 // zero on tie/no-contest
	WagerPool   int64
	Title       string
}

func (e ChallengeCompletedEvent) Type() EventType {
	return EventTypeChallengeCompleted
}

// BetPlacedEvent represents a side bet placed on an active challenge
type BetPlacedEvent struct {
	ChallengeID int64
	BettorID    int64
	TargetID    int64
	Amount      int64
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
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

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Handlers run asynchronously; a slow or failing subscriber can never
	// block or unwind the operation that emitted the event.
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

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Events outlive the transaction context that produced them
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard is called after a rollback to drop buffered events
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
