package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Turn structure events
	EventBeginTurn   EventType = "BEGIN_TURN"
	EventStepChanged EventType = "STEP_CHANGED"
	EventUpkeepStep  EventType = "UPKEEP_STEP"
	EventEndStep     EventType = "END_STEP"
	EventCleanupStep EventType = "CLEANUP_STEP"

	// Zone events
	EventZoneChange    EventType = "ZONE_CHANGE"
	EventEntersBattle  EventType = "ENTERS_BATTLEFIELD"
	EventLeavesBattle  EventType = "LEAVES_BATTLEFIELD"
	EventPermanentDied EventType = "PERMANENT_DIED"
	EventTokenCreated  EventType = "TOKEN_CREATED"

	// Card events
	EventDrawCard     EventType = "DRAW_CARD"
	EventDiscardCard  EventType = "DISCARD_CARD"
	EventLandPlayed   EventType = "LAND_PLAYED"
	EventSpellCast    EventType = "SPELL_CAST"
	EventTapped       EventType = "TAPPED"
	EventUntapped     EventType = "UNTAPPED"
	EventCounterAdded EventType = "COUNTER_ADDED"

	// Life and damage events
	EventDamagedPlayer    EventType = "DAMAGED_PLAYER"
	EventDamagedPermanent EventType = "DAMAGED_PERMANENT"
	EventLifeGained       EventType = "LIFE_GAINED"
	EventLifeLost         EventType = "LIFE_LOST"

	// Combat events
	EventAttackerDeclared EventType = "ATTACKER_DECLARED"
	EventBlockerDeclared  EventType = "BLOCKER_DECLARED"
	EventCombatDamage     EventType = "COMBAT_DAMAGE"
	EventEndCombat        EventType = "END_COMBAT"

	// Stack events
	EventStackItemPushed    EventType = "STACK_ITEM_PUSHED"
	EventStackItemResolved  EventType = "STACK_ITEM_RESOLVED"
	EventStackItemCountered EventType = "STACK_ITEM_COUNTERED"

	// Engine events
	EventStateBasedActions EventType = "STATE_BASED_ACTIONS"
	EventGameOver          EventType = "GAME_OVER"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type        EventType
	ID          string
	SourceID    string // ID of the source object, if any
	TargetID    string // ID of the affected card or player
	PlayerID    string // Player the event concerns
	Controller  string // Controller of the source
	Amount      int    // Numeric value (damage, life, counters)
	Flag        bool   // Event-specific boolean (e.g. combat damage)
	Timestamp   time.Time
	Description string
}

// NewEvent creates an event with common fields populated.
func NewEvent(eventType EventType, targetID, sourceID, controllerID string) Event {
	return Event{
		Type:       eventType,
		TargetID:   targetID,
		SourceID:   sourceID,
		Controller: controllerID,
		PlayerID:   controllerID,
		Timestamp:  time.Now(),
	}
}

// NewEventWithAmount creates an event carrying a numeric value.
func NewEventWithAmount(eventType EventType, targetID, sourceID, controllerID string, amount int) Event {
	evt := NewEvent(eventType, targetID, sourceID, controllerID)
	evt.Amount = amount
	return evt
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

type typedListener struct {
	handle    int
	eventType EventType
	callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with
// optional type filtering. Delivery is in-line with the publisher; the
// engine is single-threaded, so listeners observe a consistent state.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]typedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]typedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], typedListener{
		handle:    handle,
		eventType: eventType,
		callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	for _, listener := range bus.typedListeners[event.Type] {
		listener.callback(event)
	}
}
