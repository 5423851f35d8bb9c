package rules

import (
	"sync"

	"github.com/google/uuid"
)

// Trigger encapsulates the logic for reacting to a specific event and
// producing a stack item when the conditions are satisfied.
type Trigger struct {
	ID          string
	SourceID    string
	Controller  string
	EventType   EventType
	Condition   func(Event) bool
	Build       func(Event) StackItem
	OncePerTurn bool
}

// TriggerManager stores triggers and evaluates them against events.
// Matching triggers are collected as waiting items; the engine orders
// them APNAP and pushes them onto the stack before the next priority
// window.
type TriggerManager struct {
	mu       sync.Mutex
	triggers map[string]Trigger
	// order holds trigger IDs in registration order so simultaneous
	// triggers always collect in the same sequence.
	order []string
	fired map[string]bool // trigger ID -> fired this turn
}

// NewTriggerManager creates an empty trigger manager.
func NewTriggerManager() *TriggerManager {
	return &TriggerManager{
		triggers: make(map[string]Trigger),
		fired:    make(map[string]bool),
	}
}

// Register adds a new trigger and returns its ID.
func (tm *TriggerManager) Register(trigger Trigger) string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if trigger.ID == "" {
		trigger.ID = uuid.NewString()
	}
	if _, exists := tm.triggers[trigger.ID]; !exists {
		tm.order = append(tm.order, trigger.ID)
	}
	tm.triggers[trigger.ID] = trigger
	return trigger.ID
}

// Unregister removes a trigger by ID.
func (tm *TriggerManager) Unregister(id string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.removeLocked(id)
}

// UnregisterBySource removes all triggers whose source matches.
func (tm *TriggerManager) UnregisterBySource(sourceID string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for id, trigger := range tm.triggers {
		if trigger.SourceID == sourceID {
			tm.removeLocked(id)
		}
	}
}

func (tm *TriggerManager) removeLocked(id string) {
	if _, exists := tm.triggers[id]; !exists {
		return
	}
	delete(tm.triggers, id)
	delete(tm.fired, id)
	for idx, existing := range tm.order {
		if existing == id {
			tm.order = append(tm.order[:idx], tm.order[idx+1:]...)
			break
		}
	}
}

// Collect evaluates the event against all registered triggers and returns
// the stack items they produce. sourceActive reports whether a trigger's
// source is still in the zone where triggers of this kind are expected;
// triggers with departed sources do not fire. Once-per-turn triggers that
// already fired this turn are skipped and matching ones are marked fired.
func (tm *TriggerManager) Collect(event Event, sourceActive func(sourceID string) bool) []StackItem {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if len(tm.triggers) == 0 {
		return nil
	}

	var items []StackItem
	for _, id := range tm.order {
		trigger := tm.triggers[id]
		if trigger.EventType != event.Type {
			continue
		}
		if trigger.OncePerTurn && tm.fired[id] {
			continue
		}
		if trigger.SourceID != "" && sourceActive != nil && !sourceActive(trigger.SourceID) {
			continue
		}
		if trigger.Condition != nil && !trigger.Condition(event) {
			continue
		}
		if trigger.Build == nil {
			continue
		}

		item := trigger.Build(event)
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.Kind == "" {
			item.Kind = StackItemKindTriggered
		}
		if item.Controller == "" {
			item.Controller = trigger.Controller
		}
		if item.SourceID == "" {
			item.SourceID = trigger.SourceID
		}
		items = append(items, item)

		if trigger.OncePerTurn {
			tm.fired[id] = true
		}
	}

	return items
}

// ResetTurn clears the fired-this-turn flags. Called during cleanup.
func (tm *TriggerManager) ResetTurn() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.fired = make(map[string]bool)
}
