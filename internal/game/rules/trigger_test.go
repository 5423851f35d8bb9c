package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildNoop(event Event) StackItem {
	return StackItem{Description: "noop", Resolve: func() error { return nil }}
}

func TestTriggerManager_CollectMatchesEventType(t *testing.T) {
	tm := NewTriggerManager()
	tm.Register(Trigger{
		SourceID:   "src",
		Controller: "alice",
		EventType:  EventLifeGained,
		Build:      buildNoop,
	})

	items := tm.Collect(NewEvent(EventLifeGained, "alice", "", "alice"), nil)
	require.Len(t, items, 1)
	assert.Equal(t, "alice", items[0].Controller)
	assert.Equal(t, "src", items[0].SourceID)
	assert.Equal(t, StackItemKindTriggered, items[0].Kind)

	items = tm.Collect(NewEvent(EventDrawCard, "", "", "alice"), nil)
	assert.Empty(t, items)
}

func TestTriggerManager_Condition(t *testing.T) {
	tm := NewTriggerManager()
	tm.Register(Trigger{
		SourceID:  "src",
		EventType: EventDamagedPlayer,
		Condition: func(e Event) bool { return e.Amount >= 3 },
		Build:     buildNoop,
	})

	assert.Empty(t, tm.Collect(NewEventWithAmount(EventDamagedPlayer, "bob", "src", "alice", 2), nil))
	assert.Len(t, tm.Collect(NewEventWithAmount(EventDamagedPlayer, "bob", "src", "alice", 3), nil), 1)
}

func TestTriggerManager_SourceGating(t *testing.T) {
	tm := NewTriggerManager()
	tm.Register(Trigger{
		SourceID:  "gone",
		EventType: EventEndStep,
		Build:     buildNoop,
	})

	onBattlefield := func(sourceID string) bool { return sourceID != "gone" }
	assert.Empty(t, tm.Collect(NewEvent(EventEndStep, "", "", "alice"), onBattlefield))
}

func TestTriggerManager_OncePerTurn(t *testing.T) {
	tm := NewTriggerManager()
	tm.Register(Trigger{
		SourceID:    "src",
		EventType:   EventLifeGained,
		OncePerTurn: true,
		Build:       buildNoop,
	})

	event := NewEvent(EventLifeGained, "alice", "", "alice")
	assert.Len(t, tm.Collect(event, nil), 1)
	assert.Empty(t, tm.Collect(event, nil), "second firing in the same turn must be suppressed")

	tm.ResetTurn()
	assert.Len(t, tm.Collect(event, nil), 1)
}

func TestTriggerManager_UnregisterBySource(t *testing.T) {
	tm := NewTriggerManager()
	tm.Register(Trigger{SourceID: "a", EventType: EventEndStep, Build: buildNoop})
	tm.Register(Trigger{SourceID: "a", EventType: EventUpkeepStep, Build: buildNoop})
	tm.Register(Trigger{SourceID: "b", EventType: EventEndStep, Build: buildNoop})

	tm.UnregisterBySource("a")

	assert.Len(t, tm.Collect(NewEvent(EventEndStep, "", "", ""), nil), 1)
	assert.Empty(t, tm.Collect(NewEvent(EventUpkeepStep, "", "", ""), nil))
}

func TestTriggerManager_CollectsInRegistrationOrder(t *testing.T) {
	tm := NewTriggerManager()
	names := []string{"first", "second", "third", "fourth"}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		name := name
		ids = append(ids, tm.Register(Trigger{
			SourceID:  name,
			EventType: EventLifeGained,
			Build: func(Event) StackItem {
				return StackItem{Description: name}
			},
		}))
	}

	// Simultaneous triggers must collect in a stable order, or replays
	// of the same game diverge.
	for run := 0; run < 50; run++ {
		items := tm.Collect(NewEvent(EventLifeGained, "", "", "alice"), nil)
		require.Len(t, items, len(names))
		for i, item := range items {
			assert.Equal(t, names[i], item.Description)
		}
	}

	tm.Unregister(ids[1])
	items := tm.Collect(NewEvent(EventLifeGained, "", "", "alice"), nil)
	require.Len(t, items, 3)
	assert.Equal(t, "first", items[0].Description)
	assert.Equal(t, "third", items[1].Description)
	assert.Equal(t, "fourth", items[2].Description)
}
