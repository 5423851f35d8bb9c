package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spellground/spellground-go/internal/game/rules"
)

// testDeck builds a library of identical vanilla creatures, enough to
// survive several turns of drawing.
func testDeck(size int) []CardSpec {
	deck := make([]CardSpec, size)
	for i := range deck {
		deck[i] = CardSpec{
			Name:      "Grizzly Bears",
			ManaCost:  "1G",
			Types:     []string{TypeCreature},
			Colors:    []string{"G"},
			Power:     2,
			Toughness: 2,
		}
	}
	return deck
}

// newTestGame starts a two-player game (alice first, bob second) and
// returns the engine and its internal state for direct manipulation.
func newTestGame(t *testing.T) (*Engine, *gameState) {
	t.Helper()
	e := NewEngine(zaptest.NewLogger(t))
	require.NoError(t, e.StartGame("test-game", []PlayerSetup{
		{ID: "alice", Name: "Alice", Deck: testDeck(30)},
		{ID: "bob", Name: "Bob", Deck: testDeck(30)},
	}))
	gs, err := e.getGame("test-game")
	require.NoError(t, err)
	return e, gs
}

// putPermanent injects a card directly onto the battlefield under the
// given controller, clear of summoning sickness.
func putPermanent(t *testing.T, e *Engine, gs *gameState, controllerID string, spec CardSpec) *Card {
	t.Helper()
	gs.mu.Lock()
	defer gs.mu.Unlock()
	card := e.newCardFromSpec(spec, controllerID)
	gs.cards[card.ID] = card
	e.moveCard(gs, card, ZoneBattlefield)
	card.SummoningSick = false
	return card
}

// putInHand injects a card into a player's hand.
func putInHand(t *testing.T, e *Engine, gs *gameState, ownerID string, spec CardSpec) *Card {
	t.Helper()
	gs.mu.Lock()
	defer gs.mu.Unlock()
	card := e.newCardFromSpec(spec, ownerID)
	card.Zone = ZoneHand
	gs.cards[card.ID] = card
	owner := gs.players[ownerID]
	owner.Hand = append(owner.Hand, card.ID)
	return card
}

// advanceTo drives the game forward until the turn manager reaches the
// given step of the current (or next) turn.
func advanceTo(t *testing.T, e *Engine, gs *gameState, step rules.Step) {
	t.Helper()
	for i := 0; i < 24; i++ {
		gs.mu.RLock()
		current := gs.turns.CurrentStep()
		gs.mu.RUnlock()
		if current == step {
			return
		}
		require.NoError(t, e.AdvanceStep(gs.id))
	}
	t.Fatalf("never reached step %v", step)
}

// passBoth has both players pass priority in the current window, which
// resolves the top of the stack or advances the step.
func passBoth(t *testing.T, e *Engine, gs *gameState) {
	t.Helper()
	for i := 0; i < 2; i++ {
		gs.mu.RLock()
		holder := gs.turns.PriorityPlayer()
		gs.mu.RUnlock()
		require.NoError(t, e.PassPriority(gs.id, holder), "PassPriority(%s)", holder)
	}
}

func vanillaCreature(name string, power, toughness int, keywords ...string) CardSpec {
	return CardSpec{
		Name:      name,
		ManaCost:  fmt.Sprintf("%d", power),
		Types:     []string{TypeCreature},
		Power:     power,
		Toughness: toughness,
		Keywords:  keywords,
	}
}
