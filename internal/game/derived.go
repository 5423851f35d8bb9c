package game

import (
	"fmt"

	"github.com/spellground/spellground-go/internal/game/counters"
	"github.com/spellground/spellground-go/internal/game/effects"
	"github.com/spellground/spellground-go/internal/game/keyword"
	"github.com/spellground/spellground-go/internal/game/rules"
)

// evaluate computes a card's current characteristics: base printed
// values, then the layer system in order, then +1/+1 and -1/-1 counters
// applied after every layered power/toughness change.
func (e *Engine) evaluate(gs *gameState, card *Card) effects.Snapshot {
	snapshot := effects.NewSnapshot(
		card.ID,
		card.ControllerID,
		card.Types,
		card.Colors,
		card.BaseCapabilities,
		card.BasePower,
		card.BaseToughness,
	)
	gs.layers.Apply(snapshot)

	plus := card.Counters.Count(counters.PlusOnePlusOne)
	minus := card.Counters.Count(counters.MinusOneMinusOne)
	snapshot.Power += plus - minus
	snapshot.Toughness += plus - minus

	return *snapshot
}

func (e *Engine) effectivePower(gs *gameState, card *Card) int {
	return e.evaluate(gs, card).Power
}

func (e *Engine) effectiveToughness(gs *gameState, card *Card) int {
	return e.evaluate(gs, card).Toughness
}

func (e *Engine) capabilities(gs *gameState, card *Card) keyword.Set {
	return e.evaluate(gs, card).Capabilities
}

func (e *Engine) hasCapability(gs *gameState, card *Card, capability keyword.Capability) bool {
	return e.capabilities(gs, card).Has(capability)
}

// isCreature reports whether the card is currently a creature, layers
// included.
func (e *Engine) isCreature(gs *gameState, card *Card) bool {
	return e.evaluate(gs, card).HasType(TypeCreature)
}

// controllerOf returns the current controller after layer 2.
func (e *Engine) controllerOf(gs *gameState, card *Card) string {
	return e.evaluate(gs, card).ControllerID
}

// damagePlayer applies damage to a player's life total. Lifelink on the
// source heals its controller at application time, in the same breath as
// the damage.
func (e *Engine) damagePlayer(gs *gameState, sourceID string, player *Player, amount int) {
	if amount <= 0 {
		return
	}
	player.Life -= amount
	gs.addMessage(fmt.Sprintf("%s takes %d damage (life %d)", player.Name, amount, player.Life), "damage")
	e.fireEvent(gs, rules.NewEventWithAmount(rules.EventDamagedPlayer, player.ID, sourceID, player.ID, amount))
	e.fireEvent(gs, rules.NewEventWithAmount(rules.EventLifeLost, player.ID, sourceID, player.ID, amount))
	e.applyLifelink(gs, sourceID, amount)
}

// damagePermanent marks damage on a creature or removes loyalty from a
// planeswalker. Deathtouch damage is remembered for the next state-based
// check.
func (e *Engine) damagePermanent(gs *gameState, sourceID string, target *Card, amount int) {
	if amount <= 0 {
		return
	}
	if target.hasType(TypePlaneswalker) {
		target.Counters.Remove(counters.Loyalty, amount)
		gs.addMessage(fmt.Sprintf("%s loses %d loyalty", target.Name, amount), "damage")
	} else {
		target.Damage += amount
		if source, ok := gs.cards[sourceID]; ok && e.hasCapability(gs, source, keyword.Deathtouch) {
			target.DeathtouchDamage = true
		}
		gs.addMessage(fmt.Sprintf("%s takes %d damage", target.Name, amount), "damage")
	}
	e.fireEvent(gs, rules.NewEventWithAmount(rules.EventDamagedPermanent, target.ID, sourceID, target.ControllerID, amount))
	e.applyLifelink(gs, sourceID, amount)
}

func (e *Engine) applyLifelink(gs *gameState, sourceID string, amount int) {
	source, ok := gs.cards[sourceID]
	if !ok || amount <= 0 {
		return
	}
	if !e.hasCapability(gs, source, keyword.Lifelink) {
		return
	}
	controller, ok := gs.players[source.ControllerID]
	if !ok {
		return
	}
	e.gainLife(gs, sourceID, controller, amount)
}

func (e *Engine) gainLife(gs *gameState, sourceID string, player *Player, amount int) {
	if amount <= 0 {
		return
	}
	player.Life += amount
	gs.addMessage(fmt.Sprintf("%s gains %d life (life %d)", player.Name, amount, player.Life), "life")
	e.fireEvent(gs, rules.NewEventWithAmount(rules.EventLifeGained, player.ID, sourceID, player.ID, amount))
}
