package game

import (
	"fmt"

	"github.com/spellground/spellground-go/internal/game/rules"
)

// stepAction runs the turn-based actions at the start of the current
// step. These happen before anyone gets priority.
func (e *Engine) stepAction(gs *gameState) {
	active := gs.players[gs.turns.ActivePlayer()]

	switch gs.turns.CurrentStep() {
	case rules.StepUntap:
		e.untapStep(gs, active)
	case rules.StepUpkeep:
		e.fireEvent(gs, rules.NewEvent(rules.EventUpkeepStep, "", "", active.ID))
	case rules.StepDraw:
		// The starting player skips the draw of the game's first turn.
		if gs.turns.TurnNumber() == 1 && gs.firstDrawSkip {
			gs.firstDrawSkip = false
			gs.addMessage(fmt.Sprintf("%s skips the first draw", active.Name), "draw")
			return
		}
		e.drawCard(gs, active)
	case rules.StepBeginCombat:
		gs.combat = newCombatState(active.ID)
	case rules.StepCombatDamage:
		e.combatDamageStep(gs)
	case rules.StepEndCombat:
		e.fireEvent(gs, rules.NewEvent(rules.EventEndCombat, "", "", active.ID))
	case rules.StepEnd:
		e.fireEvent(gs, rules.NewEvent(rules.EventEndStep, "", "", active.ID))
	case rules.StepCleanup:
		e.cleanupStep(gs, active)
	}
}

// endStepActions runs when the current step closes, before the turn
// manager moves on.
func (e *Engine) endStepActions(gs *gameState) {
	switch gs.turns.CurrentStep() {
	case rules.StepDeclareAttackers:
		gs.combat.attackersLocked = true
	case rules.StepDeclareBlockers:
		e.finalizeBlocks(gs)
	case rules.StepEndCombat:
		gs.combat = newCombatState(gs.turns.ActivePlayer())
		gs.layers.ExpireEndOfCombat()
	}
}

func (e *Engine) untapStep(gs *gameState, active *Player) {
	for _, cardID := range gs.battlefield {
		card := gs.cards[cardID]
		if e.controllerOf(gs, card) != active.ID {
			continue
		}
		card.SummoningSick = false
		if card.Tapped {
			card.Tapped = false
			e.fireEvent(gs, rules.NewEvent(rules.EventUntapped, card.ID, card.ID, active.ID))
		}
	}
}

// combatDamageStep performs the damage sub-steps. When any creature in
// combat has first or double strike, a first strike sub-step assigns and
// applies damage, state-based actions run, and only then does the
// regular sub-step happen with the survivors.
func (e *Engine) combatDamageStep(gs *gameState) {
	if !gs.combat.hasAttackers() {
		return
	}
	if e.combatHasStriker(gs) {
		gs.addMessage("First strike combat damage", "combat")
		e.dealCombatDamage(gs, true)
		e.runStateBasedActions(gs)
	}
	e.dealCombatDamage(gs, false)
}

// cleanupStep discards down to the hand limit, clears marked damage and
// end-of-turn effects, and resets per-turn bookkeeping for everyone.
func (e *Engine) cleanupStep(gs *gameState, active *Player) {
	for len(active.Hand) > active.HandLimit {
		cardID := active.Hand[len(active.Hand)-1]
		card := gs.cards[cardID]
		gs.addMessage(fmt.Sprintf("%s discards %s", active.Name, card.Name), "cleanup")
		e.moveCard(gs, card, ZoneGraveyard)
		e.fireEvent(gs, rules.NewEvent(rules.EventDiscardCard, cardID, "", active.ID))
	}

	for _, cardID := range gs.battlefield {
		card := gs.cards[cardID]
		card.Damage = 0
		card.DeathtouchDamage = false
	}

	gs.layers.ExpireEndOfTurn()
	gs.triggers.ResetTurn()
	for _, player := range gs.players {
		player.LandPlayed = false
		player.Pool.Empty()
	}
	e.fireEvent(gs, rules.NewEvent(rules.EventCleanupStep, "", "", active.ID))
}
