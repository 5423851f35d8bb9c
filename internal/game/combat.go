package game

import (
	"fmt"

	"github.com/spellground/spellground-go/internal/game/keyword"
	"github.com/spellground/spellground-go/internal/game/rules"
	"go.uber.org/zap"
)

// combatGroup records one attacker, what it attacks and its blockers in
// damage-assignment order.
type combatGroup struct {
	attackerID string
	// defenderID is the attacked player (planeswalker attacks route
	// through the controlling player's ID plus the walker's card ID).
	defenderID string
	walkerID   string
	blockers   []string
}

// combatState tracks declarations for the current combat phase. Locks
// flip as the respective declare steps end.
type combatState struct {
	attackingPlayer string
	groups          []*combatGroup
	attackersLocked bool
	blockersLocked  bool
}

func newCombatState(attackingPlayer string) *combatState {
	return &combatState{attackingPlayer: attackingPlayer}
}

func (cs *combatState) groupFor(attackerID string) *combatGroup {
	for _, group := range cs.groups {
		if group.attackerID == attackerID {
			return group
		}
	}
	return nil
}

func (cs *combatState) blockerGroup(blockerID string) *combatGroup {
	for _, group := range cs.groups {
		for _, id := range group.blockers {
			if id == blockerID {
				return group
			}
		}
	}
	return nil
}

// removeFromCombat drops a creature from all combat records, whether it
// was attacking or blocking. Remaining blockers keep their order.
func (cs *combatState) removeFromCombat(cardID string) {
	for i, group := range cs.groups {
		if group.attackerID == cardID {
			cs.groups = append(cs.groups[:i], cs.groups[i+1:]...)
			return
		}
	}
	for _, group := range cs.groups {
		group.blockers = removeID(group.blockers, cardID)
	}
}

func (cs *combatState) hasAttackers() bool {
	return len(cs.groups) > 0
}

// DeclareAttacker declares one creature as an attacker against a player
// or planeswalker. Only legal during the declare attackers step, before
// declarations lock.
func (e *Engine) DeclareAttacker(gameID, playerID, attackerID, defenderID string) error {
	gs, err := e.getGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.status != StatusInProgress {
		return ruleErrorf("game is over")
	}
	if gs.turns.CurrentStep() != rules.StepDeclareAttackers || gs.combat.attackersLocked {
		return ruleErrorf("attackers can only be declared during the declare attackers step")
	}
	if gs.turns.ActivePlayer() != playerID {
		return ruleErrorf("only the active player declares attackers")
	}
	attacker, err := gs.card(attackerID)
	if err != nil {
		return err
	}
	if attacker.Zone != ZoneBattlefield || !e.isCreature(gs, attacker) {
		return ruleErrorf("%s is not a creature on the battlefield", attacker.Name)
	}
	if e.controllerOf(gs, attacker) != playerID {
		return ruleErrorf("%s does not control %s", playerID, attacker.Name)
	}
	if attacker.Tapped {
		return ruleErrorf("%s is tapped", attacker.Name)
	}
	caps := e.capabilities(gs, attacker)
	if attacker.SummoningSick && !caps.Has(keyword.Haste) {
		return ruleErrorf("%s has summoning sickness", attacker.Name)
	}
	if caps.Has(keyword.Defender) {
		return ruleErrorf("%s has defender and cannot attack", attacker.Name)
	}
	if gs.combat.groupFor(attackerID) != nil {
		return ruleErrorf("%s is already attacking", attacker.Name)
	}

	group := &combatGroup{attackerID: attackerID}
	if defender, ok := gs.players[defenderID]; ok {
		if defender.ID == playerID {
			return ruleErrorf("cannot attack yourself")
		}
		group.defenderID = defenderID
	} else if walker, ok := gs.cards[defenderID]; ok && walker.Zone == ZoneBattlefield && walker.hasType(TypePlaneswalker) {
		if e.controllerOf(gs, walker) == playerID {
			return ruleErrorf("cannot attack your own planeswalker")
		}
		group.defenderID = e.controllerOf(gs, walker)
		group.walkerID = walker.ID
	} else {
		return ruleErrorf("%s is not a player or planeswalker", defenderID)
	}

	if !caps.Has(keyword.Vigilance) {
		attacker.Tapped = true
		e.fireEvent(gs, rules.NewEvent(rules.EventTapped, attacker.ID, attacker.ID, playerID))
	}
	gs.combat.groups = append(gs.combat.groups, group)

	gs.addMessage(fmt.Sprintf("%s attacks %s", attacker.Name, defenderID), "combat")
	e.fireEvent(gs, rules.NewEvent(rules.EventAttackerDeclared, defenderID, attackerID, playerID))
	return nil
}

// DeclareBlocker assigns an untapped creature of the defending player to
// block one attacker. Evasion is checked here; menace's two-blocker
// minimum is enforced when blocks are finalized.
func (e *Engine) DeclareBlocker(gameID, playerID, blockerID, attackerID string) error {
	gs, err := e.getGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.status != StatusInProgress {
		return ruleErrorf("game is over")
	}
	if gs.turns.CurrentStep() != rules.StepDeclareBlockers || gs.combat.blockersLocked {
		return ruleErrorf("blockers can only be declared during the declare blockers step")
	}
	group := gs.combat.groupFor(attackerID)
	if group == nil {
		return ruleErrorf("%s is not attacking", attackerID)
	}
	if group.defenderID != playerID {
		return ruleErrorf("%s is not being attacked by %s", playerID, attackerID)
	}
	blocker, err := gs.card(blockerID)
	if err != nil {
		return err
	}
	if blocker.Zone != ZoneBattlefield || !e.isCreature(gs, blocker) {
		return ruleErrorf("%s is not a creature on the battlefield", blocker.Name)
	}
	if e.controllerOf(gs, blocker) != playerID {
		return ruleErrorf("%s does not control %s", playerID, blocker.Name)
	}
	if blocker.Tapped {
		return ruleErrorf("%s is tapped and cannot block", blocker.Name)
	}
	if gs.combat.blockerGroup(blockerID) != nil {
		return ruleErrorf("%s is already blocking", blocker.Name)
	}

	attacker := gs.cards[attackerID]
	attackerCaps := e.capabilities(gs, attacker)
	blockerCaps := e.capabilities(gs, blocker)
	if attackerCaps.Has(keyword.Flying) && !blockerCaps.Has(keyword.Flying) && !blockerCaps.Has(keyword.Reach) {
		return ruleErrorf("%s cannot block %s (flying)", blocker.Name, attacker.Name)
	}

	group.blockers = append(group.blockers, blockerID)
	gs.addMessage(fmt.Sprintf("%s blocks %s", blocker.Name, attacker.Name), "combat")
	e.fireEvent(gs, rules.NewEvent(rules.EventBlockerDeclared, attackerID, blockerID, playerID))
	return nil
}

// OrderBlockers sets the damage-assignment order for an attacker's
// blockers. The given order must be a permutation of the declared
// blockers.
func (e *Engine) OrderBlockers(gameID, playerID, attackerID string, order []string) error {
	gs, err := e.getGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	group := gs.combat.groupFor(attackerID)
	if group == nil {
		return ruleErrorf("%s is not attacking", attackerID)
	}
	if gs.combat.attackingPlayer != playerID {
		return ruleErrorf("only the attacking player orders blockers")
	}
	if len(order) != len(group.blockers) {
		return ruleErrorf("order must list all %d blockers", len(group.blockers))
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if seen[id] {
			return ruleErrorf("duplicate blocker %s in order", id)
		}
		seen[id] = true
		if gs.combat.blockerGroup(id) != group {
			return ruleErrorf("%s is not blocking %s", id, attackerID)
		}
	}
	group.blockers = append([]string(nil), order...)
	return nil
}

// finalizeBlocks runs when the declare blockers step ends. Menace
// attackers blocked by exactly one creature have that block removed;
// blocking two or more is the only legal way to block them.
func (e *Engine) finalizeBlocks(gs *gameState) {
	for _, group := range gs.combat.groups {
		if len(group.blockers) != 1 {
			continue
		}
		attacker, ok := gs.cards[group.attackerID]
		if !ok {
			continue
		}
		if e.hasCapability(gs, attacker, keyword.Menace) {
			blockerID := group.blockers[0]
			group.blockers = nil
			if blocker, ok := gs.cards[blockerID]; ok {
				gs.addMessage(fmt.Sprintf("%s cannot block %s alone (menace)", blocker.Name, attacker.Name), "combat")
			}
		}
	}
	gs.combat.blockersLocked = true
}

// pendingDamage is one damage assignment waiting to be applied. All
// assignments of a damage sub-step are computed first and applied
// together, so simultaneous damage is order-independent.
type pendingDamage struct {
	sourceID string
	targetID string // card ID, or "" when toPlayer is set
	playerID string
	amount   int
}

// dealCombatDamage runs one damage sub-step. When firstStrike is true
// only first/double strikers assign; in the normal sub-step first
// strikers without double strike sit out.
func (e *Engine) dealCombatDamage(gs *gameState, firstStrike bool) {
	var pending []pendingDamage

	for _, group := range gs.combat.groups {
		attacker, ok := gs.cards[group.attackerID]
		if !ok || attacker.Zone != ZoneBattlefield {
			continue
		}
		if e.assignsInSubStep(gs, attacker, firstStrike) {
			pending = append(pending, e.assignAttackerDamage(gs, attacker, group)...)
		}
		for _, blockerID := range group.blockers {
			blocker, ok := gs.cards[blockerID]
			if !ok || blocker.Zone != ZoneBattlefield {
				continue
			}
			if !e.assignsInSubStep(gs, blocker, firstStrike) {
				continue
			}
			power := e.effectivePower(gs, blocker)
			if power > 0 {
				pending = append(pending, pendingDamage{
					sourceID: blockerID,
					targetID: group.attackerID,
					amount:   power,
				})
			}
		}
	}

	if len(pending) == 0 {
		return
	}
	for _, damage := range pending {
		if damage.playerID != "" {
			if player, ok := gs.players[damage.playerID]; ok {
				e.damagePlayer(gs, damage.sourceID, player, damage.amount)
			}
		} else if target, ok := gs.cards[damage.targetID]; ok {
			e.damagePermanent(gs, damage.sourceID, target, damage.amount)
		}
	}
	e.fireEvent(gs, rules.NewEvent(rules.EventCombatDamage, "", "", gs.combat.attackingPlayer))

	e.logger.Debug("combat damage applied",
		zap.String("game_id", gs.id),
		zap.Bool("first_strike", firstStrike),
		zap.Int("assignments", len(pending)),
	)
}

func (e *Engine) assignsInSubStep(gs *gameState, creature *Card, firstStrike bool) bool {
	caps := e.capabilities(gs, creature)
	if firstStrike {
		return caps.Has(keyword.FirstStrike) || caps.Has(keyword.DoubleStrike)
	}
	return !caps.Has(keyword.FirstStrike) || caps.Has(keyword.DoubleStrike)
}

// assignAttackerDamage distributes an attacker's power across its
// blockers in order, lethal to each in turn. With trample the remainder
// after all blockers are assigned lethal carries to the defender;
// without it, any remainder piles onto the last surviving blocker so no
// damage is lost. Deathtouch makes 1 damage lethal.
func (e *Engine) assignAttackerDamage(gs *gameState, attacker *Card, group *combatGroup) []pendingDamage {
	power := e.effectivePower(gs, attacker)
	if power <= 0 {
		return nil
	}
	caps := e.capabilities(gs, attacker)

	var live []*Card
	for _, blockerID := range group.blockers {
		if blocker, ok := gs.cards[blockerID]; ok && blocker.Zone == ZoneBattlefield {
			live = append(live, blocker)
		}
	}

	if len(live) == 0 {
		// Unblocked, or every blocker left combat. Trampling attackers
		// hit the defender either way; a blocked non-trampler whose
		// blockers all died deals no damage.
		blocked := len(group.blockers) > 0
		if blocked && !caps.Has(keyword.Trample) {
			return nil
		}
		return []pendingDamage{e.defenderDamage(group, attacker.ID, power)}
	}

	var pending []pendingDamage
	remaining := power
	for i, blocker := range live {
		lethal := e.effectiveToughness(gs, blocker) - blocker.Damage
		if caps.Has(keyword.Deathtouch) {
			lethal = 1
		}
		if lethal < 1 {
			lethal = 1
		}

		assign := lethal
		if assign > remaining {
			assign = remaining
		}
		last := i == len(live)-1
		if last && !caps.Has(keyword.Trample) {
			assign = remaining
		}
		if assign > 0 {
			pending = append(pending, pendingDamage{
				sourceID: attacker.ID,
				targetID: blocker.ID,
				amount:   assign,
			})
			remaining -= assign
		}
		if remaining <= 0 {
			break
		}
	}
	if remaining > 0 && caps.Has(keyword.Trample) {
		pending = append(pending, e.defenderDamage(group, attacker.ID, remaining))
	}
	return pending
}

func (e *Engine) defenderDamage(group *combatGroup, attackerID string, amount int) pendingDamage {
	if group.walkerID != "" {
		return pendingDamage{sourceID: attackerID, targetID: group.walkerID, amount: amount}
	}
	return pendingDamage{sourceID: attackerID, playerID: group.defenderID, amount: amount}
}

// combatHasStriker reports whether any creature still in combat has
// first or double strike, which decides whether the first strike
// sub-step happens at all.
func (e *Engine) combatHasStriker(gs *gameState) bool {
	for _, group := range gs.combat.groups {
		ids := append([]string{group.attackerID}, group.blockers...)
		for _, id := range ids {
			if card, ok := gs.cards[id]; ok && card.Zone == ZoneBattlefield {
				caps := e.capabilities(gs, card)
				if caps.Has(keyword.FirstStrike) || caps.Has(keyword.DoubleStrike) {
					return true
				}
			}
		}
	}
	return false
}
