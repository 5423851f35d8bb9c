package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spellground/spellground-go/internal/game/effects"
	"github.com/spellground/spellground-go/internal/game/keyword"
	"github.com/spellground/spellground-go/internal/game/mana"
	"github.com/spellground/spellground-go/internal/game/rules"
	"go.uber.org/zap"
)

// PlayLand plays a land from the player's hand. Lands never use the
// stack: the player must hold priority in one of their own main phases
// with the stack empty, and gets one land per turn.
func (e *Engine) PlayLand(gameID, playerID, cardID string) error {
	gs, err := e.getGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.status != StatusInProgress {
		return ruleErrorf("game is over")
	}
	player, err := gs.player(playerID)
	if err != nil {
		return err
	}
	card, err := gs.card(cardID)
	if err != nil {
		return err
	}
	if card.Zone != ZoneHand || card.OwnerID != playerID {
		return ruleErrorf("%s is not in %s's hand", card.Name, playerID)
	}
	if !card.isLand() {
		return ruleErrorf("%s is not a land", card.Name)
	}
	if gs.turns.ActivePlayer() != playerID || gs.turns.PriorityPlayer() != playerID {
		return ruleErrorf("%s does not have priority on their own turn", playerID)
	}
	if !gs.turns.InMainPhase() || !gs.stack.IsEmpty() {
		return ruleErrorf("lands can only be played in a main phase with an empty stack")
	}
	if player.LandPlayed {
		return ruleErrorf("%s already played a land this turn", playerID)
	}

	player.LandPlayed = true
	e.moveCard(gs, card, ZoneBattlefield)
	gs.addMessage(fmt.Sprintf("%s plays %s", player.Name, card.Name), "action")
	e.fireEvent(gs, rules.NewEvent(rules.EventLandPlayed, card.ID, card.ID, playerID))
	e.runStateBasedActions(gs)
	e.queueWaitingTriggers(gs)

	e.logger.Debug("land played",
		zap.String("game_id", gameID),
		zap.String("player_id", playerID),
		zap.String("card", card.Name),
	)
	return nil
}

// CastSpell casts a card from hand: timing check, target validation,
// cost payment from the caster's pool, then onto the stack. The caster
// keeps priority after casting.
func (e *Engine) CastSpell(gameID, playerID, cardID string, targets []string) error {
	gs, err := e.getGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.status != StatusInProgress {
		return ruleErrorf("game is over")
	}
	player, err := gs.player(playerID)
	if err != nil {
		return err
	}
	card, err := gs.card(cardID)
	if err != nil {
		return err
	}
	if card.Zone != ZoneHand || card.OwnerID != playerID {
		return ruleErrorf("%s is not in %s's hand", card.Name, playerID)
	}
	if card.isLand() {
		return ruleErrorf("lands are played, not cast")
	}
	if gs.turns.PriorityPlayer() != playerID {
		return ruleErrorf("%s does not have priority", playerID)
	}
	if card.requiresSorcerySpeed() {
		if gs.turns.ActivePlayer() != playerID || !gs.turns.InMainPhase() || !gs.stack.IsEmpty() {
			return ruleErrorf("%s can only be cast in your main phase with an empty stack", card.Name)
		}
	}
	if err := e.validateTargets(gs, card, targets); err != nil {
		return err
	}

	cost, err := mana.ParseCost(card.ManaCost)
	if err != nil {
		return ruleErrorf("bad mana cost on %s: %v", card.Name, err)
	}
	if err := player.Pool.Pay(cost); err != nil {
		return ruleErrorf("cannot pay %s for %s: %v", card.ManaCost, card.Name, err)
	}

	e.moveCard(gs, card, ZoneStack)

	boundTargets := append([]string(nil), targets...)
	item := rules.StackItem{
		ID:          uuid.NewString(),
		Controller:  playerID,
		Description: card.Name,
		Kind:        rules.StackItemKindSpell,
		SourceID:    cardID,
		Targets:     boundTargets,
		Resolve: func() error {
			return e.resolveSpell(gs, cardID, playerID, boundTargets)
		},
		OnRemove: func() {
			// Countered or otherwise removed from the stack: the card
			// goes to its owner's graveyard without resolving.
			if spellCard, ok := gs.cards[cardID]; ok && spellCard.Zone == ZoneStack {
				e.moveCard(gs, spellCard, ZoneGraveyard)
			}
		},
	}
	gs.stack.Push(item)
	gs.resetPassed()
	gs.turns.SetPriority(playerID)

	gs.addMessage(fmt.Sprintf("%s casts %s", player.Name, card.Name), "action")
	e.fireEvent(gs, rules.NewEvent(rules.EventSpellCast, item.ID, cardID, playerID))
	e.fireEvent(gs, rules.NewEvent(rules.EventStackItemPushed, item.ID, cardID, playerID))
	e.queueWaitingTriggers(gs)

	e.logger.Debug("spell cast",
		zap.String("game_id", gameID),
		zap.String("player_id", playerID),
		zap.String("card", card.Name),
		zap.Int("stack_size", gs.stack.Size()),
	)
	return nil
}

// validateTargets checks declared targets against the card's effect
// requirements at cast time. Targets are re-checked at resolution; a
// spell whose targets all became illegal fizzles.
func (e *Engine) validateTargets(gs *gameState, card *Card, targets []string) error {
	required := 0
	for _, spec := range card.Spec.Spell {
		if spec.needsTarget() {
			required++
		}
	}
	if card.isAura() {
		required = 1
	}
	if len(targets) != required {
		return ruleErrorf("%s requires %d target(s), got %d", card.Name, required, len(targets))
	}
	for _, targetID := range targets {
		if err := e.checkTargetLegal(gs, card, targetID); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) checkTargetLegal(gs *gameState, card *Card, targetID string) error {
	if _, ok := gs.players[targetID]; ok {
		if card.isAura() {
			return ruleErrorf("%s can only enchant a permanent", card.Name)
		}
		return nil
	}
	target, ok := gs.cards[targetID]
	if !ok {
		// counterspells target stack items by item ID
		if _, found := gs.stack.Find(targetID); found {
			return nil
		}
		return ruleErrorf("target %s does not exist", targetID)
	}
	if target.Zone == ZoneBattlefield {
		return nil
	}
	if target.Zone == ZoneStack {
		// counterspell targets
		return nil
	}
	return ruleErrorf("%s is not a legal target", target.Name)
}

// resolveSpell resolves the top spell: permanents enter the battlefield,
// everything else executes its effects and goes to the graveyard. A
// spell whose every target became illegal fizzles to the graveyard
// without effect.
func (e *Engine) resolveSpell(gs *gameState, cardID, controllerID string, targets []string) error {
	card, ok := gs.cards[cardID]
	if !ok {
		return invariantf("spell card %s vanished while on the stack", cardID)
	}

	if card.isPermanentType() {
		if card.isAura() {
			return e.resolveAura(gs, card, targets)
		}
		e.moveCard(gs, card, ZoneBattlefield)
		return nil
	}

	if len(targets) > 0 {
		live := targets[:0:0]
		for _, targetID := range targets {
			if e.targetStillLegal(gs, targetID) {
				live = append(live, targetID)
			}
		}
		if len(live) == 0 {
			gs.addMessage(fmt.Sprintf("%s fizzles, all targets are illegal", card.Name), "resolve")
			e.moveCard(gs, card, ZoneGraveyard)
			return nil
		}
		targets = live
	}

	err := e.executeEffects(gs, cardID, controllerID, card.Spec.Spell, targets)
	e.moveCard(gs, card, ZoneGraveyard)
	return err
}

func (e *Engine) resolveAura(gs *gameState, card *Card, targets []string) error {
	if len(targets) == 0 || !e.targetStillLegal(gs, targets[0]) {
		gs.addMessage(fmt.Sprintf("%s fizzles, its target is gone", card.Name), "resolve")
		e.moveCard(gs, card, ZoneGraveyard)
		return nil
	}
	host := gs.cards[targets[0]]
	e.moveCard(gs, card, ZoneBattlefield)
	card.AttachedTo = host.ID
	host.Attachments = append(host.Attachments, card.ID)
	e.applyStaticEffects(gs, card, host.ID)
	gs.addMessage(fmt.Sprintf("%s enchants %s", card.Name, host.Name), "resolve")
	return nil
}

// applyStaticEffects registers an aura or equipment's printed effects on
// its host as permanent continuous effects sourced by the attachment.
func (e *Engine) applyStaticEffects(gs *gameState, source *Card, hostID string) {
	for _, spec := range source.Spec.Spell {
		switch spec.Kind {
		case EffectBoost:
			gs.layers.Add(effects.NewPTBoost(source.ID, hostID, spec.Power, spec.Toughness, effects.DurationPermanent))
		case EffectGrantKeyword:
			if capability, err := keyword.Parse(spec.Keyword); err == nil {
				gs.layers.Add(effects.NewGrantCapability(source.ID, hostID, capability, effects.DurationPermanent))
			}
		}
	}
}

func (e *Engine) targetStillLegal(gs *gameState, targetID string) bool {
	if _, ok := gs.players[targetID]; ok {
		return !gs.players[targetID].Lost
	}
	target, ok := gs.cards[targetID]
	if !ok {
		_, found := gs.stack.Find(targetID)
		return found
	}
	return target.Zone == ZoneBattlefield || target.Zone == ZoneStack
}

// executeEffects runs a spell or ability's effect list in order.
// Targeted effects consume targets front to back. A failing effect is
// logged and skipped; the item still counts as resolved.
func (e *Engine) executeEffects(gs *gameState, sourceID, controllerID string, specs []EffectSpec, targets []string) error {
	controller, err := gs.player(controllerID)
	if err != nil {
		return err
	}
	nextTarget := func() string {
		if len(targets) == 0 {
			return ""
		}
		target := targets[0]
		targets = targets[1:]
		return target
	}

	for _, spec := range specs {
		var targetID string
		if spec.needsTarget() {
			targetID = nextTarget()
			if targetID == "" || !e.targetStillLegal(gs, targetID) {
				continue
			}
		}
		switch spec.Kind {
		case EffectDamage:
			if player, ok := gs.players[targetID]; ok {
				e.damagePlayer(gs, sourceID, player, spec.Amount)
			} else if target, ok := gs.cards[targetID]; ok {
				e.damagePermanent(gs, sourceID, target, spec.Amount)
			}
		case EffectGainLife:
			e.gainLife(gs, sourceID, controller, spec.Amount)
		case EffectLoseLife:
			if player, ok := gs.players[targetID]; ok {
				player.Life -= spec.Amount
				gs.addMessage(fmt.Sprintf("%s loses %d life (life %d)", player.Name, spec.Amount, player.Life), "life")
				e.fireEvent(gs, rules.NewEventWithAmount(rules.EventLifeLost, player.ID, sourceID, player.ID, spec.Amount))
			}
		case EffectDraw:
			for i := 0; i < spec.Amount; i++ {
				e.drawCard(gs, controller)
			}
		case EffectBoost:
			if target, ok := gs.cards[targetID]; ok && target.Zone == ZoneBattlefield {
				gs.layers.Add(effects.NewPTBoost(sourceID, target.ID, spec.Power, spec.Toughness, effects.DurationEndOfTurn))
			}
		case EffectGrantKeyword:
			if target, ok := gs.cards[targetID]; ok && target.Zone == ZoneBattlefield {
				if capability, err := keyword.Parse(spec.Keyword); err == nil {
					gs.layers.Add(effects.NewGrantCapability(sourceID, target.ID, capability, effects.DurationEndOfTurn))
				}
			}
		case EffectCounterSpell:
			counterTargetID := targetID
			if _, onStack := gs.stack.Find(counterTargetID); !onStack {
				// the target may be addressed by its spell card
				for _, item := range gs.stack.List() {
					if item.SourceID == targetID {
						counterTargetID = item.ID
						break
					}
				}
			}
			if countered, ok := gs.stack.Counter(counterTargetID); ok {
				gs.addMessage(fmt.Sprintf("%s is countered", countered.Description), "resolve")
				e.fireEvent(gs, rules.NewEvent(rules.EventStackItemCountered, targetID, sourceID, controllerID))
			}
		case EffectDestroy:
			if target, ok := gs.cards[targetID]; ok && target.Zone == ZoneBattlefield {
				gs.addMessage(fmt.Sprintf("%s is destroyed", target.Name), "resolve")
				e.moveCard(gs, target, ZoneGraveyard)
			}
		case EffectAddMana:
			if manaType, err := mana.ParseType(spec.ManaType); err == nil {
				controller.Pool.Add(manaType, maxInt(spec.Amount, 1))
			}
		case EffectCreateToken:
			if spec.Token != nil {
				e.createToken(gs, controllerID, *spec.Token)
			}
		case EffectAddCounters:
			if target, ok := gs.cards[targetID]; ok && target.Zone == ZoneBattlefield {
				target.Counters.Add(spec.CounterKind, maxInt(spec.Amount, 1))
				e.fireEvent(gs, rules.NewEventWithAmount(rules.EventCounterAdded, target.ID, sourceID, controllerID, spec.Amount))
			}
		default:
			e.logger.Warn("unknown effect kind skipped",
				zap.String("game_id", gs.id),
				zap.String("kind", string(spec.Kind)),
			)
		}
	}
	return nil
}

func (e *Engine) createToken(gs *gameState, controllerID string, spec CardSpec) *Card {
	spec.Token = true
	token := e.newCardFromSpec(spec, controllerID)
	token.Zone = ZoneBattlefield
	gs.cards[token.ID] = token
	gs.battlefield = append(gs.battlefield, token.ID)
	e.enterBattlefield(gs, token)
	gs.addMessage(fmt.Sprintf("%s creates a %s token", controllerID, token.Name), "token")
	e.fireEvent(gs, rules.NewEvent(rules.EventTokenCreated, token.ID, token.ID, controllerID))
	return token
}

// ActivateAbility activates one of a permanent's printed abilities.
// Mana abilities resolve immediately without the stack; everything else
// becomes a stack item.
func (e *Engine) ActivateAbility(gameID, playerID, cardID string, abilityIndex int, targets []string) error {
	gs, err := e.getGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.status != StatusInProgress {
		return ruleErrorf("game is over")
	}
	player, err := gs.player(playerID)
	if err != nil {
		return err
	}
	card, err := gs.card(cardID)
	if err != nil {
		return err
	}
	if card.Zone != ZoneBattlefield {
		return ruleErrorf("%s is not on the battlefield", card.Name)
	}
	if e.controllerOf(gs, card) != playerID {
		return ruleErrorf("%s does not control %s", playerID, card.Name)
	}
	if abilityIndex < 0 || abilityIndex >= len(card.Spec.Activated) {
		return ruleErrorf("%s has no ability %d", card.Name, abilityIndex)
	}
	ability := card.Spec.Activated[abilityIndex]

	if !ability.ManaAbility && gs.turns.PriorityPlayer() != playerID {
		return ruleErrorf("%s does not have priority", playerID)
	}
	if ability.TapCost {
		if card.Tapped {
			return ruleErrorf("%s is already tapped", card.Name)
		}
		if card.SummoningSick && e.isCreature(gs, card) && !e.hasCapability(gs, card, keyword.Haste) {
			return ruleErrorf("%s has summoning sickness", card.Name)
		}
	}
	if ability.Cost != "" {
		cost, err := mana.ParseCost(ability.Cost)
		if err != nil {
			return ruleErrorf("bad ability cost on %s: %v", card.Name, err)
		}
		if err := player.Pool.Pay(cost); err != nil {
			return ruleErrorf("cannot pay %s: %v", ability.Cost, err)
		}
	}
	if ability.TapCost {
		card.Tapped = true
		e.fireEvent(gs, rules.NewEvent(rules.EventTapped, card.ID, card.ID, playerID))
	}

	if ability.ManaAbility {
		// Mana abilities do not use the stack and resolve at once.
		if err := e.executeEffects(gs, cardID, playerID, ability.Effects, targets); err != nil {
			return err
		}
		gs.addMessage(fmt.Sprintf("%s activates %s", player.Name, describeAbility(card, ability)), "action")
		return nil
	}

	effectSpecs := ability.Effects
	boundTargets := append([]string(nil), targets...)
	item := rules.StackItem{
		ID:          uuid.NewString(),
		Controller:  playerID,
		Description: describeAbility(card, ability),
		Kind:        rules.StackItemKindActivated,
		SourceID:    cardID,
		Targets:     boundTargets,
		Resolve: func() error {
			return e.executeEffects(gs, cardID, playerID, effectSpecs, boundTargets)
		},
	}
	gs.stack.Push(item)
	gs.resetPassed()
	gs.turns.SetPriority(playerID)

	gs.addMessage(fmt.Sprintf("%s activates %s", player.Name, item.Description), "action")
	e.fireEvent(gs, rules.NewEvent(rules.EventStackItemPushed, item.ID, cardID, playerID))
	e.queueWaitingTriggers(gs)
	return nil
}

func describeAbility(card *Card, ability ActivatedSpec) string {
	if ability.Description != "" {
		return fmt.Sprintf("%s: %s", card.Name, ability.Description)
	}
	return card.Name
}

// Concede removes a player from the game immediately. Concession does
// not wait for priority or state-based actions; the losing check runs
// right away so the game can end.
func (e *Engine) Concede(gameID, playerID string) error {
	gs, err := e.getGame(gameID)
	if err != nil {
		return err
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	player, err := gs.player(playerID)
	if err != nil {
		return err
	}
	if player.Lost {
		return ruleErrorf("%s already lost", playerID)
	}
	player.Conceded = true
	gs.addMessage(fmt.Sprintf("%s concedes", player.Name), "game")
	e.runStateBasedActions(gs)
	e.notify(Notification{Type: "PLAYER_CONCEDED", GameID: gameID, PlayerID: playerID})
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
