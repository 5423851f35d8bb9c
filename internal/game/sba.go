package game

import (
	"fmt"

	"github.com/spellground/spellground-go/internal/game/counters"
	"github.com/spellground/spellground-go/internal/game/rules"
	"go.uber.org/zap"
)

// runStateBasedActions checks and applies state-based actions until a
// round finds nothing to do. Each round inspects the whole game state
// first and then applies everything it found as one batch, so two
// creatures that have dealt lethal damage to each other both die. The
// loop is a fixpoint: applying a round can expose new violations (a dead
// aura host orphans the aura), so it repeats until clean.
func (e *Engine) runStateBasedActions(gs *gameState) {
	for rounds := 0; ; rounds++ {
		if rounds > 100 {
			e.logger.Error("state-based actions did not converge",
				zap.String("game_id", gs.id),
			)
			return
		}
		if !e.stateBasedRound(gs) {
			break
		}
	}
	e.checkGameOver(gs)
	e.fireEvent(gs, rules.NewEvent(rules.EventStateBasedActions, "", "", ""))
}

// stateBasedRound performs one inspect-then-apply round. Returns true
// if anything changed.
func (e *Engine) stateBasedRound(gs *gameState) bool {
	var (
		losers    []*Player
		dead      []*Card
		ceased    []*Card
		orphans   []*Card
		unattach  []*Card
		annihilat []*Card
	)

	for _, playerID := range gs.playerOrder {
		player := gs.players[playerID]
		if player.Lost {
			continue
		}
		switch {
		case player.Conceded:
			losers = append(losers, player)
		case player.Life <= 0:
			losers = append(losers, player)
		case player.Poison >= PoisonThreshold:
			losers = append(losers, player)
		case player.DrewFromEmpty:
			losers = append(losers, player)
		}
	}

	legendKeep := make(map[string]bool)
	for _, cardID := range gs.battlefield {
		card := gs.cards[cardID]
		snapshot := e.evaluate(gs, card)

		if snapshot.HasType(TypeCreature) {
			toughness := snapshot.Toughness
			plus := card.Counters.Count(counters.PlusOnePlusOne)
			minus := card.Counters.Count(counters.MinusOneMinusOne)
			if plus > 0 && minus > 0 {
				annihilat = append(annihilat, card)
			}
			switch {
			case toughness <= 0:
				dead = append(dead, card)
			case card.Damage >= toughness:
				dead = append(dead, card)
			case card.DeathtouchDamage && card.Damage > 0:
				dead = append(dead, card)
			}
		}

		if snapshot.HasType(TypePlaneswalker) && card.Counters.Count(counters.Loyalty) <= 0 {
			dead = append(dead, card)
		}

		if card.isLegendary() {
			// Legend rule: keep the earliest copy by battlefield order,
			// the rest go to their owners' graveyards. Grouping uses the
			// layered controller, so a stolen legend counts against its
			// current controller.
			key := snapshot.ControllerID + "/" + card.Name
			if legendKeep[key] {
				dead = append(dead, card)
			} else {
				legendKeep[key] = true
			}
		}

		if card.isAura() {
			host, ok := gs.cards[card.AttachedTo]
			if card.AttachedTo == "" || !ok || host.Zone != ZoneBattlefield {
				orphans = append(orphans, card)
			}
		}
		if card.isEquipment() && card.AttachedTo != "" {
			host, ok := gs.cards[card.AttachedTo]
			if !ok || host.Zone != ZoneBattlefield || !e.evaluate(gs, host).HasType(TypeCreature) {
				unattach = append(unattach, card)
			}
		}
	}

	for _, card := range gs.cards {
		if card.Token && card.Zone != ZoneBattlefield && card.Zone != ZoneStack {
			ceased = append(ceased, card)
		}
	}

	changed := false
	for _, player := range losers {
		player.Lost = true
		changed = true
		gs.addMessage(fmt.Sprintf("%s loses the game", player.Name), "game")
		e.removeLoserObjects(gs, player)
	}
	for _, card := range annihilat {
		if pairs := card.Counters.AnnihilatePlusMinus(); pairs > 0 {
			changed = true
			gs.addMessage(fmt.Sprintf("%d +1/+1 and -1/-1 counters annihilate on %s", pairs, card.Name), "sba")
		}
	}
	seen := make(map[string]bool)
	for _, card := range dead {
		if seen[card.ID] || card.Zone != ZoneBattlefield {
			continue
		}
		seen[card.ID] = true
		changed = true
		gs.addMessage(fmt.Sprintf("%s dies", card.Name), "sba")
		e.moveCard(gs, card, ZoneGraveyard)
	}
	for _, card := range orphans {
		if seen[card.ID] || card.Zone != ZoneBattlefield {
			continue
		}
		seen[card.ID] = true
		changed = true
		gs.addMessage(fmt.Sprintf("%s is put into the graveyard (nothing to enchant)", card.Name), "sba")
		e.moveCard(gs, card, ZoneGraveyard)
	}
	for _, card := range unattach {
		if card.AttachedTo == "" {
			continue
		}
		changed = true
		if host, ok := gs.cards[card.AttachedTo]; ok {
			host.Attachments = removeID(host.Attachments, card.ID)
		}
		card.AttachedTo = ""
		gs.layers.RemoveBySource(card.ID)
		gs.addMessage(fmt.Sprintf("%s becomes unattached", card.Name), "sba")
	}
	for _, card := range ceased {
		changed = true
		delete(gs.cards, card.ID)
	}

	return changed
}

// removeLoserObjects takes a losing player's objects out of the game:
// their permanents leave the battlefield and their spells leave the
// stack.
func (e *Engine) removeLoserObjects(gs *gameState, player *Player) {
	battlefield := append([]string(nil), gs.battlefield...)
	for _, cardID := range battlefield {
		card := gs.cards[cardID]
		if card != nil && card.ControllerID == player.ID {
			e.moveCard(gs, card, ZoneExile)
		}
	}
	for _, item := range gs.stack.List() {
		if item.Controller == player.ID {
			gs.stack.Counter(item.ID)
		}
	}
}

// checkGameOver ends the game when at most one player remains.
func (e *Engine) checkGameOver(gs *gameState) {
	if gs.status != StatusInProgress {
		return
	}
	var remaining []string
	for _, playerID := range gs.playerOrder {
		if !gs.players[playerID].Lost {
			remaining = append(remaining, playerID)
		}
	}
	if len(remaining) > 1 {
		return
	}
	gs.status = StatusFinished
	if len(remaining) == 1 {
		gs.winner = remaining[0]
		gs.addMessage(fmt.Sprintf("%s wins the game", gs.players[gs.winner].Name), "game")
	} else {
		gs.addMessage("The game is a draw", "game")
	}
	e.fireEvent(gs, rules.NewEvent(rules.EventGameOver, "", "", gs.winner))
	e.notify(Notification{Type: "GAME_OVER", GameID: gs.id, PlayerID: gs.winner})
	e.logger.Info("game over",
		zap.String("game_id", gs.id),
		zap.String("winner", gs.winner),
	)
}
