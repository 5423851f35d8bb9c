package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spellground/spellground-go/internal/game/counters"
	"github.com/spellground/spellground-go/internal/game/rules"
)

// moveCard performs an atomic zone transition. It removes the card from
// its current zone collection, runs the leave-battlefield cleanup when
// applicable, appends the card to the destination and fires the zone
// change event. A card never appears in two zones, and losing the
// battlefield means losing attachments, counters marked damage, combat
// participation and every effect or trigger the card sourced.
func (e *Engine) moveCard(gs *gameState, card *Card, to Zone) {
	from := card.Zone
	if from == to {
		return
	}

	e.removeFromZone(gs, card)

	if from == ZoneBattlefield {
		e.leaveBattlefield(gs, card)
	}

	// Tokens cease to exist anywhere but the battlefield. The zone
	// change event still fires so leave-battlefield triggers see it.
	if card.Token && to != ZoneBattlefield {
		card.Zone = to
		e.fireEvent(gs, rules.NewEvent(rules.EventZoneChange, card.ID, card.ID, card.ControllerID))
		if from == ZoneBattlefield {
			e.fireEvent(gs, rules.NewEvent(rules.EventLeavesBattle, card.ID, card.ID, card.ControllerID))
		}
		delete(gs.cards, card.ID)
		gs.addMessage(fmt.Sprintf("Token %s ceases to exist", card.Name), "zone")
		return
	}

	card.Zone = to
	e.addToZone(gs, card, to)

	if to == ZoneBattlefield {
		e.enterBattlefield(gs, card)
	}

	e.fireEvent(gs, rules.NewEvent(rules.EventZoneChange, card.ID, card.ID, card.ControllerID))
	if from == ZoneBattlefield {
		e.fireEvent(gs, rules.NewEvent(rules.EventLeavesBattle, card.ID, card.ID, card.ControllerID))
		if to == ZoneGraveyard && card.hasType(TypeCreature) {
			e.fireEvent(gs, rules.NewEvent(rules.EventPermanentDied, card.ID, card.ID, card.ControllerID))
		}
	}
}

func (e *Engine) removeFromZone(gs *gameState, card *Card) {
	switch card.Zone {
	case ZoneBattlefield:
		gs.battlefield = removeID(gs.battlefield, card.ID)
	case ZoneStack:
		// Stack items carry their own card ID; removal from the stack
		// manager happens at resolve/counter time, not here.
	default:
		owner := gs.players[card.OwnerID]
		if owner == nil {
			return
		}
		switch card.Zone {
		case ZoneLibrary:
			owner.Library = removeID(owner.Library, card.ID)
		case ZoneHand:
			owner.Hand = removeID(owner.Hand, card.ID)
		case ZoneGraveyard:
			owner.Graveyard = removeID(owner.Graveyard, card.ID)
		case ZoneExile:
			owner.Exile = removeID(owner.Exile, card.ID)
		case ZoneCommand:
			owner.Command = removeID(owner.Command, card.ID)
		}
	}
}

func (e *Engine) addToZone(gs *gameState, card *Card, zone Zone) {
	switch zone {
	case ZoneBattlefield:
		gs.battlefield = append(gs.battlefield, card.ID)
	case ZoneStack:
		// tracked by the stack manager
	default:
		owner := gs.players[card.OwnerID]
		if owner == nil {
			return
		}
		switch zone {
		case ZoneLibrary:
			owner.Library = append(owner.Library, card.ID)
		case ZoneHand:
			owner.Hand = append(owner.Hand, card.ID)
		case ZoneGraveyard:
			owner.Graveyard = append(owner.Graveyard, card.ID)
		case ZoneExile:
			owner.Exile = append(owner.Exile, card.ID)
		case ZoneCommand:
			owner.Command = append(owner.Command, card.ID)
		}
	}
}

func (e *Engine) enterBattlefield(gs *gameState, card *Card) {
	card.SummoningSick = card.hasType(TypeCreature)
	card.Tapped = false
	card.Damage = 0
	card.DeathtouchDamage = false

	if card.hasType(TypePlaneswalker) && card.Spec.Loyalty > 0 {
		card.Counters.Add(counters.Loyalty, card.Spec.Loyalty)
	}

	for _, spec := range card.Spec.Triggers {
		e.registerCardTrigger(gs, card, spec)
	}

	gs.addMessage(fmt.Sprintf("%s enters the battlefield under %s's control", card.Name, card.ControllerID), "zone")
	e.fireEvent(gs, rules.NewEvent(rules.EventEntersBattle, card.ID, card.ID, card.ControllerID))
}

// leaveBattlefield undoes everything battlefield presence implies:
// combat records, sourced effects and triggers, attachments in both
// directions, and object state. Control reverts to the owner.
func (e *Engine) leaveBattlefield(gs *gameState, card *Card) {
	gs.combat.removeFromCombat(card.ID)
	gs.layers.RemoveBySource(card.ID)
	gs.triggers.UnregisterBySource(card.ID)

	if card.AttachedTo != "" {
		if host, ok := gs.cards[card.AttachedTo]; ok {
			host.Attachments = removeID(host.Attachments, card.ID)
		}
		card.AttachedTo = ""
	}
	for _, attachmentID := range card.Attachments {
		if attachment, ok := gs.cards[attachmentID]; ok {
			attachment.AttachedTo = ""
		}
	}
	card.Attachments = nil

	card.Tapped = false
	card.SummoningSick = false
	card.Damage = 0
	card.DeathtouchDamage = false
	card.Counters = counters.NewCounters()
	card.ControllerID = card.OwnerID
}

// registerCardTrigger wires a card's printed triggered ability into the
// trigger manager. SelfOnly triggers filter on the card itself being the
// event subject.
func (e *Engine) registerCardTrigger(gs *gameState, card *Card, spec TriggerSpec) {
	cardID := card.ID
	trigger := rules.Trigger{
		SourceID:    cardID,
		Controller:  card.ControllerID,
		EventType:   spec.Event,
		OncePerTurn: spec.OncePerTurn,
		Build: func(event rules.Event) rules.StackItem {
			source := gs.cards[cardID]
			effectSpecs := spec.Effects
			description := spec.Description
			if description == "" && source != nil {
				description = source.Name
			}
			controller := card.ControllerID
			if source != nil {
				controller = source.ControllerID
			}
			return rules.StackItem{
				ID:          uuid.NewString(),
				Controller:  controller,
				Description: description,
				Kind:        rules.StackItemKindTriggered,
				SourceID:    cardID,
				Resolve: func() error {
					var targets []string
					if spec.TargetSelf {
						targets = []string{cardID}
					}
					return e.executeEffects(gs, cardID, controller, effectSpecs, targets)
				},
			}
		},
	}
	if spec.SelfOnly {
		trigger.Condition = func(event rules.Event) bool {
			return event.TargetID == cardID || event.SourceID == cardID
		}
	}
	gs.triggers.Register(trigger)
}

// drawCard moves the top library card to its owner's hand. Drawing from
// an empty library does not fail in place; it flags the player, and the
// next state-based action check removes them from the game.
func (e *Engine) drawCard(gs *gameState, player *Player) {
	if len(player.Library) == 0 {
		player.DrewFromEmpty = true
		gs.addMessage(fmt.Sprintf("%s attempts to draw from an empty library", player.Name), "draw")
		return
	}
	cardID := player.Library[len(player.Library)-1]
	card := gs.cards[cardID]
	e.moveCard(gs, card, ZoneHand)
	e.fireEvent(gs, rules.NewEvent(rules.EventDrawCard, cardID, "", player.ID))
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
