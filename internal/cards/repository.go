// Package cards provides card definitions and the repositories that
// store them. Definitions are templates; the engine stamps playable
// copies out of them when decks are built.
package cards

import (
	"context"
	"fmt"
	"strings"

	"github.com/spellground/spellground-go/internal/game"
	"github.com/spellground/spellground-go/internal/game/rules"
)

// Definition is a stored card template. Effect behavior is encoded in
// the structured spec fields, not parsed from rules text.
type Definition struct {
	Name       string
	SetCode    string
	ManaCost   string
	Types      []string
	Supertypes []string
	Colors     []string
	Power      int
	Toughness  int
	Loyalty    int
	Keywords   []string
	RulesText  string
	Spell      []game.EffectSpec
	Activated  []game.ActivatedSpec
	Triggers   []game.TriggerSpec
}

// Spec converts the stored definition into the engine's card spec.
func (d Definition) Spec() game.CardSpec {
	return game.CardSpec{
		Name:       d.Name,
		ManaCost:   d.ManaCost,
		Types:      append([]string(nil), d.Types...),
		Supertypes: append([]string(nil), d.Supertypes...),
		Colors:     append([]string(nil), d.Colors...),
		Power:      d.Power,
		Toughness:  d.Toughness,
		Loyalty:    d.Loyalty,
		Keywords:   append([]string(nil), d.Keywords...),
		Spell:      append([]game.EffectSpec(nil), d.Spell...),
		Activated:  append([]game.ActivatedSpec(nil), d.Activated...),
		Triggers:   append([]game.TriggerSpec(nil), d.Triggers...),
	}
}

// Repository looks up card definitions.
type Repository interface {
	Get(ctx context.Context, name string) (Definition, error)
	List(ctx context.Context) ([]Definition, error)
}

// ErrNotFound wraps a lookup miss with the requested name.
func errNotFound(name string) error {
	return fmt.Errorf("card %q not found", name)
}

// BuildDeck resolves a decklist of "N Card Name" lines against the
// repository and returns the expanded spec list.
func BuildDeck(ctx context.Context, repo Repository, list []string) ([]game.CardSpec, error) {
	var deck []game.CardSpec
	for _, line := range list {
		count := 1
		name := strings.TrimSpace(line)
		if fields := strings.SplitN(name, " ", 2); len(fields) == 2 {
			var n int
			if _, err := fmt.Sscanf(fields[0], "%d", &n); err == nil && n > 0 {
				count = n
				name = strings.TrimSpace(fields[1])
			}
		}
		def, err := repo.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		for i := 0; i < count; i++ {
			deck = append(deck, def.Spec())
		}
	}
	return deck, nil
}

// basicLand builds a definition for a basic land producing one mana.
func basicLand(name, color string) Definition {
	return Definition{
		Name:       name,
		Types:      []string{game.TypeLand},
		Supertypes: []string{"Basic"},
		RulesText:  fmt.Sprintf("T: Add %s.", color),
		Activated: []game.ActivatedSpec{{
			Description: "Add " + color,
			TapCost:     true,
			ManaAbility: true,
			Effects: []game.EffectSpec{{
				Kind:     game.EffectAddMana,
				ManaType: color,
				Amount:   1,
			}},
		}},
	}
}

// seedDefinitions is the built-in card set used when no database is
// configured. It covers the mechanics the engine implements: keyword
// creatures, burn, counterspells, pumps, auras, tokens and triggers.
func seedDefinitions() []Definition {
	return []Definition{
		basicLand("Plains", "W"),
		basicLand("Island", "U"),
		basicLand("Swamp", "B"),
		basicLand("Mountain", "R"),
		basicLand("Forest", "G"),
		{
			Name:     "Grizzly Bears",
			ManaCost: "1G",
			Types:    []string{game.TypeCreature},
			Colors:   []string{"G"}, Power: 2, Toughness: 2,
		},
		{
			Name:     "Hill Giant",
			ManaCost: "3R",
			Types:    []string{game.TypeCreature},
			Colors:   []string{"R"}, Power: 3, Toughness: 3,
		},
		{
			Name:     "Serra Angel",
			ManaCost: "3WW",
			Types:    []string{game.TypeCreature},
			Colors:   []string{"W"}, Power: 4, Toughness: 4,
			Keywords: []string{"Flying", "Vigilance"},
		},
		{
			Name:     "Shivan Dragon",
			ManaCost: "4RR",
			Types:    []string{game.TypeCreature},
			Colors:   []string{"R"}, Power: 5, Toughness: 5,
			Keywords: []string{"Flying"},
		},
		{
			Name:     "Craw Wurm",
			ManaCost: "4GG",
			Types:    []string{game.TypeCreature},
			Colors:   []string{"G"}, Power: 6, Toughness: 4,
			Keywords: []string{"Trample"},
		},
		{
			Name:     "Typhoid Rats",
			ManaCost: "B",
			Types:    []string{game.TypeCreature},
			Colors:   []string{"B"}, Power: 1, Toughness: 1,
			Keywords: []string{"Deathtouch"},
		},
		{
			Name:     "White Knight",
			ManaCost: "WW",
			Types:    []string{game.TypeCreature},
			Colors:   []string{"W"}, Power: 2, Toughness: 2,
			Keywords: []string{"FirstStrike"},
		},
		{
			Name:     "Boros Swiftblade",
			ManaCost: "RW",
			Types:    []string{game.TypeCreature},
			Colors:   []string{"R", "W"}, Power: 1, Toughness: 2,
			Keywords: []string{"DoubleStrike"},
		},
		{
			Name:     "Vampire Nighthawk",
			ManaCost: "1BB",
			Types:    []string{game.TypeCreature},
			Colors:   []string{"B"}, Power: 2, Toughness: 3,
			Keywords: []string{"Flying", "Deathtouch", "Lifelink"},
		},
		{
			Name:     "Goblin Warchief",
			ManaCost: "1RR",
			Types:    []string{game.TypeCreature},
			Colors:   []string{"R"}, Power: 2, Toughness: 2,
			Keywords: []string{"Haste"},
		},
		{
			Name:     "Wall of Stone",
			ManaCost: "1RR",
			Types:    []string{game.TypeCreature},
			Colors:   []string{"R"}, Power: 0, Toughness: 8,
			Keywords: []string{"Defender"},
		},
		{
			Name:     "Boggart Brute",
			ManaCost: "2R",
			Types:    []string{game.TypeCreature},
			Colors:   []string{"R"}, Power: 3, Toughness: 2,
			Keywords: []string{"Menace"},
		},
		{
			Name:      "Lightning Bolt",
			ManaCost:  "R",
			Types:     []string{game.TypeInstant},
			Colors:    []string{"R"},
			RulesText: "Deal 3 damage to any target.",
			Spell:     []game.EffectSpec{{Kind: game.EffectDamage, Amount: 3}},
		},
		{
			Name:      "Lava Axe",
			ManaCost:  "4R",
			Types:     []string{game.TypeSorcery},
			Colors:    []string{"R"},
			RulesText: "Deal 5 damage to target player.",
			Spell:     []game.EffectSpec{{Kind: game.EffectDamage, Amount: 5}},
		},
		{
			Name:      "Cancel",
			ManaCost:  "1UU",
			Types:     []string{game.TypeInstant},
			Colors:    []string{"U"},
			RulesText: "Counter target spell.",
			Spell:     []game.EffectSpec{{Kind: game.EffectCounterSpell}},
		},
		{
			Name:      "Divination",
			ManaCost:  "2U",
			Types:     []string{game.TypeSorcery},
			Colors:    []string{"U"},
			RulesText: "Draw two cards.",
			Spell:     []game.EffectSpec{{Kind: game.EffectDraw, Amount: 2}},
		},
		{
			Name:      "Giant Growth",
			ManaCost:  "G",
			Types:     []string{game.TypeInstant},
			Colors:    []string{"G"},
			RulesText: "Target creature gets +3/+3 until end of turn.",
			Spell:     []game.EffectSpec{{Kind: game.EffectBoost, Power: 3, Toughness: 3}},
		},
		{
			Name:      "Doom Blade",
			ManaCost:  "1B",
			Types:     []string{game.TypeInstant},
			Colors:    []string{"B"},
			RulesText: "Destroy target creature.",
			Spell:     []game.EffectSpec{{Kind: game.EffectDestroy}},
		},
		{
			Name:      "Holy Strength",
			ManaCost:  "W",
			Types:     []string{game.TypeEnchantment, game.TypeAura},
			Colors:    []string{"W"},
			RulesText: "Enchanted creature gets +1/+2.",
			Spell:     []game.EffectSpec{{Kind: game.EffectBoost, Power: 1, Toughness: 2}},
		},
		{
			Name:      "Raise the Alarm",
			ManaCost:  "1W",
			Types:     []string{game.TypeInstant},
			Colors:    []string{"W"},
			RulesText: "Create two 1/1 white Soldier creature tokens.",
			Spell: []game.EffectSpec{
				{Kind: game.EffectCreateToken, Token: soldierToken()},
				{Kind: game.EffectCreateToken, Token: soldierToken()},
			},
		},
		{
			Name:      "Ajani's Pridemate",
			ManaCost:  "1W",
			Types:     []string{game.TypeCreature},
			Colors:    []string{"W"}, Power: 2, Toughness: 2,
			RulesText: "Whenever you gain life, put a +1/+1 counter on this creature.",
			Triggers: []game.TriggerSpec{{
				Description: "Ajani's Pridemate grows",
				Event:       rules.EventLifeGained,
				TargetSelf:  true,
				Effects: []game.EffectSpec{{
					Kind:        game.EffectAddCounters,
					CounterKind: "+1/+1",
					Amount:      1,
				}},
			}},
		},
	}
}

func soldierToken() *game.CardSpec {
	return &game.CardSpec{
		Name:   "Soldier",
		Types:  []string{game.TypeCreature},
		Colors: []string{"W"},
		Power:  1, Toughness: 1,
	}
}
