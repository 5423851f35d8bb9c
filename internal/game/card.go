package game

import (
	"github.com/spellground/spellground-go/internal/game/counters"
	"github.com/spellground/spellground-go/internal/game/keyword"
	"github.com/spellground/spellground-go/internal/game/rules"
)

// Zone identifies where a card currently lives. A card occupies exactly
// one zone at any time; all transitions go through the engine's moveCard.
type Zone int

const (
	ZoneLibrary Zone = iota
	ZoneHand
	ZoneBattlefield
	ZoneGraveyard
	ZoneStack
	ZoneExile
	ZoneCommand
)

var zoneNames = map[Zone]string{
	ZoneLibrary:     "LIBRARY",
	ZoneHand:        "HAND",
	ZoneBattlefield: "BATTLEFIELD",
	ZoneGraveyard:   "GRAVEYARD",
	ZoneStack:       "STACK",
	ZoneExile:       "EXILE",
	ZoneCommand:     "COMMAND",
}

func (z Zone) String() string {
	if name, ok := zoneNames[z]; ok {
		return name
	}
	return "UNKNOWN"
}

// Card type names recognized by the engine.
const (
	TypeCreature     = "Creature"
	TypeLand         = "Land"
	TypeInstant      = "Instant"
	TypeSorcery      = "Sorcery"
	TypeEnchantment  = "Enchantment"
	TypeArtifact     = "Artifact"
	TypePlaneswalker = "Planeswalker"
	TypeAura         = "Aura"
	TypeEquipment    = "Equipment"

	SupertypeLegendary = "Legendary"
)

// EffectKind tags the small effect vocabulary interpreted by the engine
// at resolution time. Effects are data, not captured closures, so
// resolution stays auditable.
type EffectKind string

const (
	EffectDamage       EffectKind = "DAMAGE"        // Amount damage to each target (card or player)
	EffectGainLife     EffectKind = "GAIN_LIFE"     // controller gains Amount life
	EffectLoseLife     EffectKind = "LOSE_LIFE"     // target player loses Amount life
	EffectDraw         EffectKind = "DRAW"          // controller draws Amount cards
	EffectBoost        EffectKind = "BOOST"         // target creature gets +Power/+Toughness until end of turn
	EffectGrantKeyword EffectKind = "GRANT_KEYWORD" // target creature gains Keyword until end of turn
	EffectCounterSpell EffectKind = "COUNTER_SPELL" // counter target stack item
	EffectDestroy      EffectKind = "DESTROY"       // destroy target permanent
	EffectAddMana      EffectKind = "ADD_MANA"      // add Amount mana of ManaType to controller's pool
	EffectCreateToken  EffectKind = "CREATE_TOKEN"  // create Amount token copies of Token
	EffectAddCounters  EffectKind = "ADD_COUNTERS"  // put Amount CounterKind counters on target card
)

// EffectSpec is one tagged effect instruction.
type EffectSpec struct {
	Kind        EffectKind
	Amount      int
	Power       int
	Toughness   int
	Keyword     string
	ManaType    string // mana type name or cost symbol, e.g. "R"
	CounterKind string
	Token       *CardSpec
}

// needsTarget reports whether this effect consumes a target from the
// spell or ability's target list.
func (es EffectSpec) needsTarget() bool {
	switch es.Kind {
	case EffectDamage, EffectLoseLife, EffectBoost, EffectGrantKeyword,
		EffectCounterSpell, EffectDestroy, EffectAddCounters:
		return true
	}
	return false
}

// ActivatedSpec describes an activated ability printed on a card.
type ActivatedSpec struct {
	Description string
	Cost        string // mana cost, "" for free
	TapCost     bool
	ManaAbility bool // mana abilities bypass the stack
	Effects     []EffectSpec
}

// TriggerSpec describes a triggered ability printed on a card.
type TriggerSpec struct {
	Description string
	Event       rules.EventType
	// SelfOnly restricts the trigger to events about the source itself.
	SelfOnly bool
	// TargetSelf aims the ability's targeted effects at the source card.
	TargetSelf  bool
	OncePerTurn bool
	Effects     []EffectSpec
}

// CardSpec is the definition a card is built from. Definitions come from
// the card repository (or tests) and carry the full keyword-ability
// vocabulary as explicit names, never rules text to be matched.
type CardSpec struct {
	Name       string
	ManaCost   string
	Types      []string
	Supertypes []string
	Colors     []string
	Power      int
	Toughness  int
	Loyalty    int
	Keywords   []string
	Spell      []EffectSpec    // executed when a non-permanent spell resolves
	Activated  []ActivatedSpec

	Triggers []TriggerSpec
	Token    bool
}

// Card is a card or permanent instance. The ID is its stable handle: all
// other structures (zone lists, combat records, effect sources, targets)
// reference cards by ID, never by pointer.
type Card struct {
	ID         string
	Name       string
	ManaCost   string
	Types      []string
	Supertypes []string
	Colors     []string

	BasePower        int
	BaseToughness    int
	BaseCapabilities keyword.Set

	Zone         Zone
	OwnerID      string
	ControllerID string

	Tapped        bool
	SummoningSick bool
	Damage        int
	// DeathtouchDamage is set when the card took any damage from a
	// deathtouch source this turn; SBA treats it as lethal.
	DeathtouchDamage bool

	Counters *counters.Counters
	Token    bool

	AttachedTo  string
	Attachments []string

	Spec CardSpec
}

func (c *Card) hasType(typeName string) bool {
	for _, t := range c.Types {
		if t == typeName {
			return true
		}
	}
	return false
}

func (c *Card) isLegendary() bool {
	for _, t := range c.Supertypes {
		if t == SupertypeLegendary {
			return true
		}
	}
	return false
}

func (c *Card) isLand() bool { return c.hasType(TypeLand) }
func (c *Card) isAura() bool { return c.hasType(TypeAura) }
func (c *Card) isEquipment() bool {
	return c.hasType(TypeEquipment)
}

// isPermanentType reports whether the card stays on the battlefield when
// its spell resolves.
func (c *Card) isPermanentType() bool {
	return !c.hasType(TypeInstant) && !c.hasType(TypeSorcery)
}

// requiresSorcerySpeed reports whether this card can only be cast during
// the controller's main phase with an empty stack.
func (c *Card) requiresSorcerySpeed() bool {
	return !c.hasType(TypeInstant)
}
