package game

import (
	"github.com/spellground/spellground-go/internal/game/mana"
)

// PoisonThreshold is the poison counter count at which a player loses.
const PoisonThreshold = 10

// DefaultStartingLife is the life total players begin with.
const DefaultStartingLife = 20

// DefaultHandLimit is the maximum hand size enforced during cleanup.
const DefaultHandLimit = 7

// OpeningHandSize is the number of cards drawn at game start.
const OpeningHandSize = 7

// Player holds a player's identity, life, zones and per-turn flags. Zone
// collections hold card IDs; the card map on the game state is the single
// owner of card data.
type Player struct {
	ID   string
	Name string

	Life   int
	Poison int

	Library   []string // ordered, the last element is the top
	Hand      []string
	Graveyard []string
	Exile     []string
	Command   []string

	Pool *mana.Pool

	// Per-turn flags, reset during cleanup.
	LandPlayed bool

	// Losing conditions, checked by state-based actions.
	DrewFromEmpty bool
	Conceded      bool
	Lost          bool

	HandLimit int

	// Passed tracks priority passing within the current window.
	Passed bool
}

// canRespond reports whether the player still participates in priority.
func (p *Player) canRespond() bool {
	return !p.Lost
}

// PlayerSetup describes one player joining a game.
type PlayerSetup struct {
	ID   string
	Name string
	Deck []CardSpec
}
