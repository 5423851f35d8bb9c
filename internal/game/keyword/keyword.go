// Package keyword defines the fixed keyword-ability vocabulary the engine
// recognizes. Abilities are precomputed bit flags on each permanent rather
// than substrings of rules text, so capability checks are O(1) and the set
// can be recomputed cheaply whenever continuous effects change.
package keyword

import (
	"fmt"
	"strings"
)

// Capability is a single keyword ability flag.
type Capability uint32

const (
	Flying Capability = 1 << iota
	Reach
	Trample
	Deathtouch
	FirstStrike
	DoubleStrike
	Vigilance
	Haste
	Lifelink
	Menace
	Defender
)

var names = map[Capability]string{
	Flying:       "Flying",
	Reach:        "Reach",
	Trample:      "Trample",
	Deathtouch:   "Deathtouch",
	FirstStrike:  "First strike",
	DoubleStrike: "Double strike",
	Vigilance:    "Vigilance",
	Haste:        "Haste",
	Lifelink:     "Lifelink",
	Menace:       "Menace",
	Defender:     "Defender",
}

// All lists every recognized capability in declaration order.
var All = []Capability{
	Flying, Reach, Trample, Deathtouch, FirstStrike, DoubleStrike,
	Vigilance, Haste, Lifelink, Menace, Defender,
}

func (c Capability) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return fmt.Sprintf("Capability(%d)", uint32(c))
}

// Parse resolves a keyword name to its capability flag. Matching is
// case-insensitive and tolerates the space, underscore and no-space
// spellings of the two-word keywords.
func Parse(name string) (Capability, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, " ", "")
	normalized = strings.ReplaceAll(normalized, "_", "")
	for cap, capName := range names {
		if strings.ToLower(strings.ReplaceAll(capName, " ", "")) == normalized {
			return cap, nil
		}
	}
	return 0, fmt.Errorf("unknown keyword ability %q", name)
}

// Set is a bitset of capabilities.
type Set uint32

// NewSet builds a set from individual capabilities.
func NewSet(caps ...Capability) Set {
	var s Set
	for _, c := range caps {
		s = s.Add(c)
	}
	return s
}

// ParseSet builds a set from keyword names, failing on the first unknown name.
func ParseSet(names []string) (Set, error) {
	var s Set
	for _, name := range names {
		c, err := Parse(name)
		if err != nil {
			return 0, err
		}
		s = s.Add(c)
	}
	return s, nil
}

// Has reports whether the set contains the capability.
func (s Set) Has(c Capability) bool {
	return uint32(s)&uint32(c) != 0
}

// Add returns the set with the capability included.
func (s Set) Add(c Capability) Set {
	return Set(uint32(s) | uint32(c))
}

// Remove returns the set with the capability excluded.
func (s Set) Remove(c Capability) Set {
	return Set(uint32(s) &^ uint32(c))
}

// Union returns the combination of both sets.
func (s Set) Union(other Set) Set {
	return Set(uint32(s) | uint32(other))
}

// Names returns the contained capabilities as display names.
func (s Set) Names() []string {
	var out []string
	for _, c := range All {
		if s.Has(c) {
			out = append(out, c.String())
		}
	}
	return out
}

func (s Set) String() string {
	return strings.Join(s.Names(), ", ")
}
