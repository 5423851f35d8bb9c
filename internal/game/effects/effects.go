package effects

import (
	"github.com/google/uuid"
	"github.com/spellground/spellground-go/internal/game/keyword"
)

// base carries the bookkeeping fields shared by the concrete effects.
type base struct {
	id       string
	sourceID string
	duration Duration
	// AppliesToCard restricts the effect to a single permanent. Empty
	// means the Predicate decides; a nil Predicate matches everything.
	appliesToCard string
	predicate     func(*Snapshot) bool
}

func newBase(sourceID, appliesToCard string, duration Duration, predicate func(*Snapshot) bool) base {
	if duration == "" {
		duration = DurationPermanent
	}
	return base{
		id:            uuid.NewString(),
		sourceID:      sourceID,
		duration:      duration,
		appliesToCard: appliesToCard,
		predicate:     predicate,
	}
}

func (b base) ID() string         { return b.id }
func (b base) SourceID() string   { return b.sourceID }
func (b base) Duration() Duration { return b.duration }

func (b base) AppliesTo(s *Snapshot) bool {
	if b.appliesToCard != "" && s.CardID != b.appliesToCard {
		return false
	}
	if b.predicate != nil {
		return b.predicate(s)
	}
	return true
}

// PTBoost modifies power and toughness in the power/toughness layer.
type PTBoost struct {
	base
	Power     int
	Toughness int
}

// NewPTBoost creates a +P/+T (or -P/-T) effect on a single permanent.
func NewPTBoost(sourceID, cardID string, power, toughness int, duration Duration) *PTBoost {
	return &PTBoost{
		base:      newBase(sourceID, cardID, duration, nil),
		Power:     power,
		Toughness: toughness,
	}
}

// NewPTBoostAll creates a boost applying to every permanent the predicate
// accepts (an anthem-style effect).
func NewPTBoostAll(sourceID string, power, toughness int, duration Duration, predicate func(*Snapshot) bool) *PTBoost {
	return &PTBoost{
		base:      newBase(sourceID, "", duration, predicate),
		Power:     power,
		Toughness: toughness,
	}
}

func (e *PTBoost) Layer() Layer { return LayerPowerToughness }

func (e *PTBoost) Apply(s *Snapshot) {
	s.Power += e.Power
	s.Toughness += e.Toughness
}

// GrantCapability adds a keyword ability in the ability layer.
type GrantCapability struct {
	base
	Capability keyword.Capability
}

// NewGrantCapability grants a keyword ability to a single permanent.
func NewGrantCapability(sourceID, cardID string, c keyword.Capability, duration Duration) *GrantCapability {
	return &GrantCapability{
		base:       newBase(sourceID, cardID, duration, nil),
		Capability: c,
	}
}

func (e *GrantCapability) Layer() Layer { return LayerAbility }

func (e *GrantCapability) Apply(s *Snapshot) {
	s.Capabilities = s.Capabilities.Add(e.Capability)
}

// RemoveCapability strips a keyword ability in the ability layer.
type RemoveCapability struct {
	base
	Capability keyword.Capability
}

// NewRemoveCapability removes a keyword ability from a single permanent.
func NewRemoveCapability(sourceID, cardID string, c keyword.Capability, duration Duration) *RemoveCapability {
	return &RemoveCapability{
		base:       newBase(sourceID, cardID, duration, nil),
		Capability: c,
	}
}

func (e *RemoveCapability) Layer() Layer { return LayerAbility }

func (e *RemoveCapability) Apply(s *Snapshot) {
	s.Capabilities = s.Capabilities.Remove(e.Capability)
}

// AddType adds a card type in the type layer (e.g. a land animated into a
// creature).
type AddType struct {
	base
	Type string
}

// NewAddType adds a type to a single permanent.
func NewAddType(sourceID, cardID, typeName string, duration Duration) *AddType {
	return &AddType{
		base: newBase(sourceID, cardID, duration, nil),
		Type: typeName,
	}
}

func (e *AddType) Layer() Layer { return LayerType }

func (e *AddType) Apply(s *Snapshot) {
	if !s.HasType(e.Type) {
		s.Types = append(s.Types, e.Type)
	}
}

// ControlChange moves a permanent to a different controller in the
// control layer.
type ControlChange struct {
	base
	NewController string
}

// NewControlChange changes the controller of a single permanent.
func NewControlChange(sourceID, cardID, newController string, duration Duration) *ControlChange {
	return &ControlChange{
		base:          newBase(sourceID, cardID, duration, nil),
		NewController: newController,
	}
}

func (e *ControlChange) Layer() Layer { return LayerControl }

func (e *ControlChange) Apply(s *Snapshot) {
	s.ControllerID = e.NewController
}

// SetBasePT overrides power and toughness before boosts apply. Registered
// in the power/toughness layer but ahead of boosts by registration order,
// matching the set-then-modify sublayering.
type SetBasePT struct {
	base
	Power     int
	Toughness int
}

// NewSetBasePT sets the base power/toughness of a single permanent.
func NewSetBasePT(sourceID, cardID string, power, toughness int, duration Duration) *SetBasePT {
	return &SetBasePT{
		base:      newBase(sourceID, cardID, duration, nil),
		Power:     power,
		Toughness: toughness,
	}
}

func (e *SetBasePT) Layer() Layer { return LayerPowerToughness }

func (e *SetBasePT) Apply(s *Snapshot) {
	s.Power = e.Power
	s.Toughness = e.Toughness
}
