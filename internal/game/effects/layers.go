// Package effects implements the seven-layer continuous-effect system.
// Effects are applied, not executed once: the engine rebuilds each
// permanent's derived characteristics from its base values by running all
// applicable effects in increasing layer order.
package effects

import (
	"sync"

	"github.com/google/uuid"
	"github.com/spellground/spellground-go/internal/game/keyword"
)

// Layer corresponds to the layer ordering for continuous effects.
type Layer int

const (
	LayerCopy Layer = 1 + iota
	LayerControl
	LayerText
	LayerType
	LayerColor
	LayerAbility
	LayerPowerToughness
)

var layerOrder = []Layer{
	LayerCopy,
	LayerControl,
	LayerText,
	LayerType,
	LayerColor,
	LayerAbility,
	LayerPowerToughness,
}

// Duration represents how long an effect lasts.
type Duration string

const (
	// DurationPermanent lasts until its source leaves the battlefield.
	DurationPermanent Duration = "Permanent"
	// DurationEndOfTurn expires during cleanup.
	DurationEndOfTurn Duration = "EndOfTurn"
	// DurationEndOfCombat expires when combat ends.
	DurationEndOfCombat Duration = "EndOfCombat"
)

// Snapshot holds the mutable characteristics of a permanent while
// continuous effects are evaluated against it.
type Snapshot struct {
	CardID       string
	ControllerID string
	Types        []string
	Colors       []string
	Capabilities keyword.Set
	Power        int
	Toughness    int

	basePower        int
	baseToughness    int
	baseTypes        []string
	baseColors       []string
	baseCapabilities keyword.Set
	baseController   string
}

// NewSnapshot constructs a snapshot for evaluation from base values.
func NewSnapshot(cardID, controllerID string, types, colors []string, capabilities keyword.Set, power, toughness int) *Snapshot {
	s := &Snapshot{
		CardID:           cardID,
		basePower:        power,
		baseToughness:    toughness,
		baseTypes:        append([]string(nil), types...),
		baseColors:       append([]string(nil), colors...),
		baseCapabilities: capabilities,
		baseController:   controllerID,
	}
	s.Reset()
	return s
}

// Reset restores derived characteristics to their base values.
func (s *Snapshot) Reset() {
	s.Power = s.basePower
	s.Toughness = s.baseToughness
	s.Types = append(s.Types[:0], s.baseTypes...)
	s.Colors = append(s.Colors[:0], s.baseColors...)
	s.Capabilities = s.baseCapabilities
	s.ControllerID = s.baseController
}

// HasType returns true if the snapshot currently includes the type.
func (s Snapshot) HasType(typeName string) bool {
	for _, t := range s.Types {
		if t == typeName {
			return true
		}
	}
	return false
}

// ContinuousEffect defines behaviour for modifying permanent characteristics.
type ContinuousEffect interface {
	ID() string
	SourceID() string
	Layer() Layer
	Duration() Duration
	AppliesTo(*Snapshot) bool
	Apply(*Snapshot)
}

type registered struct {
	effect ContinuousEffect
	seq    uint64 // timestamp order within a layer
}

// LayerSystem manages registration and evaluation of continuous effects.
type LayerSystem struct {
	mu      sync.RWMutex
	effects map[Layer][]registered
	index   map[string]Layer
	nextSeq uint64
}

// NewLayerSystem constructs an empty layer system.
func NewLayerSystem() *LayerSystem {
	return &LayerSystem{
		effects: make(map[Layer][]registered),
		index:   make(map[string]Layer),
	}
}

// Add registers a new continuous effect and returns its identifier.
func (ls *LayerSystem) Add(effect ContinuousEffect) string {
	if effect == nil {
		return ""
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	layer := effect.Layer()
	if layer == 0 {
		layer = LayerPowerToughness
	}
	id := effect.ID()
	if id == "" {
		id = uuid.NewString()
	}

	ls.effects[layer] = append(ls.effects[layer], registered{effect: effect, seq: ls.nextSeq})
	ls.nextSeq++
	ls.index[id] = layer
	return id
}

// Remove removes a registered effect by ID. Removal happens exactly once;
// removing an unknown ID is a no-op.
func (ls *LayerSystem) Remove(id string) {
	if id == "" {
		return
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.removeLocked(id)
}

func (ls *LayerSystem) removeLocked(id string) {
	layer, ok := ls.index[id]
	if !ok {
		return
	}
	delete(ls.index, id)
	entries := ls.effects[layer]
	for i, entry := range entries {
		if entry.effect.ID() == id {
			ls.effects[layer] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(ls.effects[layer]) == 0 {
		delete(ls.effects, layer)
	}
}

// RemoveBySource removes every effect created by the given source. Used
// when a permanent leaves the battlefield.
func (ls *LayerSystem) RemoveBySource(sourceID string) {
	if sourceID == "" {
		return
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, layer := range layerOrder {
		for _, entry := range append([]registered(nil), ls.effects[layer]...) {
			if entry.effect.SourceID() == sourceID {
				ls.removeLocked(entry.effect.ID())
			}
		}
	}
}

// Apply executes all applicable continuous effects against the snapshot
// in increasing layer order; within a layer, in registration order.
func (ls *LayerSystem) Apply(snapshot *Snapshot) {
	if snapshot == nil {
		return
	}
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	snapshot.Reset()
	for _, layer := range layerOrder {
		for _, entry := range ls.effects[layer] {
			if entry.effect.AppliesTo(snapshot) {
				entry.effect.Apply(snapshot)
			}
		}
	}
}

// Size returns the number of registered effects.
func (ls *LayerSystem) Size() int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.index)
}

// ExpireEndOfTurn removes effects whose duration elapses during cleanup.
func (ls *LayerSystem) ExpireEndOfTurn() {
	ls.expire(DurationEndOfTurn)
}

// ExpireEndOfCombat removes effects whose duration elapses when combat ends.
func (ls *LayerSystem) ExpireEndOfCombat() {
	ls.expire(DurationEndOfCombat)
}

func (ls *LayerSystem) expire(duration Duration) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, layer := range layerOrder {
		for _, entry := range append([]registered(nil), ls.effects[layer]...) {
			if entry.effect.Duration() == duration {
				ls.removeLocked(entry.effect.ID())
			}
		}
	}
}
