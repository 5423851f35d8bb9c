// Package counters tracks named counters on permanents (+1/+1, -1/-1,
// loyalty, charge and so on) as a mapping of counter kind to count.
package counters

import "sync"

// Well-known counter kinds.
const (
	PlusOnePlusOne   = "+1/+1"
	MinusOneMinusOne = "-1/-1"
	Loyalty          = "loyalty"
	Charge           = "charge"
)

// Counters is a thread-safe mapping of counter kind to count.
type Counters struct {
	mu     sync.RWMutex
	counts map[string]int
}

// NewCounters creates an empty counter collection.
func NewCounters() *Counters {
	return &Counters{counts: make(map[string]int)}
}

// Add adds amount counters of the given kind.
func (cs *Counters) Add(kind string, amount int) {
	if amount <= 0 {
		return
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.counts[kind] += amount
}

// Remove removes up to amount counters of the given kind and returns the
// number actually removed.
func (cs *Counters) Remove(kind string, amount int) int {
	if amount <= 0 {
		return 0
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	have := cs.counts[kind]
	if amount > have {
		amount = have
	}
	if amount == have {
		delete(cs.counts, kind)
	} else {
		cs.counts[kind] = have - amount
	}
	return amount
}

// Count returns the number of counters of the given kind.
func (cs *Counters) Count(kind string) int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.counts[kind]
}

// Total returns the total number of counters of all kinds.
func (cs *Counters) Total() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	total := 0
	for _, n := range cs.counts {
		total += n
	}
	return total
}

// AnnihilatePlusMinus removes equal amounts of +1/+1 and -1/-1 counters
// and returns the number of pairs removed. Mutually present counters on
// the same permanent annihilate as a state-based action.
func (cs *Counters) AnnihilatePlusMinus() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	pairs := cs.counts[PlusOnePlusOne]
	if minus := cs.counts[MinusOneMinusOne]; minus < pairs {
		pairs = minus
	}
	if pairs == 0 {
		return 0
	}
	cs.removeLocked(PlusOnePlusOne, pairs)
	cs.removeLocked(MinusOneMinusOne, pairs)
	return pairs
}

func (cs *Counters) removeLocked(kind string, amount int) {
	have := cs.counts[kind]
	if amount >= have {
		delete(cs.counts, kind)
		return
	}
	cs.counts[kind] = have - amount
}

// Copy creates a deep copy of the counter collection.
func (cs *Counters) Copy() *Counters {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	cpy := NewCounters()
	for kind, n := range cs.counts {
		cpy.counts[kind] = n
	}
	return cpy
}

// View returns the kind-to-count mapping for snapshots.
func (cs *Counters) View() map[string]int {
	return cs.Copy().counts
}
