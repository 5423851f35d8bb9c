package mana

import (
	"fmt"
	"sync"
)

// Type represents a type of mana.
type Type string

const (
	White     Type = "WHITE"
	Blue      Type = "BLUE"
	Black     Type = "BLACK"
	Red       Type = "RED"
	Green     Type = "GREEN"
	Colorless Type = "COLORLESS"
)

// ParseType resolves a mana type from either its full name or its
// single-letter cost symbol.
func ParseType(name string) (Type, error) {
	switch name {
	case string(White), "W":
		return White, nil
	case string(Blue), "U":
		return Blue, nil
	case string(Black), "B":
		return Black, nil
	case string(Red), "R":
		return Red, nil
	case string(Green), "G":
		return Green, nil
	case string(Colorless), "C":
		return Colorless, nil
	}
	return "", fmt.Errorf("unknown mana type %q", name)
}

// paymentOrder is the color order used when deducting the generic portion
// of a cost from whatever mana remains after the colored requirements.
var paymentOrder = []Type{White, Blue, Black, Red, Green, Colorless}

// Pool holds a player's floating mana as non-negative counts per color
// plus colorless. Pools are emptied at every step boundary.
type Pool struct {
	mu     sync.RWMutex
	counts map[Type]int
}

// NewPool creates an empty mana pool.
func NewPool() *Pool {
	return &Pool{counts: make(map[Type]int, 6)}
}

// Add adds mana of the given type to the pool.
func (p *Pool) Add(t Type, amount int) {
	if amount <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[t] += amount
}

// Amount returns the count of a specific mana type.
func (p *Pool) Amount(t Type) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.counts[t]
}

// Total returns the total mana count across all types.
func (p *Pool) Total() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	total := 0
	for _, n := range p.counts {
		total += n
	}
	return total
}

// CanPay reports whether the pool can pay the cost: every colored
// requirement must be met by that color's count, and the pool total must
// cover the colored requirements plus the generic requirement.
func (p *Pool) CanPay(cost *Cost) bool {
	if cost == nil {
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.counts[White] < cost.White ||
		p.counts[Blue] < cost.Blue ||
		p.counts[Black] < cost.Black ||
		p.counts[Red] < cost.Red ||
		p.counts[Green] < cost.Green ||
		p.counts[Colorless] < cost.Colorless {
		return false
	}

	total := 0
	for _, n := range p.counts {
		total += n
	}
	return total >= cost.ConvertedTotal()
}

// Pay deducts the cost from the pool: first the colored requirements from
// their matching colors, then the generic requirement from the remaining
// mana in WUBRG-then-colorless order. Pay fails without mutating the pool
// exactly when CanPay is false, and never leaves any count negative.
func (p *Pool) Pay(cost *Cost) error {
	if cost == nil {
		return nil
	}
	if !p.CanPay(cost) {
		return fmt.Errorf("cannot pay %s: insufficient mana", cost)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.counts[White] -= cost.White
	p.counts[Blue] -= cost.Blue
	p.counts[Black] -= cost.Black
	p.counts[Red] -= cost.Red
	p.counts[Green] -= cost.Green
	p.counts[Colorless] -= cost.Colorless

	remaining := cost.Generic
	for _, t := range paymentOrder {
		if remaining == 0 {
			break
		}
		spend := p.counts[t]
		if spend > remaining {
			spend = remaining
		}
		p.counts[t] -= spend
		remaining -= spend
	}
	if remaining != 0 {
		// CanPay guaranteed enough total mana; reaching here is an engine bug.
		return fmt.Errorf("generic payment shortfall of %d after CanPay", remaining)
	}
	return nil
}

// Empty removes all mana from the pool.
func (p *Pool) Empty() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for t := range p.counts {
		p.counts[t] = 0
	}
}

// Copy creates an independent copy of the pool.
func (p *Pool) Copy() *Pool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cpy := NewPool()
	for t, n := range p.counts {
		cpy.counts[t] = n
	}
	return cpy
}

// View returns the per-type counts for snapshots.
func (p *Pool) View() map[Type]int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	view := make(map[Type]int, len(p.counts))
	for t, n := range p.counts {
		if n > 0 {
			view[t] = n
		}
	}
	return view
}
