package counters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounters_AddAndCount(t *testing.T) {
	cs := NewCounters()

	cs.Add(PlusOnePlusOne, 3)
	assert.Equal(t, 3, cs.Count(PlusOnePlusOne))

	cs.Add(Loyalty, 4)
	assert.Equal(t, 7, cs.Total())

	cs.Add(Charge, 0)
	assert.Equal(t, 0, cs.Count(Charge), "adding zero must be a no-op")
}

func TestCounters_RemoveClampsAtZero(t *testing.T) {
	cs := NewCounters()
	cs.Add(Loyalty, 2)

	removed := cs.Remove(Loyalty, 5)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, cs.Count(Loyalty))
}

func TestCounters_AnnihilatePlusMinus(t *testing.T) {
	cs := NewCounters()
	cs.Add(PlusOnePlusOne, 4)
	cs.Add(MinusOneMinusOne, 1)

	assert.Equal(t, 1, cs.AnnihilatePlusMinus())
	assert.Equal(t, 3, cs.Count(PlusOnePlusOne))
	assert.Equal(t, 0, cs.Count(MinusOneMinusOne))

	// Nothing left to annihilate.
	assert.Equal(t, 0, cs.AnnihilatePlusMinus())
}

func TestCounters_Copy(t *testing.T) {
	cs := NewCounters()
	cs.Add(Charge, 2)

	cpy := cs.Copy()
	cpy.Add(Charge, 3)
	assert.Equal(t, 2, cs.Count(Charge), "copy must be independent")
}
