package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack_LIFO(t *testing.T) {
	sm := NewStackManager()

	sm.Push(StackItem{ID: "a", Description: "first"})
	sm.Push(StackItem{ID: "b", Description: "second"})
	sm.Push(StackItem{ID: "c", Description: "third"})

	require.Equal(t, 3, sm.Size())

	item, err := sm.Pop()
	require.NoError(t, err)
	assert.Equal(t, "c", item.ID)

	item, err = sm.Pop()
	require.NoError(t, err)
	assert.Equal(t, "b", item.ID)

	item, err = sm.Pop()
	require.NoError(t, err)
	assert.Equal(t, "a", item.ID)

	_, err = sm.Pop()
	assert.ErrorIs(t, err, ErrStackEmpty)
}

func TestStack_CounterRemovesImmediately(t *testing.T) {
	sm := NewStackManager()

	removed := false
	sm.Push(StackItem{ID: "bottom"})
	sm.Push(StackItem{
		ID:       "target",
		OnRemove: func() { removed = true },
	})
	sm.Push(StackItem{ID: "top"})

	item, ok := sm.Counter("target")
	require.True(t, ok)
	assert.Equal(t, "target", item.ID)
	assert.True(t, removed, "OnRemove must run at counter time")
	assert.Equal(t, 2, sm.Size())

	// The remaining items keep their order.
	top, err := sm.Pop()
	require.NoError(t, err)
	assert.Equal(t, "top", top.ID)
	bottom, err := sm.Pop()
	require.NoError(t, err)
	assert.Equal(t, "bottom", bottom.ID)
}

func TestStack_CounterUnknownID(t *testing.T) {
	sm := NewStackManager()
	sm.Push(StackItem{ID: "a"})

	_, ok := sm.Counter("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, sm.Size())
}

func TestStack_FindDoesNotRemove(t *testing.T) {
	sm := NewStackManager()
	sm.Push(StackItem{ID: "a"})
	sm.Push(StackItem{ID: "b"})

	item, ok := sm.Find("a")
	require.True(t, ok)
	assert.Equal(t, "a", item.ID)
	assert.Equal(t, 2, sm.Size())

	_, ok = sm.Find("missing")
	assert.False(t, ok)
}

func TestStack_PeekDoesNotRemove(t *testing.T) {
	sm := NewStackManager()
	sm.Push(StackItem{ID: "only"})

	item, ok := sm.Peek()
	require.True(t, ok)
	assert.Equal(t, "only", item.ID)
	assert.Equal(t, 1, sm.Size())
}
