package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	rule := ruleErrorf("second land this turn")
	assert.True(t, IsRuleViolation(rule), "rule errors should classify as rule violations")

	inv := invariantf("card %s vanished", "x")
	assert.False(t, IsRuleViolation(inv), "invariant faults must not classify as rule violations")
	assert.ErrorIs(t, inv, ErrInvariant)

	assert.False(t, IsRuleViolation(errors.New("plain")), "arbitrary errors are not rule violations")
}
