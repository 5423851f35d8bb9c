package game

import (
	"errors"
	"fmt"
)

// ErrInvariant marks engine-internal invariant violations. These indicate
// an engine bug, not a rule violation, and callers must treat them as
// fatal rather than as ordinary rule feedback.
var ErrInvariant = errors.New("engine invariant violation")

// RuleError is returned when a caller attempts something the rules
// forbid. The game state is unchanged and the caller can recover by
// choosing a different action.
type RuleError struct {
	Reason string
}

func (e *RuleError) Error() string {
	return e.Reason
}

func ruleErrorf(format string, args ...any) error {
	return &RuleError{Reason: fmt.Sprintf(format, args...)}
}

// IsRuleViolation reports whether err is an ordinary rule violation as
// opposed to an engine fault.
func IsRuleViolation(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
