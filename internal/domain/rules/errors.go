package rules

import (
	"errors"
	"fmt"
)

// Sentinel kinds for rule errors.
var (
	ErrUnknownRule       = errors.New("unknown voting rule")
	ErrMissingWeights    = errors.New("positional rule requires weights")
	ErrUnexpectedWeights = errors.New("rule does not accept weights")
	ErrDrawOutOfRange    = errors.New("random source drew an index out of range")
)

// UnknownRuleError names a rule that is not registered, with the closest
// registered name when one is near enough to be a likely typo.
type UnknownRuleError struct {
	Name       string
	Suggestion string
}

func (e *UnknownRuleError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown voting rule %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown voting rule %q", e.Name)
}

func (e *UnknownRuleError) Unwrap() error { return ErrUnknownRule }
