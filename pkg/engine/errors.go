package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

// This file implements the error taxonomy of spec.md §6/§7. Structural
// errors (WellFormednessError, StratificationError, ConfigurationError)
// abort a run before or during preparation and are wrapped with
// github.com/pkg/errors so a caller can recover a stack trace in
// development while still type-switching on the concrete value via
// errors.As. Expression-level errors never reach this taxonomy: they
// propagate as an absent value inside expr.go and are never returned
// to the caller (spec.md §7).

// ParseError is defined for completeness of the taxonomy (spec.md §6);
// the engine never constructs one itself since surface parsing is out
// of scope, but a caller embedding its own parser can wrap its errors
// in this type for a uniform error surface.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return "parse error: " + e.Message }

// WellFormednessError reports a rule that violates one of the
// invariants in spec.md §3/§4.H.
type WellFormednessError struct {
	RuleIndex int
	Variable  string
	Position  string
	Message   string
}

func (e *WellFormednessError) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("rule %d: well-formedness violation for variable %q at %s: %s",
			e.RuleIndex, e.Variable, e.Position, e.Message)
	}
	return fmt.Sprintf("rule %d: well-formedness violation at %s: %s", e.RuleIndex, e.Position, e.Message)
}

func newWellFormednessError(ruleIndex int, variable, position, message string) error {
	return errors.WithStack(&WellFormednessError{
		RuleIndex: ruleIndex,
		Variable:  variable,
		Position:  position,
		Message:   message,
	})
}

// StratificationError reports a cycle through negation in the
// predicate-level dependency graph (spec.md §4.F).
type StratificationError struct {
	Cycle []int // rule indices forming the offending cycle
}

func (e *StratificationError) Error() string {
	return fmt.Sprintf("stratification error: cycle through negation among rules %v", e.Cycle)
}

func newStratificationError(cycle []int) error {
	return errors.WithStack(&StratificationError{Cycle: cycle})
}

// ConfigurationError reports a caller-side misuse of the Engine API,
// e.g. requesting InPlace with ResultsOnly (spec.md §6).
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Message }

func newConfigurationError(message string) error {
	return errors.WithStack(&ConfigurationError{Message: message})
}

// EvaluationError reports an internal error during evaluation that is
// not one of the structural categories above (e.g. the stratum
// relaxation failing to converge, which spec.md §4.F calls an
// "internal error").
type EvaluationError struct {
	Message string
}

func (e *EvaluationError) Error() string { return "evaluation error: " + e.Message }

func newEvaluationError(message string) error {
	return errors.WithStack(&EvaluationError{Message: message})
}

// IterationCapWarning is non-fatal: the driver emits it and returns
// the partial graph for the stratum that hit the cap (spec.md §7).
type IterationCapWarning struct {
	Stratum    int
	Iterations int
}

func (w IterationCapWarning) String() string {
	return fmt.Sprintf("stratum %d stopped after %d iterations (cap reached)", w.Stratum, w.Iterations)
}
