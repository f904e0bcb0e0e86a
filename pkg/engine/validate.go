package engine

import "strings"

// This file implements rule well-formedness validation (spec.md §4.H).
// It runs once per rule at RuleSet-construction time (Design Notes:
// "resolve by name once ... at AST-validation time"), not on every
// evaluation. Malformed input is rejected at construction rather than
// deep inside the hot evaluation path, returning a typed error since a
// caller-supplied rule set is untrusted input, not an internal
// invariant.

// ValidateRuleSet checks every invariant of spec.md §3/§4.H and
// returns the first violation found, wrapped as a WellFormednessError.
func ValidateRuleSet(rs RuleSet) error {
	for i, r := range rs.Rules {
		if err := validateRule(i, r); err != nil {
			return err
		}
	}
	return nil
}

func validateRule(index int, r Rule) error {
	bodyVars := bodyBoundVariables(r.Body)

	for _, tmpl := range r.Head {
		for _, slot := range []Term{tmpl.Subject, tmpl.Predicate, tmpl.Object} {
			if slot.Kind() != KindVariable {
				continue
			}
			if _, ok := bodyVars[slot.VarName()]; !ok {
				return newWellFormednessError(index, slot.VarName(), "head",
					"head variable is not bound by the body")
			}
		}
	}

	if _, err := validateBody(index, r.Body, map[string]struct{}{}); err != nil {
		return err
	}
	return nil
}

// validateBody walks a body (or a negated sub-body) left to right,
// threading the set of variables bound strictly earlier so Filter/Bind
// can be checked against it, and returns the variables bound by this
// body on success (spec.md §4.H). A Filter/Bind may reference only
// variables bound by a Pattern or Bind earlier in the same body, or
// bound before a negated sub-body begins.
func validateBody(ruleIndex int, body []BodyElement, boundBefore map[string]struct{}) (map[string]struct{}, error) {
	bound := make(map[string]struct{}, len(boundBefore))
	for k := range boundBefore {
		bound[k] = struct{}{}
	}

	for _, el := range body {
		switch el.Kind {
		case ElementPattern:
			for name := range patternVariables(el.Pattern) {
				bound[name] = struct{}{}
			}

		case ElementFilter:
			if err := checkFreeVarsBound(ruleIndex, "filter", el.Filter, bound); err != nil {
				return nil, err
			}
			if err := checkBuiltinArity(ruleIndex, "filter", el.Filter); err != nil {
				return nil, err
			}

		case ElementBind:
			if el.BindVar.Kind() != KindVariable {
				return nil, newWellFormednessError(ruleIndex, "", "bind", "BIND target must be a variable")
			}
			name := el.BindVar.VarName()
			if _, already := bound[name]; already {
				return nil, newWellFormednessError(ruleIndex, name, "bind",
					"variable is already bound earlier in the body")
			}
			if err := checkFreeVarsBound(ruleIndex, "bind", el.BindExpr, bound); err != nil {
				return nil, err
			}
			if err := checkBuiltinArity(ruleIndex, "bind", el.BindExpr); err != nil {
				return nil, err
			}
			bound[name] = struct{}{}

		case ElementNegation:
			// The negated sub-body sees everything bound so far but
			// does not contribute its own bindings outward (negation-
			// as-failure only filters; spec.md §4.E).
			if _, err := validateBody(ruleIndex, el.Negation, bound); err != nil {
				return nil, err
			}

		case ElementAggregation:
			return nil, newWellFormednessError(ruleIndex, "", "aggregation",
				"aggregation is not supported")

		default:
			return nil, newWellFormednessError(ruleIndex, "", "body", "unrecognized body element")
		}
	}
	return bound, nil
}

func checkFreeVarsBound(ruleIndex int, position string, e Expression, bound map[string]struct{}) error {
	for name := range e.FreeVariables() {
		if _, ok := bound[name]; !ok {
			return newWellFormednessError(ruleIndex, name, position,
				"variable is not bound by an earlier part of the body")
		}
	}
	return nil
}

// checkBuiltinArity walks an expression tree checking every builtin
// call against builtinArity, and rejecting unresolved builtin names
// and FunctionCall nodes (spec.md §4.D/§9: no user-defined functions).
func checkBuiltinArity(ruleIndex int, position string, e Expression) error {
	switch e.Kind {
	case ExprBinaryOp:
		if err := checkBuiltinArity(ruleIndex, position, *e.Left); err != nil {
			return err
		}
		return checkBuiltinArity(ruleIndex, position, *e.Right)

	case ExprUnaryOp:
		return checkBuiltinArity(ruleIndex, position, *e.Inner)

	case ExprFunctionCall:
		return newWellFormednessError(ruleIndex, "", position, "user-defined functions are not supported")

	case ExprBuiltin:
		if e.resolved == nil {
			return newWellFormednessError(ruleIndex, "", position, "unknown builtin function: "+e.Name)
		}
		if arity, ok := builtinArity[strings.ToUpper(e.Name)]; ok && arity >= 0 && len(e.Args) != arity {
			return newWellFormednessError(ruleIndex, "", position, "wrong number of arguments to "+e.Name)
		}
		for _, a := range e.Args {
			if err := checkBuiltinArity(ruleIndex, position, a); err != nil {
				return err
			}
		}
		return nil

	default:
		return nil
	}
}

// bodyBoundVariables returns every variable a rule's top-level body
// can bind (Pattern and Bind positions; a Negation binds nothing
// outward), used only to check the head-vars-subset-of-body-vars
// invariant.
func bodyBoundVariables(body []BodyElement) map[string]struct{} {
	out := make(map[string]struct{})
	for _, el := range body {
		switch el.Kind {
		case ElementPattern:
			for name := range patternVariables(el.Pattern) {
				out[name] = struct{}{}
			}
		case ElementBind:
			if el.BindVar.Kind() == KindVariable {
				out[el.BindVar.VarName()] = struct{}{}
			}
		}
	}
	return out
}

func patternVariables(p TriplePattern) map[string]struct{} {
	out := make(map[string]struct{})
	if p.Subject.Kind() == KindVariable {
		out[p.Subject.VarName()] = struct{}{}
	}
	if p.Object.Kind() == KindVariable {
		out[p.Object.VarName()] = struct{}{}
	}
	return out
}
