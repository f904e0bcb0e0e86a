package engine

// This file implements the expression evaluator of spec.md §4.D. An
// absent result (ok == false) models the "error modelled as an absent
// value" rule: it propagates through arithmetic/comparison and is
// never returned as a Go error, matching original_source's
// expressions.py ("propagate evaluation errors as None").

// evalContext bundles the graph and solution mapping an expression is
// evaluated against (spec.md's (expr, μ, G) signature), plus an
// optional blank-node generator used by the BNODE() builtin. When
// blankSeed is nil (e.g. a test evaluating an expression in
// isolation), BNODE() falls back to a process-wide counter — still
// unique, just not reproducible across runs.
type evalContext struct {
	mapping   Mapping
	graph     Graph
	blankSeed func() string
}

// eval evaluates an expression, returning (term, true) on success or
// (zero, false) if evaluation produced an error.
func eval(e Expression, ctx evalContext) (Term, bool) {
	switch e.Kind {
	case ExprTerm:
		return e.Term, true

	case ExprVariable:
		return ctx.mapping.Lookup(e.Var.VarName())

	case ExprBinaryOp:
		return evalBinary(e, ctx)

	case ExprUnaryOp:
		return evalUnary(e, ctx)

	case ExprBuiltin:
		return evalBuiltin(e, ctx)

	case ExprFunctionCall:
		// No user-defined function registry (spec.md Non-goals).
		return Term{}, false

	default:
		return Term{}, false
	}
}

func evalBinary(e Expression, ctx evalContext) (Term, bool) {
	switch e.Op {
	case "&&":
		l, lok := eval(*e.Left, ctx)
		if !effectiveBoolean(l, lok) {
			return boolTerm(false), true
		}
		r, rok := eval(*e.Right, ctx)
		return boolTerm(effectiveBoolean(r, rok)), true

	case "||":
		l, lok := eval(*e.Left, ctx)
		if effectiveBoolean(l, lok) {
			return boolTerm(true), true
		}
		r, rok := eval(*e.Right, ctx)
		return boolTerm(effectiveBoolean(r, rok)), true

	case "=", "!=":
		l, lok := eval(*e.Left, ctx)
		r, rok := eval(*e.Right, ctx)
		if !lok || !rok {
			return Term{}, false
		}
		eq := valueEqual(l, r)
		if e.Op == "!=" {
			eq = !eq
		}
		return boolTerm(eq), true

	case "<", "<=", ">", ">=":
		l, lok := eval(*e.Left, ctx)
		r, rok := eval(*e.Right, ctx)
		if !lok || !rok {
			return Term{}, false
		}
		cmp, ok := valueOrder(l, r)
		if !ok {
			// Unordered operands: the comparison errors, surfaced as
			// EBV=false in filter context (spec.md §4.A).
			return Term{}, false
		}
		switch e.Op {
		case "<":
			return boolTerm(cmp < 0), true
		case "<=":
			return boolTerm(cmp <= 0), true
		case ">":
			return boolTerm(cmp > 0), true
		default:
			return boolTerm(cmp >= 0), true
		}

	case "+", "-", "*", "/":
		l, lok := eval(*e.Left, ctx)
		r, rok := eval(*e.Right, ctx)
		if !lok || !rok {
			return Term{}, false
		}
		ln, lok2 := l.asNumeric()
		rn, rok2 := r.asNumeric()
		if !lok2 || !rok2 {
			return Term{}, false
		}
		res, ok := numericArith(e.Op, ln, rn)
		if !ok {
			return Term{}, false
		}
		return res.toTerm(), true

	default:
		return Term{}, false
	}
}

func evalUnary(e Expression, ctx evalContext) (Term, bool) {
	inner, ok := eval(*e.Inner, ctx)
	if e.Op == "!" {
		return boolTerm(!effectiveBoolean(inner, ok)), true
	}
	if !ok {
		return Term{}, false
	}
	n, numOK := inner.asNumeric()
	if !numOK {
		return Term{}, false
	}
	switch e.Op {
	case "-":
		return numericNegate(n).toTerm(), true
	case "+":
		return n.toTerm(), true
	default:
		return Term{}, false
	}
}

func boolTerm(b bool) Term {
	if b {
		return TypedLiteral("true", xsdBoolean)
	}
	return TypedLiteral("false", xsdBoolean)
}

// valueEqual implements the value equality spec.md §4.A defines for
// '=' / '!=': numeric literals compare by numeric value across the
// xsd numeric hierarchy; xsd:string and plain literals compare by
// string; everything else falls back to term equality.
func valueEqual(a, b Term) bool {
	if a.isNumeric() && b.isNumeric() {
		an, _ := a.asNumeric()
		bn, _ := b.asNumeric()
		cmp, ok := numericCompare(an, bn)
		return ok && cmp == 0
	}
	if isPlainOrString(a) && isPlainOrString(b) {
		return a.Lexical() == b.Lexical()
	}
	return a.Equal(b)
}

func isPlainOrString(t Term) bool {
	return t.Kind() == KindLiteral && (t.LiteralForm() == FormPlain || t.Datatype() == xsdString)
}

// valueOrder implements the ordering spec.md §4.A defines: numeric by
// value for numeric operands, codepoint-lexicographic for strings,
// otherwise unordered (ok == false).
func valueOrder(a, b Term) (cmp int, ok bool) {
	if a.isNumeric() && b.isNumeric() {
		an, _ := a.asNumeric()
		bn, _ := b.asNumeric()
		return numericCompare(an, bn)
	}
	if isPlainOrString(a) && isPlainOrString(b) {
		switch {
		case a.Lexical() < b.Lexical():
			return -1, true
		case a.Lexical() > b.Lexical():
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}
