package engine

// This file implements the rule-body evaluator of spec.md §4.E.
// Negation is seeded from each outer μ (original_source's
// rules.py::eval_negation: "Evaluate the negated pattern P to get
// Ω₂ ... Start with each current mapping as seed", then
// AntiJoin(Ω, Ω_neg) drops outer mappings compatible with any inner
// result) — this matches SPARQL's FILTER NOT EXISTS rather than
// MINUS, per spec.md §4.E/§9's explicit codification of that choice.

// bodyEvalContext threads the graph and the rule identity a body
// belongs to through a single rule-body evaluation. The rule index
// feeds newBlankSeed so BNODE() freshness is keyed on (rule, μ) rather
// than on when a round happens to run (spec.md §4.G).
type bodyEvalContext struct {
	graph     Graph
	ruleIndex int
}

// evalBody evaluates a rule body against g, returning the resulting
// list of solution mappings (spec.md §4.E). Evaluation stops as soon
// as the running solution set becomes empty.
func evalBody(body []BodyElement, bctx bodyEvalContext) []Mapping {
	omega := []Mapping{EmptyMapping}
	for _, element := range body {
		if len(omega) == 0 {
			break
		}
		omega = evalBodyElement(element, omega, bctx)
	}
	return omega
}

func evalBodyElement(element BodyElement, omega []Mapping, bctx bodyEvalContext) []Mapping {
	switch element.Kind {
	case ElementPattern:
		matches := graphMatch(bctx.graph, element.Pattern)
		return Join(omega, matches)

	case ElementFilter:
		out := make([]Mapping, 0, len(omega))
		for _, mu := range omega {
			ctx := evalContext{mapping: mu, graph: bctx.graph, blankSeed: newBlankSeed(bctx.ruleIndex, mu)}
			t, ok := eval(element.Filter, ctx)
			if effectiveBoolean(t, ok) {
				out = append(out, mu)
			}
		}
		return out

	case ElementBind:
		out := make([]Mapping, 0, len(omega))
		name := element.BindVar.VarName()
		for _, mu := range omega {
			if mu.Bound(name) {
				// A Bind target that is already bound is a
				// well-formedness violation caught before
				// evaluation (spec.md §4.E); defensively skip it
				// here rather than double-binding.
				continue
			}
			ctx := evalContext{mapping: mu, graph: bctx.graph, blankSeed: newBlankSeed(bctx.ruleIndex, mu)}
			t, ok := eval(element.BindExpr, ctx)
			if !ok {
				continue
			}
			out = append(out, mu.Extend(name, t))
		}
		return out

	case ElementNegation:
		out := make([]Mapping, 0, len(omega))
		for _, mu := range omega {
			if len(seededFrom(element.Negation, mu, bctx)) == 0 {
				out = append(out, mu)
			}
		}
		return out

	case ElementAggregation:
		// Validation always rejects this variant before evaluation
		// reaches it (spec.md §9); defensively fail closed.
		return nil

	default:
		return omega
	}
}

// seededFrom evaluates a negated sub-body starting from [mu] rather
// than [μ_empty], so variables bound in the outer scope are visible
// inside the negation (spec.md §4.E).
func seededFrom(sub []BodyElement, mu Mapping, bctx bodyEvalContext) []Mapping {
	omega := []Mapping{mu}
	for _, element := range sub {
		if len(omega) == 0 {
			break
		}
		omega = evalBodyElement(element, omega, bctx)
	}
	return omega
}
