package engine

// This file implements graphMatch and the property-path evaluator of
// spec.md §4.C. The wildcard convention (a pattern slot that is a
// Variable matches anything) follows original_source's
// solutions.py::graphMatch, where a Variable term maps to a nil
// pattern slot before querying the underlying store.

// nodePair is a (start, end) pair produced by property-path
// evaluation (spec.md §4.C).
type nodePair struct {
	start Term
	end   Term
}

// graphMatch finds every solution mapping μ such that μ̂(pattern) is a
// triple in g (spec.md §4.C). Constant slots narrow the underlying
// Match query; Variable slots become bindings in μ.
func graphMatch(g Graph, pattern TriplePattern) []Mapping {
	if pattern.Path.Kind != PathSimple {
		return matchPath(g, pattern)
	}
	return matchSimple(g, pattern.Subject, pattern.Path.IRI, pattern.Object)
}

// matchSimple handles the common case: a constant-IRI predicate. It
// queries the adapter with wildcards for variable slots and binds the
// pattern's Variable slots from each returned triple.
func matchSimple(g Graph, subjPat Term, predIRI string, objPat Term) []Mapping {
	var subjArg, objArg *Term
	pred := IRI(predIRI)

	if subjPat.Kind() != KindVariable {
		s := subjPat
		subjArg = &s
	}
	if objPat.Kind() != KindVariable {
		o := objPat
		objArg = &o
	}

	triples := g.Match(subjArg, &pred, objArg)
	out := make([]Mapping, 0, len(triples))
	for _, t := range triples {
		m := EmptyMapping
		ok := true
		if subjPat.Kind() == KindVariable {
			m = m.Extend(subjPat.VarName(), t.Subject)
		}
		if objPat.Kind() == KindVariable {
			if bound, had := m.Lookup(objPat.VarName()); had {
				// Same variable used for subject and object
				// (e.g. ?x :knows ?x): only keep triples where
				// both slots actually agree.
				if !bound.Equal(t.Object) {
					ok = false
				}
			} else {
				m = m.Extend(objPat.VarName(), t.Object)
			}
		}
		if ok {
			out = append(out, m)
		}
	}
	return out
}

// matchPath handles a non-trivial property path: it evaluates the
// path to a set of (start, end) node pairs, then binds subject/object
// variables from pairs whose ends agree with the pattern's constant
// slots (spec.md §4.C: "the matcher does not solve subject/object
// constants against the path result inside the evaluator; the caller
// filters by matching constant endpoints").
func matchPath(g Graph, pattern TriplePattern) []Mapping {
	pairs := evalPath(g, pattern.Path)
	out := make([]Mapping, 0, len(pairs))
	for _, pr := range pairs {
		if pattern.Subject.Kind() != KindVariable && !pattern.Subject.Equal(pr.start) {
			continue
		}
		if pattern.Object.Kind() != KindVariable && !pattern.Object.Equal(pr.end) {
			continue
		}
		m := EmptyMapping
		ok := true
		if pattern.Subject.Kind() == KindVariable {
			m = m.Extend(pattern.Subject.VarName(), pr.start)
		}
		if pattern.Object.Kind() == KindVariable {
			if bound, had := m.Lookup(pattern.Object.VarName()); had {
				if !bound.Equal(pr.end) {
					ok = false
				}
			} else {
				m = m.Extend(pattern.Object.VarName(), pr.end)
			}
		}
		if ok {
			out = append(out, m)
		}
	}
	return out
}

// evalPath recursively evaluates a PropertyPath to a set of (start,
// end) node pairs (spec.md §4.C). Closure operators are intentionally
// unsupported (Design Notes): Sequence/Alternative/Inverse compose
// finitely, so termination is immediate regardless of graph size.
func evalPath(g Graph, p PropertyPath) []nodePair {
	switch p.Kind {
	case PathSimple:
		pred := IRI(p.IRI)
		triples := g.Match(nil, &pred, nil)
		out := make([]nodePair, 0, len(triples))
		for _, t := range triples {
			out = append(out, nodePair{start: t.Subject, end: t.Object})
		}
		return out

	case PathInverse:
		if p.Sub == nil {
			return nil
		}
		inner := evalPath(g, *p.Sub)
		out := make([]nodePair, len(inner))
		for i, pr := range inner {
			out[i] = nodePair{start: pr.end, end: pr.start}
		}
		return out

	case PathSequence:
		if len(p.Parts) == 0 {
			return nil
		}
		acc := evalPath(g, p.Parts[0])
		for _, part := range p.Parts[1:] {
			next := evalPath(g, part)
			acc = composeJoin(acc, next)
		}
		return acc

	case PathAlternative:
		var out []nodePair
		for _, part := range p.Parts {
			out = append(out, evalPath(g, part)...)
		}
		return out

	default:
		return nil
	}
}

// composeJoin implements relational composition of two (start, end)
// pair sets by joining on the intermediate node: left.end == right.start
// (spec.md §4.C Sequence).
func composeJoin(left, right []nodePair) []nodePair {
	if len(left) == 0 || len(right) == 0 {
		return nil
	}
	byStart := make(map[string][]nodePair, len(right))
	for _, r := range right {
		k := termKeyForPath(r.start)
		byStart[k] = append(byStart[k], r)
	}
	out := make([]nodePair, 0, len(left))
	for _, l := range left {
		for _, r := range byStart[termKeyForPath(l.end)] {
			out = append(out, nodePair{start: l.start, end: r.end})
		}
	}
	return out
}

// termKeyForPath renders a ground term into a comparison key for the
// intermediate-node join above. Property paths only ever operate on
// ground terms (graph nodes), never variables.
func termKeyForPath(t Term) string {
	switch t.Kind() {
	case KindIRI:
		return "I:" + t.IRIValue()
	case KindBlank:
		return "B:" + t.BlankLabel()
	case KindLiteral:
		return "L:" + t.Lexical() + "\x00" + t.Datatype() + "\x00" + t.Lang()
	default:
		return "?"
	}
}
