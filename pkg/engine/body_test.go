package engine

import "testing"

// knowsChainGraph is alice -knows-> bob -knows-> carol, with carol a
// sink (knows nobody), used by the body-evaluation tests below to
// exercise joins, negation, and BIND against a known solution shape.
func knowsChainGraph() Graph {
	return graphFromTriples([]Triple{
		{Subject: iri("alice"), Predicate: iri("knows"), Object: iri("bob")},
		{Subject: iri("bob"), Predicate: iri("knows"), Object: iri("carol")},
	})
}

func TestEvalBodyJoinsPatternsLeftToRight(t *testing.T) {
	body := []BodyElement{
		Pattern(TriplePattern{Subject: Variable("x"), Path: Simple(ns + "knows"), Object: Variable("y")}),
		Pattern(TriplePattern{Subject: Variable("y"), Path: Simple(ns + "knows"), Object: Variable("z")}),
	}
	got := evalBody(body, bodyEvalContext{graph: knowsChainGraph()})
	if len(got) != 1 {
		t.Fatalf("got %d mappings, want 1 (alice-bob-carol)", len(got))
	}
	x, _ := got[0].Lookup("x")
	z, _ := got[0].Lookup("z")
	if !x.Equal(iri("alice")) || !z.Equal(iri("carol")) {
		t.Fatalf("unexpected binding: x=%v z=%v", x, z)
	}
}

func TestEvalBodyFilterDropsNonSatisfyingMappings(t *testing.T) {
	body := []BodyElement{
		Pattern(TriplePattern{Subject: Variable("x"), Path: Simple(ns + "knows"), Object: Variable("y")}),
		Filter(BinaryOp("=", VarRef(Variable("x")), ConstTerm(iri("nonexistent")))),
	}
	got := evalBody(body, bodyEvalContext{graph: knowsChainGraph()})
	if len(got) != 0 {
		t.Fatalf("expected filter to eliminate all mappings, got %d", len(got))
	}
}

func TestEvalBodyBindIntroducesNewVariable(t *testing.T) {
	body := []BodyElement{
		Pattern(TriplePattern{Subject: Variable("x"), Path: Simple(ns + "knows"), Object: Variable("y")}),
		Bind(Variable("same"), BinaryOp("=", VarRef(Variable("x")), VarRef(Variable("y")))),
	}
	got := evalBody(body, bodyEvalContext{graph: knowsChainGraph()})
	if len(got) == 0 {
		t.Fatal("expected at least one mapping")
	}
	for _, mu := range got {
		if _, ok := mu.Lookup("same"); !ok {
			t.Fatal("BIND should have bound ?same on every surviving mapping")
		}
	}
}

func TestEvalBodyBindSkipsAlreadyBoundVariable(t *testing.T) {
	body := []BodyElement{
		Pattern(TriplePattern{Subject: Variable("x"), Path: Simple(ns + "knows"), Object: Variable("y")}),
		Bind(Variable("x"), ConstTerm(PlainLiteral("clobber"))),
	}
	got := evalBody(body, bodyEvalContext{graph: knowsChainGraph()})
	if len(got) != 0 {
		t.Fatal("rebinding an already-bound variable should drop the mapping defensively")
	}
}

func TestEvalBodyNegationFiltersOnCompatibility(t *testing.T) {
	body := []BodyElement{
		Pattern(TriplePattern{Subject: Variable("x"), Path: Simple(ns + "knows"), Object: Variable("y")}),
		Negation(
			Pattern(TriplePattern{Subject: Variable("y"), Path: Simple(ns + "knows"), Object: Variable("z")}),
		),
	}
	g := knowsChainGraph()
	withNegation := evalBody(body, bodyEvalContext{graph: g})
	withoutNegation := evalBody(body[:1], bodyEvalContext{graph: g})
	if len(withNegation) >= len(withoutNegation) {
		t.Fatalf("negation should strictly shrink the solution set: with=%d without=%d", len(withNegation), len(withoutNegation))
	}
	y, _ := withNegation[0].Lookup("y")
	if !y.Equal(iri("carol")) {
		t.Fatalf("expected the surviving mapping to be the one where y=carol (a sink), got y=%v", y)
	}
}

func TestEvalBodyAggregationAlwaysFailsClosed(t *testing.T) {
	body := []BodyElement{Aggregation()}
	got := evalBody(body, bodyEvalContext{graph: knowsChainGraph()})
	if got != nil {
		t.Fatal("aggregation should evaluate to no mappings")
	}
}
