package engine

import (
	"sort"
	"testing"
)

const ns = "http://example.org/"

func iri(local string) Term { return IRI(ns + local) }

// graphFromTriples builds a scratchGraph for tests that need a Graph
// but live inside package engine (and so cannot import internal/memgraph
// without an import cycle, since memgraph itself imports engine).
func graphFromTriples(triples []Triple) Graph {
	g := newScratchGraph()
	for _, t := range triples {
		g.Add(t.Subject, t.Predicate, t.Object)
	}
	return g
}

func testGraph() Graph {
	return graphFromTriples([]Triple{
		{Subject: iri("alice"), Predicate: iri("parent"), Object: iri("bob")},
		{Subject: iri("bob"), Predicate: iri("parent"), Object: iri("carol")},
		{Subject: iri("alice"), Predicate: iri("knows"), Object: iri("carol")},
	})
}

func TestMatchSimpleBindsVariables(t *testing.T) {
	g := testGraph()
	out := graphMatch(g, TriplePattern{
		Subject: Variable("x"), Path: Simple(ns + "parent"), Object: Variable("y"),
	})
	if len(out) != 2 {
		t.Fatalf("got %d mappings, want 2", len(out))
	}
}

func TestMatchSimpleSameVariableBothSlots(t *testing.T) {
	g := graphFromTriples([]Triple{
		{Subject: iri("alice"), Predicate: iri("knows"), Object: iri("alice")},
		{Subject: iri("alice"), Predicate: iri("knows"), Object: iri("bob")},
	})
	out := graphMatch(g, TriplePattern{
		Subject: Variable("x"), Path: Simple(ns + "knows"), Object: Variable("x"),
	})
	if len(out) != 1 {
		t.Fatalf("got %d mappings, want 1 (only the reflexive triple)", len(out))
	}
}

func TestEvalPathInverse(t *testing.T) {
	g := testGraph()
	pairs := evalPath(g, Inverse(Simple(ns+"parent")))
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(pairs))
	}
	for _, p := range pairs {
		if p.start.Equal(iri("bob")) && !p.end.Equal(iri("alice")) {
			t.Fatalf("inverse path did not swap start/end: %v", p)
		}
	}
}

func TestEvalPathSequenceComposesThroughIntermediate(t *testing.T) {
	g := testGraph()
	pairs := evalPath(g, Sequence(Simple(ns+"parent"), Simple(ns+"parent")))
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1 (alice -> carol via bob)", len(pairs))
	}
	if !pairs[0].start.Equal(iri("alice")) || !pairs[0].end.Equal(iri("carol")) {
		t.Fatalf("unexpected pair: %v", pairs[0])
	}
}

func TestEvalPathAlternativeUnions(t *testing.T) {
	g := testGraph()
	pairs := evalPath(g, Alternative(Simple(ns+"parent"), Simple(ns+"knows")))
	ends := make([]string, 0, len(pairs))
	for _, p := range pairs {
		ends = append(ends, p.end.IRIValue())
	}
	sort.Strings(ends)
	want := []string{ns + "bob", ns + "carol", ns + "carol"}
	if len(ends) != len(want) {
		t.Fatalf("got %v, want %v", ends, want)
	}
}
