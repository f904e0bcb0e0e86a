package memgraph

import (
	"testing"

	"github.com/gitrdm/ruleforge/pkg/engine"
)

func TestStoreAddIsIdempotent(t *testing.T) {
	s := New()
	a, p, b := engine.IRI("http://example.org/a"), engine.IRI("http://example.org/p"), engine.IRI("http://example.org/b")
	s.Add(a, p, b)
	s.Add(a, p, b)
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after a repeat insert", s.Len())
	}
	if !s.Contains(a, p, b) {
		t.Fatal("Contains() should report the inserted triple")
	}
}

func TestStoreMatchWildcards(t *testing.T) {
	s := New()
	p := engine.IRI("http://example.org/p")
	q := engine.IRI("http://example.org/q")
	a := engine.IRI("http://example.org/a")
	b := engine.IRI("http://example.org/b")
	c := engine.IRI("http://example.org/c")
	s.Add(a, p, b)
	s.Add(a, q, c)
	s.Add(b, p, c)

	t.Run("predicate pinned", func(t *testing.T) {
		got := s.Match(nil, &p, nil)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
	})

	t.Run("subject and predicate pinned", func(t *testing.T) {
		got := s.Match(&a, &p, nil)
		if len(got) != 1 || !got[0].Object.Equal(b) {
			t.Fatalf("got = %v", got)
		}
	})

	t.Run("all wildcards", func(t *testing.T) {
		got := s.Match(nil, nil, nil)
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}
	})
}

func TestStoreCloneIsIndependent(t *testing.T) {
	s := New()
	p := engine.IRI("http://example.org/p")
	a := engine.IRI("http://example.org/a")
	b := engine.IRI("http://example.org/b")
	c := engine.IRI("http://example.org/c")
	s.Add(a, p, b)

	clone := s.Clone()
	clone.Add(a, p, c)

	if s.Len() != 1 {
		t.Fatalf("original store mutated by clone: Len() = %d", s.Len())
	}
	if clone.Len() != 2 {
		t.Fatalf("clone Len() = %d, want 2", clone.Len())
	}
}

var _ engine.Graph = (*Store)(nil)
