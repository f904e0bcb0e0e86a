package engine

import "testing"

func TestMappingExtendLookup(t *testing.T) {
	m := EmptyMapping.Extend("x", IRI("http://example.org/a"))
	t.Run("bound variable resolves", func(t *testing.T) {
		got, ok := m.Lookup("x")
		if !ok || !got.Equal(IRI("http://example.org/a")) {
			t.Fatalf("Lookup(x) = %v, %v", got, ok)
		}
	})
	t.Run("unbound variable reports absent", func(t *testing.T) {
		if _, ok := m.Lookup("y"); ok {
			t.Fatal("expected y to be unbound")
		}
	})
}

func TestMappingGrowsIntoBigRepresentation(t *testing.T) {
	m := EmptyMapping
	for i := 0; i < smallMappingThreshold+3; i++ {
		m = m.Extend(string(rune('a'+i)), IRI("http://example.org/"+string(rune('a'+i))))
	}
	if m.Len() != smallMappingThreshold+3 {
		t.Fatalf("Len() = %d, want %d", m.Len(), smallMappingThreshold+3)
	}
	for i := 0; i < smallMappingThreshold+3; i++ {
		name := string(rune('a' + i))
		got, ok := m.Lookup(name)
		if !ok || !got.Equal(IRI("http://example.org/"+name)) {
			t.Fatalf("Lookup(%s) = %v, %v", name, got, ok)
		}
	}
}

func TestCompatibleAndMerge(t *testing.T) {
	a := EmptyMapping.Extend("x", IRI("http://example.org/1"))
	b := EmptyMapping.Extend("y", IRI("http://example.org/2"))
	if !Compatible(a, b) {
		t.Fatal("disjoint-domain mappings should be compatible")
	}
	merged, ok := Merge(a, b)
	if !ok || merged.Len() != 2 {
		t.Fatalf("Merge() = %v, %v", merged, ok)
	}

	c := EmptyMapping.Extend("x", IRI("http://example.org/other"))
	if Compatible(a, c) {
		t.Fatal("conflicting bindings on x should be incompatible")
	}
	if _, ok := Merge(a, c); ok {
		t.Fatal("Merge of incompatible mappings should fail")
	}
}

func TestJoinIsCartesianFilteredByCompatibility(t *testing.T) {
	left := []Mapping{EmptyMapping.Extend("x", IRI("http://example.org/1"))}
	right := []Mapping{
		EmptyMapping.Extend("x", IRI("http://example.org/1")).Extend("y", IRI("http://example.org/2")),
		EmptyMapping.Extend("x", IRI("http://example.org/other")),
	}
	out := Join(left, right)
	if len(out) != 1 {
		t.Fatalf("Join() produced %d mappings, want 1", len(out))
	}
	if got, ok := out[0].Lookup("y"); !ok || !got.Equal(IRI("http://example.org/2")) {
		t.Fatalf("joined mapping missing y binding: %v", out[0])
	}
}

func TestJoinEmptyIdentities(t *testing.T) {
	mu := EmptyMapping.Extend("x", IRI("http://example.org/1"))
	if out := Join([]Mapping{mu}, nil); out != nil {
		t.Fatalf("Join(Ω, ∅) = %v, want nil", out)
	}
	out := Join([]Mapping{mu}, []Mapping{EmptyMapping})
	if len(out) != 1 {
		t.Fatalf("Join(Ω, [μ_empty]) len = %d, want 1", len(out))
	}
	if got, ok := out[0].Lookup("x"); !ok || !got.Equal(IRI("http://example.org/1")) {
		t.Fatalf("Join(Ω, [μ_empty])[0] = %v, %v", got, ok)
	}
}

func TestAntiJoin(t *testing.T) {
	a := EmptyMapping.Extend("x", IRI("http://example.org/1"))
	b := EmptyMapping.Extend("x", IRI("http://example.org/2"))
	left := []Mapping{a, b}

	t.Run("antiJoin against empty returns left unchanged", func(t *testing.T) {
		out := AntiJoin(left, nil)
		if len(out) != 2 {
			t.Fatalf("len = %d, want 2", len(out))
		}
	})

	t.Run("antiJoin drops compatible mappings", func(t *testing.T) {
		out := AntiJoin(left, []Mapping{a})
		if len(out) != 1 {
			t.Fatalf("len = %d, want 1", len(out))
		}
		if got, _ := out[0].Lookup("x"); !got.Equal(IRI("http://example.org/2")) {
			t.Fatalf("unexpected survivor: %v", out[0])
		}
	})

	t.Run("antiJoin against μ_empty drops everything", func(t *testing.T) {
		out := AntiJoin(left, []Mapping{EmptyMapping})
		if len(out) != 0 {
			t.Fatalf("len = %d, want 0", len(out))
		}
	})
}

func TestSubstituteTemplate(t *testing.T) {
	tmpl := TripleTemplate{
		Subject:   Variable("x"),
		Predicate: IRI("http://example.org/p"),
		Object:    Variable("y"),
	}
	mu := EmptyMapping.Extend("x", IRI("http://example.org/s")).Extend("y", PlainLiteral("v"))

	s, p, o, ok := SubstituteTemplate(tmpl, mu)
	if !ok || !s.Equal(IRI("http://example.org/s")) || !p.Equal(IRI("http://example.org/p")) || !o.Equal(PlainLiteral("v")) {
		t.Fatalf("SubstituteTemplate = (%v,%v,%v,%v)", s, p, o, ok)
	}

	_, _, _, ok = SubstituteTemplate(tmpl, EmptyMapping)
	if ok {
		t.Fatal("expected substitution to fail with unbound variable")
	}
}
