package engine

import "testing"

func rulePE(headPred string, bodyPred string, negated bool) Rule {
	head := []TripleTemplate{{Subject: Variable("x"), Predicate: IRI(ns + headPred), Object: Variable("y")}}
	pattern := Pattern(TriplePattern{Subject: Variable("x"), Path: Simple(ns + bodyPred), Object: Variable("y")})
	body := []BodyElement{pattern}
	if negated {
		body = []BodyElement{Negation(pattern)}
	}
	return Rule{Head: head, Body: body}
}

func TestStratifyLinearChainOrdersByDependency(t *testing.T) {
	// r0: b :- a.   r1: c :- b.
	r0 := rulePE("b", "a", false)
	r1 := rulePE("c", "b", false)
	strata, err := stratify([]Rule{r0, r1})
	if err != nil {
		t.Fatalf("stratify() error: %v", err)
	}
	if len(strata) != 2 {
		t.Fatalf("got %d strata, want 2: %v", len(strata), strata)
	}
	if strata[0][0] != 0 || strata[1][0] != 1 {
		t.Fatalf("unexpected layering: %v", strata)
	}
}

func TestStratifySelfRecursionStaysInOneStratum(t *testing.T) {
	// ancestor(x,z) :- ancestor(x,z) in disguise: same predicate head/body.
	r := rulePE("ancestor", "ancestor", false)
	strata, err := stratify([]Rule{r})
	if err != nil {
		t.Fatalf("stratify() error: %v", err)
	}
	if len(strata) != 1 || len(strata[0]) != 1 {
		t.Fatalf("self-recursive rule should stay in a single stratum, got %v", strata)
	}
}

func TestStratifyDetectsCycleThroughNegation(t *testing.T) {
	// r0: b :- NOT a.   r1: a :- b.  => a and b in the same SCC, with a negative edge.
	r0 := rulePE("b", "a", true)
	r1 := rulePE("a", "b", false)
	_, err := stratify([]Rule{r0, r1})
	if err == nil {
		t.Fatal("expected a StratificationError for a cycle through negation")
	}
	var stratErr *StratificationError
	if !asStratificationError(err, &stratErr) {
		t.Fatalf("expected *StratificationError, got %T: %v", err, err)
	}
}

func TestStratifyAllowsNegationAcrossStrata(t *testing.T) {
	// r0: isManager(x) :- manages(x,y).   r1: nonManager(x) :- NOT isManager(x).
	r0 := rulePE("isManager", "manages", false)
	r1 := rulePE("nonManager", "isManager", true)
	strata, err := stratify([]Rule{r0, r1})
	if err != nil {
		t.Fatalf("stratify() error: %v", err)
	}
	if len(strata) != 2 {
		t.Fatalf("got %d strata, want 2: %v", len(strata), strata)
	}
}

// asStratificationError avoids importing errors.As just for a type
// assertion in a test; *StratificationError is never wrapped beyond
// errors.WithStack, which preserves Unwrap, but a plain assertion
// after an WithStack wrap needs errors.As semantics - so we unwrap by
// hand via the Cause() interface pkg/errors.WithStack produces.
func asStratificationError(err error, target **StratificationError) bool {
	type causer interface{ Cause() error }
	for err != nil {
		if se, ok := err.(*StratificationError); ok {
			*target = se
			return true
		}
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}
