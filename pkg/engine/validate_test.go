package engine

import "testing"

func TestValidateRejectsUnboundHeadVariable(t *testing.T) {
	rs := RuleSet{Rules: []Rule{{
		Head: []TripleTemplate{{Subject: Variable("x"), Predicate: iri("p"), Object: Variable("unbound")}},
		Body: []BodyElement{
			Pattern(TriplePattern{Subject: Variable("x"), Path: Simple(ns + "q"), Object: Variable("y")}),
		},
	}}}
	if err := ValidateRuleSet(rs); err == nil {
		t.Fatal("expected a WellFormednessError")
	}
}

func TestValidateRejectsDoubleBind(t *testing.T) {
	rs := RuleSet{Rules: []Rule{{
		Head: []TripleTemplate{{Subject: Variable("x"), Predicate: iri("p"), Object: Variable("x")}},
		Body: []BodyElement{
			Pattern(TriplePattern{Subject: Variable("x"), Path: Simple(ns + "q"), Object: Variable("y")}),
			Bind(Variable("x"), ConstTerm(PlainLiteral("already bound"))),
		},
	}}}
	if err := ValidateRuleSet(rs); err == nil {
		t.Fatal("expected a WellFormednessError for re-binding ?x")
	}
}

func TestValidateRejectsFilterOnUnboundVariable(t *testing.T) {
	rs := RuleSet{Rules: []Rule{{
		Head: []TripleTemplate{{Subject: Variable("x"), Predicate: iri("p"), Object: Variable("x")}},
		Body: []BodyElement{
			Pattern(TriplePattern{Subject: Variable("x"), Path: Simple(ns + "q"), Object: Variable("y")}),
			Filter(BinaryOp("=", VarRef(Variable("nope")), ConstTerm(PlainLiteral("v")))),
		},
	}}}
	if err := ValidateRuleSet(rs); err == nil {
		t.Fatal("expected a WellFormednessError for a filter referencing an unbound variable")
	}
}

func TestValidateRejectsAggregation(t *testing.T) {
	rs := RuleSet{Rules: []Rule{{
		Head: []TripleTemplate{{Subject: Variable("x"), Predicate: iri("p"), Object: Variable("x")}},
		Body: []BodyElement{
			Pattern(TriplePattern{Subject: Variable("x"), Path: Simple(ns + "q"), Object: Variable("y")}),
			Aggregation(),
		},
	}}}
	if err := ValidateRuleSet(rs); err == nil {
		t.Fatal("expected aggregation to always fail validation")
	}
}

func TestValidateRejectsUnknownBuiltinAndWrongArity(t *testing.T) {
	unknown := RuleSet{Rules: []Rule{{
		Head: []TripleTemplate{{Subject: Variable("x"), Predicate: iri("p"), Object: Variable("x")}},
		Body: []BodyElement{
			Pattern(TriplePattern{Subject: Variable("x"), Path: Simple(ns + "q"), Object: Variable("y")}),
			Filter(Builtin("NOT_A_REAL_BUILTIN", VarRef(Variable("x")))),
		},
	}}}
	if err := ValidateRuleSet(unknown); err == nil {
		t.Fatal("expected a WellFormednessError for an unknown builtin")
	}

	wrongArity := RuleSet{Rules: []Rule{{
		Head: []TripleTemplate{{Subject: Variable("x"), Predicate: iri("p"), Object: Variable("x")}},
		Body: []BodyElement{
			Pattern(TriplePattern{Subject: Variable("x"), Path: Simple(ns + "q"), Object: Variable("y")}),
			Filter(Builtin("STRLEN", VarRef(Variable("x")), VarRef(Variable("y")))),
		},
	}}}
	if err := ValidateRuleSet(wrongArity); err == nil {
		t.Fatal("expected a WellFormednessError for wrong STRLEN arity")
	}
}

func TestValidateAcceptsWellFormedRule(t *testing.T) {
	rs := RuleSet{Rules: []Rule{{
		Head: []TripleTemplate{{Subject: Variable("x"), Predicate: iri("p"), Object: Variable("len")}},
		Body: []BodyElement{
			Pattern(TriplePattern{Subject: Variable("x"), Path: Simple(ns + "q"), Object: Variable("y")}),
			Bind(Variable("len"), Builtin("STRLEN", VarRef(Variable("y")))),
			Filter(BinaryOp(">", VarRef(Variable("len")), ConstTerm(TypedLiteral("0", xsdInteger)))),
		},
	}}}
	if err := ValidateRuleSet(rs); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}
