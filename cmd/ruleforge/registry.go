package main

import "github.com/gitrdm/ruleforge/pkg/engine"

// exampleRuleSets holds the built-in demonstration rule sets (ancestor
// closure and stratified negation), kept available here under a name
// so `ruleforge run --example NAME` has something to evaluate without
// a surface-syntax rule parser (out of scope).
var exampleRuleSets = map[string]engine.RuleSet{
	"ancestor": {Rules: []engine.Rule{
		{
			Head: []engine.TripleTemplate{{
				Subject: engine.Variable("x"), Predicate: engine.IRI(exNS + "ancestor"), Object: engine.Variable("y"),
			}},
			Body: []engine.BodyElement{
				engine.Pattern(engine.TriplePattern{
					Subject: engine.Variable("x"), Path: engine.Simple(exNS + "parent"), Object: engine.Variable("y"),
				}),
			},
		},
		{
			Head: []engine.TripleTemplate{{
				Subject: engine.Variable("x"), Predicate: engine.IRI(exNS + "ancestor"), Object: engine.Variable("z"),
			}},
			Body: []engine.BodyElement{
				engine.Pattern(engine.TriplePattern{
					Subject: engine.Variable("x"), Path: engine.Simple(exNS + "parent"), Object: engine.Variable("y"),
				}),
				engine.Pattern(engine.TriplePattern{
					Subject: engine.Variable("y"), Path: engine.Simple(exNS + "ancestor"), Object: engine.Variable("z"),
				}),
			},
		},
	}},
	"non-manager": {Rules: []engine.Rule{
		{
			Head: []engine.TripleTemplate{{
				Subject: engine.Variable("x"), Predicate: engine.IRI(exNS + "isManager"), Object: engine.PlainLiteral("true"),
			}},
			Body: []engine.BodyElement{
				engine.Pattern(engine.TriplePattern{
					Subject: engine.Variable("x"), Path: engine.Simple(exNS + "manages"), Object: engine.Variable("report"),
				}),
			},
		},
		{
			Head: []engine.TripleTemplate{{
				Subject: engine.Variable("x"), Predicate: engine.IRI(exNS + "nonManager"), Object: engine.PlainLiteral("true"),
			}},
			Body: []engine.BodyElement{
				engine.Pattern(engine.TriplePattern{
					Subject: engine.Variable("x"), Path: engine.Simple(exNS + "employee"), Object: engine.Variable("flag"),
				}),
				engine.Negation(
					engine.Pattern(engine.TriplePattern{
						Subject: engine.Variable("x"), Path: engine.Simple(exNS + "isManager"), Object: engine.Variable("managerFlag"),
					}),
				),
			},
		},
	}},
}

const exNS = "http://example.org/ruleforge#"
