package engine

// This file defines the AST surface the engine consumes (spec.md §3,
// §6). The surface-syntax parser is out of scope; callers (or a
// parser they own) build these values directly. Variants are modeled
// as a small closed set of tagged Kind values rather than an open
// interface hierarchy, generalized to the richer node kinds a rule
// language needs.

// TripleTemplate is a head-position triple: each slot is a ground
// term or a Variable. The predicate slot is never a property path in
// a template (only in a pattern).
type TripleTemplate struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// PathKind tags the four PropertyPath variants (spec.md §3).
type PathKind int

const (
	PathSimple PathKind = iota
	PathInverse
	PathSequence
	PathAlternative
)

// PropertyPath is a recursive variant: Simple(IRI) | Inverse(Path) |
// Sequence([Path...]) | Alternative([Path...]).
type PropertyPath struct {
	Kind  PathKind
	IRI   string         // valid when Kind == PathSimple
	Sub   *PropertyPath  // valid when Kind == PathInverse
	Parts []PropertyPath // valid when Kind in {PathSequence, PathAlternative}
}

// Simple constructs a single-predicate path.
func Simple(iri string) PropertyPath { return PropertyPath{Kind: PathSimple, IRI: iri} }

// Inverse constructs the reverse of a path.
func Inverse(p PropertyPath) PropertyPath { return PropertyPath{Kind: PathInverse, Sub: &p} }

// Sequence constructs a left-to-right composition of paths.
func Sequence(parts ...PropertyPath) PropertyPath {
	return PropertyPath{Kind: PathSequence, Parts: parts}
}

// Alternative constructs a union of paths.
func Alternative(parts ...PropertyPath) PropertyPath {
	return PropertyPath{Kind: PathAlternative, Parts: parts}
}

// TriplePattern is a body-position triple: subject/object slots are a
// ground term or a Variable; the predicate slot is either a constant
// IRI (wrapped in Simple) or an arbitrary PropertyPath.
type TriplePattern struct {
	Subject Term
	Path    PropertyPath
	Object  Term
}

// PredicateIRIs returns the set of predicate IRIs this pattern's path
// could match, or {"*"} if the path contains a part that cannot be
// pinned to a finite IRI set at stratification time. Only
// PathSimple-shaped paths (including inside sequences/alternatives)
// are resolved to concrete IRIs; anything else degrades to "*".
func (p TriplePattern) PredicateIRIs() []string {
	return p.Path.simplePredicates()
}

func (p PropertyPath) simplePredicates() []string {
	switch p.Kind {
	case PathSimple:
		return []string{p.IRI}
	case PathInverse:
		if p.Sub == nil {
			return []string{wildcardPredicate}
		}
		return p.Sub.simplePredicates()
	case PathSequence, PathAlternative:
		out := make([]string, 0, len(p.Parts))
		for _, part := range p.Parts {
			out = append(out, part.simplePredicates()...)
		}
		return out
	default:
		return []string{wildcardPredicate}
	}
}

const wildcardPredicate = "*"

// BodyElementKind tags the BodyElement variants: the four of spec.md
// §3 plus the Aggregation placeholder.
type BodyElementKind int

const (
	ElementPattern BodyElementKind = iota
	ElementFilter
	ElementNegation
	ElementBind
	ElementAggregation
)

// BodyElement is one step of a rule body: a Pattern, a Filter, a
// Negation (a nested sub-body), a Bind, or — represented only so that
// validation can reject it explicitly — an Aggregation placeholder
// (spec.md §9 Open Question; aggregation itself is out of scope).
type BodyElement struct {
	Kind     BodyElementKind
	Pattern  TriplePattern
	Filter   Expression
	Negation []BodyElement
	BindVar  Term // Kind == ElementBind; must be a Variable
	BindExpr Expression
}

// Pattern wraps a TriplePattern as a BodyElement.
func Pattern(p TriplePattern) BodyElement { return BodyElement{Kind: ElementPattern, Pattern: p} }

// Filter wraps an Expression as a side-condition BodyElement.
func Filter(e Expression) BodyElement { return BodyElement{Kind: ElementFilter, Filter: e} }

// Negation wraps a sub-body as a negation-as-failure BodyElement.
func Negation(sub ...BodyElement) BodyElement {
	return BodyElement{Kind: ElementNegation, Negation: sub}
}

// Bind wraps a variable/expression pair as a BodyElement.
func Bind(v Term, e Expression) BodyElement {
	return BodyElement{Kind: ElementBind, BindVar: v, BindExpr: e}
}

// Aggregation constructs the always-invalid aggregation placeholder.
func Aggregation() BodyElement { return BodyElement{Kind: ElementAggregation} }

// Rule is a single (head, body) pair.
type Rule struct {
	Head []TripleTemplate
	Body []BodyElement
}

// RuleSet is an ordered set of rules. Prologue/prefix bindings are
// resolved at parse time and are not represented here (spec.md §3).
type RuleSet struct {
	Rules []Rule
}

// ExprKind tags the Expression variants (spec.md §6).
type ExprKind int

const (
	ExprTerm ExprKind = iota
	ExprVariable
	ExprBinaryOp
	ExprUnaryOp
	ExprBuiltin
	ExprFunctionCall
)

// Expression is a tagged variant over constant terms, variable
// references, binary/unary operators, and builtin/function calls.
type Expression struct {
	Kind ExprKind

	Term Term // ExprTerm: a ground term constant

	Var Term // ExprVariable: must be a Variable term

	Op    string       // ExprBinaryOp / ExprUnaryOp
	Left  *Expression  // ExprBinaryOp
	Right *Expression  // ExprBinaryOp
	Inner *Expression  // ExprUnaryOp

	Name string       // ExprBuiltin
	Args []Expression // ExprBuiltin / ExprFunctionCall

	FuncIRI string // ExprFunctionCall: out of scope, always rejected

	// resolved is the builtin function pointer looked up once, by
	// name, at construction time (Design Notes: "resolve by name once
	// at AST-validation time ... do not dispatch by string at
	// evaluation time"). nil if Name does not name a known builtin;
	// validate.go rejects that case with a WellFormednessError.
	resolved builtinFunc
}

// ConstTerm constructs a constant-term expression.
func ConstTerm(t Term) Expression { return Expression{Kind: ExprTerm, Term: t} }

// VarRef constructs a variable-reference expression.
func VarRef(v Term) Expression { return Expression{Kind: ExprVariable, Var: v} }

// BinaryOp constructs a binary operator expression.
func BinaryOp(op string, l, r Expression) Expression {
	return Expression{Kind: ExprBinaryOp, Op: op, Left: &l, Right: &r}
}

// UnaryOp constructs a unary operator expression.
func UnaryOp(op string, e Expression) Expression {
	return Expression{Kind: ExprUnaryOp, Op: op, Inner: &e}
}

// Builtin constructs a builtin-function-call expression, resolving
// name to a function pointer immediately. An unknown name is still
// constructed (resolved == nil) so that validate.go can surface a
// precise WellFormednessError rather than a construction-time panic.
func Builtin(name string, args ...Expression) Expression {
	return Expression{Kind: ExprBuiltin, Name: name, Args: args, resolved: resolveBuiltin(name)}
}

// FunctionCall constructs a call to a user-defined function. The
// engine has no function registry (spec.md Non-goals); validation
// rejects this variant with a WellFormednessError.
func FunctionCall(iri string, args ...Expression) Expression {
	return Expression{Kind: ExprFunctionCall, FuncIRI: iri, Args: args}
}

// FreeVariables returns the set of variable names an expression reads,
// used by validate.go to enforce the "bound strictly earlier" scoping
// rule (spec.md §4.H).
func (e Expression) FreeVariables() map[string]struct{} {
	out := make(map[string]struct{})
	e.collectFreeVariables(out)
	return out
}

func (e Expression) collectFreeVariables(out map[string]struct{}) {
	switch e.Kind {
	case ExprVariable:
		out[e.Var.VarName()] = struct{}{}
	case ExprBinaryOp:
		e.Left.collectFreeVariables(out)
		e.Right.collectFreeVariables(out)
	case ExprUnaryOp:
		e.Inner.collectFreeVariables(out)
	case ExprBuiltin, ExprFunctionCall:
		for _, a := range e.Args {
			a.collectFreeVariables(out)
		}
	}
}
