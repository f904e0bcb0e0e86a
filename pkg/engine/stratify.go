package engine

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// This file implements the stratifier of spec.md §4.F. The predicate-
// level dependency graph and cycle-through-negation check follow
// original_source's stratification.py (compute_dependencies /
// detect_negation_cycles) exactly, including its decision to never
// record a self-dependency edge (i == j is skipped there, so a
// self-recursive rule like spec.md S2's transitive-closure rule stays
// single-stratum; see DESIGN.md Open Question 4). Cycle detection
// itself is reimplemented on gonum.org/v1/gonum/graph/topo.TarjanSCC
// rather than the original's hand-rolled path-tracking DFS, grounded
// on the gonum-gonum example in the pack (which also models RDF terms
// as graph.Node/graph.Edge for the same class of algorithm reuse).

type dependencyEdge struct {
	from, to int
	negative bool
}

// stratify computes the evaluation layers for rules (spec.md §4.F),
// returning one []int of rule indices per stratum, or a
// StratificationError if the dependency graph has a cycle containing
// a negative edge.
func stratify(rules []Rule) ([][]int, error) {
	n := len(rules)
	if n == 0 {
		return nil, nil
	}

	headPreds := make([][]string, n)
	bodyPreds := make([][]string, n)
	negBodyPreds := make([][]string, n)
	for i, r := range rules {
		headPreds[i] = headPredicates(r)
		bodyPreds[i] = bodyPredicates(r.Body, false)
		negBodyPreds[i] = bodyPredicates(r.Body, true)
	}

	var edges []dependencyEdge
	g := simple.NewDirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue // self-dependency is never recorded; see DESIGN.md.
			}
			// rule i's head feeds rule j's body: edge i -> j.
			if predicatesOverlap(headPreds[i], bodyPreds[j]) {
				edges = append(edges, dependencyEdge{from: i, to: j, negative: false})
				addEdgeOnce(g, i, j)
			}
			if predicatesOverlap(headPreds[i], negBodyPreds[j]) {
				edges = append(edges, dependencyEdge{from: i, to: j, negative: true})
				addEdgeOnce(g, i, j)
			}
		}
	}

	component := componentIndex(n, g)

	var cycleNodes []int
	for _, e := range edges {
		if e.negative && component[e.from] == component[e.to] {
			cycleNodes = componentMembers(component, component[e.from])
			break
		}
	}
	if cycleNodes != nil {
		return nil, newStratificationError(cycleNodes)
	}

	return layerByCondensation(n, component, edges)
}

func addEdgeOnce(g *simple.DirectedGraph, from, to int) {
	if g.HasEdgeFromTo(int64(from), int64(to)) {
		return
	}
	g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
}

// componentIndex returns, for each rule index, the id of its strongly
// connected component (gonum's TarjanSCC groups even singleton nodes
// into their own trivial component).
func componentIndex(n int, g graph.Directed) []int {
	sccs := topo.TarjanSCC(g)
	component := make([]int, n)
	for compID, members := range sccs {
		for _, node := range members {
			component[node.ID()] = compID
		}
	}
	return component
}

func componentMembers(component []int, id int) []int {
	var out []int
	for i, c := range component {
		if c == id {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

// layerByCondensation assigns each rule the stratum of its SCC in the
// condensation graph (edges between distinct components), via the
// relaxation rule of spec.md §4.F: stratum(r) := 1 + max over incoming
// edges of stratum(source). The condensation is acyclic by
// construction (cycles were already rejected above), so this
// converges in at most the number of components iterations; exceeding
// that is an internal error (spec.md §4.F: "else signal an internal
// error").
func layerByCondensation(n int, component []int, edges []dependencyEdge) ([][]int, error) {
	numComponents := 0
	for _, c := range component {
		if c+1 > numComponents {
			numComponents = c + 1
		}
	}

	condEdges := make(map[[2]int]struct{})
	for _, e := range edges {
		cf, ct := component[e.from], component[e.to]
		if cf != ct {
			condEdges[[2]int{cf, ct}] = struct{}{}
		}
	}

	compStratum := make([]int, numComponents)
	changed := true
	for iteration := 0; changed; iteration++ {
		if iteration > numComponents+1 {
			return nil, newEvaluationError("stratum relaxation failed to converge")
		}
		changed = false
		for pair := range condEdges {
			src, dst := pair[0], pair[1]
			required := compStratum[src] + 1
			if required > compStratum[dst] {
				compStratum[dst] = required
				changed = true
			}
		}
	}

	maxStratum := 0
	for _, s := range compStratum {
		if s > maxStratum {
			maxStratum = s
		}
	}
	strata := make([][]int, maxStratum+1)
	for i := 0; i < n; i++ {
		s := compStratum[component[i]]
		strata[s] = append(strata[s], i)
	}
	return strata, nil
}

func headPredicates(r Rule) []string {
	out := make([]string, 0, len(r.Head))
	for _, tmpl := range r.Head {
		if tmpl.Predicate.Kind() == KindVariable {
			out = append(out, wildcardPredicate)
		} else if tmpl.Predicate.Kind() == KindIRI {
			out = append(out, tmpl.Predicate.IRIValue())
		}
	}
	return out
}

// bodyPredicates extracts predicate IRIs from a rule body's positive
// patterns (negated=false) or from patterns nested inside Negation
// elements (negated=true), per original_source's extract_body_predicates.
func bodyPredicates(body []BodyElement, negated bool) []string {
	var out []string
	for _, el := range body {
		switch {
		case !negated && el.Kind == ElementPattern:
			out = append(out, el.Pattern.PredicateIRIs()...)
		case negated && el.Kind == ElementNegation:
			for _, inner := range el.Negation {
				if inner.Kind == ElementPattern {
					out = append(out, inner.Pattern.PredicateIRIs()...)
				}
			}
		}
	}
	return out
}

// predicatesOverlap reports whether two predicate-IRI sets could
// overlap: they share an IRI, or either contains the "*" wildcard
// (spec.md §4.F).
func predicatesOverlap(a, b []string) bool {
	for _, x := range a {
		if x == wildcardPredicate {
			return true
		}
	}
	for _, y := range b {
		if y == wildcardPredicate {
			return true
		}
	}
	set := make(map[string]struct{}, len(a))
	for _, x := range a {
		set[x] = struct{}{}
	}
	for _, y := range b {
		if _, ok := set[y]; ok {
			return true
		}
	}
	return false
}
