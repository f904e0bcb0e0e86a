package engine

import (
	"context"

	"go.uber.org/zap"
)

// This file implements the fixpoint driver of spec.md §4.G: per-
// stratum naive iteration to quiescence over a batched delta, head
// instantiation, the iteration cap, cancellation, and provenance.
// The "collect a full round before committing" discipline follows the
// teacher's top-level Run/Stream batching (drain a whole answer set
// before the caller sees it), generalized here to "collect every
// rule's delta for the current stratum before committing any of it to
// the graph", which spec.md §5 requires for rule-order independence
// within a stratum.

// engineConfig holds Engine construction options, following the
// teacher's functional-options convention.
type engineConfig struct {
	maxIterations int
	logger        *zap.SugaredLogger
}

const defaultMaxIterations = 1000

// Option configures an Engine at construction time.
type Option func(*engineConfig)

// WithMaxIterations overrides the per-stratum iteration cap (spec.md
// §4.G / §7). n <= 0 is ignored.
func WithMaxIterations(n int) Option {
	return func(c *engineConfig) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithLogger attaches a zap logger the Engine uses for the iteration-
// cap and cancellation diagnostics it emits. A nil logger (the
// default) disables logging entirely; the Engine never requires one.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *engineConfig) { c.logger = l }
}

// Engine evaluates a stratified RuleSet to fixpoint against a Graph
// (spec.md §4.G). It is immutable after construction and safe to reuse
// across multiple Evaluate calls against different graphs.
type Engine struct {
	rules  []Rule
	strata [][]int
	config engineConfig
}

// New validates rs, stratifies it, and returns a ready-to-use Engine,
// or the first WellFormednessError/StratificationError encountered.
func New(rs RuleSet, opts ...Option) (*Engine, error) {
	if err := ValidateRuleSet(rs); err != nil {
		return nil, err
	}
	strata, err := stratify(rs.Rules)
	if err != nil {
		return nil, err
	}
	cfg := engineConfig{maxIterations: defaultMaxIterations}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{rules: rs.Rules, strata: strata, config: cfg}, nil
}

// Strata returns the rule indices grouped by evaluation stratum, in
// evaluation order (spec.md §4.F/§4.G).
func (e *Engine) Strata() [][]int {
	out := make([][]int, len(e.strata))
	for i, s := range e.strata {
		layer := make([]int, len(s))
		copy(layer, s)
		out[i] = layer
	}
	return out
}

// EvalOptions configures a single Evaluate call (spec.md §6).
type EvalOptions struct {
	// InPlace, when true, adds derived triples directly to the Graph
	// passed to Evaluate. When false (the default), the input graph is
	// left untouched and the returned Graph is an independent copy
	// seeded from it plus the derived triples.
	InPlace bool

	// ResultsOnly, when true, makes Evaluate return only the newly
	// derived triples rather than input ∪ derived. Mutually exclusive
	// with InPlace (spec.md §6: mutating the caller's graph while also
	// claiming to report only the delta is a contradiction in terms).
	ResultsOnly bool

	// Cancel, if non-nil, is checked between rounds; a closed channel
	// stops evaluation early and returns the partial result with
	// Result.Cancelled set.
	Cancel <-chan struct{}
}

// Result is what a completed or cancelled Evaluate call reports
// (spec.md §7).
type Result struct {
	Graph      Graph
	Warnings   []IterationCapWarning
	Cancelled  bool
	Provenance []Derivation // nil unless requested via EvaluateWithProvenance
}

// Derivation records which rule, in which stratum, produced a triple,
// for callers that want an explanation trace (spec.md §4.G "optional
// provenance").
type Derivation struct {
	Triple    Triple
	RuleIndex int
	Stratum   int
}

// Evaluate runs the Engine's rule set to fixpoint against g under
// opts (spec.md §4.G).
func (e *Engine) Evaluate(ctx context.Context, g Graph, opts EvalOptions) (Result, error) {
	return e.run(ctx, g, opts, false)
}

// EvaluateWithProvenance behaves like Evaluate but additionally
// populates Result.Provenance with one Derivation per newly derived
// triple (spec.md §4.G).
func (e *Engine) EvaluateWithProvenance(ctx context.Context, g Graph, opts EvalOptions) (Result, error) {
	return e.run(ctx, g, opts, true)
}

func (e *Engine) run(ctx context.Context, g Graph, opts EvalOptions, trackProvenance bool) (Result, error) {
	if opts.InPlace && opts.ResultsOnly {
		return Result{}, newConfigurationError("InPlace and ResultsOnly cannot both be set")
	}

	working, seed := e.targetGraph(g, opts.InPlace)
	var provenance []Derivation
	var warnings []IterationCapWarning

	for stratumIdx, ruleIndices := range e.strata {
		cancelled, capWarning, err := e.runStratum(ctx, working, stratumIdx, ruleIndices, opts.Cancel, trackProvenance, &provenance)
		if err != nil {
			return Result{}, err
		}
		if capWarning != nil {
			warnings = append(warnings, *capWarning)
			e.logWarning(*capWarning)
		}
		if cancelled {
			e.logCancelled(stratumIdx)
			return Result{
				Graph:      e.finalGraph(working, seed, opts.ResultsOnly),
				Warnings:   warnings,
				Cancelled:  true,
				Provenance: provenance,
			}, nil
		}
	}

	return Result{
		Graph:      e.finalGraph(working, seed, opts.ResultsOnly),
		Warnings:   warnings,
		Provenance: provenance,
	}, nil
}

// targetGraph returns the graph rule evaluation reads from and writes
// to, plus (when not InPlace) a snapshot of the triples present before
// evaluation, used later to compute a results-only delta.
func (e *Engine) targetGraph(g Graph, inPlace bool) (Graph, map[Triple]struct{}) {
	if inPlace {
		return g, nil
	}
	seed := make(map[Triple]struct{})
	working := newScratchGraph()
	for _, t := range g.Match(nil, nil, nil) {
		working.Add(t.Subject, t.Predicate, t.Object)
		seed[t] = struct{}{}
	}
	return working, seed
}

func (e *Engine) finalGraph(working Graph, seed map[Triple]struct{}, resultsOnly bool) Graph {
	if seed == nil || !resultsOnly {
		return working
	}
	out := newScratchGraph()
	for _, t := range working.Match(nil, nil, nil) {
		if _, wasSeed := seed[t]; !wasSeed {
			out.Add(t.Subject, t.Predicate, t.Object)
		}
	}
	return out
}

// runStratum iterates the rules of one stratum to quiescence, or until
// the iteration cap is hit or ctx/cancel fires. Per round, every
// rule's new derivations are collected before any of them are
// committed to g, so within a stratum the result does not depend on
// rule order (spec.md §5).
func (e *Engine) runStratum(
	ctx context.Context,
	g Graph,
	stratumIdx int,
	ruleIndices []int,
	cancel <-chan struct{},
	trackProvenance bool,
	provenance *[]Derivation,
) (cancelled bool, capWarning *IterationCapWarning, err error) {
	for iteration := 0; ; iteration++ {
		select {
		case <-ctx.Done():
			return true, capWarning, nil
		default:
		}
		if cancel != nil {
			select {
			case <-cancel:
				return true, capWarning, nil
			default:
			}
		}

		type delta struct {
			ruleIndex int
			triples   []Triple
		}
		var round []delta
		changed := false

		for _, ruleIdx := range ruleIndices {
			rule := e.rules[ruleIdx]
			bctx := bodyEvalContext{graph: g, ruleIndex: ruleIdx}
			omega := evalBody(rule.Body, bctx)

			var derived []Triple
			for _, mu := range omega {
				for _, tmpl := range rule.Head {
					s, p, o, ok := SubstituteTemplate(tmpl, mu)
					if !ok {
						continue
					}
					if !g.Contains(s, p, o) {
						derived = append(derived, Triple{Subject: s, Predicate: p, Object: o})
					}
				}
			}
			if len(derived) > 0 {
				round = append(round, delta{ruleIndex: ruleIdx, triples: derived})
			}
		}

		for _, d := range round {
			for _, t := range d.triples {
				if g.Contains(t.Subject, t.Predicate, t.Object) {
					continue
				}
				g.Add(t.Subject, t.Predicate, t.Object)
				changed = true
				if trackProvenance {
					*provenance = append(*provenance, Derivation{Triple: t, RuleIndex: d.ruleIndex, Stratum: stratumIdx})
				}
			}
		}

		if !changed {
			return false, nil, nil
		}
		if iteration+1 >= e.config.maxIterations {
			return false, &IterationCapWarning{Stratum: stratumIdx, Iterations: iteration + 1}, nil
		}
	}
}

func (e *Engine) logWarning(w IterationCapWarning) {
	if e.config.logger == nil {
		return
	}
	e.config.logger.Warnw("stratum hit iteration cap",
		"stratum", w.Stratum, "iterations", w.Iterations)
}

func (e *Engine) logCancelled(stratum int) {
	if e.config.logger == nil {
		return
	}
	e.config.logger.Infow("evaluation cancelled", "stratum", stratum)
}
