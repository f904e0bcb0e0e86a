package engine

import (
	"fmt"
	"hash/fnv"
	"sync/atomic"
)

// This file implements the blank-node freshness rule of spec.md §4.G /
// Design Notes: "Blank nodes newly introduced by BNODE() in head
// templates should be fresh per (rule, solution) across iterations...
// Implementations must guarantee such freshness deterministically
// (e.g., by hashing rule id + μ)." hash/fnv is stdlib, used
// deliberately (see DESIGN.md) — no pack dependency offers a better
// fit for a non-cryptographic, deterministic label generator than the
// teacher's own hand-derived generateFactID (fact_store.go) pattern,
// which this mirrors.

// fallbackBlankCounter backs BNODE() calls made outside of a driver
// run (e.g. ad-hoc expression tests), where determinism is not
// required, only uniqueness.
var fallbackBlankCounter int64

func freshBlankLabel(ctx evalContext) string {
	if ctx.blankSeed != nil {
		return ctx.blankSeed()
	}
	n := atomic.AddInt64(&fallbackBlankCounter, 1)
	return fmt.Sprintf("fresh%d", n)
}

// newBlankSeed returns a closure that deterministically derives a
// fresh blank label on each call, from (ruleIndex, a canonical
// rendering of μ, and a per-call counter distinguishing multiple
// BNODE() calls evaluated against the same μ). Per spec.md §4.G, a
// blank node newly introduced by BNODE() must be fresh per (rule,
// solution) — not per iteration: a naive fixpoint re-derives the same
// μ on every round until quiescence, and re-deriving it must yield the
// same label each time, or the derived triple never stabilizes and
// evaluation never converges. The caller is expected to construct a
// fresh closure per μ (not share one across the mappings of a whole
// round), so the call counter only distinguishes multiple BNODE()
// calls made while evaluating that single μ.
func newBlankSeed(ruleIndex int, m Mapping) func() string {
	var call int64
	return func() string {
		call++
		h := fnv.New64a()
		fmt.Fprintf(h, "%d|%s|%d", ruleIndex, canonicalMapping(m), call)
		return fmt.Sprintf("b%x", h.Sum64())
	}
}

// canonicalMapping renders a mapping into a stable string regardless
// of internal small-map/hashed-map representation or Go's randomized
// map iteration order (Design Notes: "Equality/hash for deduplication
// must canonicalise order").
func canonicalMapping(m Mapping) string {
	pairs := m.asPairs()
	keys := make([]string, len(pairs))
	index := make(map[string]Term, len(pairs))
	for i, b := range pairs {
		keys[i] = b.name
		index[b.name] = b.term
	}
	sortStrings(keys)
	out := ""
	for _, k := range keys {
		out += k + "=" + index[k].String() + ";"
	}
	return out
}

// sortStrings is a tiny insertion sort: the mapping sizes this runs
// over are small (bounded by a rule's variable count), so pulling in
// sort.Strings for a handful of elements is unnecessary ceremony.
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
