// Package memgraph provides the engine's default in-process Graph
// adapter: an indexed, append-only triple store. Its shape follows a
// familiar pattern for this kind of workload — an ID-indexed fact
// table behind a sync.RWMutex, queried by wildcard-or-constant slots,
// wrapped behind the interface the evaluator actually depends on —
// generalized from flat fact tuples to RDF (subject, predicate,
// object) triples with a predicate-first index, since almost every
// pattern in a rule body pins the predicate slot to a constant IRI.
package memgraph

import (
	"sync"

	"github.com/gitrdm/ruleforge/pkg/engine"
)

// Store is a thread-safe, append-only in-memory Graph. The zero value
// is not usable; construct with New.
type Store struct {
	mu sync.RWMutex

	// byPredicate indexes triples by predicate, then by a composite
	// subject/object key, so Contains and predicate-pinned Match calls
	// (by far the common case in a rule body) avoid a full scan.
	byPredicate map[string]map[tripleKey]engine.Triple
}

type tripleKey struct {
	subject string
	object  string
}

// New returns an empty Store.
func New() *Store {
	return &Store{byPredicate: make(map[string]map[tripleKey]engine.Triple)}
}

// FromTriples returns a Store pre-populated with the given triples.
func FromTriples(triples []engine.Triple) *Store {
	s := New()
	for _, t := range triples {
		s.Add(t.Subject, t.Predicate, t.Object)
	}
	return s
}

// Clone returns an independent copy of the store, for callers that
// want evaluate-without-InPlace semantics (spec.md §6).
func (s *Store) Clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := New()
	for pred, bucket := range s.byPredicate {
		newBucket := make(map[tripleKey]engine.Triple, len(bucket))
		for k, v := range bucket {
			newBucket[k] = v
		}
		out.byPredicate[pred] = newBucket
	}
	return out
}

func key(s, o engine.Term) tripleKey {
	return tripleKey{subject: termKey(s), object: termKey(o)}
}

// termKey renders a ground term into a string usable as a map key.
// Lexical-plus-metadata distinctness (the same distinctness Term.Equal
// uses) must be preserved, so the key encodes kind, lexical content,
// and literal metadata.
func termKey(t engine.Term) string {
	switch t.Kind() {
	case engine.KindIRI:
		return "I:" + t.IRIValue()
	case engine.KindBlank:
		return "B:" + t.BlankLabel()
	case engine.KindLiteral:
		return "L:" + t.Lexical() + "\x00" + t.Datatype() + "\x00" + t.Lang()
	default:
		return "?:" + t.VarName()
	}
}

// Contains reports whether (s, p, o) is already present.
func (s *Store) Contains(subj, pred, obj engine.Term) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket, ok := s.byPredicate[termKey(pred)]
	if !ok {
		return false
	}
	_, ok = bucket[key(subj, obj)]
	return ok
}

// Add inserts (s, p, o); a repeat insert is a no-op (spec.md §3
// invariant 4).
func (s *Store) Add(subj, pred, obj engine.Term) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pk := termKey(pred)
	bucket, ok := s.byPredicate[pk]
	if !ok {
		bucket = make(map[tripleKey]engine.Triple)
		s.byPredicate[pk] = bucket
	}
	bucket[key(subj, obj)] = engine.Triple{Subject: subj, Predicate: pred, Object: obj}
}

// Match returns every triple matching the given pattern, where a nil
// slot is a wildcard. When the predicate slot is pinned, only that
// predicate's bucket is scanned.
func (s *Store) Match(subj, pred, obj *engine.Term) []engine.Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []engine.Triple
	if pred != nil {
		bucket := s.byPredicate[termKey(*pred)]
		for _, t := range bucket {
			if t.Matches(subj, pred, obj) {
				out = append(out, t)
			}
		}
		return out
	}
	for _, bucket := range s.byPredicate {
		for _, t := range bucket {
			if t.Matches(subj, pred, obj) {
				out = append(out, t)
			}
		}
	}
	return out
}

// Triples returns every triple in the store. Order is unspecified.
func (s *Store) Triples() []engine.Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]engine.Triple, 0)
	for _, bucket := range s.byPredicate {
		for _, t := range bucket {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of triples currently stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, bucket := range s.byPredicate {
		n += len(bucket)
	}
	return n
}

var _ engine.Graph = (*Store)(nil)
