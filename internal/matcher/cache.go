package matcher

import (
	"sync"
)

// DefaultIndexMinCandidates is the population size from which a k-d tree is
// used instead of a linear scan.
const DefaultIndexMinCandidates = 256

// Matcher picks brute force or a cached Index depending on population size.
// The cached index is rebuilt when Invalidate is called or when the
// candidates' keys or revisions differ from the ones it was built from.
type Matcher struct {
	minIndexed int

	mu     sync.Mutex
	cached *Index
	sig    []signature
	stale  bool
	builds int
}

type signature struct {
	key      string
	revision int64
}

// New creates a Matcher. minIndexed <= 0 selects DefaultIndexMinCandidates.
func New(minIndexed int) *Matcher {
	if minIndexed <= 0 {
		minIndexed = DefaultIndexMinCandidates
	}
	return &Matcher{minIndexed: minIndexed}
}

// Indexed reports whether a population of n candidates uses the index.
func (m *Matcher) Indexed(n int) bool {
	return n >= m.minIndexed
}

// Match returns the nearest candidate to query.
func (m *Matcher) Match(query []float64, candidates []Candidate, threshold float64) (Result, error) {
	if !m.Indexed(len(candidates)) {
		return Match(query, candidates, threshold)
	}
	return m.index(candidates, len(query)).Match(query, threshold)
}

// Invalidate drops the cached index. The enrollment workflow calls it after
// every write to the store.
func (m *Matcher) Invalidate() {
	m.mu.Lock()
	m.stale = true
	m.mu.Unlock()
}

// Builds returns how many times an index has been built.
func (m *Matcher) Builds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.builds
}

func (m *Matcher) index(candidates []Candidate, dims int) *Index {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil && !m.stale && m.cached.Dims() == dims && sameSignature(m.sig, candidates) {
		return m.cached
	}

	// The index keeps the slice, so it must not alias the caller's.
	owned := make([]Candidate, len(candidates))
	copy(owned, candidates)

	m.cached = NewIndex(owned, dims)
	m.sig = signatureOf(owned)
	m.stale = false
	m.builds++
	return m.cached
}

func signatureOf(candidates []Candidate) []signature {
	sig := make([]signature, len(candidates))
	for i, c := range candidates {
		sig[i] = signature{key: c.Key, revision: c.Revision}
	}
	return sig
}

func sameSignature(sig []signature, candidates []Candidate) bool {
	if len(sig) != len(candidates) {
		return false
	}
	for i, c := range candidates {
		if sig[i].key != c.Key || sig[i].revision != c.Revision {
			return false
		}
	}
	return true
}
