// Package matcher finds the enrolled embedding nearest to a query embedding
// and applies the acceptance threshold.
//
// Ties on the minimum distance always resolve to the candidate that appears
// first in the input slice, for both the brute force scan and the k-d tree.
package matcher

import (
	"errors"
	"math"
)

var (
	// ErrNoValidCandidates is returned when candidates were supplied but none
	// of them has the query's dimension.
	ErrNoValidCandidates = errors.New("no valid embeddings for comparison")
	// ErrEmptyQuery is returned for a zero-length query embedding.
	ErrEmptyQuery = errors.New("query embedding is empty")
)

// Candidate is one enrolled embedding.
type Candidate struct {
	Key         string
	IndexNumber string
	Name        string
	Embedding   []float64
	// Revision changes whenever the stored embedding changes. The Matcher
	// uses it to decide whether a cached index is still current.
	Revision int64
}

// Result is the nearest candidate and the threshold decision.
type Result struct {
	Key         string
	IndexNumber string
	Name        string
	Distance    float64
	Accepted    bool
	// Found is false only for an empty candidate set.
	Found bool
	// Position is the candidate's position in the input slice.
	Position int
	// Compared is the number of candidates actually compared.
	Compared int
}

// Distance returns the Euclidean distance between a and b.
// a and b must have the same length.
func Distance(a, b []float64) float64 {
	return math.Sqrt(squaredDistance(a, b))
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Match scans every candidate and returns the nearest one. A match is
// accepted iff its distance is strictly below threshold.
func Match(query []float64, candidates []Candidate, threshold float64) (Result, error) {
	if len(query) == 0 {
		return Result{}, ErrEmptyQuery
	}
	if len(candidates) == 0 {
		return Result{}, nil
	}

	best := -1
	bestSq := 0.0
	compared := 0
	for i := range candidates {
		if len(candidates[i].Embedding) != len(query) {
			continue
		}
		compared++
		d := squaredDistance(query, candidates[i].Embedding)
		if best < 0 || d < bestSq {
			best = i
			bestSq = d
		}
	}

	if best < 0 {
		return Result{}, ErrNoValidCandidates
	}

	return newResult(candidates[best], best, math.Sqrt(bestSq), threshold, compared), nil
}

func newResult(c Candidate, pos int, distance, threshold float64, compared int) Result {
	return Result{
		Key:         c.Key,
		IndexNumber: c.IndexNumber,
		Name:        c.Name,
		Distance:    distance,
		Accepted:    distance < threshold,
		Found:       true,
		Position:    pos,
		Compared:    compared,
	}
}
