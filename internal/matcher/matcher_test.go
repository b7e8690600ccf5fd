package matcher

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dims = 128

func vec(values ...float64) []float64 {
	v := make([]float64, dims)
	copy(v, values)
	return v
}

func randomVec(r *rand.Rand) []float64 {
	v := make([]float64, dims)
	for i := range v {
		v[i] = r.NormFloat64()
	}
	return v
}

func TestDistance_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		a := randomVec(r)
		b := randomVec(r)

		assert.Equal(t, 0.0, Distance(a, a), "distance to self")
		assert.Equal(t, Distance(a, b), Distance(b, a), "symmetry")
		assert.GreaterOrEqual(t, Distance(a, b), 0.0, "non-negative")
	}

	assert.InDelta(t, 5.0, Distance(vec(3, 4), vec()), 1e-12)
}

func TestMatch_EmptyCandidates(t *testing.T) {
	for _, threshold := range []float64{0, 0.6, 100} {
		res, err := Match(vec(1), nil, threshold)
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.False(t, res.Accepted)
	}
}

func TestMatch_EmptyQuery(t *testing.T) {
	_, err := Match(nil, []Candidate{{Key: "a", Embedding: vec()}}, 0.6)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestMatch_ThresholdBoundary(t *testing.T) {
	const threshold = 0.5

	t.Run("distance equal to threshold is rejected", func(t *testing.T) {
		candidates := []Candidate{{Key: "20210001", Embedding: vec(0.5)}}

		res, err := Match(vec(), candidates, threshold)
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.Equal(t, threshold, res.Distance)
		assert.False(t, res.Accepted)
	})

	t.Run("distance just below threshold is accepted", func(t *testing.T) {
		candidates := []Candidate{{Key: "20210001", Embedding: vec(0.5 - 1e-9)}}

		res, err := Match(vec(), candidates, threshold)
		require.NoError(t, err)
		assert.Less(t, res.Distance, threshold)
		assert.True(t, res.Accepted)
		assert.Equal(t, "20210001", res.Key)
	})
}

func TestMatch_DimensionMismatch(t *testing.T) {
	t.Run("mismatched candidates are skipped", func(t *testing.T) {
		candidates := []Candidate{
			{Key: "short", Embedding: []float64{0, 0}},
			{Key: "valid", Embedding: vec(0.3)},
			{Key: "long", Embedding: make([]float64, 512)},
		}

		res, err := Match(vec(), candidates, 0.6)
		require.NoError(t, err)
		assert.Equal(t, "valid", res.Key)
		assert.Equal(t, 1, res.Compared)
	})

	t.Run("all candidates invalid is reported", func(t *testing.T) {
		candidates := []Candidate{
			{Key: "short", Embedding: []float64{0, 0}},
			{Key: "none"},
		}

		_, err := Match(vec(), candidates, 0.6)
		assert.ErrorIs(t, err, ErrNoValidCandidates)
	})
}

func TestMatch_TieBreakIsInputOrder(t *testing.T) {
	candidates := []Candidate{
		{Key: "far", Embedding: vec(2)},
		{Key: "first", Embedding: vec(0.1)},
		{Key: "second", Embedding: vec(-0.1)},
		{Key: "third", Embedding: vec(0, 0.1)},
	}

	res, err := Match(vec(), candidates, 0.6)
	require.NoError(t, err)
	assert.Equal(t, "first", res.Key)
	assert.Equal(t, 1, res.Position)
}

func TestMatch_Idempotent(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	candidates := make([]Candidate, 30)
	for i := range candidates {
		candidates[i] = Candidate{Key: fmt.Sprintf("%08d", i), Embedding: randomVec(r)}
	}
	query := randomVec(r)

	first, err := Match(query, candidates, 10)
	require.NoError(t, err)
	second, err := Match(query, candidates, 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// Fifty enrolled students, the query sits 0.05 away from #37 and every other
// embedding is far away; the winner must not depend on insertion order.
func TestMatch_FiftyIdentitiesAnyOrder(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	candidates := make([]Candidate, 50)
	for i := range candidates {
		e := make([]float64, dims)
		e[i] = 1 // orthonormal basis vectors are sqrt(2) apart
		candidates[i] = Candidate{Key: fmt.Sprintf("student-%02d", i+1), Embedding: e}
	}

	target := candidates[36]
	query := make([]float64, dims)
	copy(query, target.Embedding)
	query[100] = 0.05

	for _, c := range candidates {
		if c.Key != target.Key {
			require.Greater(t, Distance(query, c.Embedding), 0.4)
		}
	}

	m := New(10)
	for round := 0; round < 20; round++ {
		shuffled := make([]Candidate, len(candidates))
		copy(shuffled, candidates)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		res, err := Match(query, shuffled, 0.6)
		require.NoError(t, err)
		assert.Equal(t, "student-37", res.Key)
		assert.InDelta(t, 0.05, res.Distance, 1e-12)
		assert.True(t, res.Accepted)

		indexed, err := m.Match(query, shuffled, 0.6)
		require.NoError(t, err)
		assert.Equal(t, res.Key, indexed.Key)
		assert.Equal(t, res.Distance, indexed.Distance)
	}
}
