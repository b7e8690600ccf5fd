package matcher

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// point is a kd-tree point that remembers its position in the candidate slice.
type point struct {
	vec []float64
	pos int
}

func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(point)
	return p.vec[d] - q.vec[d]
}

func (p point) Dims() int { return len(p.vec) }

// Distance is the squared Euclidean distance, as kdtree expects.
func (p point) Distance(c kdtree.Comparable) float64 {
	return squaredDistance(p.vec, c.(point).vec)
}

type points []point

func (p points) Index(i int) kdtree.Comparable         { return p[i] }
func (p points) Len() int                              { return len(p) }
func (p points) Pivot(d kdtree.Dim) int                { return plane{points: p, Dim: d}.Pivot() }
func (p points) Slice(start, end int) kdtree.Interface { return p[start:end] }

type plane struct {
	kdtree.Dim
	points
}

func (p plane) Less(i, j int) bool { return p.points[i].vec[p.Dim] < p.points[j].vec[p.Dim] }
func (p plane) Pivot() int         { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{Dim: p.Dim, points: p.points[start:end]}
}
func (p plane) Swap(i, j int) { p.points[i], p.points[j] = p.points[j], p.points[i] }

// Index is an exact nearest-neighbour index over a fixed candidate set.
// Results are identical to Match over the same candidates.
type Index struct {
	tree       *kdtree.Tree
	candidates []Candidate
	dims       int
	valid      int
}

// NewIndex builds an index over the candidates whose embeddings have dims
// components. Other candidates are excluded.
func NewIndex(candidates []Candidate, dims int) *Index {
	pts := make(points, 0, len(candidates))
	for i, c := range candidates {
		if len(c.Embedding) != dims {
			continue
		}
		pts = append(pts, point{vec: c.Embedding, pos: i})
	}

	ix := &Index{
		candidates: candidates,
		dims:       dims,
		valid:      len(pts),
	}
	if len(pts) > 0 {
		ix.tree = kdtree.New(pts, false)
	}
	return ix
}

// Len returns the number of indexed candidates.
func (ix *Index) Len() int { return ix.valid }

// Dims returns the indexed dimension.
func (ix *Index) Dims() int { return ix.dims }

// Match returns the nearest indexed candidate, breaking ties on input position.
func (ix *Index) Match(query []float64, threshold float64) (Result, error) {
	if len(query) == 0 {
		return Result{}, ErrEmptyQuery
	}
	if len(ix.candidates) == 0 {
		return Result{}, nil
	}
	if ix.tree == nil || len(query) != ix.dims {
		return Result{}, ErrNoValidCandidates
	}

	q := point{vec: query, pos: -1}
	_, minSq := ix.tree.Nearest(q)

	keeper := kdtree.NewDistKeeper(minSq)
	ix.tree.NearestSet(keeper, q)

	best := -1
	for _, c := range keeper.Heap {
		if c.Comparable == nil {
			continue
		}
		pos := c.Comparable.(point).pos
		if best < 0 || pos < best {
			best = pos
		}
	}

	return newResult(ix.candidates[best], best, math.Sqrt(minSq), threshold, ix.valid), nil
}
