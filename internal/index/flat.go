// Package index implements a flat, exact nearest-neighbor vector index under
// squared Euclidean distance. There is no deletion primitive: removal is
// handled one level up by rebuilding a fresh index from the surviving vectors.
package index

import (
	"fmt"
	"sort"
)

// Hit is a single search result: the append-order position of the matched
// vector and its squared L2 distance from the query.
type Hit struct {
	Position int
	Distance float32
}

// Flat holds all vectors for one store and searches them by brute force.
// Positions are dense and assigned in append order.
type Flat struct {
	dim     int
	vectors [][]float32
}

// NewFlat creates an empty index for vectors of the given dimension.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	return &Flat{dim: dim}, nil
}

// Dimension returns the vector width the index was created with.
func (f *Flat) Dimension() int { return f.dim }

// Len returns the number of stored vectors.
func (f *Flat) Len() int { return len(f.vectors) }

// Vector returns the vector stored at the given position. The returned slice
// is owned by the index and must not be modified.
func (f *Flat) Vector(position int) []float32 {
	return f.vectors[position]
}

// Append adds vectors in order, assigning consecutive positions. The call is
// all-or-nothing: if any vector has the wrong width the index is left
// unchanged and ErrDimensionMismatch is returned.
func (f *Flat) Append(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("vector %d has dimension %d, index expects %d: %w",
				i, len(v), f.dim, ErrDimensionMismatch)
		}
	}
	for _, v := range vectors {
		stored := make([]float32, f.dim)
		copy(stored, v)
		f.vectors = append(f.vectors, stored)
	}
	return nil
}

// Search returns the k nearest stored vectors to query, ascending by squared
// L2 distance. Ties are broken by lower position so repeated searches over an
// unchanged index return identical results. k <= 0 or an empty index yields
// an empty result.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("query has dimension %d, index expects %d: %w",
			len(query), f.dim, ErrDimensionMismatch)
	}
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}

	hits := make([]Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = Hit{Position: i, Distance: squaredL2(query, v)}
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Distance != hits[b].Distance {
			return hits[a].Distance < hits[b].Distance
		}
		return hits[a].Position < hits[b].Position
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
