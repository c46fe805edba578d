package vecindex

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrEmptyVector       = errors.New("empty vector")
)

// Flat is an exact nearest-neighbor index over fixed-length vectors using
// squared Euclidean distance. Brute force is fine here: an index holds the
// chunks of a single document, not a corpus.
type Flat struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
}

func NewFlat() *Flat { return &Flat{} }

// Add appends vectors to the index. The first vector fixes the index
// dimensionality; later vectors must match it.
func (f *Flat) Add(vectors [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	dim := f.dim
	for _, v := range vectors {
		if len(v) == 0 {
			return ErrEmptyVector
		}
		if dim == 0 {
			dim = len(v)
		} else if len(v) != dim {
			return ErrDimensionMismatch
		}
	}
	f.dim = dim
	f.vectors = append(f.vectors, vectors...)
	return nil
}

// Count returns the number of stored vectors.
func (f *Flat) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Search returns the ordinals of up to k stored vectors nearest to query,
// nearest first. Equal distances rank by insertion order, so results are
// deterministic for an unchanged index.
func (f *Flat) Search(query []float32, k int) []int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if k <= 0 || len(f.vectors) == 0 {
		return nil
	}

	dists := make([]float64, len(f.vectors))
	for i, v := range f.vectors {
		dists[i] = sqDistance(query, v)
	}

	ids := make([]int, len(f.vectors))
	for i := range ids {
		ids[i] = i
	}
	sort.Slice(ids, func(a, b int) bool {
		da, db := dists[ids[a]], dists[ids[b]]
		if da != db {
			return da < db
		}
		return ids[a] < ids[b]
	})

	if k > len(ids) {
		k = len(ids)
	}
	return ids[:k]
}

func sqDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
