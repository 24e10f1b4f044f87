package memory

import (
	"fmt"

	"learnquick/internal/domain"
)

// Index is a flat in-memory vector index searched by brute-force Euclidean distance.
// Vectors are supplied once at build time; position i holds the vector of chunk i.
// An Index is never modified after Build and is safe for concurrent searches.
type Index struct {
	dimension int
	vectors   [][]float32
}

// Build copies vectors into a new index. Every vector must share one dimension.
func Build(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("memory index: %w", domain.ErrEmptyIndex)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("memory index: zero-dimension vectors")
	}
	stored := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("memory index: vector %d has dimension %d, want %d", i, len(v), dim)
		}
		stored[i] = append([]float32(nil), v...)
	}
	return &Index{dimension: dim, vectors: stored}, nil
}

// Size returns the number of indexed vectors.
func (x *Index) Size() int { return len(x.vectors) }

// Dimension returns the dimensionality shared by all indexed vectors.
func (x *Index) Dimension() int { return x.dimension }

// Search returns, for every query, the k nearest indexed positions ascending
// by squared L2 distance. k is clamped to the index size. Ties keep index order.
func (x *Index) Search(queries [][]float32, k int) (distances [][]float32, indices [][]int, err error) {
	if x == nil || len(x.vectors) == 0 {
		return nil, nil, fmt.Errorf("memory index: search: %w", domain.ErrEmptyIndex)
	}
	if k <= 0 {
		return nil, nil, fmt.Errorf("memory index: search: k must be positive, got %d", k)
	}
	if k > len(x.vectors) {
		k = len(x.vectors)
	}
	distances = make([][]float32, len(queries))
	indices = make([][]int, len(queries))
	for qi, q := range queries {
		if len(q) != x.dimension {
			return nil, nil, fmt.Errorf("memory index: query %d has dimension %d, want %d", qi, len(q), x.dimension)
		}
		dists := make([]float32, len(x.vectors))
		for i, v := range x.vectors {
			dists[i] = squaredL2(v, q)
		}
		idxs := argsortAsc(dists)
		distances[qi] = make([]float32, k)
		indices[qi] = make([]int, k)
		for r := 0; r < k; r++ {
			indices[qi][r] = idxs[r]
			distances[qi][r] = dists[idxs[r]]
		}
	}
	return distances, indices, nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func argsortAsc(vals []float32) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	quicksort(idxs, vals, 0, len(idxs)-1)
	return idxs
}

// less orders by distance, then by position so equal distances rank deterministically.
func less(vals []float32, a, b int) bool {
	if vals[a] != vals[b] {
		return vals[a] < vals[b]
	}
	return a < b
}

func quicksort(idxs []int, vals []float32, lo, hi int) {
	if lo >= hi {
		return
	}
	i, j := lo, hi
	pivot := idxs[(lo+hi)/2]
	for i <= j {
		for less(vals, idxs[i], pivot) {
			i++
		}
		for less(vals, pivot, idxs[j]) {
			j--
		}
		if i <= j {
			idxs[i], idxs[j] = idxs[j], idxs[i]
			i++
			j--
		}
	}
	if lo < j {
		quicksort(idxs, vals, lo, j)
	}
	if i < hi {
		quicksort(idxs, vals, i, hi)
	}
}
