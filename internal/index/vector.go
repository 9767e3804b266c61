// Package index provides an in-process flat vector index over unit
// vectors. Search is exact inner-product scan; at rate-sheet scale a
// brute-force pass beats any approximate structure.
package index

import (
	"math"
	"sort"
	"sync"
)

// Hit is one search result: the stored label and its cosine similarity to
// the query.
type Hit struct {
	Label      string
	Similarity float64
}

// FlatIndex stores L2-normalized vectors in parallel slices. Safe for
// concurrent use; reads take a shared lock.
type FlatIndex struct {
	mu      sync.RWMutex
	labels  []string
	vectors [][]float32
	dim     int
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// Add stores a label with its vector. The vector is normalized on entry;
// a zero vector is stored as-is and will never score above zero.
// Dimension mismatches are ignored rather than panicking so one bad
// embedding cannot poison index construction.
func (idx *FlatIndex) Add(label string, vector []float32) {
	if len(vector) != idx.dim {
		return
	}

	normalized := make([]float32, len(vector))
	copy(normalized, vector)
	normalize(normalized)

	idx.mu.Lock()
	idx.labels = append(idx.labels, label)
	idx.vectors = append(idx.vectors, normalized)
	idx.mu.Unlock()
}

// Len returns the number of stored vectors.
func (idx *FlatIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.labels)
}

// Labels returns a copy of all stored labels in insertion order.
func (idx *FlatIndex) Labels() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, len(idx.labels))
	copy(out, idx.labels)
	return out
}

// Search returns the k nearest labels by cosine similarity, descending.
// k is clamped to the index size; an empty index returns no results. The
// query is normalized before scoring, so callers may pass raw embeddings.
func (idx *FlatIndex) Search(query []float32, k int) []Hit {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.labels) == 0 || k <= 0 || len(query) != idx.dim {
		return nil
	}
	if k > len(idx.labels) {
		k = len(idx.labels)
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalize(q)

	hits := make([]Hit, len(idx.labels))
	for i, vec := range idx.vectors {
		hits[i] = Hit{Label: idx.labels[i], Similarity: dot(q, vec)}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Similarity > hits[b].Similarity
	})
	return hits[:k]
}

// Best returns the single nearest hit, or false for an empty index.
func (idx *FlatIndex) Best(query []float32) (Hit, bool) {
	hits := idx.Search(query, 1)
	if len(hits) == 0 {
		return Hit{}, false
	}
	return hits[0], true
}

// normalize scales v to unit length in place. Zero vectors are left
// untouched.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

// dot computes the inner product of two equal-length unit vectors, which
// equals their cosine similarity.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
