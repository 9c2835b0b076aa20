package rag

import (
	"fmt"
	"sort"
)

// Index is an append-only flat vector index using squared Euclidean distance.
// Row i corresponds to position i of the engine's ordered doc ID list; there
// is no update or delete path.
//
// Index is not safe for concurrent use; the engine serializes access.
type Index struct {
	Dimension int         `json:"dimension"`
	Vectors   [][]float32 `json:"vectors"`
}

// NewIndex creates an empty index. The dimension is fixed by the first Add.
func NewIndex() *Index {
	return &Index{}
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int {
	return len(ix.Vectors)
}

// Add appends a vector. All vectors must share one dimension.
func (ix *Index) Add(vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("cannot index empty vector")
	}
	if ix.Dimension == 0 {
		ix.Dimension = len(vec)
	}
	if len(vec) != ix.Dimension {
		return fmt.Errorf("vector dimension %d does not match index dimension %d", len(vec), ix.Dimension)
	}
	ix.Vectors = append(ix.Vectors, vec)
	return nil
}

// Hit is one nearest-neighbor result.
type Hit struct {
	Row      int
	Distance float64 // squared Euclidean; only the ordering matters
}

// Search returns the k nearest rows to query, ascending by distance.
// Ties resolve to the earlier-inserted row. Fewer than k rows are returned
// when the index is smaller than k.
func (ix *Index) Search(query []float32, k int) []Hit {
	if len(ix.Vectors) == 0 || len(query) != ix.Dimension || k <= 0 {
		return nil
	}

	hits := make([]Hit, len(ix.Vectors))
	for row, vec := range ix.Vectors {
		var d float64
		for i := range vec {
			diff := float64(vec[i]) - float64(query[i])
			d += diff * diff
		}
		hits[row] = Hit{Row: row, Distance: d}
	}

	// Stable sort keeps insertion order on equal distances.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}
