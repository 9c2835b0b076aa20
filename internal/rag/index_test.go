package rag

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexAdd(t *testing.T) {
	t.Run("first vector fixes the dimension", func(t *testing.T) {
		idx := NewIndex()
		require.NoError(t, idx.Add([]float32{1, 2, 3}))
		assert.Equal(t, 3, idx.Dimension)
		assert.Equal(t, 1, idx.Len())
	})

	t.Run("dimension mismatch is rejected", func(t *testing.T) {
		idx := NewIndex()
		require.NoError(t, idx.Add([]float32{1, 2}))
		err := idx.Add([]float32{1, 2, 3})
		assert.Error(t, err)
		assert.Equal(t, 1, idx.Len())
	})

	t.Run("empty vector is rejected", func(t *testing.T) {
		idx := NewIndex()
		assert.Error(t, idx.Add(nil))
		assert.Error(t, idx.Add([]float32{}))
	})
}

func TestIndexSearch(t *testing.T) {
	newIdx := func(t *testing.T, vecs ...[]float32) *Index {
		t.Helper()
		idx := NewIndex()
		for _, v := range vecs {
			require.NoError(t, idx.Add(v))
		}
		return idx
	}

	t.Run("returns nearest by squared L2", func(t *testing.T) {
		idx := newIdx(t, []float32{0, 0}, []float32{10, 0}, []float32{1, 1})
		hits := idx.Search([]float32{0.9, 0.9}, 2)
		require.Len(t, hits, 2)
		assert.Equal(t, 2, hits[0].Row)
		assert.Equal(t, 0, hits[1].Row)
		assert.Less(t, hits[0].Distance, hits[1].Distance)
	})

	t.Run("ties break toward earlier rows", func(t *testing.T) {
		idx := newIdx(t, []float32{1, 0}, []float32{-1, 0}, []float32{1, 0})
		hits := idx.Search([]float32{0, 0}, 3)
		require.Len(t, hits, 3)
		assert.Equal(t, []int{hits[0].Row, hits[1].Row, hits[2].Row}, []int{0, 1, 2})
	})

	t.Run("k is clamped to index size", func(t *testing.T) {
		idx := newIdx(t, []float32{1, 1})
		hits := idx.Search([]float32{0, 0}, 10)
		assert.Len(t, hits, 1)
	})

	t.Run("empty index returns nothing", func(t *testing.T) {
		idx := NewIndex()
		assert.Empty(t, idx.Search([]float32{1}, 3))
	})

	t.Run("wrong query dimension returns nothing", func(t *testing.T) {
		idx := newIdx(t, []float32{1, 1})
		assert.Empty(t, idx.Search([]float32{1}, 3))
	})
}

func TestIndexJSONRoundTrip(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, idx.Add([]float32{1, 2}))
	require.NoError(t, idx.Add([]float32{3, 4}))

	data, err := json.Marshal(idx)
	require.NoError(t, err)

	restored := NewIndex()
	require.NoError(t, json.Unmarshal(data, restored))
	assert.Equal(t, idx.Dimension, restored.Dimension)
	assert.Equal(t, idx.Vectors, restored.Vectors)
}
