// Package rag implements the hybrid retrieval engine behind the knowledge
// base: document chunking, a summary-vector index with parent-document
// retrieval, cross-encoder re-ranking, and an invalidatable on-disk cache.
package rag

import "context"

// Document is a unit of ingestion: one UTF-8 text file, doc ID = filename.
// Immutable once chunked; re-ingestion under the same ID supersedes it.
type Document struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Chunk is an overlapping passage of a document. Chunks are never vectorized
// individually; they live in the doc store and are pulled in bulk when their
// parent document is retrieved.
type Chunk struct {
	ID      string `json:"id"` // doc ID + ordinal
	DocID   string `json:"doc_id"`
	Content string `json:"content"`
}

// Result sentinels returned by Engine.Search. Three distinct signals, per
// contract: callers and tests may branch on them.
const (
	MsgNotInitialized = "Knowledge base not initialized or empty."
	MsgNoDocuments    = "No relevant documents found."
	MsgNoChunks       = "No chunks found for the retrieved documents."
)

// Embedder produces dense vectors for text. Defined here because the engine
// is the consumer; the llm backend client satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Reranker scores (query, passage) pairs jointly, cross-encoder style.
// Scores are returned in passage order; higher means more relevant.
type Reranker interface {
	Rank(ctx context.Context, query string, passages []string) ([]float64, error)
}

// SummarizeFunc produces a short summary of a document. The engine falls
// back to truncation when the function is nil or fails.
type SummarizeFunc func(ctx context.Context, text string) (string, error)
