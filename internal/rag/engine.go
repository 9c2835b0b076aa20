package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/davitran/finsight/internal/log"
)

// Search defaults: top chunks returned and parent documents retrieved per
// query.
const (
	DefaultTopK     = 3
	DefaultTopKDocs = 2
)

// summaryFallbackLimit caps the truncation fallback used when no summarizer
// is injected (or it fails).
const summaryFallbackLimit = 500

// placeholder document seeded into an empty data directory so a fresh
// checkout has something to retrieve.
const (
	placeholderDocID   = "sample_investment.txt"
	placeholderContent = "Value at Risk (VaR) is a statistic that quantifies the extent of possible " +
		"financial losses within a firm, portfolio, or position over a specific time frame."
)

// Options configures an Engine.
type Options struct {
	DataDir      string
	CacheDir     string
	ChunkSize    int
	ChunkOverlap int
}

// Engine is the retrieval engine: a summary-vector index for coarse document
// retrieval plus a doc store of chunks for fine-grained re-ranking.
//
// Reads (Search, Status) take a shared lock; mutations (Initialize,
// AddDocument, Save) take an exclusive lock. Single-writer by design.
type Engine struct {
	opts      Options
	embedder  Embedder
	reranker  Reranker
	summarize SummarizeFunc
	logger    log.Logger

	mu        sync.RWMutex
	index     *Index
	docIDs    []string            // position i aligns with index row i
	docStore  map[string][]Chunk  // doc ID -> ordered chunks
	summaries map[string]string   // doc ID -> summary text
	ready     bool

	stale atomic.Bool // set by the directory watcher between rebuilds
}

// NewEngine creates an engine. summarize may be nil; the engine then falls
// back to truncating document prefixes as summaries.
func NewEngine(opts Options, embedder Embedder, reranker Reranker, summarize SummarizeFunc, logger log.Logger) (*Engine, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if reranker == nil {
		return nil, fmt.Errorf("reranker is required")
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 500
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = 50
	}
	if logger == nil {
		logger = log.NewNop()
	}

	return &Engine{
		opts:      opts,
		embedder:  embedder,
		reranker:  reranker,
		summarize: summarize,
		logger:    logger,
		index:     NewIndex(),
		docStore:  make(map[string][]Chunk),
		summaries: make(map[string]string),
	}, nil
}

// Initialize builds or loads the knowledge base. With force set, the cache is
// ignored and the index rebuilt from the data directory.
func (e *Engine) Initialize(ctx context.Context, force bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger.Info("initializing knowledge base", "data_dir", e.opts.DataDir, "force", force)

	if !force && isCacheValid(e.opts.CacheDir, e.opts.DataDir) {
		if err := e.loadCache(); err == nil {
			e.ready = true
			e.stale.Store(false)
			e.logger.Info("knowledge base loaded from cache",
				"documents", len(e.docStore), "chunks", e.chunkCount())
			return nil
		} else {
			e.logger.Warn("cache load failed, rebuilding", "error", err)
		}
	}

	if err := e.buildIndex(ctx); err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	e.ready = true
	e.stale.Store(false)
	e.logger.Info("knowledge base ready",
		"documents", len(e.docStore), "chunks", e.chunkCount())
	return nil
}

// buildIndex rebuilds everything from the data directory and persists the
// cache. Caller holds the write lock.
func (e *Engine) buildIndex(ctx context.Context) error {
	if err := os.MkdirAll(e.opts.DataDir, 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	paths, err := filepath.Glob(filepath.Join(e.opts.DataDir, "*.txt"))
	if err != nil {
		return fmt.Errorf("globbing data directory: %w", err)
	}
	if len(paths) == 0 {
		// Developer bootstrap: seed one placeholder document instead of
		// failing on an empty corpus.
		seed := filepath.Join(e.opts.DataDir, placeholderDocID)
		if err := os.WriteFile(seed, []byte(placeholderContent), 0o640); err != nil {
			return fmt.Errorf("seeding placeholder document: %w", err)
		}
		paths = []string{seed}
		e.logger.Warn("data directory was empty, seeded placeholder document", "path", seed)
	}
	sort.Strings(paths)

	e.index = NewIndex()
	e.docIDs = e.docIDs[:0]
	e.docStore = make(map[string][]Chunk, len(paths))
	e.summaries = make(map[string]string, len(paths))

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			e.logger.Error("skipping unreadable document", "path", path, "error", err)
			continue
		}
		docID := filepath.Base(path)
		if err := e.ingest(ctx, docID, string(content)); err != nil {
			return fmt.Errorf("ingesting %s: %w", docID, err)
		}
	}

	return e.saveCache()
}

// ingest summarizes, vectorizes and chunks one document, appending it to the
// index. Caller holds the write lock.
func (e *Engine) ingest(ctx context.Context, docID, content string) error {
	summary := e.summarizeOrTruncate(ctx, content)

	vec, err := e.embedder.Embed(ctx, summary)
	if err != nil {
		return fmt.Errorf("embedding summary: %w", err)
	}
	if err := e.index.Add(vec); err != nil {
		return fmt.Errorf("indexing summary vector: %w", err)
	}
	e.docIDs = append(e.docIDs, docID)
	e.summaries[docID] = summary

	pieces := SplitText(content, e.opts.ChunkSize, e.opts.ChunkOverlap)
	chunks := make([]Chunk, len(pieces))
	for i, text := range pieces {
		chunks[i] = Chunk{
			ID:      fmt.Sprintf("%s_%d", docID, i),
			DocID:   docID,
			Content: text,
		}
	}
	e.docStore[docID] = chunks

	e.logger.Debug("document ingested", "doc_id", docID, "chunks", len(chunks))
	return nil
}

// summarizeOrTruncate applies the injected summarizer, falling back to a
// fixed-length prefix when it is absent or fails.
func (e *Engine) summarizeOrTruncate(ctx context.Context, content string) string {
	if e.summarize != nil {
		summary, err := e.summarize(ctx, content)
		if err == nil && summary != "" {
			return strings.ReplaceAll(summary, "\n", " ")
		}
		if err != nil {
			e.logger.Warn("summarizer failed, using truncation fallback", "error", err)
		}
	}

	runes := []rune(content)
	if len(runes) <= summaryFallbackLimit {
		return content
	}
	return string(runes[:summaryFallbackLimit])
}

// AddDocument incrementally inserts one document. Append-only: no
// re-balancing of the index and no removal path. Re-ingesting an existing
// doc ID supersedes its chunks and summary; the newest index row wins.
//
// Returns false (and logs) when the engine is not initialized or the summary
// cannot be vectorized.
func (e *Engine) AddDocument(ctx context.Context, docID, content string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		e.logger.Error("cannot add document, engine not initialized", "doc_id", docID)
		return false
	}

	if err := e.ingest(ctx, docID, content); err != nil {
		e.logger.Error("failed to add document", "doc_id", docID, "error", err)
		return false
	}
	return true
}

// Search answers a similarity query: the kDocs nearest document summaries
// are retrieved, every chunk of those documents is re-ranked against the
// query, and the top k chunks are returned with source headers.
//
// Search never returns an error. Distinct sentinels mark an uninitialized
// engine, no retrieved documents, and empty chunk sets.
func (e *Engine) Search(ctx context.Context, query string, k, kDocs int) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.ready || e.index.Len() == 0 {
		return MsgNotInitialized
	}
	if k <= 0 {
		k = DefaultTopK
	}
	if kDocs <= 0 {
		kDocs = DefaultTopKDocs
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.logger.Error("query embedding failed", "error", err)
		return fmt.Sprintf("Error searching knowledge base: %v", err)
	}

	hits := e.index.Search(queryVec, kDocs)
	if len(hits) == 0 {
		return MsgNoDocuments
	}

	// Union all chunks of the retrieved parents. A document contributes its
	// full chunk list, relevant or not; the re-ranker sorts it out. Superseded
	// documents may own several index rows, so dedupe by doc ID.
	seen := make(map[string]bool, len(hits))
	var candidates []Chunk
	for _, hit := range hits {
		docID := e.docIDs[hit.Row]
		if seen[docID] {
			continue
		}
		seen[docID] = true
		candidates = append(candidates, e.docStore[docID]...)
	}
	if len(candidates) == 0 {
		return MsgNoChunks
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Content
	}

	scores, err := e.reranker.Rank(ctx, query, texts)
	if err != nil || len(scores) != len(candidates) {
		// Degrade to collection order rather than failing the search.
		e.logger.Warn("re-ranking failed, keeping collection order", "error", err)
		scores = make([]float64, len(candidates))
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	// Stable: equal scores keep collection order.
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	parts := make([]string, k)
	for i := 0; i < k; i++ {
		c := candidates[order[i]]
		parts[i] = fmt.Sprintf("[Source: %s]\n%s", c.DocID, c.Content)
	}
	return strings.Join(parts, "\n\n")
}

// Status reports the engine's current shape for CLI display.
type Status struct {
	Ready     bool
	Documents int
	Chunks    int
	Stale     bool
	PerDoc    map[string]int
}

// Status returns a snapshot of the knowledge base.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	perDoc := make(map[string]int, len(e.docStore))
	for id, chunks := range e.docStore {
		perDoc[id] = len(chunks)
	}
	return Status{
		Ready:     e.ready,
		Documents: len(e.docStore),
		Chunks:    e.chunkCount(),
		Stale:     e.stale.Load(),
		PerDoc:    perDoc,
	}
}

// MarkStale flags the cache as out of date with the data directory. Set by
// the directory watcher; cleared by the next Initialize.
func (e *Engine) MarkStale() {
	e.stale.Store(true)
}

// Save persists the current in-memory state to the cache directory.
func (e *Engine) Save() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return fmt.Errorf("engine not initialized")
	}
	return e.saveCache()
}

// chunkCount totals chunks across the doc store. Caller holds a lock.
func (e *Engine) chunkCount() int {
	total := 0
	for _, chunks := range e.docStore {
		total += len(chunks)
	}
	return total
}

// saveCache persists all five artifacts under the advisory file lock, each
// written atomically. Caller holds the write lock.
func (e *Engine) saveCache() error {
	if err := os.MkdirAll(e.opts.CacheDir, 0o750); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	lock := newCacheLock(e.opts.CacheDir)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquiring cache lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	hash, err := computeDataHash(e.opts.DataDir)
	if err != nil {
		return fmt.Errorf("computing data hash: %w", err)
	}
	manifest := Manifest{
		DataHash:   hash,
		DocCount:   len(e.docStore),
		ChunkCount: e.chunkCount(),
	}

	if err := writeArtifactJSON(e.opts.CacheDir, indexFile, e.index); err != nil {
		return err
	}
	if err := writeArtifactJSON(e.opts.CacheDir, docStoreFile, e.docStore); err != nil {
		return err
	}
	if err := writeArtifactJSON(e.opts.CacheDir, summariesFile, e.summaries); err != nil {
		return err
	}
	if err := writeArtifactJSON(e.opts.CacheDir, docIDsFile, e.docIDs); err != nil {
		return err
	}
	// Manifest last: its presence implies the other artifacts landed.
	if err := writeArtifactJSON(e.opts.CacheDir, manifestFile, manifest); err != nil {
		return err
	}

	e.logger.Info("cache saved", "cache_dir", e.opts.CacheDir,
		"documents", manifest.DocCount, "chunks", manifest.ChunkCount)
	return nil
}

// loadCache restores all artifacts from disk. Caller holds the write lock.
func (e *Engine) loadCache() error {
	lock := newCacheLock(e.opts.CacheDir)
	if err := lock.RLock(); err != nil {
		return fmt.Errorf("acquiring cache read lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	index := NewIndex()
	if err := readArtifactJSON(e.opts.CacheDir, indexFile, index); err != nil {
		return err
	}
	docStore := make(map[string][]Chunk)
	if err := readArtifactJSON(e.opts.CacheDir, docStoreFile, &docStore); err != nil {
		return err
	}
	summaries := make(map[string]string)
	if err := readArtifactJSON(e.opts.CacheDir, summariesFile, &summaries); err != nil {
		return err
	}
	var docIDs []string
	if err := readArtifactJSON(e.opts.CacheDir, docIDsFile, &docIDs); err != nil {
		return err
	}

	if index.Len() != len(docIDs) {
		return fmt.Errorf("cache inconsistent: %d vectors for %d doc IDs", index.Len(), len(docIDs))
	}

	e.index = index
	e.docStore = docStore
	e.summaries = summaries
	e.docIDs = docIDs
	return nil
}
