package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/davitran/finsight/internal/log"
)

const defaultRerankTimeout = 30 * time.Second

// HTTPReranker calls an external cross-encoder service over HTTP. The wire
// format follows the text-embeddings-inference rerank endpoint: a JSON
// request with the query and candidate texts, a JSON array of scored indices
// back.
type HTTPReranker struct {
	url    string
	client *http.Client
	logger log.Logger
}

// NewHTTPReranker creates a reranker client for the given endpoint URL.
func NewHTTPReranker(url string, logger log.Logger) *HTTPReranker {
	if logger == nil {
		logger = log.NewNop()
	}
	return &HTTPReranker{
		url:    url,
		client: &http.Client{Timeout: defaultRerankTimeout},
		logger: logger,
	}
}

type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Rank scores each passage against the query. The returned slice is aligned
// with the passages argument regardless of the order the service responds in.
func (r *HTTPReranker) Rank(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{Query: query, Texts: passages})
	if err != nil {
		return nil, fmt.Errorf("encoding rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling reranker: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("reranker returned %d: %s", resp.StatusCode, string(data))
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding rerank response: %w", err)
	}

	scores := make([]float64, len(passages))
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(passages) {
			return nil, fmt.Errorf("reranker returned out-of-range index %d", res.Index)
		}
		scores[res.Index] = res.Score
	}
	return scores, nil
}
