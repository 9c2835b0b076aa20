package tools

import (
	"context"
	"fmt"

	"github.com/davitran/finsight/internal/log"
)

// KnowledgeSearcher is the retrieval surface the knowledge tool needs.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, k, kDocs int) string
}

// KnowledgeQueryInput is the argument object for the knowledge base tool.
type KnowledgeQueryInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the local document collection"`
}

// NewKnowledgeTool creates the tool that searches the local document
// collection. k and kDocs of zero use the engine defaults.
func NewKnowledgeTool(searcher KnowledgeSearcher, logger log.Logger) (*ExecutableTool, error) {
	if searcher == nil {
		return nil, fmt.Errorf("knowledge searcher is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	return NewTool(
		"query_knowledge_base",
		"Search the local investment document collection for background knowledge, definitions and analysis. Use this before searching the web for conceptual questions.",
		func(ctx context.Context, input KnowledgeQueryInput) (string, error) {
			logger.Debug("knowledge base query", "query", input.Query)
			return searcher.Search(ctx, input.Query, 0, 0), nil
		},
	)
}
