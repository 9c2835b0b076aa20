package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/davitran/finsight/internal/llm"
	"github.com/davitran/finsight/internal/log"
)

const (
	// Text below this length is returned untouched.
	summarizeThreshold = 500

	// Only this much of the input is sent to the model.
	summarizeInputLimit = 8000

	summarizeFailedMarker = "(summarization failed)"
)

// Summarizer condenses long text through the model. It backs both document
// ingestion and crawled-article post-processing.
type Summarizer struct {
	client llm.Client
	logger log.Logger
}

// NewSummarizer creates a summarizer.
func NewSummarizer(client llm.Client, logger log.Logger) (*Summarizer, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Summarizer{client: client, logger: logger}, nil
}

// Summarize condenses text into a few bullet points. Short text passes
// through unchanged.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	runes := []rune(text)
	if len(runes) < summarizeThreshold {
		return text, nil
	}
	if len(runes) > summarizeInputLimit {
		runes = runes[:summarizeInputLimit]
	}

	reply, err := s.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: fmt.Sprintf(summaryPrompt, string(runes))},
	}, llm.Options{MaxTokens: 512, Temperature: 0})
	if err != nil {
		return "", fmt.Errorf("summarizing text: %w", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("summarizer returned empty text")
	}
	return reply, nil
}

// SummarizeOrFallback never fails: on any error it truncates the text and
// marks it so downstream consumers know the content is raw.
func (s *Summarizer) SummarizeOrFallback(ctx context.Context, text string) string {
	summary, err := s.Summarize(ctx, text)
	if err == nil {
		return summary
	}

	s.logger.Warn("summarization failed, truncating", "error", err)
	runes := []rune(text)
	if len(runes) > summarizeThreshold {
		runes = runes[:summarizeThreshold]
	}
	return string(runes) + " " + summarizeFailedMarker
}
