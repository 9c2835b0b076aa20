package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/davitran/finsight/internal/log"
)

// OpenAIClient implements Client against an OpenAI-compatible HTTP API.
type OpenAIClient struct {
	client        *openai.Client
	model         string
	embedderModel string
	logger        log.Logger
}

// NewOpenAIClient creates a backend client.
//
// baseURL points at the server's /v1 root. apiKey may be empty for local
// servers that do not check authentication.
func NewOpenAIClient(baseURL, apiKey, model, embedderModel string, logger log.Logger) (*OpenAIClient, error) {
	if baseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	if model == "" {
		return nil, errors.New("model name is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &OpenAIClient{
		client:        openai.NewClientWithConfig(cfg),
		model:         model,
		embedderModel: embedderModel,
		logger:        logger,
	}, nil
}

// Complete sends a chat completion request and returns the assistant text.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	reqMsgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		reqMsgs[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    reqMsgs,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("backend returned no choices")
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("completion received",
		"model", c.model,
		"prompt_messages", len(messages),
		"response_length", len(content))
	return content, nil
}

// Embed returns the embedding vector for text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embedderModel),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("backend returned empty embedding")
	}
	return resp.Data[0].Embedding, nil
}
