// Package tools provides the agent's callable tools: market data, news,
// web access, arithmetic and knowledge base search.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool is a single callable capability exposed to the model. Tools return
// their result as text; operational failures are reported inside that text
// so a bad tool call never aborts the agent turn.
type Tool interface {
	// Name returns the unique identifier the model calls the tool by.
	Name() string

	// Description tells the model what the tool does and when to use it.
	Description() string

	// Schema describes the tool's argument object.
	Schema() *jsonschema.Schema

	// Execute runs the tool. The error return is for argument decoding and
	// hard failures; soft failures go into the string result.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// ExecutableTool implements Tool with a typed handler. Type erasure keeps
// heterogeneous tools in one registry while handlers stay strongly typed.
type ExecutableTool struct {
	name        string
	description string
	schema      *jsonschema.Schema
	handler     func(context.Context, map[string]any) (string, error)
}

// Name returns the tool's unique identifier.
func (t *ExecutableTool) Name() string { return t.name }

// Description returns the tool's functionality description.
func (t *ExecutableTool) Description() string { return t.description }

// Schema returns the tool's argument schema.
func (t *ExecutableTool) Schema() *jsonschema.Schema { return t.schema }

// Execute decodes the argument map into the handler's input type and runs it.
func (t *ExecutableTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return t.handler(ctx, args)
}

// NewTool creates a tool with a typed input struct. The argument schema is
// derived from the struct's json and jsonschema tags; the argument map the
// model produces is decoded through JSON into the struct.
func NewTool[In any](name, description string, handler func(context.Context, In) (string, error)) (*ExecutableTool, error) {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return nil, fmt.Errorf("schema for %s: %w", name, err)
	}

	erased := func(ctx context.Context, args map[string]any) (string, error) {
		data, err := json.Marshal(args)
		if err != nil {
			return "", fmt.Errorf("encoding arguments: %w", err)
		}
		var input In
		if err := json.Unmarshal(data, &input); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", name, err)
		}
		return handler(ctx, input)
	}

	return &ExecutableTool{
		name:        name,
		description: description,
		schema:      schema,
		handler:     erased,
	}, nil
}
