package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/davitran/finsight/internal/llm"
	"github.com/davitran/finsight/internal/log"
	"github.com/davitran/finsight/internal/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newAgentWithTools builds an agent whose registry carries a single quote
// tool returning a canned price.
func newAgentWithTools(t *testing.T, stub *llm.Stub, opts Options) (*Agent, *tools.Registry) {
	t.Helper()
	registry := tools.NewRegistry(log.NewNop())

	quote, err := tools.NewTool("get_stock_price", "quote",
		func(_ context.Context, in struct {
			Symbol string `json:"symbol"`
		}) (string, error) {
			return fmt.Sprintf("The latest price for %s is $100.", in.Symbol), nil
		})
	require.NoError(t, err)
	registry.Register(quote)

	a, err := New(stub, registry, opts, log.NewNop())
	require.NoError(t, err)
	return a, registry
}

func TestAgentRun(t *testing.T) {
	t.Run("zero-tool turn still goes through synthesis", func(t *testing.T) {
		stub := llm.NewStub(
			`{"goal": "explain bonds", "language": "English"}`, // intent
			"NO_SEARCH", // planning
			"",          // generation emits nothing
			"Bonds are loans to governments or companies.", // synthesis
		)
		a, _ := newAgentWithTools(t, stub, Options{})

		res, err := a.Run(context.Background(), "what are bonds?", nil)
		require.NoError(t, err)
		assert.Equal(t, "Bonds are loans to governments or companies.", res.Answer)
		assert.Equal(t, 1, res.Steps)
		assert.Equal(t, 0, res.ToolCalls)
		assert.Equal(t, 4, stub.CallCount())
		assert.NotEmpty(t, res.TurnID)
	})

	t.Run("tool round feeds results into synthesis", func(t *testing.T) {
		stub := llm.NewStub(
			`{"goal": "price of AAPL", "language": "English"}`,
			"NEED_SEARCH: AAPL price",
			`<tool_call>{"name": "get_stock_price", "arguments": {"symbol": "AAPL"}}</tool_call>`,
			"",                    // second generation emits nothing
			"AAPL trades at $100.", // synthesis
		)
		a, _ := newAgentWithTools(t, stub, Options{})

		res, err := a.Run(context.Background(), "price of apple?", nil)
		require.NoError(t, err)
		assert.Equal(t, "AAPL trades at $100.", res.Answer)
		assert.Equal(t, 2, res.Steps)
		assert.Equal(t, 1, res.ToolCalls)

		// The synthesis call saw the tool result.
		calls := stub.Calls()
		last := calls[len(calls)-1]
		found := false
		for _, m := range last {
			if m.Role == llm.RoleTool {
				assert.Contains(t, m.Content, "$100")
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("step budget drops pending tool calls and forces synthesis", func(t *testing.T) {
		call := `<tool_call>{"name": "get_stock_price", "arguments": {"symbol": "AAPL"}}</tool_call>`
		stub := llm.NewStub(
			`{"goal": "g", "language": "English"}`,
			"NO_SEARCH",
			call, call, // the second round's calls are dropped at the budget
			"Best effort answer.", // forced synthesis
		)
		a, _ := newAgentWithTools(t, stub, Options{MaxSteps: 2})

		res, err := a.Run(context.Background(), "loop forever", nil)
		require.NoError(t, err)
		assert.Equal(t, "Best effort answer.", res.Answer)
		assert.Equal(t, 2, res.Steps)
		assert.Equal(t, 1, res.ToolCalls)
		assert.Contains(t, res.Log, "Step budget exhausted")
	})

	t.Run("synthesis failure still yields an answer from tool output", func(t *testing.T) {
		call := `<tool_call>{"name": "get_stock_price", "arguments": {"symbol": "AAPL"}}</tool_call>`
		stub := llm.NewStub(
			`{"goal": "g", "language": "English"}`,
			"NO_SEARCH",
			call,
		)
		a, _ := newAgentWithTools(t, stub, Options{})
		stub.Fallback = "" // later generation and synthesis return empty text

		res, err := a.Run(context.Background(), "q", nil)
		require.NoError(t, err)
		assert.Contains(t, res.Answer, "$100")
	})

	t.Run("unknown tool result goes back to the model", func(t *testing.T) {
		stub := llm.NewStub(
			`{"goal": "g", "language": "English"}`,
			"NO_SEARCH",
			`<tool_call>{"name": "no_such_tool", "arguments": {}}</tool_call>`,
			"",
			"I could not find that tool, but here is my answer.",
		)
		a, _ := newAgentWithTools(t, stub, Options{})

		res, err := a.Run(context.Background(), "q", nil)
		require.NoError(t, err)
		assert.Equal(t, 1, res.ToolCalls)
		assert.Contains(t, res.Answer, "here is my answer")

		// The tool-not-found text was fed back as a tool message.
		found := false
		for _, m := range res.Messages {
			if m.Role == llm.RoleTool {
				assert.Contains(t, m.Content, "not found")
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("generation failure is fatal for the turn", func(t *testing.T) {
		stub := llm.NewStub()
		stub.CompleteErr = errors.New("backend down")
		a, _ := newAgentWithTools(t, stub, Options{})

		_, err := a.Run(context.Background(), "q", nil)
		assert.Error(t, err)
	})

	t.Run("final answer never carries tool call tags", func(t *testing.T) {
		stub := llm.NewStub(
			`{"goal": "g", "language": "English"}`,
			"NO_SEARCH",
			"",
			"Answer here. <tool_call></tool_call>", // synthesis echoes a stray tag
		)
		a, _ := newAgentWithTools(t, stub, Options{})

		res, err := a.Run(context.Background(), "q", nil)
		require.NoError(t, err)
		assert.Equal(t, "Answer here.", res.Answer)
	})

	t.Run("empty synthesis without tools reuses the last assistant content", func(t *testing.T) {
		stub := llm.NewStub(
			`{"goal": "g", "language": "English"}`,
			"NO_SEARCH",
			"Hello! How can I help you today?", // conversational text despite the protocol
		)
		a, _ := newAgentWithTools(t, stub, Options{})
		stub.Fallback = "" // synthesis returns empty text

		res, err := a.Run(context.Background(), "hi", nil)
		require.NoError(t, err)
		assert.Equal(t, "Hello! How can I help you today?", res.Answer)
	})

	t.Run("turn messages end with the assistant answer", func(t *testing.T) {
		stub := llm.NewStub(
			`{"goal": "g", "language": "English"}`,
			"NO_SEARCH",
			"",
			"Done.",
		)
		a, _ := newAgentWithTools(t, stub, Options{})

		res, err := a.Run(context.Background(), "q", nil)
		require.NoError(t, err)
		require.NotEmpty(t, res.Messages)
		assert.Equal(t, llm.RoleUser, res.Messages[0].Role)
		last := res.Messages[len(res.Messages)-1]
		assert.Equal(t, llm.RoleAssistant, last.Role)
		assert.Equal(t, "Done.", last.Content)
	})

	t.Run("turn log records tool calls and results", func(t *testing.T) {
		stub := llm.NewStub(
			`{"goal": "g", "language": "English"}`,
			"NO_SEARCH",
			`<tool_call>{"name": "get_stock_price", "arguments": {"symbol": "AAPL"}}</tool_call>`,
			"",
			"AAPL trades at $100.",
		)
		a, _ := newAgentWithTools(t, stub, Options{})

		res, err := a.Run(context.Background(), "q", nil)
		require.NoError(t, err)
		assert.Contains(t, res.Log, "Tool Call: get_stock_price")
		assert.Contains(t, res.Log, "Result: The latest price for AAPL is $100.")
		assert.Contains(t, res.Log, "Final Synthesis")
		assert.Contains(t, res.Log, "Answer: AAPL trades at $100.")
	})
}
