package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davitran/finsight/internal/llm"
)

func TestHistoryForGeneration(t *testing.T) {
	system := llm.Message{Role: llm.RoleSystem, Content: "sys"}

	t.Run("past tool messages are dropped", func(t *testing.T) {
		past := []llm.Message{
			{Role: llm.RoleUser, Content: "price of AAPL?"},
			{Role: llm.RoleAssistant, Content: `<tool_call>{"name":"get_stock_price","arguments":{}}</tool_call>`},
			{Role: llm.RoleTool, Content: "[get_stock_price] $232"},
			{Role: llm.RoleAssistant, Content: "AAPL trades at $232."},
		}
		current := []llm.Message{{Role: llm.RoleUser, Content: "and MSFT?"}}

		got := historyForGeneration(system, past, current)
		require.Len(t, got, 4)
		assert.Equal(t, system, got[0])
		assert.Equal(t, "price of AAPL?", got[1].Content)
		assert.Equal(t, "AAPL trades at $232.", got[2].Content)
		assert.Equal(t, "and MSFT?", got[3].Content)
	})

	t.Run("past assistant message mixing prose and calls keeps the prose", func(t *testing.T) {
		past := []llm.Message{
			{Role: llm.RoleAssistant, Content: "Checking now.\n<tool_call>{\"name\":\"a\",\"arguments\":{}}</tool_call>"},
		}
		got := historyForGeneration(system, past, nil)
		require.Len(t, got, 2)
		assert.Equal(t, "Checking now.", got[1].Content)
	})

	t.Run("past system messages are dropped", func(t *testing.T) {
		past := []llm.Message{{Role: llm.RoleSystem, Content: "old sys"}}
		got := historyForGeneration(system, past, nil)
		require.Len(t, got, 1)
	})

	t.Run("current turn keeps its tool machinery", func(t *testing.T) {
		current := []llm.Message{
			{Role: llm.RoleUser, Content: "q"},
			{Role: llm.RoleAssistant, Content: `<tool_call>{"name":"a","arguments":{}}</tool_call>`},
			{Role: llm.RoleTool, Content: "[a] result"},
		}
		got := historyForGeneration(system, nil, current)
		require.Len(t, got, 4)
		assert.Contains(t, got[2].Content, "<tool_call>")
		assert.Equal(t, llm.RoleTool, got[3].Role)
	})
}
