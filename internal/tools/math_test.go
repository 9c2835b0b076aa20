package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davitran/finsight/internal/log"
)

func TestApplyOp(t *testing.T) {
	cases := []struct {
		op   string
		a, b float64
		want float64
	}{
		{"add", 2, 3, 5},
		{"subtract", 2, 3, -1},
		{"multiply", 3.5, 2, 7},
		{"divide", 10, 4, 2.5},
		{"multiply", 1500, 0.07, 105},
	}
	for _, tc := range cases {
		got, err := applyOp(tc.op, tc.a, tc.b)
		require.NoError(t, err, tc.op)
		assert.InDelta(t, tc.want, got, 1e-9, tc.op)
	}
}

func TestApplyOpErrors(t *testing.T) {
	_, err := applyOp("divide", 1, 0)
	assert.Error(t, err)

	_, err = applyOp("pow", 2, 3)
	assert.Error(t, err)
}

func TestArithmeticTool(t *testing.T) {
	tool, err := NewArithmeticTool(log.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "arithmetic_tool", tool.Name())

	t.Run("performs the requested operation", func(t *testing.T) {
		out, err := tool.Execute(context.Background(), map[string]any{"op": "add", "a": 2, "b": 3})
		require.NoError(t, err)
		assert.Equal(t, "5", out)
	})

	t.Run("division by zero returns error text not an error", func(t *testing.T) {
		out, err := tool.Execute(context.Background(), map[string]any{"op": "divide", "a": 1, "b": 0})
		require.NoError(t, err)
		assert.Contains(t, out, "Error: division by zero")
	})

	t.Run("unknown operation returns error text", func(t *testing.T) {
		out, err := tool.Execute(context.Background(), map[string]any{"op": "modulo", "a": 1, "b": 2})
		require.NoError(t, err)
		assert.Contains(t, out, "Error: unknown operation")
	})
}
