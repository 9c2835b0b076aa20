package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davitran/finsight/internal/log"
)

func newNamedTool(t *testing.T, name string, result string, execErr error) *ExecutableTool {
	t.Helper()
	tool, err := NewTool(name, "test tool "+name,
		func(context.Context, struct{}) (string, error) {
			return result, execErr
		})
	require.NoError(t, err)
	return tool
}

func TestRegistry(t *testing.T) {
	t.Run("names preserve registration order", func(t *testing.T) {
		r := NewRegistry(log.NewNop())
		r.Register(
			newNamedTool(t, "alpha", "", nil),
			newNamedTool(t, "beta", "", nil),
			newNamedTool(t, "gamma", "", nil),
		)
		assert.Equal(t, []string{"alpha", "beta", "gamma"}, r.Names())
		assert.Equal(t, 3, r.Count())
	})

	t.Run("re-registering replaces without reordering", func(t *testing.T) {
		r := NewRegistry(log.NewNop())
		r.Register(newNamedTool(t, "alpha", "old", nil), newNamedTool(t, "beta", "", nil))
		r.Register(newNamedTool(t, "alpha", "new", nil))

		assert.Equal(t, []string{"alpha", "beta"}, r.Names())
		assert.Equal(t, "new", r.Execute(context.Background(), "alpha", nil))
	})

	t.Run("unknown tool yields error text", func(t *testing.T) {
		r := NewRegistry(log.NewNop())
		out := r.Execute(context.Background(), "missing", nil)
		assert.Equal(t, "Error: Tool missing not found", out)
	})

	t.Run("tool failure yields error text", func(t *testing.T) {
		r := NewRegistry(log.NewNop())
		r.Register(newNamedTool(t, "broken", "", errors.New("boom")))
		out := r.Execute(context.Background(), "broken", nil)
		assert.Equal(t, "Error executing broken: boom", out)
	})

	t.Run("describe lists every tool with its schema", func(t *testing.T) {
		r := NewRegistry(log.NewNop())
		r.Register(newNamedTool(t, "alpha", "", nil), newNamedTool(t, "beta", "", nil))

		desc := r.Describe()
		assert.Contains(t, desc, "- alpha: test tool alpha")
		assert.Contains(t, desc, "- beta: test tool beta")
		assert.Contains(t, desc, "Arguments:")
	})
}
