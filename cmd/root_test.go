package cmd

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	t.Run("subcommands are registered", func(t *testing.T) {
		names := make(map[string]bool)
		for _, c := range rootCmd.Commands() {
			names[c.Name()] = true
		}
		for _, want := range []string{"ask", "chat", "index", "symbols", "version"} {
			assert.True(t, names[want], "missing subcommand %s", want)
		}
	})

	t.Run("index has an add subcommand", func(t *testing.T) {
		index, _, err := rootCmd.Find([]string{"index", "add"})
		require.NoError(t, err)
		assert.Equal(t, "add", index.Name())
	})

	t.Run("symbols has a refresh subcommand", func(t *testing.T) {
		refresh, _, err := rootCmd.Find([]string{"symbols", "refresh"})
		require.NoError(t, err)
		assert.Equal(t, "refresh", refresh.Name())
	})

	t.Run("verbose flag switches log level", func(t *testing.T) {
		verbose = false
		assert.Equal(t, slog.LevelInfo, logLevel())
		verbose = true
		assert.Equal(t, slog.LevelDebug, logLevel())
		verbose = false
	})
}
