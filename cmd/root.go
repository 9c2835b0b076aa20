package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	jsonLog bool
)

var rootCmd = &cobra.Command{
	Use:   "finsight",
	Short: "FinSight - financial research assistant in your terminal",
	Long: `FinSight is a terminal assistant for financial research. It combines a
local knowledge base of investment documents with live market data, news
search and web access, and reasons over them in bounded multi-step turns.

Running finsight without arguments starts an interactive chat session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "write logs as JSON")
}

func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
