package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "Manage the ticker symbol mapping",
}

var symbolsRefreshCmd = &cobra.Command{
	Use:   "refresh [url]",
	Short: "Replace the embedded symbol mapping with a remote copy",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSymbolsRefresh,
}

func init() {
	symbolsCmd.AddCommand(symbolsRefreshCmd)
	rootCmd.AddCommand(symbolsCmd)
}

func runSymbolsRefresh(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}

	url := app.cfg.SymbolsURL
	if len(args) > 0 {
		url = args[0]
	}
	if url == "" {
		return fmt.Errorf("no mapping URL: pass one as an argument or set symbols_url in the config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.HTTPTimeout)
	defer cancel()

	if err := app.symbols.Refresh(ctx, url); err != nil {
		return fmt.Errorf("refreshing symbol mapping: %w", err)
	}
	fmt.Printf("Symbol mapping refreshed from %s\n", url)
	return nil
}
