package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var forceRebuild bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh the knowledge base cache",
	RunE:  runIndex,
}

var indexAddCmd = &cobra.Command{
	Use:   "add [file...]",
	Short: "Add text files to the knowledge base without a full rebuild",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndexAdd,
}

func init() {
	indexCmd.Flags().BoolVar(&forceRebuild, "force", false, "rebuild even when the cache is valid")
	indexCmd.AddCommand(indexAddCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := buildApp()
	if err != nil {
		return err
	}

	if err := app.engine.Initialize(ctx, forceRebuild); err != nil {
		return fmt.Errorf("building knowledge base: %w", err)
	}

	printStatus(app.engine.Status())
	return nil
}

func runIndexAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := buildApp()
	if err != nil {
		return err
	}

	if err := app.engine.Initialize(ctx, false); err != nil {
		return fmt.Errorf("initializing knowledge base: %w", err)
	}

	added := 0
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", path, err)
			continue
		}
		if app.engine.AddDocument(ctx, filepath.Base(path), string(content)) {
			fmt.Printf("Added %s\n", path)
			added++
		} else {
			fmt.Fprintf(os.Stderr, "Failed to add %s\n", path)
		}
	}

	if added == 0 {
		return fmt.Errorf("no documents were added")
	}
	if err := app.engine.Save(); err != nil {
		return fmt.Errorf("saving knowledge base: %w", err)
	}

	printStatus(app.engine.Status())
	return nil
}
