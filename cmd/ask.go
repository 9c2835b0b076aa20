package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var showTrace bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&showTrace, "trace", false, "print the turn's tool trace to stderr")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	app, err := buildApp()
	if err != nil {
		return err
	}

	if err := app.engine.Initialize(ctx, false); err != nil {
		return fmt.Errorf("initializing knowledge base: %w", err)
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question is empty")
	}

	result, err := app.agent.Run(ctx, question, nil)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	if showTrace && result.Log != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), result.Log)
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	fmt.Println(result.Answer)
	return nil
}
