package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davitran/finsight/internal/llm"
	"github.com/davitran/finsight/internal/rag"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := buildApp()
	if err != nil {
		return err
	}

	fmt.Println("Initializing knowledge base...")
	if err := app.engine.Initialize(ctx, false); err != nil {
		return fmt.Errorf("initializing knowledge base: %w", err)
	}

	// Watch the data directory so the session can tell the user when the
	// on-disk corpus drifts from the loaded index.
	watcher, err := rag.NewWatcher(app.engine, app.logger)
	if err != nil {
		app.logger.Warn("could not watch data directory", "error", err)
	} else {
		go watcher.Run(ctx)
		defer func() {
			cancel()
			_ = watcher.Close()
		}()
	}

	status := app.engine.Status()
	fmt.Printf("FinSight ready: %d documents, %d chunks, %d tools.\n",
		status.Documents, status.Chunks, app.registry.Count())
	fmt.Println(`Type your question, or /status, /reindex, /quit.`)
	fmt.Println()

	var history []llm.Message
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			fmt.Println("Bye.")
			return nil

		case "/status":
			printStatus(app.engine.Status())
			continue

		case "/reindex":
			fmt.Println("Rebuilding knowledge base...")
			if err := app.engine.Initialize(ctx, true); err != nil {
				fmt.Fprintf(os.Stderr, "Rebuild failed: %v\n", err)
				continue
			}
			printStatus(app.engine.Status())
			continue
		}

		if app.engine.Status().Stale {
			fmt.Println("(note: documents changed on disk; run /reindex to pick them up)")
		}

		result, err := app.agent.Run(ctx, line, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		fmt.Println()
		if verbose && result.Log != "" {
			fmt.Fprintln(os.Stderr, result.Log)
			fmt.Fprintln(os.Stderr)
		}
		fmt.Println(result.Answer)
		fmt.Println()

		history = append(history, result.Messages...)
	}

	return scanner.Err()
}

func printStatus(status rag.Status) {
	fmt.Printf("Knowledge base: ready=%t stale=%t documents=%d chunks=%d\n",
		status.Ready, status.Stale, status.Documents, status.Chunks)
	for id, chunks := range status.PerDoc {
		fmt.Printf("  %s: %d chunks\n", id, chunks)
	}
}
