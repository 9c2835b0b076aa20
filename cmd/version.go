package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/davitran/finsight/internal/config"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and configuration information",
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	fmt.Printf("FinSight %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Println("Configuration:")
	fmt.Printf("  Backend: %s\n", cfg.BackendBaseURL)
	fmt.Printf("  Model: %s\n", cfg.ModelName)
	fmt.Printf("  Embedder: %s\n", cfg.EmbedderModel)
	fmt.Printf("  Reranker: %s\n", cfg.RerankerURL)
	fmt.Printf("  Data dir: %s\n", cfg.DataDir)
	fmt.Printf("  Max steps: %d\n", cfg.MaxSteps)

	if key := os.Getenv("TAVILY_API_KEY"); key != "" && len(key) > 8 {
		fmt.Printf("  TAVILY_API_KEY: %s...%s (configured)\n", key[:4], key[len(key)-4:])
	} else {
		fmt.Println("  TAVILY_API_KEY: not set (news search disabled)")
	}

	return nil
}
