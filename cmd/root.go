package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/research-hub/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "research-hub",
	Short: "Market research service for registered companies",
	Long:  "Serves a JSON API for company registration, tasks, notes, and documents, and runs the async market-research pipeline over web search, financial data, and AI analysis.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
