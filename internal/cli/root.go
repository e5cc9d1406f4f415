package cli

import (
	"context"
	"fmt"

	"atscore/internal/config"
	"atscore/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "atscore",
	Short: "Score resumes against job descriptions the way an ATS does",
	Long: `atscore compares a resume with a job description and produces an
ATS style compatibility score. The final score blends keyword coverage
(TF-IDF keywords, synonyms, weighted by category) with semantic similarity
from an embedding provider, and comes with skill gaps and recommendations.

When the embedding provider is unavailable the semantic half falls back to
keyword similarity, so an analysis always completes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with config and logger available to every
// subcommand through the context.
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok && cfg != nil {
		return cfg, nil
	}
	return nil, fmt.Errorf("config not found in context")
}

func getLoggerFromContext(ctx context.Context) (*errors.Logger, error) {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok && logger != nil {
		return logger, nil
	}
	return nil, fmt.Errorf("logger not found in context")
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}
