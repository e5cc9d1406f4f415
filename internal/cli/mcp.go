package cli

import (
	"os"

	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/mcpserver"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the analysis tools over the Model Context Protocol (stdio)",
	Long: `Run an MCP server on stdin/stdout so that assistants can call:

- ats_analyze: score a resume against a job description
- ats_extract_keywords: list the ranked keywords of a text

Stdout carries the protocol, so logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}

	level, err := errors.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		return err
	}
	logger := errors.NewLoggerWithWriter(level, os.Stderr)

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return err
	}

	analyzer, _, err := newAnalyzer(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}

	logger.Info("Starting MCP server on stdio", "version", Version, "embedding_provider", cfg.Embedding.Provider)
	return mcpserver.Run(cmd.Context(), mcpserver.New(analyzer, Version, logger))
}
