package cli

import (
	"context"

	"atscore/internal/common"
	"atscore/internal/types"

	"github.com/spf13/cobra"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords <file>",
	Short: "List the top TF-IDF keywords of a text",
	Long: `Extract ranked keywords from a resume or job description. Each keyword
carries its category (technical, soft, domain, other), frequency and TF-IDF
weight. Use --top to change how many are returned (default from
analysis.topKeywords).`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &keywordsConfig)
	},
	RunE: runKeywords,
}

var (
	keywordsConfig common.CommandConfig
	keywordsTopN   int
)

func init() {
	keywordsCmd.Flags().StringVarP(&keywordsConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	keywordsCmd.Flags().StringVar(&keywordsConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	keywordsCmd.Flags().IntVar(&keywordsTopN, "top", 0, "Number of keywords to return")
	registerFormatCompletion(keywordsCmd)
}

func runKeywords(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	// keyword extraction never touches the embedding provider
	analyzer, _, err := newKeywordAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	createInput := func(contents []string) types.KeywordsRequest {
		return types.KeywordsRequest{Text: contents[0], TopN: keywordsTopN}
	}

	return common.RunFileCommand(cmd.Context(), logger, keywordsConfig, cmd.OutOrStdout(), args, createInput,
		func(ctx context.Context, req types.KeywordsRequest) (*types.KeywordsResponse, error) {
			return analyzer.ExtractKeywords(ctx, req)
		})
}
