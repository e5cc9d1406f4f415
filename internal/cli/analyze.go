package cli

import (
	"context"

	"atscore/internal/common"
	"atscore/internal/config"
	"atscore/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <resume-file> <job-description-file>",
	Short: "Score a resume against a job description",
	Long: `Analyze how well a resume matches a job description.

The report includes:
- Final score (0-100), 60% keyword score and 40% semantic score
- Matched and missing job description keywords per category
- Semantic similarity, or the keyword similarity fallback when the
  embedding provider is unavailable
- Skill gaps and prioritized recommendations`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutputFormat(cmd, &analyzeConfig)
	},
	RunE: runAnalyze,
}

var (
	analyzeConfig common.CommandConfig
	analyzeRole   string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	analyzeCmd.Flags().StringVar(&analyzeRole, "role", "", "Job role label included in the report")
	registerFormatCompletion(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return err
	}

	analyzer, _, err := newAnalyzer(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}

	createInput := func(contents []string) types.AnalysisRequest {
		return types.AnalysisRequest{
			ResumeText:     contents[0],
			JobDescription: contents[1],
			JobRole:        analyzeRole,
		}
	}

	logger.Info("Starting resume analysis",
		"resume_file", args[0],
		"job_description_file", args[1],
		"output_format", analyzeConfig.OutputFormat)

	return common.RunFileCommand(cmd.Context(), logger, analyzeConfig, cmd.OutOrStdout(), args, createInput,
		func(ctx context.Context, req types.AnalysisRequest) (*types.ATSAnalysisResult, error) {
			return analyzer.Analyze(ctx, req)
		})
}

// resolveOutputFormat applies the configured defaults and validates the format
func resolveOutputFormat(cmd *cobra.Command, cmdConfig *common.CommandConfig) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	if cmdConfig.OutputFormat == "" {
		cmdConfig.OutputFormat = cfg.App.DefaultFormat
	}
	cmdConfig.MaxFileSize = cfg.App.MaxFileSize
	return common.ValidateOutputFormat(cmdConfig.OutputFormat, cfg.App.SupportedFormats)
}

func registerFormatCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}
