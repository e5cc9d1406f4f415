// Package mcpserver exposes the analysis engine as Model Context Protocol
// tools over stdio.
package mcpserver

import (
	"context"

	"atscore/internal/ats"
	"atscore/internal/errors"
	"atscore/internal/types"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName = "atscore"

	ToolAnalyze         = "ats_analyze"
	ToolExtractKeywords = "ats_extract_keywords"
)

// AnalyzeInput is the argument schema of the ats_analyze tool
type AnalyzeInput struct {
	ResumeText     string `json:"resume_text" jsonschema:"plain text of the resume"`
	JobDescription string `json:"job_description" jsonschema:"plain text of the job description"`
	JobRole        string `json:"job_role,omitempty" jsonschema:"optional job title echoed back in the result"`
}

// ExtractKeywordsInput is the argument schema of the ats_extract_keywords tool
type ExtractKeywordsInput struct {
	Text string `json:"text" jsonschema:"text to extract keywords from"`
	TopN int    `json:"top_n,omitempty" jsonschema:"maximum number of keywords to return"`
}

// New builds an MCP server with the analysis tools registered
func New(analyzer *ats.Analyzer, version string, logger *errors.Logger) *mcp.Server {
	if logger == nil {
		logger = errors.NewDiscardLogger()
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: version,
	}, &mcp.ServerOptions{
		Logger:       logger.Slog(),
		Instructions: "Score a resume against a job description with ats_analyze, or list the ranked keywords of a single text with ats_extract_keywords.",
	})

	registerAnalyze(server, analyzer, logger)
	registerExtractKeywords(server, analyzer)
	return server
}

// Run serves the tools on stdin/stdout until ctx is done or the client
// disconnects.
func Run(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAnalyze(server *mcp.Server, analyzer *ats.Analyzer, logger *errors.Logger) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolAnalyze,
		Description: "Score how well a resume matches a job description. Returns a 0-100 final score blended from keyword coverage and semantic similarity, matched and missing keywords per category, skill gaps and prioritized recommendations.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, *types.ATSAnalysisResult, error) {
		result, err := analyzer.Analyze(ctx, types.AnalysisRequest{
			ResumeText:     input.ResumeText,
			JobDescription: input.JobDescription,
			JobRole:        input.JobRole,
		})
		if err != nil {
			logger.LogError(err, "MCP analysis failed")
			return nil, nil, err
		}
		return nil, result, nil
	})
}

func registerExtractKeywords(server *mcp.Server, analyzer *ats.Analyzer) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolExtractKeywords,
		Description: "Extract the top TF-IDF ranked keywords from a text, each with its category (technical, soft, domain, other), frequency and importance.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ExtractKeywordsInput) (*mcp.CallToolResult, *types.KeywordsResponse, error) {
		resp, err := analyzer.ExtractKeywords(ctx, types.KeywordsRequest{
			Text: input.Text,
			TopN: input.TopN,
		})
		if err != nil {
			return nil, nil, err
		}
		return nil, resp, nil
	})
}
