package mcpserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"atscore/internal/ats"
	"atscore/internal/embedding"
	"atscore/internal/errors"
	"atscore/internal/types"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	logger := errors.NewDiscardLogger()
	server := New(ats.NewAnalyzer(embedding.NoopProvider{}, time.Second, logger), "test", logger)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestListTools(t *testing.T) {
	cs := connect(t)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		require.NotNil(t, tool.Annotations)
		assert.True(t, tool.Annotations.ReadOnlyHint, tool.Name)
	}
	assert.ElementsMatch(t, []string{ToolAnalyze, ToolExtractKeywords}, names)
}

func TestAnalyzeTool(t *testing.T) {
	cs := connect(t)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name: ToolAnalyze,
		Arguments: map[string]any{
			"resume_text":     "Experienced Python developer with Django and AWS skills, strong communication",
			"job_description": "Looking for Python Django AWS Docker Kubernetes engineer with leadership skills",
			"job_role":        "Backend Engineer",
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	var result types.ATSAnalysisResult
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &result))
	assert.Equal(t, 39, result.KeywordScore.Score)
	assert.True(t, result.SemanticScore.IsFallback())
	assert.Equal(t, 36, result.FinalScore)
	assert.Equal(t, "Backend Engineer", result.JobRole)
}

func TestExtractKeywordsTool(t *testing.T) {
	cs := connect(t)

	t.Run("returns ranked keywords", func(t *testing.T) {
		res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
			Name:      ToolExtractKeywords,
			Arguments: map[string]any{"text": "Kubernetes Kubernetes Docker Python leadership", "top_n": 2},
		})
		require.NoError(t, err)
		require.False(t, res.IsError, textOf(t, res))

		var out types.KeywordsResponse
		require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
		require.Len(t, out.Keywords, 2)
		assert.GreaterOrEqual(t, out.Keywords[0].TFIDF, out.Keywords[1].TFIDF)
		assert.Equal(t, types.CategoryTechnical, out.Keywords[0].Category)
	})

	t.Run("blank text is a tool error", func(t *testing.T) {
		res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
			Name:      ToolExtractKeywords,
			Arguments: map[string]any{"text": ""},
		})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, textOf(t, res), "Text is required")
	})
}
