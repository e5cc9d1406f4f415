package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"atscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() types.ATSAnalysisResult {
	return types.ATSAnalysisResult{
		ID:         "3f2a",
		FinalScore: 63,
		JobRole:    "Backend Engineer",
		KeywordScore: types.KeywordScore{
			Score:         39,
			TotalKeywords: 9,
			MatchedKeywords: []types.KeywordMatch{
				{Keyword: "python", Category: types.CategoryTechnical, Frequency: 1},
				{Keyword: "django", Category: types.CategoryTechnical, Frequency: 1},
			},
			MissingKeywords: []string{"docker", "kubernetes"},
			CategoryBreakdown: map[types.Category]types.CategoryCount{
				types.CategoryTechnical: {Matched: 3, Total: 5},
			},
		},
		SemanticScore: types.SemanticScore{
			Score:             31,
			SemanticStrengths: []string{types.SemanticFallbackStrength},
		},
		SkillGaps: []types.SkillGap{
			{Skill: "docker", Category: types.CategoryTechnical, Priority: types.PriorityHigh},
		},
		Recommendations: []types.ATSRecommendation{
			{Text: "Missing technical skills: docker, kubernetes.", Priority: types.PriorityHigh},
		},
	}
}

func TestFormatAnalysis(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{format: "text", want: []string{"Final Score: 63/100", "technical  3/5", "docker, kubernetes", "[HIGH]", "keyword similarity"}},
		{format: "markdown", want: []string{"# ATS Analysis", "| Final | 63/100 |", "**Missing:** docker, kubernetes", "- **docker**"}},
		{format: "json", want: []string{`"finalScore": 63`, `"missingKeywords"`}},
	}

	result := sampleResult()
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := GlobalRegistry.Format(&result, tt.format)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestFormatKeywords(t *testing.T) {
	resp := types.KeywordsResponse{
		TokenCount: 4,
		Keywords: []types.ExtractedKeyword{
			{Keyword: "golang", Frequency: 2, TFIDF: 0.1, Category: types.CategoryTechnical},
		},
	}

	text, err := GlobalRegistry.Format(resp, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "golang")
	assert.Contains(t, text, "freq=2")

	md, err := GlobalRegistry.Format(&resp, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "| 1 | golang | technical | 2 | 0.1000 |")

	raw, err := GlobalRegistry.Format(resp, "json")
	require.NoError(t, err)
	var decoded types.KeywordsResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, resp, decoded)
}

func TestFormatUnknown(t *testing.T) {
	_, err := GlobalRegistry.Format(sampleResult(), "xml")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "xml"))

	_, err = GlobalRegistry.Format(map[string]int{"a": 1}, "text")
	assert.Error(t, err)
}

func TestGetSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "markdown", "text"}, GlobalRegistry.GetSupportedFormats())
}
