package ats

import (
	"testing"

	"atscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	scenarioResume = "Experienced Python developer with Django and AWS skills, strong communication"
	scenarioJD     = "Looking for Python Django AWS Docker Kubernetes engineer with leadership skills"
)

func TestCalculateKeywordScoreScenario(t *testing.T) {
	ks := CalculateKeywordScore(scenarioResume, scenarioJD)

	assert.Equal(t, types.CategoryCount{Matched: 3, Total: 5}, ks.CategoryBreakdown[types.CategoryTechnical])
	assert.Equal(t, types.CategoryCount{Matched: 0, Total: 1}, ks.CategoryBreakdown[types.CategorySoft])
	assert.Equal(t, types.CategoryCount{Matched: 1, Total: 3}, ks.CategoryBreakdown[types.CategoryOther])
	assert.Equal(t, types.CategoryCount{}, ks.CategoryBreakdown[types.CategoryDomain])

	assert.Contains(t, ks.MissingKeywords, "docker")
	assert.Contains(t, ks.MissingKeywords, "kubernetes")
	assert.Equal(t, 9, ks.TotalKeywords)
	assert.InDelta(t, 4.0/9.0, ks.MatchRatio, 1e-9)

	// (0.6*0.4 + 0*0.2 + 1/3*0.1) / 0.7
	assert.Equal(t, 39, ks.Score)

	matched := make(map[string]types.KeywordMatch)
	for _, m := range ks.MatchedKeywords {
		matched[m.Keyword] = m
	}
	require.Contains(t, matched, "python")
	assert.Equal(t, types.CategoryTechnical, matched["python"].Category)
	assert.Equal(t, 1, matched["python"].Frequency)
	assert.Greater(t, matched["python"].RelevanceScore, 0.0)
}

func TestCalculateKeywordScoreEmpty(t *testing.T) {
	tests := []struct {
		name   string
		resume string
		jd     string
	}{
		{name: "both empty", resume: "", jd: ""},
		{name: "empty resume", resume: "", jd: "React Node SQL"},
		{name: "empty job description", resume: "React Node SQL", jd: ""},
		{name: "only stop words", resume: "the and of", jd: "to be or not"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ks := CalculateKeywordScore(tt.resume, tt.jd)
			assert.Equal(t, 0, ks.Score)
			assert.Equal(t, 0.0, ks.MatchRatio)
			assert.Len(t, ks.MissingKeywords, ks.TotalKeywords)
			assert.Len(t, ks.CategoryBreakdown, len(types.Categories))
		})
	}
}

func TestCalculateKeywordScoreSynonyms(t *testing.T) {
	ks := CalculateKeywordScore("Built services in Go and JS on k8s", "Golang JavaScript Kubernetes")

	assert.Equal(t, 100, ks.Score)
	assert.Empty(t, ks.MissingKeywords)
	assert.Equal(t, types.CategoryCount{Matched: 3, Total: 3}, ks.CategoryBreakdown[types.CategoryTechnical])
}

func TestCalculateKeywordScoreInvariants(t *testing.T) {
	inputs := [][2]string{
		{scenarioResume, scenarioJD},
		{"Senior accountant, finance and banking, Microsoft Excel", "Finance analyst with banking compliance experience"},
		{"Rust rust rust", "Rust, Go, Python, leadership, healthcare"},
		{"", "Healthcare"},
	}

	for _, in := range inputs {
		ks := CalculateKeywordScore(in[0], in[1])
		assert.GreaterOrEqual(t, ks.Score, 0)
		assert.LessOrEqual(t, ks.Score, 100)
		assert.GreaterOrEqual(t, ks.MatchRatio, 0.0)
		assert.LessOrEqual(t, ks.MatchRatio, 1.0)
		assert.Equal(t, ks.TotalKeywords, len(ks.MatchedKeywords)+len(ks.MissingKeywords))
		for c, cc := range ks.CategoryBreakdown {
			assert.LessOrEqual(t, cc.Matched, cc.Total, "category %s", c)
		}
	}
}
