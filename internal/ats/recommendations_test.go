package ats

import (
	"slices"
	"strings"
	"testing"

	"atscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prioritySorted(recs []types.ATSRecommendation) bool {
	return slices.IsSortedFunc(recs, func(a, b types.ATSRecommendation) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})
}

func TestGenerateRecommendationsScenario(t *testing.T) {
	ks := CalculateKeywordScore(scenarioResume, scenarioJD)
	ss := types.SemanticScore{Score: 100}
	recs := GenerateRecommendations(ks, ss, IdentifySkillGaps(ks))

	require.Len(t, recs, 4)
	assert.True(t, prioritySorted(recs))

	var named *types.ATSRecommendation
	for i := range recs {
		if recs[i].Category == string(types.CategoryTechnical) && strings.Contains(recs[i].Text, "docker") {
			named = &recs[i]
		}
	}
	require.NotNil(t, named, "expected a recommendation naming the missing technical skills")
	assert.Equal(t, types.PriorityHigh, named.Priority)
	assert.Contains(t, named.Text, "docker, kubernetes")

	// soft skills 0/1 are below the coverage threshold
	assert.Equal(t, "soft", recs[3].Category)
	assert.Equal(t, types.PriorityMedium, recs[3].Priority)
}

func TestGenerateRecommendationsCap(t *testing.T) {
	ks := types.KeywordScore{
		Score:      20,
		MatchRatio: 0.1,
		CategoryBreakdown: map[types.Category]types.CategoryCount{
			types.CategoryTechnical: {Matched: 0, Total: 6},
			types.CategorySoft:      {Matched: 0, Total: 2},
			types.CategoryDomain:    {Matched: 0, Total: 3},
			types.CategoryOther:     {Matched: 1, Total: 9},
		},
	}
	gaps := []types.SkillGap{
		{Skill: "go", Category: types.CategoryTechnical, Priority: types.PriorityHigh},
		{Skill: "rust", Category: types.CategoryTechnical, Priority: types.PriorityHigh},
		{Skill: "kafka", Category: types.CategoryTechnical, Priority: types.PriorityHigh},
		{Skill: "redis", Category: types.CategoryTechnical, Priority: types.PriorityHigh},
	}

	recs := GenerateRecommendations(ks, types.SemanticScore{Score: 0}, gaps)

	require.Len(t, recs, 6)
	assert.True(t, prioritySorted(recs))
	for _, r := range recs[:4] {
		assert.Equal(t, types.PriorityHigh, r.Priority)
	}
	assert.Contains(t, recs[2].Text, "go, rust, kafka")
	assert.NotContains(t, recs[2].Text, "redis")
}

func TestGenerateRecommendationsOverallBands(t *testing.T) {
	full := map[types.Category]types.CategoryCount{
		types.CategoryTechnical: {Matched: 4, Total: 4},
	}

	tests := []struct {
		name       string
		keyword    int
		semantic   int
		priority   types.Priority
		actionable bool
	}{
		{name: "low match", keyword: 50, semantic: 50, priority: types.PriorityHigh, actionable: true},
		{name: "room for improvement", keyword: 70, semantic: 70, priority: types.PriorityMedium, actionable: true},
		{name: "boundary 80 is excellent", keyword: 80, semantic: 80, priority: types.PriorityLow, actionable: false},
		{name: "excellent", keyword: 95, semantic: 90, priority: types.PriorityLow, actionable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ks := types.KeywordScore{Score: tt.keyword, MatchRatio: 1, CategoryBreakdown: full}
			recs := GenerateRecommendations(ks, types.SemanticScore{Score: tt.semantic}, nil)

			require.Len(t, recs, 1)
			assert.Equal(t, "overall", recs[0].Category)
			assert.Equal(t, tt.priority, recs[0].Priority)
			assert.Equal(t, tt.actionable, recs[0].Actionable)
		})
	}
}

func TestGenerateRecommendationsSemanticLag(t *testing.T) {
	ks := types.KeywordScore{Score: 90, MatchRatio: 1}

	recs := GenerateRecommendations(ks, types.SemanticScore{Score: 74}, nil)
	assert.True(t, slices.ContainsFunc(recs, func(r types.ATSRecommendation) bool { return r.Category == "context" }))

	recs = GenerateRecommendations(ks, types.SemanticScore{Score: 75}, nil)
	assert.False(t, slices.ContainsFunc(recs, func(r types.ATSRecommendation) bool { return r.Category == "context" }))
}
