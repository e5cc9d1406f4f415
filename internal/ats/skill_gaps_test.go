package ats

import (
	"testing"

	"atscore/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestIdentifySkillGaps(t *testing.T) {
	ks := types.KeywordScore{
		MissingKeywords: []string{
			"python", "finance", "java", "leadership", "docker", "hours", "kubernetes",
			"sales", "terraform", "communication", "react", "teamwork", "angular", "banking", "retail",
		},
	}

	gaps := IdentifySkillGaps(ks)

	var skills []string
	for _, g := range gaps {
		skills = append(skills, g.Skill)
	}
	assert.Equal(t, []string{
		"python", "java", "docker", "kubernetes", "terraform",
		"finance", "sales", "banking",
		"leadership", "communication",
	}, skills)

	assert.Equal(t, types.SkillGap{
		Skill:    "python",
		Category: types.CategoryTechnical,
		Priority: types.PriorityHigh,
		Reason:   "Missing technical skill from job description",
	}, gaps[0])
	assert.Equal(t, types.PriorityMedium, gaps[5].Priority)
	assert.Equal(t, "Missing domain skill from job description", gaps[5].Reason)
	assert.Equal(t, types.PriorityLow, gaps[9].Priority)
}

func TestIdentifySkillGapsScenario(t *testing.T) {
	gaps := IdentifySkillGaps(CalculateKeywordScore(scenarioResume, scenarioJD))

	var high []string
	for _, g := range gaps {
		if g.Priority == types.PriorityHigh {
			assert.Equal(t, types.CategoryTechnical, g.Category)
			high = append(high, g.Skill)
		}
	}
	assert.Equal(t, []string{"docker", "kubernetes"}, high)
}

func TestIdentifySkillGapsNone(t *testing.T) {
	assert.Empty(t, IdentifySkillGaps(types.KeywordScore{MissingKeywords: []string{"hours", "paperwork"}}))
	assert.NotNil(t, IdentifySkillGaps(types.KeywordScore{}))
}
