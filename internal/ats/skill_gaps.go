package ats

import (
	"fmt"

	"atscore/internal/nlp"
	"atscore/internal/types"
)

// gapBuckets lists the categories reported as skill gaps, in output order.
// Other-category keywords are never reported.
var gapBuckets = []struct {
	category types.Category
	priority types.Priority
	limit    int
}{
	{types.CategoryTechnical, types.PriorityHigh, 5},
	{types.CategoryDomain, types.PriorityMedium, 3},
	{types.CategorySoft, types.PriorityLow, 2},
}

// IdentifySkillGaps turns missing keywords into prioritised gaps
func IdentifySkillGaps(ks types.KeywordScore) []types.SkillGap {
	byCategory := make(map[types.Category][]string)
	for _, keyword := range ks.MissingKeywords {
		c := nlp.Categorize(keyword)
		byCategory[c] = append(byCategory[c], keyword)
	}

	gaps := []types.SkillGap{}
	for _, bucket := range gapBuckets {
		missing := byCategory[bucket.category]
		if len(missing) > bucket.limit {
			missing = missing[:bucket.limit]
		}
		for _, skill := range missing {
			gaps = append(gaps, types.SkillGap{
				Skill:    skill,
				Category: bucket.category,
				Priority: bucket.priority,
				Reason:   fmt.Sprintf("Missing %s skill from job description", bucket.category),
			})
		}
	}
	return gaps
}
