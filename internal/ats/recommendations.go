package ats

import (
	"fmt"
	"slices"
	"strings"

	"atscore/internal/types"
)

const (
	maxRecommendations = 6
	maxNamedGaps       = 3

	// semanticLagThreshold is how far the semantic score may trail the
	// keyword score before phrasing advice is given.
	semanticLagThreshold = 15

	lowCategoryRatio = 0.3
	lowMatchRatio    = 0.5
)

// GenerateRecommendations derives ranked guidance from both scores and the
// skill gaps. High priority items come first; at most six are returned.
func GenerateRecommendations(ks types.KeywordScore, ss types.SemanticScore, gaps []types.SkillGap) []types.ATSRecommendation {
	var recs []types.ATSRecommendation

	recs = append(recs, overallRecommendation(ks.Score, ss.Score))

	if ks.MatchRatio < lowMatchRatio {
		recs = append(recs, types.ATSRecommendation{
			Text:       "Add more keywords from the job description. Fewer than half of its key terms appear in your resume.",
			Priority:   types.PriorityHigh,
			Category:   "keywords",
			Actionable: true,
		})
	}

	var critical []string
	for _, gap := range gaps {
		if gap.Category == types.CategoryTechnical && gap.Priority == types.PriorityHigh {
			critical = append(critical, gap.Skill)
		}
	}
	if len(critical) > 0 {
		if len(critical) > maxNamedGaps {
			critical = critical[:maxNamedGaps]
		}
		recs = append(recs, types.ATSRecommendation{
			Text:       fmt.Sprintf("Missing technical skills: %s. Add them if you have this experience.", strings.Join(critical, ", ")),
			Priority:   types.PriorityHigh,
			Category:   string(types.CategoryTechnical),
			Actionable: true,
		})
	}

	if ss.Score < ks.Score-semanticLagThreshold {
		recs = append(recs, types.ATSRecommendation{
			Text:       "Your keywords match but the surrounding context does not. Describe how you applied these skills using the job description's phrasing.",
			Priority:   types.PriorityMedium,
			Category:   "context",
			Actionable: true,
		})
	}

	for _, c := range types.Categories {
		cc, ok := ks.CategoryBreakdown[c]
		if !ok || cc.Total == 0 || cc.Ratio() >= lowCategoryRatio {
			continue
		}
		priority := types.PriorityMedium
		if c == types.CategoryTechnical {
			priority = types.PriorityHigh
		}
		recs = append(recs, types.ATSRecommendation{
			Text:       fmt.Sprintf("Low %s keyword coverage: %d of %d matched. Strengthen this area.", c, cc.Matched, cc.Total),
			Priority:   priority,
			Category:   string(c),
			Actionable: true,
		})
	}

	slices.SortStableFunc(recs, func(a, b types.ATSRecommendation) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func overallRecommendation(keywordScore, semanticScore int) types.ATSRecommendation {
	avg := float64(keywordScore+semanticScore) / 2
	switch {
	case avg < 60:
		return types.ATSRecommendation{
			Text:       "Low match with this job description. Tailor your resume to the role's core requirements.",
			Priority:   types.PriorityHigh,
			Category:   "overall",
			Actionable: true,
		}
	case avg < 80:
		return types.ATSRecommendation{
			Text:       "Good match with room for improvement. Close the gaps below to strengthen your application.",
			Priority:   types.PriorityMedium,
			Category:   "overall",
			Actionable: true,
		}
	default:
		return types.ATSRecommendation{
			Text:       "Excellent match. Your resume aligns well with this job description.",
			Priority:   types.PriorityLow,
			Category:   "overall",
			Actionable: false,
		}
	}
}
