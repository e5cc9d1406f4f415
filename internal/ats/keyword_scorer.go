package ats

import (
	"math"

	"atscore/internal/nlp"
	"atscore/internal/types"
)

// scoringTopN bounds how many keywords each side contributes to matching
const scoringTopN = 100

// categoryWeights weight each category's match ratio in the keyword score
var categoryWeights = map[types.Category]float64{
	types.CategoryTechnical: 0.4,
	types.CategoryDomain:    0.3,
	types.CategorySoft:      0.2,
	types.CategoryOther:     0.1,
}

// CalculateKeywordScore compares the job description's keywords against the
// resume's, accepting synonyms. Categories the job description does not use
// carry no weight, so a JD without soft skills is not penalised for them.
func CalculateKeywordScore(resumeText, jdText string) types.KeywordScore {
	resumeKeywords := nlp.ExtractKeywords(resumeText, scoringTopN)
	jdKeywords := nlp.ExtractKeywords(jdText, scoringTopN)

	match := nlp.MatchKeywordsWithSynonyms(nlp.KeywordStrings(resumeKeywords), nlp.KeywordStrings(jdKeywords))

	jdIndex := indexKeywords(jdKeywords)
	resumeIndex := indexKeywords(resumeKeywords)

	matched := make([]types.KeywordMatch, 0, len(match.Matched))
	for _, keyword := range match.Matched {
		m := types.KeywordMatch{
			Keyword:   keyword,
			Category:  nlp.Categorize(keyword),
			Frequency: 1,
		}
		if jd, ok := jdIndex[keyword]; ok {
			m.Category = jd.Category
			m.RelevanceScore = jd.TFIDF
		} else if r, ok := resumeIndex[keyword]; ok {
			m.RelevanceScore = r.TFIDF
		}
		if r, ok := resumeIndex[keyword]; ok {
			m.Frequency = r.Frequency
		}
		matched = append(matched, m)
	}

	breakdown := make(map[types.Category]types.CategoryCount, len(types.Categories))
	for _, c := range types.Categories {
		breakdown[c] = types.CategoryCount{}
	}
	for _, k := range jdKeywords {
		cc := breakdown[k.Category]
		cc.Total++
		breakdown[k.Category] = cc
	}
	for _, m := range matched {
		cc := breakdown[m.Category]
		cc.Matched++
		breakdown[m.Category] = cc
	}

	ratio := 0.0
	if len(jdKeywords) > 0 {
		ratio = float64(len(matched)) / float64(len(jdKeywords))
	}

	return types.KeywordScore{
		Score:             weightedScore(breakdown),
		TotalKeywords:     len(jdKeywords),
		MatchedKeywords:   matched,
		MissingKeywords:   match.Unmatched,
		MatchRatio:        ratio,
		CategoryBreakdown: breakdown,
	}
}

func weightedScore(breakdown map[types.Category]types.CategoryCount) int {
	var weighted, totalWeight float64
	for _, c := range types.Categories {
		cc := breakdown[c]
		if cc.Total == 0 {
			continue
		}
		weighted += cc.Ratio() * categoryWeights[c]
		totalWeight += categoryWeights[c]
	}
	if totalWeight == 0 {
		return 0
	}
	return int(math.Round(weighted / totalWeight * 100))
}

func indexKeywords(keywords []types.ExtractedKeyword) map[string]types.ExtractedKeyword {
	idx := make(map[string]types.ExtractedKeyword, len(keywords))
	for _, k := range keywords {
		idx[k.Keyword] = k
	}
	return idx
}
