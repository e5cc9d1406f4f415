package nlp

import (
	"slices"
	"strings"
)

// FindSynonyms returns the alternate forms of keyword. A listed synonym yields
// its canonical term followed by the remaining synonyms; a canonical term yields
// its synonym list. Unknown keywords yield nil.
func FindSynonyms(keyword string) []string {
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	if canonical, ok := synonymToRoot[keyword]; ok {
		out := []string{canonical}
		for _, s := range canonicalIdx[canonical] {
			if s != keyword {
				out = append(out, s)
			}
		}
		return out
	}

	if synonyms, ok := canonicalIdx[keyword]; ok {
		return slices.Clone(synonyms)
	}

	return nil
}

// MatchResult splits job description keywords by presence in the resume
type MatchResult struct {
	Matched   []string
	Unmatched []string
}

// MatchKeywordsWithSynonyms checks every job description keyword against the
// resume keywords, accepting a synonym in place of the literal term. Matching
// is case-insensitive; both output lists keep the job description form and order.
func MatchKeywordsWithSynonyms(resumeKeywords, jdKeywords []string) MatchResult {
	resumeSet := make(map[string]struct{}, len(resumeKeywords))
	for _, k := range resumeKeywords {
		resumeSet[strings.ToLower(k)] = struct{}{}
	}

	result := MatchResult{
		Matched:   []string{},
		Unmatched: []string{},
	}
	for _, jdKeyword := range jdKeywords {
		if matchesResume(jdKeyword, resumeSet) {
			result.Matched = append(result.Matched, jdKeyword)
		} else {
			result.Unmatched = append(result.Unmatched, jdKeyword)
		}
	}
	return result
}

func matchesResume(keyword string, resumeSet map[string]struct{}) bool {
	if _, ok := resumeSet[strings.ToLower(keyword)]; ok {
		return true
	}
	for _, synonym := range FindSynonyms(keyword) {
		if _, ok := resumeSet[synonym]; ok {
			return true
		}
	}
	return false
}
