package nlp

import (
	"strings"

	"atscore/internal/types"
)

// Categorize assigns a token to a keyword category. Exact vocabulary hits are
// checked technical first, then soft, then domain. A token that overlaps a
// technical entry as a substring in either direction ("learning" vs "machine
// learning", "node" vs "node.js") is treated as technical.
func Categorize(token string) types.Category {
	token = strings.ToLower(token)

	if _, ok := technicalSet[token]; ok {
		return types.CategoryTechnical
	}
	if _, ok := softSkillSet[token]; ok {
		return types.CategorySoft
	}
	if _, ok := domainSet[token]; ok {
		return types.CategoryDomain
	}

	if token != "" {
		for _, term := range technicalTerms {
			if strings.Contains(token, term) || strings.Contains(term, token) {
				return types.CategoryTechnical
			}
		}
	}

	return types.CategoryOther
}
