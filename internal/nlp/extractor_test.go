package nlp

import (
	"math"
	"testing"

	"atscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeywordsEmpty(t *testing.T) {
	assert.Empty(t, ExtractKeywords("", 50))
	assert.Empty(t, ExtractKeywords("the and of", 50))
}

func TestExtractKeywordsWeighting(t *testing.T) {
	// N = 4: python appears 3 times, golang once
	keywords := ExtractKeywords("python python python golang", 10)
	require.Len(t, keywords, 2)

	assert.Equal(t, "golang", keywords[0].Keyword)
	assert.Equal(t, 1, keywords[0].Frequency)
	assert.InDelta(t, 0.25*math.Log(4.0/2.0), keywords[0].TFIDF, 1e-9)
	assert.Equal(t, types.CategoryTechnical, keywords[0].Category)

	assert.Equal(t, "python", keywords[1].Keyword)
	assert.Equal(t, 3, keywords[1].Frequency)
	assert.InDelta(t, 0.0, keywords[1].TFIDF, 1e-9)
}

func TestExtractKeywordsTiesKeepFirstOccurrence(t *testing.T) {
	keywords := ExtractKeywords("Looking for Python Django AWS Docker Kubernetes engineer with leadership skills", 100)

	assert.Equal(t, []string{
		"looking", "python", "django", "aws", "docker", "kubernetes", "engineer", "leadership", "skills",
	}, KeywordStrings(keywords))

	for _, k := range keywords {
		assert.InDelta(t, (1.0/9.0)*math.Log(9.0/2.0), k.TFIDF, 1e-9)
	}
}

func TestExtractKeywordsTopN(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta"
	assert.Len(t, ExtractKeywords(text, 3), 3)
	assert.Len(t, ExtractKeywords(text, 0), 6, "non-positive topN falls back to the default")
}
