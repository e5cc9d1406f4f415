package nlp

import (
	"cmp"
	"math"
	"slices"

	"atscore/internal/types"
)

// DefaultTopN is the number of keywords returned when the caller does not ask
// for a specific count.
const DefaultTopN = 50

// ExtractKeywords returns the topN keywords of text ranked by TF-IDF.
//
// Only one document is available, so IDF is approximated from the same
// document: idf = ln(N / (count + 1)), where N is the token count. Terms that
// dominate the text are dampened and rarer terms are lifted. Downstream score
// calibration depends on this exact formula.
//
// Ties keep first-occurrence order.
func ExtractKeywords(text string, topN int) []types.ExtractedKeyword {
	if topN <= 0 {
		topN = DefaultTopN
	}

	counts := make(map[string]int)
	var order []string
	total := 0
	for token := range Tokens(text, DefaultOptions()) {
		if counts[token] == 0 {
			order = append(order, token)
		}
		counts[token]++
		total++
	}
	if total == 0 {
		return []types.ExtractedKeyword{}
	}

	n := float64(total)
	keywords := make([]types.ExtractedKeyword, 0, len(order))
	for _, token := range order {
		count := counts[token]
		tf := float64(count) / n
		idf := math.Log(n / float64(count+1))
		keywords = append(keywords, types.ExtractedKeyword{
			Keyword:   token,
			Frequency: count,
			TFIDF:     tf * idf,
			Category:  Categorize(token),
		})
	}

	slices.SortStableFunc(keywords, func(a, b types.ExtractedKeyword) int {
		return cmp.Compare(b.TFIDF, a.TFIDF)
	})

	if len(keywords) > topN {
		keywords = keywords[:topN]
	}
	return keywords
}

// KeywordStrings projects extracted keywords onto their text
func KeywordStrings(keywords []types.ExtractedKeyword) []string {
	out := make([]string, len(keywords))
	for i, k := range keywords {
		out[i] = k.Keyword
	}
	return out
}
