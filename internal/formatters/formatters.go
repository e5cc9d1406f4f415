package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"atscore/internal/types"
)

const (
	dataTypeAnalysis = "ATSAnalysisResult"
	dataTypeKeywords = "KeywordsResponse"
	dataTypeAny      = "any"
)

// Formatter renders one kind of result in one output format
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry maps format -> data type -> formatter
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter
}

// NewFormatterRegistry creates a registry with the json, text and markdown formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", &JSONFormatter{})
	registry.RegisterFormatter("text", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", &KeywordsTextFormatter{})
	registry.RegisterFormatter("markdown", &KeywordsMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers formatter for format and the data type it supports
func (fr *FormatterRegistry) RegisterFormatter(format string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][formatter.SupportedType()] = formatter
}

// Format renders data, preferring a type-specific formatter over a generic one
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = deref(data)
	dataType := getDataType(data)

	if byType, ok := fr.formatters[format]; ok {
		if formatter, ok := byType[dataType]; ok {
			return formatter.Format(data)
		}
		if formatter, ok := byType[dataTypeAny]; ok {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns every registered format, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func deref(data any) any {
	switch v := data.(type) {
	case *types.ATSAnalysisResult:
		if v != nil {
			return *v
		}
	case *types.KeywordsResponse:
		if v != nil {
			return *v
		}
	}
	return data
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ATSAnalysisResult:
		return dataTypeAnalysis
	case types.KeywordsResponse:
		return dataTypeKeywords
	default:
		return dataTypeAny
	}
}

// JSONFormatter renders any value as indented JSON
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string { return dataTypeAny }

// AnalysisTextFormatter renders an analysis as plain text
type AnalysisTextFormatter struct{}

func (f *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ATSAnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected ATSAnalysisResult, got %T", data)
	}

	var out strings.Builder

	out.WriteString("=== ATS ANALYSIS ===\n")
	if result.JobRole != "" {
		fmt.Fprintf(&out, "Role: %s\n", result.JobRole)
	}
	fmt.Fprintf(&out, "Final Score: %d/100\n", result.FinalScore)
	fmt.Fprintf(&out, "Keyword Score: %d/100 (%d of %d keywords matched)\n",
		result.KeywordScore.Score, len(result.KeywordScore.MatchedKeywords), result.KeywordScore.TotalKeywords)
	fmt.Fprintf(&out, "Semantic Score: %d/100 (similarity %.1f%%)\n",
		result.SemanticScore.Score, result.SemanticScore.SimilarityPercentage)
	if result.SemanticScore.IsFallback() {
		out.WriteString("Note: embedding provider unavailable, semantic score uses keyword similarity\n")
	}
	out.WriteString("\n")

	out.WriteString("=== CATEGORY BREAKDOWN ===\n")
	for _, c := range types.Categories {
		cc := result.KeywordScore.CategoryBreakdown[c]
		if cc.Total == 0 {
			continue
		}
		fmt.Fprintf(&out, "%-10s %d/%d\n", c, cc.Matched, cc.Total)
	}
	out.WriteString("\n")

	out.WriteString("=== MATCHED KEYWORDS ===\n")
	out.WriteString(joinOrNone(matchedKeywordNames(result.KeywordScore.MatchedKeywords)))
	out.WriteString("\n\n")

	out.WriteString("=== MISSING KEYWORDS ===\n")
	out.WriteString(joinOrNone(result.KeywordScore.MissingKeywords))
	out.WriteString("\n\n")

	if len(result.SkillGaps) > 0 {
		out.WriteString("=== SKILL GAPS ===\n")
		for _, gap := range result.SkillGaps {
			fmt.Fprintf(&out, "- [%s] %s (%s)\n", gap.Priority, gap.Skill, gap.Category)
		}
		out.WriteString("\n")
	}

	out.WriteString("=== RECOMMENDATIONS ===\n")
	for i, rec := range result.Recommendations {
		fmt.Fprintf(&out, "%d. [%s] %s\n", i+1, strings.ToUpper(string(rec.Priority)), rec.Text)
	}
	out.WriteString("\n")

	fmt.Fprintf(&out, "Words: resume %d, job description %d | %dms | %s\n",
		result.ResumeWordCount, result.JDWordCount, result.ProcessingTime, result.ID)

	return out.String(), nil
}

func (f *AnalysisTextFormatter) SupportedType() string { return dataTypeAnalysis }

// AnalysisMarkdownFormatter renders an analysis as markdown
type AnalysisMarkdownFormatter struct{}

func (f *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ATSAnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected ATSAnalysisResult, got %T", data)
	}

	var out strings.Builder

	out.WriteString("# ATS Analysis\n\n")
	if result.JobRole != "" {
		fmt.Fprintf(&out, "**Role:** %s\n\n", result.JobRole)
	}

	out.WriteString("| Score | Value |\n|---|---|\n")
	fmt.Fprintf(&out, "| Final | %d/100 |\n", result.FinalScore)
	fmt.Fprintf(&out, "| Keyword | %d/100 |\n", result.KeywordScore.Score)
	fmt.Fprintf(&out, "| Semantic | %d/100 |\n\n", result.SemanticScore.Score)
	if result.SemanticScore.IsFallback() {
		out.WriteString("> Semantic score computed from keyword similarity; the embedding provider was unavailable.\n\n")
	}

	out.WriteString("## Category Breakdown\n\n| Category | Matched | Total |\n|---|---|---|\n")
	for _, c := range types.Categories {
		cc := result.KeywordScore.CategoryBreakdown[c]
		fmt.Fprintf(&out, "| %s | %d | %d |\n", c, cc.Matched, cc.Total)
	}
	out.WriteString("\n")

	out.WriteString("## Keywords\n\n")
	fmt.Fprintf(&out, "**Matched:** %s\n\n", joinOrNone(matchedKeywordNames(result.KeywordScore.MatchedKeywords)))
	fmt.Fprintf(&out, "**Missing:** %s\n\n", joinOrNone(result.KeywordScore.MissingKeywords))

	if len(result.SkillGaps) > 0 {
		out.WriteString("## Skill Gaps\n\n")
		for _, gap := range result.SkillGaps {
			fmt.Fprintf(&out, "- **%s** (%s, %s priority)\n", gap.Skill, gap.Category, gap.Priority)
		}
		out.WriteString("\n")
	}

	out.WriteString("## Recommendations\n\n")
	for _, rec := range result.Recommendations {
		fmt.Fprintf(&out, "- **%s**: %s\n", rec.Priority, rec.Text)
	}
	out.WriteString("\n")

	fmt.Fprintf(&out, "---\n*Analysis %s in %dms*\n", result.ID, result.ProcessingTime)

	return out.String(), nil
}

func (f *AnalysisMarkdownFormatter) SupportedType() string { return dataTypeAnalysis }

// KeywordsTextFormatter renders extracted keywords as an aligned table
type KeywordsTextFormatter struct{}

func (f *KeywordsTextFormatter) Format(data any) (string, error) {
	resp, ok := data.(types.KeywordsResponse)
	if !ok {
		return "", fmt.Errorf("expected KeywordsResponse, got %T", data)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "=== KEYWORDS (%d tokens) ===\n", resp.TokenCount)
	for i, k := range resp.Keywords {
		fmt.Fprintf(&out, "%3d. %-28s %-10s freq=%-3d tfidf=%.4f\n", i+1, k.Keyword, k.Category, k.Frequency, k.TFIDF)
	}
	return out.String(), nil
}

func (f *KeywordsTextFormatter) SupportedType() string { return dataTypeKeywords }

// KeywordsMarkdownFormatter renders extracted keywords as a markdown table
type KeywordsMarkdownFormatter struct{}

func (f *KeywordsMarkdownFormatter) Format(data any) (string, error) {
	resp, ok := data.(types.KeywordsResponse)
	if !ok {
		return "", fmt.Errorf("expected KeywordsResponse, got %T", data)
	}

	var out strings.Builder
	out.WriteString("# Keywords\n\n")
	fmt.Fprintf(&out, "%d tokens analysed.\n\n", resp.TokenCount)
	out.WriteString("| # | Keyword | Category | Frequency | TF-IDF |\n|---|---|---|---|---|\n")
	for i, k := range resp.Keywords {
		fmt.Fprintf(&out, "| %d | %s | %s | %d | %.4f |\n", i+1, k.Keyword, k.Category, k.Frequency, k.TFIDF)
	}
	return out.String(), nil
}

func (f *KeywordsMarkdownFormatter) SupportedType() string { return dataTypeKeywords }

func matchedKeywordNames(matches []types.KeywordMatch) []string {
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Keyword
	}
	return names
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

// GlobalRegistry is the registry shared by the CLI and MCP surfaces
var GlobalRegistry = NewFormatterRegistry()
