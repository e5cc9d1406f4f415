package types

import "time"

// Category classifies a keyword against the static vocabularies
type Category string

const (
	CategoryTechnical Category = "technical"
	CategorySoft      Category = "soft"
	CategoryDomain    Category = "domain"
	CategoryOther     Category = "other"
)

// Categories lists every category in reporting order
var Categories = []Category{CategoryTechnical, CategorySoft, CategoryDomain, CategoryOther}

// Priority ranks skill gaps and recommendations
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities high first
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// ExtractedKeyword is a keyword pulled from a single text with its TF-IDF weight
type ExtractedKeyword struct {
	Keyword   string   `json:"keyword"`
	Frequency int      `json:"frequency"`
	TFIDF     float64  `json:"tfidf"`
	Category  Category `json:"category"`
}

// KeywordMatch is a job description keyword found in the resume, directly or via a synonym
type KeywordMatch struct {
	Keyword        string   `json:"keyword"`
	Category       Category `json:"category"`
	Frequency      int      `json:"frequency"`
	RelevanceScore float64  `json:"relevanceScore"`
}

// CategoryCount tallies matched and total keywords for one category
type CategoryCount struct {
	Matched int `json:"matched"`
	Total   int `json:"total"`
}

// Ratio returns matched/total, or 0 when the category is absent
func (c CategoryCount) Ratio() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Matched) / float64(c.Total)
}

// KeywordScore is the keyword half of an analysis
type KeywordScore struct {
	Score             int                        `json:"score"`
	TotalKeywords     int                        `json:"totalKeywords"`
	MatchedKeywords   []KeywordMatch             `json:"matchedKeywords"`
	MissingKeywords   []string                   `json:"missingKeywords"`
	MatchRatio        float64                    `json:"matchRatio"`
	CategoryBreakdown map[Category]CategoryCount `json:"categoryBreakdown"`
}

// SemanticScore is the embedding half of an analysis
type SemanticScore struct {
	Score                int      `json:"score"`
	SimilarityPercentage float64  `json:"similarityPercentage"`
	ContextualMatches    []string `json:"contextualMatches"`
	SemanticStrengths    []string `json:"semanticStrengths"`
	SemanticGaps         []string `json:"semanticGaps"`
}

// SemanticFallbackStrength marks a semantic score computed from token overlap
// because the embedding provider could not be used.
const SemanticFallbackStrength = "Semantic analysis unavailable - using keyword similarity fallback"

// IsFallback reports whether the score came from the keyword similarity fallback
func (s SemanticScore) IsFallback() bool {
	return len(s.SemanticStrengths) == 1 && s.SemanticStrengths[0] == SemanticFallbackStrength
}

// SkillGap is a job description skill the resume does not show
type SkillGap struct {
	Skill    string   `json:"skill"`
	Category Category `json:"category"`
	Priority Priority `json:"priority"`
	Reason   string   `json:"reason"`
}

// ATSRecommendation is a piece of guidance derived from the scores
type ATSRecommendation struct {
	Text       string   `json:"text"`
	Priority   Priority `json:"priority"`
	Category   string   `json:"category"`
	Actionable bool     `json:"actionable"`
}

// ATSAnalysisResult is the complete output of one analysis
type ATSAnalysisResult struct {
	ID              string              `json:"id"`
	FinalScore      int                 `json:"finalScore"`
	KeywordScore    KeywordScore        `json:"keywordScore"`
	SemanticScore   SemanticScore       `json:"semanticScore"`
	SkillGaps       []SkillGap          `json:"skillGaps"`
	Recommendations []ATSRecommendation `json:"recommendations"`
	ResumeWordCount int                 `json:"resumeWordCount"`
	JDWordCount     int                 `json:"jdWordCount"`
	JobRole         string              `json:"jobRole,omitempty"`
	ProcessingTime  int64               `json:"processingTime"` // milliseconds
	Timestamp       time.Time           `json:"timestamp"`
}

// AnalysisRequest represents the input for an ATS analysis
type AnalysisRequest struct {
	ResumeText     string `json:"resumeText" validate:"max=100000"`
	JobDescription string `json:"jobDescription" validate:"max=100000"`
	JobRole        string `json:"jobRole,omitempty" validate:"omitempty,max=200"`
}

// KeywordsRequest represents the input for standalone keyword extraction
type KeywordsRequest struct {
	Text string `json:"text" validate:"required,max=100000"`
	TopN int    `json:"topN,omitempty" validate:"omitempty,min=1,max=500"`
}

// KeywordsResponse represents the output of keyword extraction
type KeywordsResponse struct {
	Keywords   []ExtractedKeyword `json:"keywords"`
	TokenCount int                `json:"tokenCount"`
}
