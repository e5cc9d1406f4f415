package nlp

// Static vocabularies. They are built once at package initialisation and never
// written afterwards, so concurrent readers need no locking.

var stopWordList = []string{
	"a", "about", "all", "also", "an", "and", "any", "are", "as", "at",
	"be", "been", "both", "but", "by", "can", "could", "did", "do", "does",
	"each", "etc", "few", "for", "from", "had", "has", "have", "he", "her",
	"his", "how", "i", "if", "in", "into", "is", "it", "its", "just",
	"may", "me", "might", "more", "most", "my", "no", "not", "of", "on",
	"only", "or", "other", "our", "out", "over", "own", "same", "she", "should",
	"so", "some", "such", "than", "that", "the", "their", "them", "then", "there",
	"these", "they", "this", "those", "to", "too", "up", "us", "very", "was",
	"we", "were", "what", "when", "where", "which", "while", "who", "will", "with",
	"would", "you", "your",
	// text copied out of web pages and PDF viewers
	"image", "button", "click", "page", "pdf", "download", "upload", "file", "link", "menu",
}

// technicalTerms is kept as an ordered slice because the substring fallback in
// Categorize scans it.
var technicalTerms = []string{
	"javascript", "typescript", "python", "java", "c++", "c#", "golang", "rust",
	"ruby", "php", "swift", "kotlin", "scala", "perl", "sql", "nosql",
	"html", "css", "sass", "react", "angular", "vue", "svelte", "node.js",
	"express", "django", "flask", "fastapi", "spring", ".net", "rails", "laravel",
	"aws", "azure", "gcp", "docker", "kubernetes", "terraform", "ansible", "jenkins",
	"git", "github", "gitlab", "ci/cd", "linux", "unix", "bash", "powershell",
	"mongodb", "postgresql", "mysql", "redis", "elasticsearch", "kafka", "rabbitmq", "graphql",
	"restful", "api", "microservices", "grpc", "tensorflow", "pytorch", "pandas", "numpy",
	"spark", "hadoop", "tableau", "devops", "serverless", "webpack", "figma", "blockchain",
	"nlp", "machine learning", "deep learning", "artificial intelligence", "data science",
	"computer vision", "microsoft excel",
}

var softSkillTerms = []string{
	"communication", "leadership", "teamwork", "collaboration", "problem-solving",
	"critical thinking", "creativity", "adaptability", "time management", "organization",
	"interpersonal", "mentoring", "negotiation", "presentation", "analytical",
	"initiative", "flexibility", "empathy", "ownership", "attention to detail",
}

var domainTerms = []string{
	"finance", "fintech", "healthcare", "e-commerce", "marketing", "sales", "banking",
	"insurance", "retail", "logistics", "education", "consulting", "manufacturing",
	"telecommunications", "cybersecurity", "compliance", "analytics", "saas", "gaming", "biotech",
}

// synonymEntry ties a canonical term to its accepted alternate spellings
type synonymEntry struct {
	canonical string
	synonyms  []string
}

var synonymTable = []synonymEntry{
	{"javascript", []string{"js", "ecmascript"}},
	{"typescript", []string{"ts"}},
	{"python", []string{"py", "python3"}},
	{"golang", []string{"go"}},
	{"c#", []string{"csharp"}},
	{"c++", []string{"cpp"}},
	{"node.js", []string{"nodejs", "node"}},
	{"react", []string{"reactjs", "react.js"}},
	{"vue", []string{"vuejs", "vue.js"}},
	{"kubernetes", []string{"k8s"}},
	{"postgresql", []string{"postgres", "psql"}},
	{"mongodb", []string{"mongo"}},
	{"aws", []string{"amazon web services"}},
	{"gcp", []string{"google cloud", "google cloud platform"}},
	{"azure", []string{"microsoft azure"}},
	{"ci/cd", []string{"continuous integration", "continuous delivery"}},
	{"machine learning", []string{"ml"}},
	{"artificial intelligence", []string{"ai"}},
	{"nlp", []string{"natural language processing"}},
	{"restful", []string{"rest"}},
	{"e-commerce", []string{"ecommerce"}},
	{"cybersecurity", []string{"infosec", "security"}},
}

var (
	stopWords     = toSet(stopWordList)
	technicalSet  = toSet(technicalTerms)
	softSkillSet  = toSet(softSkillTerms)
	domainSet     = toSet(domainTerms)
	canonicalIdx  = buildCanonicalIndex(synonymTable)
	synonymToRoot = buildSynonymIndex(synonymTable)
)

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func buildCanonicalIndex(table []synonymEntry) map[string][]string {
	idx := make(map[string][]string, len(table))
	for _, e := range table {
		idx[e.canonical] = e.synonyms
	}
	return idx
}

func buildSynonymIndex(table []synonymEntry) map[string]string {
	idx := make(map[string]string)
	for _, e := range table {
		for _, s := range e.synonyms {
			idx[s] = e.canonical
		}
	}
	return idx
}

// IsStopWord reports whether word is in the stop-word list
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// IsTechnicalTerm reports whether word is an exact technical vocabulary entry
func IsTechnicalTerm(word string) bool {
	_, ok := technicalSet[word]
	return ok
}
