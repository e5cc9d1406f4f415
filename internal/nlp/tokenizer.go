package nlp

import (
	"iter"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Options controls tokenization
type Options struct {
	// PreserveTechnicalTerms keeps known technical keywords even when they
	// collide with a stop word.
	PreserveTechnicalTerms bool
	Lowercase              bool
}

// DefaultOptions returns the options used throughout the analysis engine
func DefaultOptions() Options {
	return Options{PreserveTechnicalTerms: true, Lowercase: true}
}

// Tokens returns a lazy token sequence over text. Each iteration re-reads text,
// so the sequence can be ranged over any number of times.
func Tokens(text string, opts Options) iter.Seq[string] {
	return func(yield func(string) bool) {
		for field := range strings.FieldsSeq(normalize(text, opts.Lowercase)) {
			token := strings.TrimRight(field, ".")
			if token == "" {
				continue
			}
			if !(opts.PreserveTechnicalTerms && IsTechnicalTerm(token)) && IsStopWord(token) {
				continue
			}
			if utf8.RuneCountInString(token) <= 1 {
				continue
			}
			if !yield(token) {
				return
			}
		}
	}
}

// Tokenize collects Tokens into a slice
func Tokenize(text string, opts Options) []string {
	return slices.Collect(Tokens(text, opts))
}

// CountTokens returns the number of tokens under the default options
func CountTokens(text string) int {
	n := 0
	for range Tokens(text, DefaultOptions()) {
		n++
	}
	return n
}

// normalize applies NFKC, optional lowercasing, and replaces every rune that is
// neither a word character nor part of technical notation with a space.
func normalize(text string, lowercase bool) string {
	text = norm.NFKC.String(text)
	if lowercase {
		text = strings.ToLower(text)
	}
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			return r
		case r == '+', r == '#', r == '.', r == '/', r == '-':
			return r
		default:
			return ' '
		}
	}, text)
}
