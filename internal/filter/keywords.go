package filter

import (
	"regexp"
	"strings"
	"sync"

	"paperscribe/internal/domain"
)

// Mode selects how a keyword is matched against paper text.
type Mode int

const (
	// Exact matches a keyword as a raw substring.
	Exact Mode = iota
	// Fuzzy matches a keyword only at word boundaries, so "attention" does
	// not match inside "attentions". This is the production default.
	Fuzzy
)

// Match is one paper together with the keywords that selected it.
type Match struct {
	Paper    domain.Paper
	Keywords []string
}

// Normalize lowercases and trims a keyword or text for comparison.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var (
	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}
)

func boundaryPattern(keyword string) *regexp.Regexp {
	patternMu.Lock()
	defer patternMu.Unlock()

	if re, ok := patternCache[keyword]; ok {
		return re
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
	patternCache[keyword] = re
	return re
}

// Matches reports whether text contains keyword under the given mode.
// Both sides are normalized before comparison.
func Matches(text, keyword string, mode Mode) bool {
	text = Normalize(text)
	keyword = Normalize(keyword)
	if keyword == "" {
		return false
	}

	if mode == Exact {
		return strings.Contains(text, keyword)
	}
	return boundaryPattern(keyword).MatchString(text)
}

// MatchPaper returns the subset of keywords that match the paper's
// searchable text (title, abstract, summary and category tags).
func MatchPaper(paper domain.Paper, keywords []string, mode Mode) []string {
	searchable := strings.Join([]string{
		paper.Title,
		paper.Abstract,
		paper.Summary,
		strings.Join(paper.Categories, " "),
	}, " ")

	var matched []string
	for _, kw := range keywords {
		if Matches(searchable, kw, mode) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// FilterPapers keeps papers matching at least one keyword, preserving the
// input order, each paired with its matched keyword subset.
func FilterPapers(papers []domain.Paper, keywords []string, mode Mode) []Match {
	var filtered []Match
	for _, paper := range papers {
		if matched := MatchPaper(paper, keywords, mode); len(matched) > 0 {
			filtered = append(filtered, Match{Paper: paper, Keywords: matched})
		}
	}
	return filtered
}
