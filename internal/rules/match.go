package rules

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// KeywordSet matches whole-word keywords case-insensitively.
type KeywordSet struct {
	keywords []string
	patterns []*regexp.Regexp
}

// RE2's \b only knows ASCII word characters, so edges are spelled out with
// Unicode classes.
const (
	leadingEdge  = `(?:^|[^\p{L}\p{N}_])`
	trailingEdge = `(?:[^\p{L}\p{N}_]|$)`
)

// NewKeywordSet compiles one whole-word pattern per keyword. An edge is only
// required on a side where the keyword begins or ends with a word character,
// so "at&t" still needs word edges while "&co" may follow a letter.
// Empty keywords are skipped.
func NewKeywordSet(keywords []string) *KeywordSet {
	ks := &KeywordSet{}
	for _, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		ks.keywords = append(ks.keywords, kw)
		ks.patterns = append(ks.patterns, regexp.MustCompile(wholeWordPattern(kw)))
	}
	return ks
}

func wholeWordPattern(kw string) string {
	pattern := `(?i)`
	first, _ := utf8.DecodeRuneInString(kw)
	if isWordRune(first) {
		pattern += leadingEdge
	}
	pattern += regexp.QuoteMeta(kw)
	last, _ := utf8.DecodeLastRuneInString(kw)
	if isWordRune(last) {
		pattern += trailingEdge
	}
	return pattern
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Find returns the first keyword, in declaration order, present in text as a whole word.
func (ks *KeywordSet) Find(text string) (string, bool) {
	for i, p := range ks.patterns {
		if p.MatchString(text) {
			return ks.keywords[i], true
		}
	}
	return "", false
}

// Match reports whether any keyword is present in text as a whole word.
func (ks *KeywordSet) Match(text string) bool {
	_, ok := ks.Find(text)
	return ok
}

// KeywordPresent reports whether any keyword occurs in text as a whole word,
// ignoring case. "tax" does not match "syntax".
func KeywordPresent(text string, keywords []string) bool {
	return NewKeywordSet(keywords).Match(text)
}

// LookupEntry maps a substring key to a canonical merchant name.
type LookupEntry struct {
	Keyword string `yaml:"keyword"`
	Name    string `yaml:"name"`
}

// LookupTable is an ordered keyword -> name mapping. Earlier entries win.
type LookupTable []LookupEntry

// Lookup returns the name of the first entry whose key is a substring of the
// lowercased text. Matching is plain containment, so "amazonian" hits "amazon".
func (t LookupTable) Lookup(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, e := range t {
		if e.Keyword == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(e.Keyword)) {
			return e.Name, true
		}
	}
	return "", false
}

// LookupMerchant is the free-function form of LookupTable.Lookup.
func LookupMerchant(text string, table LookupTable) (string, bool) {
	return table.Lookup(text)
}

// containsAny reports whether the lowercased text contains any of terms.
func containsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
