// Package keyword extracts query keywords and matches them as whole words.
package keyword

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// MinLength is the shortest token kept as a keyword.
const MinLength = 4

// stopwords holds common function words plus nouns that appear in almost
// every reading question and so carry no signal.
var stopwords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "also": true,
	"been": true, "before": true, "being": true, "both": true, "could": true,
	"does": true, "doing": true, "down": true, "during": true, "each": true,
	"from": true, "further": true, "have": true, "having": true, "here": true,
	"into": true, "just": true, "more": true, "most": true, "much": true,
	"only": true, "other": true, "over": true, "same": true, "should": true,
	"some": true, "such": true, "than": true, "that": true, "their": true,
	"them": true, "then": true, "there": true, "these": true, "they": true,
	"this": true, "those": true, "through": true, "under": true, "until": true,
	"very": true, "what": true, "when": true, "where": true, "which": true,
	"while": true, "will": true, "with": true, "would": true, "your": true,
	"yours": true, "ours": true, "theirs": true, "were": true, "want": true,
	"know": true, "need": true, "like": true, "going": true, "really": true,
	// domain-generic
	"card": true, "cards": true, "reading": true, "readings": true,
	"tarot": true, "spread": true, "deck": true, "draw": true, "drawn": true,
	"mean": true, "means": true, "meaning": true, "tell": true,
}


// Extract splits a query on anything that is not a letter, digit or
// apostrophe, lowercases, and drops short tokens and stopwords. Duplicates
// are removed, first occurrence wins.
func Extract(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	var out []string
	seen := map[string]bool{}
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if len([]rune(f)) < MinLength || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

var (
	patternMu    sync.RWMutex
	patternCache = map[string]*regexp.Regexp{}
)

const maxCachedPatterns = 1024

// pattern compiles a case-insensitive whole-word matcher for w. The token is
// escaped so user input is always treated literally.
func pattern(w string) *regexp.Regexp {
	patternMu.RLock()
	re, ok := patternCache[w]
	patternMu.RUnlock()
	if ok {
		return re
	}
	re = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(w) + `(?:$|[^\p{L}\p{N}_])`)
	patternMu.Lock()
	if len(patternCache) >= maxCachedPatterns {
		patternCache = map[string]*regexp.Regexp{}
	}
	patternCache[w] = re
	patternMu.Unlock()
	return re
}

// ContainsWord reports whether w occurs in text as a whole word,
// ignoring case. "art" does not match "heart".
func ContainsWord(text, w string) bool {
	if w == "" || text == "" {
		return false
	}
	return pattern(w).MatchString(text)
}

// CountMatches returns how many of the keywords occur in text as whole words.
func CountMatches(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if ContainsWord(text, k) {
			n++
		}
	}
	return n
}
