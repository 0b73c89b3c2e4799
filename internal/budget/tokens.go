// Package budget estimates token usage and shrinks prompts to fit a budget.
package budget

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CharsPerToken is the heuristic ratio used by EstimateTokens.
const CharsPerToken = 4

// DefaultTailTokens is the tail size kept by Truncate when none is given.
const DefaultTailTokens = 300

// ElisionMarker replaces the content removed between head and tail.
const ElisionMarker = "\n\n[…]\n\n"

// EstimateTokens approximates the token count of text as
// ceil(runes / CharsPerToken). More runes never yield fewer tokens.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// Options configures Truncate.
type Options struct {
	// TailTokens is the size of the verbatim tail kept from the end of the
	// text. Zero means DefaultTailTokens; negative means no tail.
	TailTokens int
}

// Result is the outcome of a truncation.
type Result struct {
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
	// PreservedSections lists sections present in Text, in order. A knowledge
	// block that was shortened but kept is included.
	PreservedSections []string `json:"preservedSections"`
	DroppedSections   []string `json:"droppedSections,omitempty"`
	ShortenedSections []string `json:"shortenedSections,omitempty"`
}

// Truncate fits text into maxTokens. Text already within budget is returned
// unchanged. Otherwise a verbatim tail of about TailTokens is kept, the head
// is kept up to the remaining budget, and the middle is replaced by
// ElisionMarker. When the tail alone does not fit, the text is cut from the
// front instead.
func Truncate(text string, maxTokens int, opts Options) Result {
	if EstimateTokens(text) <= maxTokens {
		return Result{Text: text}
	}
	if maxTokens <= 0 {
		return Result{Text: "", Truncated: true}
	}

	runes := []rune(text)
	maxChars := maxTokens * CharsPerToken

	tailTokens := opts.TailTokens
	if tailTokens == 0 {
		tailTokens = DefaultTailTokens
	}
	tailChars := 0
	if tailTokens > 0 {
		tailChars = min(tailTokens*CharsPerToken, len(runes))
	}

	marker := runeLen(ElisionMarker)
	if tailChars == 0 || tailChars+marker > maxChars {
		return Result{Text: frontCut(runes, maxChars), Truncated: true}
	}

	headChars := maxChars - marker - tailChars
	head := ""
	if headChars > 0 {
		head = snapHead(runes[:headChars])
	}
	tail := string(runes[len(runes)-tailChars:])
	return Result{Text: head + ElisionMarker + tail, Truncated: true}
}

// snapHead cuts the head back to its last line break when one falls in the
// final quarter, then trims trailing whitespace.
func snapHead(head []rune) string {
	cut := len(head)
	for i := len(head) - 1; i >= len(head)*3/4; i-- {
		if head[i] == '\n' {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(head[:cut]), unicode.IsSpace)
}

// frontCut keeps the first maxChars runes, backing up to whitespace in the
// final quarter when possible.
func frontCut(runes []rune, maxChars int) string {
	if len(runes) <= maxChars {
		return string(runes)
	}
	cut := maxChars
	for i := maxChars - 1; i >= maxChars*3/4 && i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
}
