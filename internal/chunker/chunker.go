// Package chunker splits a rendered knowledge list into entry blocks so it
// can be shortened without cutting an entry in half.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Block is a contiguous span of the input, including its trailing newlines.
type Block struct {
	Text      string
	StartLine int
	EndLine   int
}

var entryStart = regexp.MustCompile(`^\s*(\d+[.)]|[-*])\s+`)

// Split divides text into blocks. A new block starts at a numbered or bulleted
// entry line, at a heading, or at the first non-blank line after a blank line.
// Blank lines stay with the block they follow. Split is lossless: joining the
// blocks' Text reproduces text exactly.
func Split(text string) []Block {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var blocks []Block
	var current strings.Builder
	startLine := 1
	prevBlank := false

	flush := func(endLine int) {
		if current.Len() == 0 {
			return
		}
		blocks = append(blocks, Block{Text: current.String(), StartLine: startLine, EndLine: endLine})
		current.Reset()
		startLine = endLine + 1
	}

	for i, line := range lines {
		lineNum := i + 1
		trimmed := strings.TrimSpace(line)
		blank := trimmed == ""

		if !blank && current.Len() > 0 {
			if prevBlank || strings.HasPrefix(trimmed, "#") || entryStart.MatchString(line) {
				flush(lineNum - 1)
			}
		}
		current.WriteString(line)
		prevBlank = blank
	}
	flush(len(lines))

	return blocks
}

// Join concatenates block texts.
func Join(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.Text)
	}
	return sb.String()
}

// Prefix returns the longest run of leading blocks whose combined length is
// at most maxChars runes, and how many blocks it holds.
func Prefix(blocks []Block, maxChars int) (string, int) {
	var sb strings.Builder
	used := 0
	for i, b := range blocks {
		n := utf8.RuneCountInString(b.Text)
		if used+n > maxChars {
			return sb.String(), i
		}
		sb.WriteString(b.Text)
		used += n
	}
	return sb.String(), len(blocks)
}
