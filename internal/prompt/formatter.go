// Package prompt renders retrieved passages and assembles the reading prompt.
package prompt

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rcliao/arcana/internal/model"
)

// Knowledge block headers.
const (
	MarkdownHeader = "### Wisdom from the Knowledge Base"
	PlainHeader    = "Wisdom from the Knowledge Base:"
)

// FormatOptions controls Format.
type FormatOptions struct {
	IncludeSource bool
	Markdown      bool
	// MaxChars bounds the rendered block; whole entries past the bound are
	// omitted. Zero means unbounded.
	MaxChars int
}

// Format renders candidates as a numbered list under a header. No
// candidates, or none that fit MaxChars, renders as "".
func Format(cands []model.Candidate, opts FormatOptions) string {
	if len(cands) == 0 {
		return ""
	}

	header := PlainHeader
	if opts.Markdown {
		header = MarkdownHeader
	}
	header += "\n\n"

	var sb strings.Builder
	sb.WriteString(header)
	used := utf8.RuneCountInString(header)
	written := 0
	for _, c := range cands {
		line := entry(written+1, c, opts)
		n := utf8.RuneCountInString(line)
		if opts.MaxChars > 0 && used+n > opts.MaxChars {
			break
		}
		sb.WriteString(line)
		used += n
		written++
	}
	if written == 0 {
		return ""
	}
	return sb.String()
}

func entry(n int, c model.Candidate, opts FormatOptions) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d. ", n)
	if title := Title(c); title != "" {
		if opts.Markdown {
			fmt.Fprintf(&sb, "**%s**: ", title)
		} else {
			fmt.Fprintf(&sb, "%s: ", title)
		}
	}
	fmt.Fprintf(&sb, "\"%s\"", strings.TrimSpace(c.Text))
	if opts.IncludeSource && strings.TrimSpace(c.Source) != "" {
		fmt.Fprintf(&sb, " (Source: %s)", strings.TrimSpace(c.Source))
	}
	sb.WriteString("\n")
	return sb.String()
}

// Title picks the display title: Title, then Theme, then a readable form of
// the pattern id. It returns "" when none is usable.
func Title(c model.Candidate) string {
	if t := strings.TrimSpace(c.Title); t != "" {
		return t
	}
	if t := strings.TrimSpace(c.Theme); t != "" {
		return t
	}
	return humanizeID(c.Type, c.PatternID)
}

func humanizeID(t model.PatternType, id string) string {
	parts := strings.FieldsFunc(id, func(r rune) bool { return r == '-' || r == '_' || unicode.IsSpace(r) })
	if len(parts) == 0 {
		return ""
	}
	if t == model.PatternDyad {
		return "Cards " + strings.Join(parts, " & ")
	}
	for i, p := range parts {
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + p[size:]
	}
	return strings.Join(parts, " ")
}
