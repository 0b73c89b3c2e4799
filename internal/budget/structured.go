package budget

import (
	"strings"
	"unicode"

	"github.com/rcliao/arcana/internal/chunker"
)

// MinPartialChars is the least room, in characters, worth spending on a
// single cut knowledge entry.
const MinPartialChars = 160

// TruncateStructured parses text into sections and fits them into
// maxTokens with TruncateSections.
func TruncateStructured(text string, maxTokens int, hints Hints) Result {
	sections := Parse(text, hints)
	if EstimateTokens(text) <= maxTokens {
		return Result{Text: text, PreservedSections: ids(sections)}
	}
	return TruncateSections(sections, maxTokens, hints)
}

// TruncateSections fits sections into maxTokens.
//
// Sections within budget come back unchanged. Otherwise knowledge sections
// give way first: trailing entries are dropped (keeping both markers) and,
// when no whole entry fits, the first entry is cut at a word boundary. A
// knowledge block that cannot keep any entry is removed with its markers.
// If the remaining sections still exceed the budget, the joined text is cut
// generically while keeping everything from the card synthesis on as tail.
func TruncateSections(sections []Section, maxTokens int, hints Hints) Result {
	hints = hints.withDefaults()
	if EstimateTokens(Join(sections)) <= maxTokens {
		return Result{Text: Join(sections), PreservedSections: ids(sections)}
	}

	var rest []Section
	for _, s := range sections {
		if s.Role != RoleKnowledge {
			rest = append(rest, s)
		}
	}
	restText := Join(rest)
	maxChars := maxTokens * CharsPerToken

	if maxTokens > 0 && runeLen(restText) <= maxChars {
		return fitKnowledge(sections, maxChars-runeLen(restText), hints)
	}

	res := Truncate(restText, maxTokens, Options{TailTokens: tailBudget(rest, maxTokens, hints)})
	res.PreservedSections = nil
	for _, s := range sections {
		switch {
		case s.Role == RoleKnowledge:
			res.DroppedSections = append(res.DroppedSections, s.ID)
		case s.Text != "" && strings.Contains(res.Text, s.Text):
			res.PreservedSections = append(res.PreservedSections, s.ID)
		case strings.TrimSpace(s.Text) == "":
		default:
			res.ShortenedSections = append(res.ShortenedSections, s.ID)
		}
	}
	return res
}

// fitKnowledge keeps every non-knowledge section and spends room on the
// knowledge sections in order.
func fitKnowledge(sections []Section, room int, hints Hints) Result {
	res := Result{Truncated: true}
	var sb strings.Builder
	for _, s := range sections {
		if s.Role != RoleKnowledge {
			sb.WriteString(s.Text)
			res.PreservedSections = append(res.PreservedSections, s.ID)
			continue
		}
		if n := runeLen(s.Text); n <= room {
			sb.WriteString(s.Text)
			room -= n
			res.PreservedSections = append(res.PreservedSections, s.ID)
			continue
		}
		short, ok := shortenKnowledge(s.Text, room, hints)
		if !ok {
			res.DroppedSections = append(res.DroppedSections, s.ID)
			continue
		}
		sb.WriteString(short)
		room -= runeLen(short)
		res.PreservedSections = append(res.PreservedSections, s.ID)
		res.ShortenedSections = append(res.ShortenedSections, s.ID)
	}
	res.Text = sb.String()
	return res
}

// shortenKnowledge rebuilds a knowledge block within room characters.
func shortenKnowledge(text string, room int, hints Hints) (string, bool) {
	open, body, closing := splitKnowledge(text, hints)
	avail := room - runeLen(open) - runeLen(closing) - 1
	if avail <= 0 {
		return "", false
	}

	blocks := chunker.Split(body)
	prefix, n := chunker.Prefix(blocks, avail)
	if hasEntry(blocks[:n]) {
		return open + ensureNewline(prefix) + closing, true
	}
	if avail < MinPartialChars {
		return "", false
	}

	var lead strings.Builder
	var first string
	for _, b := range blocks {
		if isHeading(b.Text) {
			lead.WriteString(b.Text)
			continue
		}
		first = b.Text
		break
	}
	left := avail - runeLen(lead.String()) - 1
	if first == "" || left < MinPartialChars/2 {
		return "", false
	}
	return open + lead.String() + cutWords(first, left) + "…\n" + closing, true
}

// splitKnowledge separates the opening marker (with the rest of its line
// when that is blank), the body, and the last closing marker with anything
// after it. A missing closing marker is supplied.
func splitKnowledge(text string, hints Hints) (open, body, closing string) {
	rest := text
	if i := strings.Index(rest, hints.KnowledgeStart); i >= 0 {
		j := i + len(hints.KnowledgeStart)
		if k := strings.IndexByte(rest[j:], '\n'); k >= 0 && strings.TrimSpace(rest[j:j+k]) == "" {
			j += k + 1
		}
		open, rest = rest[:j], rest[j:]
	}
	if i := strings.LastIndex(rest, hints.KnowledgeEnd); i >= 0 {
		return open, rest[:i], rest[i:]
	}
	return open, rest, hints.KnowledgeEnd + "\n"
}

func hasEntry(blocks []chunker.Block) bool {
	for _, b := range blocks {
		if strings.TrimSpace(b.Text) != "" && !isHeading(b.Text) {
			return true
		}
	}
	return false
}

func isHeading(text string) bool {
	t := strings.TrimSpace(text)
	return t == "" || (strings.HasPrefix(t, "#") && !strings.Contains(t, "\n"))
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// cutWords keeps at most maxChars runes of s, ending on a word boundary.
func cutWords(s string, maxChars int) string {
	r := []rune(strings.TrimRightFunc(s, unicode.IsSpace))
	if len(r) <= maxChars {
		return string(r)
	}
	cut := maxChars
	for i := maxChars; i > 0; i-- {
		if unicode.IsSpace(r[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(r[:cut]), unicode.IsSpace)
}

// tailBudget picks the largest protected tail that still fits: everything
// from the card synthesis on, then everything from the tail section on, then
// the configured tail size capped to the room available.
func tailBudget(rest []Section, maxTokens int, hints Hints) int {
	roomTokens := (maxTokens*CharsPerToken - runeLen(ElisionMarker)) / CharsPerToken
	for _, role := range []Role{RoleCards, RoleTail} {
		for i, s := range rest {
			if s.Role != role {
				continue
			}
			if suffix := EstimateTokens(Join(rest[i:])); suffix <= roomTokens {
				return max(min(hints.TailTokens, roomTokens), suffix)
			}
			break
		}
	}
	if roomTokens > 0 {
		return min(hints.TailTokens, roomTokens)
	}
	return hints.TailTokens
}

func ids(sections []Section) []string {
	out := make([]string, 0, len(sections))
	for _, s := range sections {
		out = append(out, s.ID)
	}
	return out
}
