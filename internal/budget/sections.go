package budget

import (
	"fmt"
	"strings"
)

// Role tags what a section is for.
type Role string

const (
	RoleHead      Role = "head"
	RoleCards     Role = "cards"
	RoleThematic  Role = "thematic"
	RoleKnowledge Role = "knowledge"
	RoleTail      Role = "tail"
	RoleOther     Role = "other"
)

// Standard section ids.
const (
	IDHead      = "head"
	IDCards     = "cards"
	IDThematic  = "thematic"
	IDKnowledge = "graphrag"
	IDTail      = "tail"
)

// Section is a named span of a composed prompt. Text carries its own
// separators, so joining sections reproduces the prompt.
type Section struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Join concatenates section texts.
func Join(sections []Section) string {
	var sb strings.Builder
	for _, s := range sections {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Hints names the markers that delimit sections in rendered text.
type Hints struct {
	KnowledgeStart  string `yaml:"knowledge_start"`
	KnowledgeEnd    string `yaml:"knowledge_end"`
	CardsHeading    string `yaml:"cards_heading"`
	ThematicHeading string `yaml:"thematic_heading"`
	TailHeading     string `yaml:"tail_heading"`
	TailTokens      int    `yaml:"tail_tokens"`
}

// DefaultHints returns the markers the prompt composer emits.
func DefaultHints() Hints {
	return Hints{
		KnowledgeStart:  "<graphrag>",
		KnowledgeEnd:    "</graphrag>",
		CardsHeading:    "## Card Synthesis",
		ThematicHeading: "## Thematic Context",
		TailHeading:     "## Write the Reading",
		TailTokens:      DefaultTailTokens,
	}
}

func (h Hints) withDefaults() Hints {
	d := DefaultHints()
	if h.KnowledgeStart == "" {
		h.KnowledgeStart = d.KnowledgeStart
	}
	if h.KnowledgeEnd == "" {
		h.KnowledgeEnd = d.KnowledgeEnd
	}
	if h.CardsHeading == "" {
		h.CardsHeading = d.CardsHeading
	}
	if h.ThematicHeading == "" {
		h.ThematicHeading = d.ThematicHeading
	}
	if h.TailHeading == "" {
		h.TailHeading = d.TailHeading
	}
	if h.TailTokens == 0 {
		h.TailTokens = d.TailTokens
	}
	return h
}

type parseState int

const (
	stateText parseState = iota
	stateKnowledge
	stateAfterKnowledge
)

// Parse splits rendered text into sections by scanning line by line.
// Knowledge markers sharing a line with other text are split out first, so
// a block written inline is recognised too. Text before any marker is
// "head". A knowledge block runs from its start
// marker through its end marker plus any blank lines that follow; an
// unterminated block ends at the next recognised heading and is given a
// closing marker. Unlabelled text after a knowledge block becomes "text-N".
// Apart from a supplied closing marker, joining the result reproduces text.
func Parse(text string, hints Hints) []Section {
	hints = hints.withDefaults()
	if text == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.SplitAfter(text, "\n") {
		if line != "" {
			lines = append(lines, splitMarkers(line, hints)...)
		}
	}

	var (
		sections []Section
		cur      *Section
		sb       strings.Builder
		state    = stateText
		used     = map[string]int{}
		others   int
	)

	uniqueID := func(id string) string {
		used[id]++
		if used[id] == 1 {
			return id
		}
		return fmt.Sprintf("%s-%d", id, used[id])
	}
	closeCur := func() {
		if cur == nil {
			return
		}
		cur.Text = sb.String()
		if cur.Role == RoleKnowledge && state == stateKnowledge {
			if !strings.HasSuffix(cur.Text, "\n") {
				cur.Text += "\n"
			}
			cur.Text += hints.KnowledgeEnd + "\n"
		}
		sections = append(sections, *cur)
		cur = nil
		sb.Reset()
		state = stateText
	}
	open := func(id string, role Role) {
		closeCur()
		cur = &Section{ID: uniqueID(id), Role: role}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		heading := headingRole(trimmed, hints)

		switch {
		case state == stateKnowledge && trimmed == hints.KnowledgeEnd:
			sb.WriteString(line)
			state = stateAfterKnowledge
			continue
		case state == stateKnowledge && heading == "":
			sb.WriteString(line)
			continue
		case state == stateAfterKnowledge && trimmed == "":
			sb.WriteString(line)
			continue
		}

		switch {
		case trimmed == hints.KnowledgeStart:
			open(IDKnowledge, RoleKnowledge)
			sb.WriteString(line)
			state = stateKnowledge
			continue
		case heading != "":
			open(string(heading), heading)
		case cur == nil || state == stateAfterKnowledge:
			if len(sections) == 0 && cur == nil {
				open(IDHead, RoleHead)
			} else {
				others++
				open(fmt.Sprintf("text-%d", others), RoleOther)
			}
		}
		sb.WriteString(line)
	}
	closeCur()
	return sections
}

// splitMarkers cuts line into pieces so each knowledge marker not already
// alone on its line becomes a piece of its own. Joining the pieces
// reproduces line.
func splitMarkers(line string, hints Hints) []string {
	t := strings.TrimSpace(line)
	if t == hints.KnowledgeStart || t == hints.KnowledgeEnd {
		return []string{line}
	}
	var pieces []string
	for {
		i, m := nextMarker(line, hints)
		if i < 0 {
			break
		}
		if i > 0 {
			pieces = append(pieces, line[:i])
		}
		pieces = append(pieces, m)
		line = line[i+len(m):]
	}
	if line != "" {
		pieces = append(pieces, line)
	}
	return pieces
}

func nextMarker(s string, hints Hints) (int, string) {
	i, m := strings.Index(s, hints.KnowledgeStart), hints.KnowledgeStart
	if j := strings.Index(s, hints.KnowledgeEnd); j >= 0 && (i < 0 || j < i) {
		i, m = j, hints.KnowledgeEnd
	}
	return i, m
}

func headingRole(trimmed string, h Hints) Role {
	switch {
	case trimmed == "":
		return ""
	case strings.HasPrefix(trimmed, h.CardsHeading):
		return RoleCards
	case strings.HasPrefix(trimmed, h.ThematicHeading):
		return RoleThematic
	case strings.HasPrefix(trimmed, h.TailHeading):
		return RoleTail
	default:
		return ""
	}
}
