package retrieval

import (
	"strings"

	"github.com/rcliao/arcana/internal/model"
)

// DefaultFingerprintLength is the prefix length used when none is given.
const DefaultFingerprintLength = 50

// Fingerprint lowercases text, collapses whitespace and keeps the first n runes.
func Fingerprint(text string, n int) string {
	if n <= 0 {
		n = DefaultFingerprintLength
	}
	norm := []rune(strings.ToLower(strings.Join(strings.Fields(text), " ")))
	if len(norm) > n {
		norm = norm[:n]
	}
	return string(norm)
}

// Deduplicate drops candidates whose fingerprint was already seen, keeping
// the first occurrence and the survivors' order. Zero-value candidates are
// skipped; candidates with empty text are always kept.
func Deduplicate(cands []model.Candidate, fingerprintLength int) []model.Candidate {
	out := make([]model.Candidate, 0, len(cands))
	seen := make(map[string]bool, len(cands))
	for _, c := range cands {
		if c.Type == "" && c.Text == "" {
			continue
		}
		if strings.TrimSpace(c.Text) == "" {
			out = append(out, c)
			continue
		}
		fp := Fingerprint(c.Text, fingerprintLength)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, c)
	}
	return out
}
