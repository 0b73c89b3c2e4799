// Package knowledge holds the curated corpus that retrieval draws from.
package knowledge

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/arcana/internal/model"
)

//go:embed corpus/*.yaml
var seedFS embed.FS

// Stats counts entries per pattern type.
type Stats struct {
	Triads       int `json:"triads"`
	Journey      int `json:"journey"`
	Dyads        int `json:"dyads"`
	Progressions int `json:"progressions"`
	Passages     int `json:"passages"`
}

type entryKey struct {
	t  model.PatternType
	id string
}

// Base is an immutable, in-memory knowledge base. It is safe for concurrent
// use; entries returned by Lookup must not be modified.
type Base struct {
	entries map[entryKey]*model.KnowledgeEntry
	ordered []*model.KnowledgeEntry
	stats   Stats
}

// NewBase copies entries into a new Base. Entries with an unknown pattern
// type or blank id, and duplicate (type, id) pairs, are rejected.
func NewBase(entries []model.KnowledgeEntry) (*Base, error) {
	b := &Base{entries: make(map[entryKey]*model.KnowledgeEntry, len(entries))}
	for i, e := range entries {
		if !model.ValidPatternTypes[e.PatternType] {
			return nil, fmt.Errorf("entry %d: unknown pattern type %q", i, e.PatternType)
		}
		id := strings.TrimSpace(e.PatternID)
		if id == "" {
			return nil, fmt.Errorf("entry %d: missing pattern id", i)
		}
		k := entryKey{e.PatternType, id}
		if _, dup := b.entries[k]; dup {
			return nil, fmt.Errorf("duplicate entry %s/%s", e.PatternType, id)
		}
		c := cloneEntry(e)
		c.PatternID = id
		b.entries[k] = c
		b.ordered = append(b.ordered, c)

		switch e.PatternType {
		case model.PatternTriad:
			b.stats.Triads++
		case model.PatternJourney:
			b.stats.Journey++
		case model.PatternDyad:
			b.stats.Dyads++
		case model.PatternProgression:
			b.stats.Progressions++
		}
		b.stats.Passages += len(e.Passages)
	}
	sort.SliceStable(b.ordered, func(i, j int) bool {
		if b.ordered[i].PatternType != b.ordered[j].PatternType {
			return model.PriorityFor(b.ordered[i].PatternType) < model.PriorityFor(b.ordered[j].PatternType)
		}
		return b.ordered[i].PatternID < b.ordered[j].PatternID
	})
	return b, nil
}

// Lookup returns the entry for (t, id).
func (b *Base) Lookup(t model.PatternType, id string) (*model.KnowledgeEntry, bool) {
	if b == nil {
		return nil, false
	}
	e, ok := b.entries[entryKey{t, id}]
	return e, ok
}

// Stats returns entry counts per pattern type.
func (b *Base) Stats() Stats {
	if b == nil {
		return Stats{}
	}
	return b.stats
}

// Entries returns copies of all entries ordered by pattern type then id.
func (b *Base) Entries() []model.KnowledgeEntry {
	out := make([]model.KnowledgeEntry, 0, len(b.ordered))
	for _, e := range b.ordered {
		out = append(out, *cloneEntry(*e))
	}
	return out
}

func cloneEntry(e model.KnowledgeEntry) *model.KnowledgeEntry {
	c := e
	c.CardPair = append([]int(nil), e.CardPair...)
	c.Names = append([]string(nil), e.Names...)
	c.Passages = make([]model.Passage, len(e.Passages))
	for i, p := range e.Passages {
		p.Tags = append([]string(nil), p.Tags...)
		c.Passages[i] = p
	}
	return &c
}

// corpusFile is the on-disk corpus layout (YAML, or JSON which YAML accepts).
type corpusFile struct {
	Entries []model.KnowledgeEntry `yaml:"entries" json:"entries"`
}

// ParseCorpus decodes a YAML or JSON corpus document.
func ParseCorpus(data []byte) ([]model.KnowledgeEntry, error) {
	var f corpusFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	return f.Entries, nil
}

// MarshalCorpus encodes entries in the corpus file layout.
func MarshalCorpus(entries []model.KnowledgeEntry) ([]byte, error) {
	return yaml.Marshal(corpusFile{Entries: entries})
}

// ReadCorpusFile reads and parses a corpus file.
func ReadCorpusFile(path string) ([]model.KnowledgeEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return ParseCorpus(data)
}

// LoadFile builds a Base from a corpus file.
func LoadFile(path string) (*Base, error) {
	entries, err := ReadCorpusFile(path)
	if err != nil {
		return nil, err
	}
	return NewBase(entries)
}

// SeedEntries returns the corpus compiled into the binary.
func SeedEntries() ([]model.KnowledgeEntry, error) {
	files, err := seedFS.ReadDir("corpus")
	if err != nil {
		return nil, err
	}
	var all []model.KnowledgeEntry
	for _, f := range files {
		data, err := seedFS.ReadFile("corpus/" + f.Name())
		if err != nil {
			return nil, err
		}
		entries, err := ParseCorpus(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name(), err)
		}
		all = append(all, entries...)
	}
	return all, nil
}

// LoadSeed builds a Base from the compiled-in corpus.
func LoadSeed() (*Base, error) {
	entries, err := SeedEntries()
	if err != nil {
		return nil, err
	}
	return NewBase(entries)
}
