package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/arcana/internal/model"
)

func TestLoadSeed(t *testing.T) {
	b, err := LoadSeed()
	require.NoError(t, err)

	e, ok := b.Lookup(model.PatternTriad, "death-temperance-star")
	require.True(t, ok)
	assert.Equal(t, "The Healing Passage", e.Title)
	require.NotEmpty(t, e.Passages)
	assert.NotEmpty(t, e.Passages[0].Text)
	assert.NotEmpty(t, e.Passages[0].Source)

	st := b.Stats()
	assert.Equal(t, 3, st.Triads)
	assert.Equal(t, 3, st.Journey)
	assert.Equal(t, 3, st.Dyads)
	assert.Equal(t, 3, st.Progressions)
	assert.Greater(t, st.Passages, 12)
}

func TestLookup_Missing(t *testing.T) {
	b, err := LoadSeed()
	require.NoError(t, err)

	_, ok := b.Lookup(model.PatternTriad, "nope")
	assert.False(t, ok)
	_, ok = b.Lookup(model.PatternDyad, "death-temperance-star")
	assert.False(t, ok, "lookup is keyed by type as well as id")

	var nilBase *Base
	_, ok = nilBase.Lookup(model.PatternTriad, "x")
	assert.False(t, ok)
	assert.Equal(t, Stats{}, nilBase.Stats())
}

func TestNewBase_Rejects(t *testing.T) {
	_, err := NewBase([]model.KnowledgeEntry{{PatternType: "rune", PatternID: "x"}})
	assert.Error(t, err)

	_, err = NewBase([]model.KnowledgeEntry{{PatternType: model.PatternTriad, PatternID: " "}})
	assert.Error(t, err)

	_, err = NewBase([]model.KnowledgeEntry{
		{PatternType: model.PatternTriad, PatternID: "a"},
		{PatternType: model.PatternTriad, PatternID: "a"},
	})
	assert.Error(t, err)
}

func TestNewBase_OwnsItsData(t *testing.T) {
	src := []model.KnowledgeEntry{{
		PatternType: model.PatternTriad,
		PatternID:   "a",
		Passages:    []model.Passage{{Text: "original", Tags: []string{"t"}}},
	}}
	b, err := NewBase(src)
	require.NoError(t, err)

	src[0].Passages[0].Text = "mutated"
	src[0].Passages[0].Tags[0] = "mutated"

	e, _ := b.Lookup(model.PatternTriad, "a")
	assert.Equal(t, "original", e.Passages[0].Text)
	assert.Equal(t, "t", e.Passages[0].Tags[0])
}

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	doc := `{"entries":[{"patternType":"journey","patternId":"beginning","passages":[{"text":"go"}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	b, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Stats().Journey)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMarshalCorpus_Reparses(t *testing.T) {
	b, err := LoadSeed()
	require.NoError(t, err)

	data, err := MarshalCorpus(b.Entries())
	require.NoError(t, err)
	entries, err := ParseCorpus(data)
	require.NoError(t, err)
	assert.Equal(t, b.Entries(), entries)
}
