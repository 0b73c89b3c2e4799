package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rcliao/arcana/internal/model"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries: []\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan []model.KnowledgeEntry, 4)
	w := NewWatcher(path, nil)
	w.debounce = 10 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, entries []model.KnowledgeEntry) error {
			got <- entries
			return nil
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	doc := "entries:\n  - patternType: triad\n    patternId: a\n    passages: [{text: hi}]\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	select {
	case entries := <-got:
		require.Len(t, entries, 1)
		require.Equal(t, "a", entries[0].PatternID)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	cancel()
	require.NoError(t, <-done)
}
