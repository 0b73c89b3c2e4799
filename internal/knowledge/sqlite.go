package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/arcana/internal/model"
)

// SQLiteStore persists a corpus in SQLite. It is the authoring side of the
// knowledge base: corpus files are imported here and a read-only Base is
// loaded from it at process start.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id           TEXT PRIMARY KEY,
		pattern_type TEXT NOT NULL,
		pattern_id   TEXT NOT NULL,
		title        TEXT,
		theme        TEXT,
		stage        TEXT,
		card_pair    TEXT,
		names        TEXT,
		imported_at  TEXT NOT NULL,
		UNIQUE (pattern_type, pattern_id)
	);
	CREATE INDEX IF NOT EXISTS idx_entries_type ON entries(pattern_type);

	CREATE TABLE IF NOT EXISTS passages (
		id        TEXT PRIMARY KEY,
		entry_id  TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
		seq       INTEGER NOT NULL,
		text      TEXT NOT NULL,
		source    TEXT,
		tags      TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_passages_entry ON passages(entry_id, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Import upserts entries. An existing (type, id) entry is replaced together
// with its passages. Returns the number of entries written.
func (s *SQLiteStore) Import(ctx context.Context, entries []model.KnowledgeEntry) (int, error) {
	// Validate the whole batch before touching the database.
	if _, err := NewBase(entries); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM passages WHERE entry_id IN (SELECT id FROM entries WHERE pattern_type = ? AND pattern_id = ?)`,
			string(e.PatternType), e.PatternID); err != nil {
			return 0, fmt.Errorf("replace passages: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM entries WHERE pattern_type = ? AND pattern_id = ?`,
			string(e.PatternType), e.PatternID); err != nil {
			return 0, fmt.Errorf("replace entry: %w", err)
		}

		id := s.newID()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO entries (id, pattern_type, pattern_id, title, theme, stage, card_pair, names, imported_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, string(e.PatternType), e.PatternID, nullable(e.Title), nullable(e.Theme), nullable(e.Stage),
			jsonOrNull(e.CardPair), jsonOrNull(e.Names), now)
		if err != nil {
			return 0, fmt.Errorf("insert entry: %w", err)
		}

		for i, p := range e.Passages {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO passages (id, entry_id, seq, text, source, tags) VALUES (?, ?, ?, ?, ?, ?)`,
				s.newID(), id, i, p.Text, nullable(p.Source), jsonOrNull(p.Tags))
			if err != nil {
				return 0, fmt.Errorf("insert passage: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Entries returns every stored entry with its passages in order.
func (s *SQLiteStore) Entries(ctx context.Context) ([]model.KnowledgeEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pattern_type, pattern_id, title, theme, stage, card_pair, names
		 FROM entries ORDER BY pattern_type, pattern_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.KnowledgeEntry
	index := map[string]int{}
	for rows.Next() {
		var id, pt, pid string
		var title, theme, stage, cardPair, names sql.NullString
		if err := rows.Scan(&id, &pt, &pid, &title, &theme, &stage, &cardPair, &names); err != nil {
			return nil, err
		}
		e := model.KnowledgeEntry{
			PatternType: model.PatternType(pt),
			PatternID:   pid,
			Title:       title.String,
			Theme:       theme.String,
			Stage:       stage.String,
		}
		if cardPair.Valid {
			json.Unmarshal([]byte(cardPair.String), &e.CardPair)
		}
		if names.Valid {
			json.Unmarshal([]byte(names.String), &e.Names)
		}
		index[id] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prow, err := s.db.QueryContext(ctx, `SELECT entry_id, text, source, tags FROM passages ORDER BY entry_id, seq`)
	if err != nil {
		return nil, err
	}
	defer prow.Close()

	for prow.Next() {
		var entryID, text string
		var source, tags sql.NullString
		if err := prow.Scan(&entryID, &text, &source, &tags); err != nil {
			return nil, err
		}
		i, ok := index[entryID]
		if !ok {
			continue
		}
		p := model.Passage{Text: text, Source: source.String}
		if tags.Valid {
			json.Unmarshal([]byte(tags.String), &p.Tags)
		}
		entries[i].Passages = append(entries[i].Passages, p)
	}
	return entries, prow.Err()
}

// Load builds an immutable Base from the stored corpus.
func (s *SQLiteStore) Load(ctx context.Context) (*Base, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	return NewBase(entries)
}

// Remove deletes an entry and its passages.
func (s *SQLiteStore) Remove(ctx context.Context, t model.PatternType, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM passages WHERE entry_id IN (SELECT id FROM entries WHERE pattern_type = ? AND pattern_id = ?)`,
		string(t), id); err != nil {
		return fmt.Errorf("delete passages: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM entries WHERE pattern_type = ? AND pattern_id = ?`, string(t), id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry not found: %s/%s", t, id)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func jsonOrNull[T any](v []T) *string {
	if len(v) == 0 {
		return nil
	}
	b, _ := json.Marshal(v)
	s := string(b)
	return &s
}
