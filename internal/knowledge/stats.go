package knowledge

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
)

// StoreStats holds database statistics.
type StoreStats struct {
	DBPath      string     `json:"db_path"`
	DBSizeBytes int64      `json:"db_size_bytes"`
	DBSize      string     `json:"db_size"`
	Entries     int        `json:"entries"`
	Passages    int        `json:"passages"`
	Types       []TypeStat `json:"types"`
}

// TypeStat holds per-pattern-type counts.
type TypeStat struct {
	PatternType string `json:"pattern_type"`
	Entries     int    `json:"entries"`
	Passages    int    `json:"passages"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*StoreStats, error) {
	st := &StoreStats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}
	st.DBSize = humanize.Bytes(uint64(st.DBSizeBytes))

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&st.Entries); err != nil {
		return st, fmt.Errorf("count entries: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM passages`).Scan(&st.Passages); err != nil {
		return st, fmt.Errorf("count passages: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.pattern_type, COUNT(DISTINCT e.id), COUNT(p.id)
		FROM entries e LEFT JOIN passages p ON p.entry_id = e.id
		GROUP BY e.pattern_type ORDER BY e.pattern_type`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var ts TypeStat
		if err := rows.Scan(&ts.PatternType, &ts.Entries, &ts.Passages); err != nil {
			return st, err
		}
		st.Types = append(st.Types, ts)
	}

	return st, rows.Err()
}
