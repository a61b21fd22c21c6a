// Package archive is the cold store for memories that decayed out of the
// active set. Records land here when cleanup archives or deletes them,
// so nothing the user wrote is ever lost outright.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/cwhuang/recall/internal/model"
)

// Reason records why a memory left the active set.
type Reason string

const (
	ReasonArchived Reason = "archived"
	ReasonDeleted  Reason = "deleted"
)

// Record is one archived memory.
type Record struct {
	ID         string
	SegmentID  string
	Content    string
	Source     string
	Category   string
	Priority   model.Priority
	Keywords   []string
	DecayScore float64
	ArchivedAt time.Time
	Reason     Reason
}

// Store persists archived memories in SQLite.
type Store struct {
	db      *sql.DB
	entropy *rand.Rand
}

// Open opens or creates the archive database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS archived_memories (
		id          TEXT PRIMARY KEY,
		segment_id  TEXT NOT NULL,
		content     TEXT NOT NULL,
		source      TEXT,
		category    TEXT,
		priority    TEXT NOT NULL DEFAULT 'N',
		keywords    TEXT,
		decay_score REAL NOT NULL DEFAULT 0,
		archived_at TEXT NOT NULL,
		reason      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_archived_segment ON archived_memories(segment_id);
	CREATE INDEX IF NOT EXISTS idx_archived_reason ON archived_memories(reason);
	CREATE INDEX IF NOT EXISTS idx_archived_at ON archived_memories(archived_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Put stores one record. The record ID is generated; ArchivedAt defaults
// to now when zero.
func (s *Store) Put(ctx context.Context, rec Record) (Record, error) {
	rec.ID = s.newID()
	if rec.ArchivedAt.IsZero() {
		rec.ArchivedAt = time.Now().UTC()
	}
	if rec.Reason == "" {
		rec.Reason = ReasonArchived
	}

	var keywordsJSON *string
	if len(rec.Keywords) > 0 {
		b, _ := json.Marshal(rec.Keywords)
		kw := string(b)
		keywordsJSON = &kw
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO archived_memories (id, segment_id, content, source, category, priority, keywords, decay_score, archived_at, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SegmentID, rec.Content, rec.Source, rec.Category,
		string(rec.Priority), keywordsJSON, rec.DecayScore,
		rec.ArchivedAt.Format(time.RFC3339), string(rec.Reason))
	if err != nil {
		return Record{}, fmt.Errorf("insert archived memory: %w", err)
	}

	return rec, nil
}

// Get returns the most recent archive record for a segment.
func (s *Store) Get(ctx context.Context, segmentID string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, segment_id, content, source, category, priority, keywords, decay_score, archived_at, reason
		 FROM archived_memories WHERE segment_id = ?
		 ORDER BY archived_at DESC LIMIT 1`, segmentID)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return Record{}, fmt.Errorf("archived memory not found: %s", segmentID)
	}
	return rec, err
}

// ListParams filters List output.
type ListParams struct {
	Reason   Reason
	Category string
	Limit    int
}

// List returns archive records, newest first.
func (s *Store) List(ctx context.Context, p ListParams) ([]Record, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"1=1"}
	args := []interface{}{}
	if p.Reason != "" {
		where = append(where, "reason = ?")
		args = append(args, string(p.Reason))
	}
	if p.Category != "" {
		where = append(where, "category = ?")
		args = append(args, p.Category)
	}

	query := fmt.Sprintf(`
		SELECT id, segment_id, content, source, category, priority, keywords, decay_score, archived_at, reason
		FROM archived_memories
		WHERE %s
		ORDER BY archived_at DESC
		LIMIT ?`, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Count returns the number of archive records per reason.
func (s *Store) Count(ctx context.Context) (map[Reason]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT reason, COUNT(*) FROM archived_memories GROUP BY reason`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Reason]int)
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, err
		}
		counts[Reason(reason)] = n
	}
	return counts, rows.Err()
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var source, category, keywordsJSON sql.NullString
	var priority, archivedAt, reason string

	err := row.Scan(
		&rec.ID, &rec.SegmentID, &rec.Content, &source, &category,
		&priority, &keywordsJSON, &rec.DecayScore, &archivedAt, &reason,
	)
	if err != nil {
		return rec, err
	}

	rec.Priority = model.Priority(priority)
	rec.Reason = Reason(reason)
	rec.ArchivedAt, _ = time.Parse(time.RFC3339, archivedAt)
	if source.Valid {
		rec.Source = source.String
	}
	if category.Valid {
		rec.Category = category.String
	}
	if keywordsJSON.Valid {
		json.Unmarshal([]byte(keywordsJSON.String), &rec.Keywords)
	}

	return rec, nil
}
