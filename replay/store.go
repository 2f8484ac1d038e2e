package replay

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS evaluations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	when_ms    INTEGER NOT NULL,
	board      TEXT NOT NULL,
	move       TEXT NOT NULL,
	score      REAL NOT NULL,
	rationale  TEXT NOT NULL,
	final      TEXT NOT NULL,
	UNIQUE(session_id, seq)
);
CREATE TABLE IF NOT EXISTS cascade_steps (
	evaluation_id INTEGER NOT NULL REFERENCES evaluations(id),
	step          INTEGER NOT NULL,
	removed       INTEGER NOT NULL,
	spawned       INTEGER NOT NULL,
	multiplier    REAL NOT NULL,
	points        REAL NOT NULL,
	PRIMARY KEY (evaluation_id, step)
);
`

// A Store is the SQLite sink. Rows are insert-only; re-appending a
// (session, seq) pair already present is a no-op, which makes replay
// export idempotent across overlapping runs.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if missing) the store at path, with WAL
// journaling and the schema applied.
func OpenStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Append(rec *Record) error {
	rationale, err := json.Marshal(rec.Rationale)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
        INSERT OR IGNORE INTO evaluations
            (session_id, seq, when_ms, board, move, score, rationale, final)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Seq, rec.When.UnixMilli(), rec.Board,
		rec.Move, rec.Score, string(rationale), rec.Final,
	)
	if err != nil {
		tx.Rollback()
		return err
	}
	var evalID int64
	err = tx.QueryRow(`SELECT id FROM evaluations WHERE session_id = ? AND seq = ?`,
		rec.SessionID, rec.Seq).Scan(&evalID)
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, st := range rec.Steps {
		_, err = tx.Exec(`
        INSERT OR IGNORE INTO cascade_steps
            (evaluation_id, step, removed, spawned, multiplier, points)
        VALUES (?, ?, ?, ?, ?, ?)`,
			evalID, st.Index, st.Removed, st.Spawned, st.Multiplier, st.Points,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Sessions lists the distinct session IDs in the store.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT session_id FROM evaluations ORDER BY session_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Evaluations reads a session's records back, in sequence order, with
// their cascade steps.
func (s *Store) Evaluations(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, seq, when_ms, board, move, score, rationale, final
        FROM evaluations
        WHERE session_id = ?
        ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	var ids []int64
	for rows.Next() {
		var (
			id        int64
			rec       Record
			whenMS    int64
			rationale string
		)
		rec.SessionID = sessionID
		if err := rows.Scan(&id, &rec.Seq, &whenMS, &rec.Board, &rec.Move,
			&rec.Score, &rationale, &rec.Final); err != nil {
			return nil, err
		}
		rec.When = time.UnixMilli(whenMS).UTC()
		if err := json.Unmarshal([]byte(rationale), &rec.Rationale); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		steps, err := s.steps(ctx, id)
		if err != nil {
			return nil, err
		}
		recs[i].Steps = steps
	}
	return recs, nil
}

func (s *Store) steps(ctx context.Context, evalID int64) ([]StepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT step, removed, spawned, multiplier, points
        FROM cascade_steps
        WHERE evaluation_id = ?
        ORDER BY step ASC`, evalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StepRecord
	for rows.Next() {
		var st StepRecord
		if err := rows.Scan(&st.Index, &st.Removed, &st.Spawned,
			&st.Multiplier, &st.Points); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
