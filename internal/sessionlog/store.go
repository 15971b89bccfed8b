// Package sessionlog persists session snapshots and response records to
// SQLite for audit and offline inspection. The engine treats writes as
// fire-and-forget; readers are the dump tooling.
package sessionlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/s86039924-byte/stress-dost-engine/internal/session"
	"github.com/s86039924-byte/stress-dost-engine/internal/trigger"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS session_snapshots (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id     TEXT NOT NULL,
	user_id        TEXT NOT NULL,
	state          TEXT NOT NULL,
	snapshot_json  TEXT NOT NULL,
	created_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_session
	ON session_snapshots(session_id);

CREATE TABLE IF NOT EXISTS response_records (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id     TEXT NOT NULL,
	question_index INTEGER NOT NULL,
	category       TEXT NOT NULL,
	kind           TEXT NOT NULL,
	source         TEXT NOT NULL,
	record_json    TEXT NOT NULL,
	created_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_responses_session
	ON response_records(session_id);
`

// #endregion schema

// #region store-struct

// Store appends session audit rows to SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by inspection tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region append

// AppendSnapshot records one session snapshot.
func (s *Store) AppendSnapshot(snap session.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO session_snapshots (session_id, user_id, state, snapshot_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		snap.SessionID, snap.UserID, string(snap.State), string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// AppendResponse records one scored trigger response.
func (s *Store) AppendResponse(sessionID string, rec trigger.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO response_records (session_id, question_index, category, kind, source, record_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, rec.QuestionIndex, string(rec.Trigger.Category), string(rec.Trigger.Kind),
		string(rec.Trigger.Source), string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// #endregion append

// #region queries

// SessionIDs lists every session that has at least one snapshot, most
// recent first.
func (s *Store) SessionIDs() ([]string, error) {
	rows, err := s.db.Query(
		`SELECT session_id FROM session_snapshots
		 GROUP BY session_id ORDER BY MAX(id) DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Snapshots returns a session's snapshot history in append order.
func (s *Store) Snapshots(sessionID string) ([]session.Snapshot, error) {
	rows, err := s.db.Query(
		`SELECT snapshot_json FROM session_snapshots
		 WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []session.Snapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		var snap session.Snapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Responses returns a session's scored responses in append order.
func (s *Store) Responses(sessionID string) ([]trigger.Record, error) {
	rows, err := s.db.Query(
		`SELECT record_json FROM response_records
		 WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []trigger.Record
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec trigger.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion queries
