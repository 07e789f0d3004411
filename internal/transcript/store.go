// Package transcript is an opt-in archive of chat traffic. The synchronizer
// core keeps no persistent state; teachers who want a session transcript
// point this store at a SQLite file and attach it as a bridge observer.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"classsync/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	channel    TEXT NOT NULL,
	sender_id  TEXT NOT NULL,
	body       TEXT NOT NULL,
	kind       TEXT NOT NULL CHECK (kind IN ('chat', 'system')),
	timestamp  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_channel_time ON messages(channel, timestamp);
`

// Store archives messages in a local SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the archive at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open transcript database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize transcript schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record archives one message under the given channel. Duplicate IDs are
// ignored; the bridge can replay a message after a reconnect.
func (s *Store) Record(ctx context.Context, channel string, msg types.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO messages (id, channel, sender_id, body, kind, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, channel, msg.SenderID, msg.Body, string(msg.Kind), msg.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	return nil
}

// Recent returns up to limit archived messages for the channel, oldest
// first.
func (s *Store) Recent(ctx context.Context, channel string, limit int) ([]types.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender_id, body, kind, timestamp FROM (
			SELECT id, sender_id, body, kind, timestamp
			FROM messages WHERE channel = ?
			ORDER BY timestamp DESC LIMIT ?
		 ) ORDER BY timestamp ASC`,
		channel, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []types.Message
	for rows.Next() {
		var msg types.Message
		var kind string
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.Body, &kind, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		msg.Kind = types.MessageKind(kind)
		out = append(out, msg)
	}
	return out, rows.Err()
}

// Prune deletes archived messages older than the cutoff and reports how
// many were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE timestamp < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune transcript: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
