// Package store persists a converted archive to SQLite for downstream
// tooling.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"smschat/internal/identity"
	"smschat/internal/indexer"
)

//go:embed schema.sql
var schemaSQL string

const defaultSQLiteParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"

// Store provides database operations for converted archives.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the database at the given path and applies the
// schema.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+defaultSQLiteParams)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveIndex writes a completed index (resolved users plus the bucketed
// conversations) in one transaction. Either everything lands or nothing
// does; a half-saved archive is not useful.
func (s *Store) SaveIndex(users []*identity.User, convos indexer.Conversations) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	userIDs := make(map[*identity.User]int64, len(users))
	for _, u := range users {
		res, err := tx.Exec(
			`INSERT INTO users (phone, name, email) VALUES (?, ?, ?)`,
			u.Phone, u.Name, u.Email,
		)
		if err != nil {
			return fmt.Errorf("insert user %v: %w", u, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert user %v: %w", u, err)
		}
		userIDs[u] = id
	}

	for key, threads := range convos {
		res, err := tx.Exec(`INSERT INTO conversations (key) VALUES (?)`, key.String())
		if err != nil {
			return fmt.Errorf("insert conversation %s: %w", key, err)
		}
		convoID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert conversation %s: %w", key, err)
		}
		for thread, msgs := range threads {
			for _, m := range msgs {
				senderID, ok := userIDs[m.Sender]
				if !ok {
					return fmt.Errorf("message %d: sender %v not in user list", m.ID, m.Sender)
				}
				receiverID, ok := userIDs[m.Receiver]
				if !ok {
					return fmt.Errorf("message %d: receiver %v not in user list", m.ID, m.Receiver)
				}
				_, err := tx.Exec(
					`INSERT INTO messages
					   (conversation_id, thread, sms_id, sender_id, receiver_id, sent_at_ms, body)
					 VALUES (?, ?, ?, ?, ?, ?, ?)`,
					convoID, thread, m.ID, senderID, receiverID,
					m.Date.UnixMilli(), m.Body,
				)
				if err != nil {
					return fmt.Errorf("insert message %d: %w", m.ID, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Counts returns the number of stored users, conversations, and
// messages.
func (s *Store) Counts() (users, conversations, messages int64, err error) {
	for _, q := range []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM users`, &users},
		{`SELECT COUNT(*) FROM conversations`, &conversations},
		{`SELECT COUNT(*) FROM messages`, &messages},
	} {
		if err = s.db.QueryRow(q.query).Scan(q.dest); err != nil {
			return 0, 0, 0, fmt.Errorf("count: %w", err)
		}
	}
	return users, conversations, messages, nil
}
