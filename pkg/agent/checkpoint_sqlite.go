package agent

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	_ "modernc.org/sqlite"
)

// SQLiteCheckpointer stores state in a local SQLite file. Suitable for a
// single process.
type SQLiteCheckpointer struct {
	db        *sql.DB
	namespace string
}

func NewSQLiteCheckpointer(path, namespace string) (*SQLiteCheckpointer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Warnf("checkpoint sqlite: enable WAL: %v", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS agent_checkpoints (
			namespace TEXT NOT NULL,
			thread_id TEXT NOT NULL,
			state BLOB NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (namespace, thread_id)
		)
	`); err != nil {
		// an existing table is still usable
		log.Warnf("checkpoint sqlite: create table: %v", err)
	}

	return &SQLiteCheckpointer{db: db, namespace: namespace}, nil
}

func (s *SQLiteCheckpointer) Load(ctx context.Context, threadID string) (*State, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT state FROM agent_checkpoints
		WHERE namespace = ? AND thread_id = ?
	`, s.namespace, threadID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &state, nil
}

func (s *SQLiteCheckpointer) Save(ctx context.Context, threadID string, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agent_checkpoints (namespace, thread_id, state, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, thread_id) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`, s.namespace, threadID, raw, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteCheckpointer) Delete(ctx context.Context, threadID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM agent_checkpoints WHERE namespace = ? AND thread_id = ?
	`, s.namespace, threadID)
	if err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteCheckpointer) Close() error {
	return s.db.Close()
}
