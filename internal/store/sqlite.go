// Package store persists game sessions. The SQLite store is the production
// backend; the memory store backs tests and ephemeral deployments.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/ahietala/whodunit/internal/db"
	"github.com/ahietala/whodunit/internal/errors"
	"github.com/ahietala/whodunit/internal/game"
)

// SQLiteStore persists sessions as JSON payloads in the sessions table, with
// status and language broken out into columns for operational queries.
type SQLiteStore struct {
	dbs *db.DBs
}

func NewSQLiteStore(dbs *db.DBs) *SQLiteStore {
	return &SQLiteStore{dbs: dbs}
}

// Put inserts or replaces the stored session.
func (s *SQLiteStore) Put(ctx context.Context, session *game.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "marshal session")
	}
	_, err = s.dbs.ReadWriteDB.ExecContext(ctx, `
		INSERT INTO sessions (id, status, language, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET status     = excluded.status,
		                               language   = excluded.language,
		                               payload    = excluded.payload,
		                               updated_at = excluded.updated_at`,
		session.ID,
		string(session.Status),
		string(session.Language),
		string(payload),
		session.CreatedAt.UTC().Format(time.RFC3339Nano),
		session.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.Wrap(err, "upsert session")
	}
	return nil
}

// Get loads a session by id. Returns game.ErrSessionNotFound for unknown ids.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*game.Session, error) {
	var payload string
	err := s.dbs.ReadDB.GetContext(ctx, &payload, `SELECT payload FROM sessions WHERE id = ?`, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, game.ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "select session")
	}
	var session game.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, errors.Wrap(err, "unmarshal session")
	}
	return &session, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.dbs.ReadWriteDB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "delete session")
	}
	return nil
}
