// Package sqlite persists runs in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/crewflow/service/dao"
	"github.com/viant/crewflow/service/dao/criteria"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	pipeline TEXT NOT NULL,
	state TEXT NOT NULL,
	scn INTEGER NOT NULL DEFAULT 0,
	data TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state);
CREATE INDEX IF NOT EXISTS idx_runs_pipeline ON runs(pipeline);
`

// Service is a dao.Service backed by SQLite.
type Service struct {
	db *sql.DB
}

var _ dao.Service[string, run.Run] = (*Service)(nil)

// Open opens (or creates) the database at path. Use ":memory:" for an
// ephemeral store.
func Open(path string) (*Service, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Service{db: db}, nil
}

// Close closes the database connection.
func (s *Service) Close() error { return s.db.Close() }

// Save upserts a run snapshot.
func (s *Service) Save(ctx context.Context, r *run.Run) error {
	if r == nil {
		return dao.ErrNilEntity
	}
	if r.ID == "" {
		return dao.ErrInvalidID
	}
	snapshot := r.Clone()
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", r.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, pipeline, state, scn, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			scn = excluded.scn,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		snapshot.ID, snapshot.Pipeline, string(snapshot.State), snapshot.SCN, string(data), snapshot.CreatedAt, snapshot.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save run %s: %w", r.ID, err)
	}
	return nil
}

// Load retrieves a run by id.
func (s *Service) Load(ctx context.Context, id string) (*run.Run, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM runs WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, dao.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return decode(data)
}

// Delete removes a run.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	result, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("run %s: %w", id, dao.ErrNotFound)
	}
	return nil
}

// List returns runs ordered by creation time.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*run.Run, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT data FROM runs ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var runs []*run.Run
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r, err := decode(data)
		if err != nil {
			return nil, err
		}
		if criteria.Match(r.Fields(), parameters) {
			runs = append(runs, r)
		}
	}
	return runs, rows.Err()
}

func decode(data string) (*run.Run, error) {
	ret := &run.Run{}
	if err := json.Unmarshal([]byte(data), ret); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return ret, nil
}
