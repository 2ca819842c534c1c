//go:build sqlite
// +build sqlite

package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "toolshed/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("history.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Append(ctx context.Context, e Entry) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(run_id, script, origin, outcome, exit_code, started, ended, log_path)
		 VALUES(?,?,?,?,?,?,?,?)`,
		e.RunID, e.Script, string(e.Origin), e.Outcome, e.ExitCode,
		e.Started.Format(time.RFC3339Nano), e.Ended.Format(time.RFC3339Nano),
		nullStr(e.LogPath),
	)
	return err
}

func (s *sqliteStore) Recent(ctx context.Context, script string, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = 50
	}

	q := `SELECT run_id, script, origin, outcome, exit_code, started, ended, COALESCE(log_path,'')
	      FROM runs`
	args := []any{}
	if script != "" {
		q += ` WHERE script = ?`
		args = append(args, script)
	}
	q += ` ORDER BY started DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var origin, started, ended string
		if err := rows.Scan(&e.RunID, &e.Script, &origin, &e.Outcome, &e.ExitCode, &started, &ended, &e.LogPath); err != nil {
			return nil, err
		}
		e.Origin = Origin(origin)
		e.Started, _ = time.Parse(time.RFC3339Nano, started)
		e.Ended, _ = time.Parse(time.RFC3339Nano, ended)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
