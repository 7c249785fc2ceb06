// Package history persists a record per conversion in SQLite so past runs
// can be listed and audited.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
)

// Conversion is one recorded run.
type Conversion struct {
	SessionID   string
	Source      string
	Engine      string
	ChunksTotal int
	ChunksDone  int
	Bytes       int64
	Format      string
	Status      string
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

type Store struct {
	db    *sql.DB
	cfg   config.HistoryConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the history store. In ephemeral retention mode nothing is
// persisted and every method is a no-op.
func Open(ctx context.Context, cfg config.HistoryConfig, log *slog.Logger) (*Store, error) {
	if cfg.RetentionMode == "ephemeral" {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.VacuumOnStart {
		if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
			log.Warn("history vacuum failed", slog.String("error", err.Error()))
		}
	}
	if err := s.Prune(ctx); err != nil {
		log.Warn("history prune on start failed", slog.String("error", err.Error()))
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS conversions (
    session_id TEXT PRIMARY KEY,
    source TEXT,
    engine TEXT,
    chunks_total INTEGER NOT NULL DEFAULT 0,
    chunks_done INTEGER NOT NULL DEFAULT 0,
    bytes INTEGER NOT NULL DEFAULT 0,
    format TEXT,
    status TEXT NOT NULL,
    error TEXT,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_conversions_started ON conversions(started_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordStart inserts the row for a freshly started conversion.
func (s *Store) RecordStart(ctx context.Context, c Conversion) error {
	if s == nil || s.db == nil {
		return nil
	}
	started := c.StartedAt
	if started.IsZero() {
		started = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions(session_id, source, engine, chunks_total, status, started_at)
		 VALUES(?, ?, ?, ?, 'running', ?)`,
		c.SessionID, c.Source, c.Engine, c.ChunksTotal, started)
	return err
}

// RecordFinish closes out a conversion row with its terminal state.
func (s *Store) RecordFinish(ctx context.Context, c Conversion) error {
	if s == nil || s.db == nil {
		return nil
	}
	finished := c.FinishedAt
	if finished.IsZero() {
		finished = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversions
		 SET chunks_done = ?, bytes = ?, format = ?, status = ?, error = ?, finished_at = ?
		 WHERE session_id = ?`,
		c.ChunksDone, c.Bytes, c.Format, c.Status, c.Error, finished, c.SessionID)
	return err
}

// ListRecent returns up to limit conversions, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Conversion, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, source, engine, chunks_total, chunks_done, bytes,
		        COALESCE(format, ''), status, COALESCE(error, ''), started_at, COALESCE(finished_at, started_at)
		 FROM conversions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Conversion
	for rows.Next() {
		var c Conversion
		var started, finished string
		if err := rows.Scan(&c.SessionID, &c.Source, &c.Engine, &c.ChunksTotal, &c.ChunksDone,
			&c.Bytes, &c.Format, &c.Status, &c.Error, &started, &finished); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, started); err == nil {
			c.StartedAt = ts
		}
		if ts, err := time.Parse(time.RFC3339Nano, finished); err == nil {
			c.FinishedAt = ts
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Prune applies the configured retention: rows older than retention_days go,
// and only the newest max_sessions rows survive.
func (s *Store) Prune(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour)
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM conversions WHERE started_at < ?`, cutoff.UTC()); err != nil {
			return err
		}
	}
	if s.cfg.MaxSessions > 0 {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM conversions WHERE session_id IN (
			SELECT session_id FROM conversions ORDER BY started_at DESC LIMIT -1 OFFSET ?
		)`, s.cfg.MaxSessions); err != nil {
			return err
		}
	}
	return nil
}
