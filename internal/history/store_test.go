package history

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openTemp(t *testing.T, cfg config.HistoryConfig) *Store {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "history.db")
	}
	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenEphemeralIsNoop(t *testing.T) {
	s := openTemp(t, config.HistoryConfig{RetentionMode: "ephemeral", Path: "unused"})
	if err := s.RecordStart(context.Background(), Conversion{SessionID: "x"}); err != nil {
		t.Fatalf("ephemeral record start: %v", err)
	}
	list, err := s.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ephemeral list: %v", err)
	}
	if list != nil {
		t.Fatalf("expected nothing recorded, got %v", list)
	}
}

func TestRecordAndList(t *testing.T) {
	s := openTemp(t, config.HistoryConfig{RetentionMode: "session"})

	c := Conversion{SessionID: "sess-1", Source: "paper.pdf", Engine: "remote", ChunksTotal: 3}
	if err := s.RecordStart(context.Background(), c); err != nil {
		t.Fatalf("record start: %v", err)
	}
	c.ChunksDone = 3
	c.Bytes = 1234
	c.Format = "mp3"
	c.Status = "done"
	if err := s.RecordFinish(context.Background(), c); err != nil {
		t.Fatalf("record finish: %v", err)
	}

	list, err := s.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 conversion, got %d", len(list))
	}
	got := list[0]
	if got.Status != "done" || got.ChunksDone != 3 || got.Bytes != 1234 || got.Format != "mp3" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestPruneByDaysAndMaxSessions(t *testing.T) {
	s := openTemp(t, config.HistoryConfig{RetentionMode: "persistent", RetentionDays: 1, MaxSessions: 1})

	s.clock = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := s.RecordStart(context.Background(), Conversion{SessionID: "old", Source: "a.pdf"}); err != nil {
		t.Fatalf("record old: %v", err)
	}

	s.clock = func() time.Time { return time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := s.RecordStart(context.Background(), Conversion{SessionID: "new", Source: "b.pdf"}); err != nil {
		t.Fatalf("record new: %v", err)
	}
	if err := s.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	list, err := s.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].SessionID != "new" {
		t.Fatalf("expected only the new session, got %+v", list)
	}
}
