package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
)

type fakeSource struct {
	pages  [][]string
	failAt int // 1-based page that errors, 0 = never
}

func (f *fakeSource) Name() string  { return "fake.pdf" }
func (f *fakeSource) NumPages() int { return len(f.pages) }

func (f *fakeSource) Page(n int) ([]string, error) {
	if n == f.failAt {
		return nil, errors.New("corrupt stream")
	}
	return f.pages[n-1], nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFromSourceJoinsItemsAndPages(t *testing.T) {
	src := &fakeSource{pages: [][]string{
		{"Hello", "world."},
		{"Second", "page", "here."},
	}}
	l := NewLoader(config.ExtractConfig{}, newLogger())

	text, err := l.FromSource(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Hello world.\nSecond page here."
	if text != want {
		t.Fatalf("expected %q, got %q", want, text)
	}
}

func TestFromSourceFailureIsFatal(t *testing.T) {
	src := &fakeSource{
		pages:  [][]string{{"ok"}, {"bad"}, {"never reached"}},
		failAt: 2,
	}
	l := NewLoader(config.ExtractConfig{}, newLogger())

	text, err := l.FromSource(context.Background(), src)
	if err == nil {
		t.Fatal("expected extraction error")
	}
	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected *ExtractionError, got %T", err)
	}
	if text != "" {
		t.Fatalf("expected no partial text, got %q", text)
	}
}

func TestFromSourceMaxPages(t *testing.T) {
	src := &fakeSource{pages: [][]string{{"one."}, {"two."}, {"three."}}}
	l := NewLoader(config.ExtractConfig{MaxPages: 2}, newLogger())

	text, err := l.FromSource(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(text, "three.") {
		t.Fatalf("page past limit extracted: %q", text)
	}
}

func TestClean(t *testing.T) {
	l := NewLoader(config.ExtractConfig{StripMetadataLines: true}, newLogger())
	out := l.Clean("Title: Report\nReal body text.\n\n\nMore text!")
	if strings.Contains(out, "Title:") {
		t.Fatalf("metadata line survived: %q", out)
	}
	if !strings.Contains(out, "Real body text.") {
		t.Fatalf("body text dropped: %q", out)
	}
}
