// Package extract produces plain document text for synthesis. PDF parsing is
// delegated to an external collaborator behind the PageSource interface.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BenGothard/PDF-Text-Extractor/internal/chunker"
	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
)

// ExtractionError reports a document that could not be parsed. It is fatal to
// the whole conversion; no partial text is returned.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// PageSource is the contract the PDF-parsing collaborator must satisfy.
// Page returns the ordered text items of the 1-based page n.
type PageSource interface {
	Name() string
	NumPages() int
	Page(n int) ([]string, error)
}

type Loader struct {
	cfg config.ExtractConfig
	log *slog.Logger
}

func NewLoader(cfg config.ExtractConfig, log *slog.Logger) *Loader {
	return &Loader{cfg: cfg, log: log.With(slog.String("component", "extract"))}
}

// FromSource walks pages in ascending order, joins each page's text items on
// a single space and pages on a newline. Any page failure aborts extraction.
func (l *Loader) FromSource(ctx context.Context, src PageSource) (string, error) {
	total := src.NumPages()
	if l.cfg.MaxPages > 0 && total > l.cfg.MaxPages {
		total = l.cfg.MaxPages
	}

	pages := make([]string, 0, total)
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return "", &ExtractionError{Source: src.Name(), Err: err}
		}
		l.log.Info("extracting page", slog.Int("page", n), slog.Int("total", total))
		items, err := src.Page(n)
		if err != nil {
			return "", &ExtractionError{Source: src.Name(), Err: fmt.Errorf("page %d: %w", n, err)}
		}
		pages = append(pages, strings.Join(items, " "))
	}
	return strings.Join(pages, "\n"), nil
}

// Clean prepares extracted text for chunking: metadata-looking lines are
// removed when configured, then whitespace and charset normalization applies.
func (l *Loader) Clean(text string) string {
	if l.cfg.StripMetadataLines {
		text = chunker.StripMetadataLines(text)
	}
	return chunker.Normalize(text)
}
