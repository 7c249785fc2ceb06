package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ledongthuc/pdf"
)

// pdfSource adapts github.com/ledongthuc/pdf to the PageSource contract.
type pdfSource struct {
	name string
	file *os.File
	rdr  *pdf.Reader
}

// OpenPDF opens path for page-wise text extraction. The caller must Close it.
func OpenPDF(path string) (*pdfSource, func() error, error) {
	file, rdr, err := pdf.Open(path)
	if err != nil {
		return nil, nil, &ExtractionError{Source: filepath.Base(path), Err: err}
	}
	src := &pdfSource{name: filepath.Base(path), file: file, rdr: rdr}
	return src, file.Close, nil
}

func (s *pdfSource) Name() string { return s.name }

func (s *pdfSource) NumPages() int { return s.rdr.NumPage() }

// Page returns the ordered text items of page n. The underlying parser
// panics on malformed content streams, so the call is fenced with recover.
func (s *pdfSource) Page(n int) (items []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("malformed pdf content: %v", r)
		}
	}()

	page := s.rdr.Page(n)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page object missing")
	}
	content := page.Content()
	items = make([]string, 0, len(content.Text))
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		items = append(items, t.S)
	}
	return items, nil
}
