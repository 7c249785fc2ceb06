// Package chunker splits document text into bounded, sentence-respecting
// segments suitable for sequential speech synthesis.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkSize is the segment bound used when none is configured.
const DefaultMaxChunkSize = 200

var (
	metadataLine = regexp.MustCompile(`^(Title|Author|Creator|Producer|CreationDate|ModDate|Subject|Keywords|Date)\s*:`)
	blankRuns    = regexp.MustCompile(`\n\s*\n`)
	unspeakable  = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?-]`)
)

// Chunk splits text into ordered segments of at most maxSize characters,
// never breaking inside a sentence. A single sentence longer than maxSize is
// emitted verbatim as its own oversized segment; truncating or splitting it
// mid-sentence is not acceptable output. Empty input yields no segments.
func Chunk(text string, maxSize int) []string {
	if maxSize < 1 {
		maxSize = DefaultMaxChunkSize
	}

	var chunks []string
	var buf []string
	bufLen := 0

	for _, sentence := range splitSentences(text) {
		n := utf8.RuneCountInString(sentence)
		if bufLen > 0 && bufLen+1+n > maxSize {
			chunks = append(chunks, strings.Join(buf, " "))
			buf = buf[:0]
			bufLen = 0
		}
		if bufLen > 0 {
			bufLen++
		}
		buf = append(buf, sentence)
		bufLen += n
	}
	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, " "))
	}
	return chunks
}

// splitSentences cuts text into sentence-like units. A unit ends at terminal
// punctuation (. ! ?) or a newline; the terminator stays with its sentence,
// and runs of terminators ("...", "?!") are kept together.
func splitSentences(text string) []string {
	var out []string
	var b strings.Builder

	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' {
			flush()
			continue
		}
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			for i+1 < len(runes) && isTerminator(runes[i+1]) {
				i++
				b.WriteRune(runes[i])
			}
			flush()
		}
	}
	flush()
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Normalize prepares extracted text for synthesis: blank-line runs collapse
// to a single newline and characters that trip speech engines are dropped.
func Normalize(text string) string {
	text = blankRuns.ReplaceAllString(text, "\n")
	text = unspeakable.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// StripMetadataLines removes lines that look like embedded PDF metadata,
// e.g. "Title: ..." or "Author: ...".
func StripMetadataLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if metadataLine.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
