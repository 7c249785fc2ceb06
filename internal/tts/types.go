// Package tts abstracts the speech synthesis strategies a conversion can
// run against: the host's native voice engine, a remote fetch endpoint, a
// JSON-over-stdio worker subprocess, or the OpenAI speech API.
package tts

import (
	"context"
	"errors"
	"fmt"
)

// Format identifies the encoding of synthesized audio bytes.
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatWAV  Format = "wav"
	FormatAIFF Format = "aiff"
)

// MIME returns the content type for the format.
func (f Format) MIME() string {
	switch f {
	case FormatMP3:
		return "audio/mpeg"
	case FormatWAV:
		return "audio/wav"
	case FormatAIFF:
		return "audio/aiff"
	default:
		return "application/octet-stream"
	}
}

// Audio is one synthesized result: a whole document or a single segment.
type Audio struct {
	Data   []byte
	Format Format
}

// Granularity states how much text one Synthesize call covers.
type Granularity int

const (
	// GranularityDocument backends speak the entire text in one call.
	GranularityDocument Granularity = iota
	// GranularitySegment backends are driven one chunk at a time.
	GranularitySegment
)

// Options carries per-conversion synthesis parameters.
type Options struct {
	Voice    string
	Rate     float64 // 1.0 = normal speed
	Language string
}

// Backend is the strategy contract. Probe decides availability once per
// conversion; it is never re-run per chunk.
type Backend interface {
	Name() string
	Granularity() Granularity
	Probe(ctx context.Context) error
	Synthesize(ctx context.Context, text string, opts Options) (*Audio, error)
}

// ErrUnavailable marks a backend whose probe failed. For the auto engine it
// is non-fatal and triggers fallback to the remote strategy.
var ErrUnavailable = errors.New("tts backend unavailable")

// SynthesisError reports a failed synthesis call. It is fatal to the
// in-flight conversion: no retry, no partial artifact.
type SynthesisError struct {
	Backend string
	Err     error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s synthesis: %v", e.Backend, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
