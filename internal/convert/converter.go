// Package convert orchestrates one conversion: chunk the text, drive the
// selected speech backend strictly in order, and assemble the audio artifact.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/BenGothard/PDF-Text-Extractor/internal/bus"
	"github.com/BenGothard/PDF-Text-Extractor/internal/chunker"
	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
	"github.com/BenGothard/PDF-Text-Extractor/internal/history"
	"github.com/BenGothard/PDF-Text-Extractor/internal/protocol"
	"github.com/BenGothard/PDF-Text-Extractor/internal/tts"
)

var (
	// ErrBusy rejects a conversion started while another is in flight.
	ErrBusy = errors.New("a conversion is already in flight")
	// ErrNoText means nothing speakable survived extraction and cleanup.
	ErrNoText = errors.New("no speakable text in input")
)

// Request describes one conversion.
type Request struct {
	Text     string
	NameHint string // output naming, e.g. the uploaded file name
	Source   string // label recorded in history and progress events
	Options  tts.Options
}

// Artifact is the final playable result of a conversion.
type Artifact struct {
	Name   string
	Data   []byte
	Format tts.Format
}

type Converter struct {
	ttsCfg   config.TTSConfig
	chunkCfg config.ChunkerConfig
	bus      *bus.Client    // nil = no progress events
	hist     *history.Store // nil = no persistence
	log      *slog.Logger

	tracer      trace.Tracer
	conversions metric.Int64Counter
	chunksDone  metric.Int64Counter
	synthTime   metric.Float64Histogram

	busy     atomic.Bool
	mu       sync.Mutex
	sessions map[string]*Session

	// selectBackend is swappable in tests.
	selectBackend func(ctx context.Context, cfg config.TTSConfig, log *slog.Logger) (tts.Backend, error)
}

func New(cfg config.Config, busClient *bus.Client, hist *history.Store, log *slog.Logger) *Converter {
	c := &Converter{
		ttsCfg:   cfg.TTS,
		chunkCfg: cfg.Chunker,
		bus:      busClient,
		hist:     hist,
		log:      log.With(slog.String("component", "converter")),
		tracer:   otel.Tracer("github.com/BenGothard/PDF-Text-Extractor/convert"),
		sessions: make(map[string]*Session),

		selectBackend: tts.Select,
	}
	c.initMetrics()
	return c
}

func (c *Converter) initMetrics() {
	meter := otel.Meter("github.com/BenGothard/PDF-Text-Extractor/convert")
	var err error
	if c.conversions, err = meter.Int64Counter("pdf2mp3.conversions",
		metric.WithDescription("Completed conversions by status")); err != nil {
		c.log.Warn("failed to create conversions counter", slog.String("error", err.Error()))
	}
	if c.chunksDone, err = meter.Int64Counter("pdf2mp3.chunks.synthesized",
		metric.WithDescription("Chunks synthesized across all conversions")); err != nil {
		c.log.Warn("failed to create chunk counter", slog.String("error", err.Error()))
	}
	if c.synthTime, err = meter.Float64Histogram("pdf2mp3.synthesis.duration_ms",
		metric.WithDescription("Per-call synthesis latency")); err != nil {
		c.log.Warn("failed to create synthesis histogram", slog.String("error", err.Error()))
	}
}

// Session returns a point-in-time view of a known session.
func (c *Converter) Session(id string) (Snapshot, bool) {
	c.mu.Lock()
	s, ok := c.sessions[id]
	c.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}
	return s.snapshot(), true
}

// Convert runs one full conversion. Exactly one may run at a time; a second
// call while one is in flight fails fast with ErrBusy.
func (c *Converter) Convert(ctx context.Context, req Request) (*Artifact, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer c.busy.Store(false)

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrNoText
	}

	session := newSession(req.Source)
	c.mu.Lock()
	c.sessions[session.ID] = session
	c.mu.Unlock()

	ctx, span := c.tracer.Start(ctx, "convert",
		trace.WithAttributes(attribute.String("session.id", session.ID)))
	defer span.End()

	backend, err := c.selectBackend(ctx, c.ttsCfg, c.log)
	if err != nil {
		session.abort(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("tts.backend", backend.Name()))
	c.log.Info("conversion started",
		slog.String("session", session.ID),
		slog.String("backend", backend.Name()),
		slog.Int("text_len", len(text)))

	artifact, err := c.run(ctx, session, backend, text, req)
	if err != nil {
		c.finish(ctx, session, backend, nil, err)
		return nil, err
	}
	c.finish(ctx, session, backend, artifact, nil)
	return artifact, nil
}

func (c *Converter) run(ctx context.Context, session *Session, backend tts.Backend, text string, req Request) (*Artifact, error) {
	if backend.Granularity() == tts.GranularityDocument {
		return c.runWholeDocument(ctx, session, backend, text, req)
	}
	return c.runSegments(ctx, session, backend, text, req)
}

// runSegments drives the backend one chunk at a time, strictly in input
// order, awaiting each call before starting the next. Ordering of the final
// concatenation depends on this; there is deliberately no parallelism and no
// retry.
func (c *Converter) runSegments(ctx context.Context, session *Session, backend tts.Backend, text string, req Request) (*Artifact, error) {
	chunks := chunker.Chunk(text, c.chunkCfg.MaxChunkSize)
	if len(chunks) == 0 {
		return nil, ErrNoText
	}

	session.start(len(chunks))
	c.recordStart(ctx, session, backend, len(chunks))

	var data []byte
	format := tts.FormatMP3
	for i, chunk := range chunks {
		segment, err := c.synthesize(ctx, backend, chunk, req.Options)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		data = append(data, segment.Data...)
		format = segment.Format

		current, total := session.advance()
		c.publishProgress(session, current, total)
		c.log.Info("chunk synthesized",
			slog.String("session", session.ID),
			slog.Int("current", current),
			slog.Int("total", total))
	}

	return &Artifact{Name: artifactName(req.NameHint, format), Data: data, Format: format}, nil
}

// runWholeDocument hands the entire text to a document-granular backend in a
// single call; progress is the trivial 0/1 → 1/1.
func (c *Converter) runWholeDocument(ctx context.Context, session *Session, backend tts.Backend, text string, req Request) (*Artifact, error) {
	session.start(1)
	c.recordStart(ctx, session, backend, 1)

	audio, err := c.synthesize(ctx, backend, text, req.Options)
	if err != nil {
		return nil, err
	}

	current, total := session.advance()
	c.publishProgress(session, current, total)

	return &Artifact{Name: artifactName(req.NameHint, audio.Format), Data: audio.Data, Format: audio.Format}, nil
}

func (c *Converter) synthesize(ctx context.Context, backend tts.Backend, text string, opts tts.Options) (*tts.Audio, error) {
	start := time.Now()
	audio, err := backend.Synthesize(ctx, text, opts)
	if c.synthTime != nil {
		c.synthTime.Record(ctx, float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(attribute.String("backend", backend.Name())))
	}
	if err != nil {
		return nil, err
	}
	if c.chunksDone != nil {
		c.chunksDone.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", backend.Name())))
	}
	return audio, nil
}

func (c *Converter) finish(ctx context.Context, session *Session, backend tts.Backend, artifact *Artifact, convErr error) {
	status := StatusDone
	if convErr != nil {
		session.abort(convErr)
		status = StatusAborted
	} else {
		session.complete()
	}
	snap := session.snapshot()

	done := protocol.Done{
		SessionID: session.ID,
		Status:    string(status),
		Timestamp: time.Now().UTC(),
	}
	rec := history.Conversion{
		SessionID:   session.ID,
		Source:      session.Source,
		Engine:      backend.Name(),
		ChunksTotal: snap.Total,
		ChunksDone:  snap.Current,
		Status:      string(status),
	}
	if convErr != nil {
		done.Error = convErr.Error()
		rec.Error = convErr.Error()
		c.log.Error("conversion aborted",
			slog.String("session", session.ID),
			slog.String("error", convErr.Error()))
	} else {
		done.Bytes = len(artifact.Data)
		done.Format = string(artifact.Format)
		rec.Bytes = int64(len(artifact.Data))
		rec.Format = string(artifact.Format)
		c.log.Info("conversion done",
			slog.String("session", session.ID),
			slog.String("artifact", artifact.Name),
			slog.Int("bytes", len(artifact.Data)))
	}

	if err := c.bus.PublishJSON(protocol.DoneSubject(session.ID), done); err != nil {
		c.log.Warn("failed to publish done event", slog.String("error", err.Error()))
	}
	if c.hist != nil {
		if err := c.hist.RecordFinish(ctx, rec); err != nil {
			c.log.Warn("failed to record conversion", slog.String("error", err.Error()))
		}
	}
	if c.conversions != nil {
		c.conversions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
	}
}

func (c *Converter) recordStart(ctx context.Context, session *Session, backend tts.Backend, total int) {
	if c.hist == nil {
		return
	}
	err := c.hist.RecordStart(ctx, history.Conversion{
		SessionID:   session.ID,
		Source:      session.Source,
		Engine:      backend.Name(),
		ChunksTotal: total,
	})
	if err != nil {
		c.log.Warn("failed to record conversion start", slog.String("error", err.Error()))
	}
}

func (c *Converter) publishProgress(session *Session, current, total int) {
	msg := protocol.Progress{
		SessionID: session.ID,
		Source:    session.Source,
		Current:   current,
		Total:     total,
		Timestamp: time.Now().UTC(),
	}
	if err := c.bus.PublishJSON(protocol.ProgressSubject(session.ID), msg); err != nil {
		c.log.Warn("failed to publish progress", slog.String("error", err.Error()))
	}
}

// artifactName derives the output file name from the upload hint, replacing
// its extension with the artifact format.
func artifactName(hint string, format tts.Format) string {
	stem := strings.TrimSuffix(filepath.Base(hint), filepath.Ext(hint))
	if stem == "" || stem == "." {
		stem = "speech"
	}
	return stem + "." + string(format)
}
