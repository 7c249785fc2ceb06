package tts

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSelectAutoFallsBackToRemote(t *testing.T) {
	// An empty PATH means no native voice binary can be resolved; the probe
	// must treat that as non-fatal and hand over to the remote strategy.
	t.Setenv("PATH", t.TempDir())

	cfg := config.Default().TTS
	backend, err := Select(context.Background(), cfg, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.Name() != "remote" {
		t.Fatalf("expected remote fallback, got %q", backend.Name())
	}
	if backend.Granularity() != GranularitySegment {
		t.Fatal("remote backend must be segment-granular")
	}
}

func TestSelectExplicitNativeFailsWithoutBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	cfg := config.Default().TTS
	cfg.Engine = "native"
	if _, err := Select(context.Background(), cfg, discardLogger()); err == nil {
		t.Fatal("expected error when the chosen engine is unavailable")
	}
}

func TestSelectExplicitExecFailsWithoutBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	cfg := config.Default().TTS
	cfg.Engine = "exec"
	cfg.Command = "no-such-tts-worker --stream"
	if _, err := Select(context.Background(), cfg, discardLogger()); err == nil {
		t.Fatal("expected error when the worker binary is missing")
	}
}

func TestSelectMock(t *testing.T) {
	cfg := config.Default().TTS
	cfg.Engine = "mock"
	backend, err := Select(context.Background(), cfg, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	audio, err := backend.Synthesize(context.Background(), "hi", Options{})
	if err != nil {
		t.Fatalf("mock synthesis failed: %v", err)
	}
	if len(audio.Data) == 0 {
		t.Fatal("expected mock audio bytes")
	}
}

func TestSelectOpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg := config.Default().TTS
	cfg.Engine = "openai"
	if _, err := Select(context.Background(), cfg, discardLogger()); err == nil {
		t.Fatal("expected error without api key")
	}
}
