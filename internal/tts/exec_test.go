package tts

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
)

func writeWorkerScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("worker script test needs a unix shell")
	}
	path := filepath.Join(t.TempDir(), "worker.sh")
	script := "#!/bin/sh\nread req\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write worker script: %v", err)
	}
	return path
}

func newExecBackend(t *testing.T, command string) Backend {
	t.Helper()
	cfg := config.TTSConfig{Command: command, SampleRate: 22050, Channels: 1}
	b, err := NewExec(cfg)
	if err != nil {
		t.Fatalf("new exec backend: %v", err)
	}
	if err := b.Probe(context.Background()); err != nil {
		t.Fatalf("probe: %v", err)
	}
	return b
}

func TestExecSynthesizeWrapsPCM(t *testing.T) {
	script := writeWorkerScript(t,
		`echo '{"pcm_base64":"AAAAAA==","final":true}'`+"\n")
	b := newExecBackend(t, script)

	audio, err := b.Synthesize(context.Background(), "hello", Options{})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if audio.Format != FormatWAV {
		t.Fatalf("expected wav, got %s", audio.Format)
	}
	if !bytes.HasPrefix(audio.Data, []byte("RIFF")) {
		t.Fatal("expected a RIFF container")
	}
}

func TestExecSynthesizeIgnoresTrailingWorkerOutput(t *testing.T) {
	// the trailing write is larger than a pipe buffer; Synthesize must not
	// block on it after the final frame
	script := writeWorkerScript(t,
		`echo '{"pcm_base64":"AAAAAA==","final":true}'`+"\n"+
			"head -c 200000 /dev/zero\n")
	b := newExecBackend(t, script)

	audio, err := b.Synthesize(context.Background(), "hello", Options{})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !bytes.HasPrefix(audio.Data, []byte("RIFF")) {
		t.Fatal("expected a RIFF container")
	}
}
