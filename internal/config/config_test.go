package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Chunker.MaxChunkSize != 200 {
		t.Fatalf("expected default chunk size 200, got %d", cfg.Chunker.MaxChunkSize)
	}
	if cfg.TTS.Engine != "auto" {
		t.Fatalf("expected default engine auto, got %q", cfg.TTS.Engine)
	}
	if cfg.TTS.ClientID != "tw-ob" {
		t.Fatalf("expected default client id, got %q", cfg.TTS.ClientID)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pdf2mp3.yaml")
	data := []byte("chunker:\n  max_chunk_size: 500\ntts:\n  engine: mock\n  language: de\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Chunker.MaxChunkSize != 500 {
		t.Fatalf("expected chunk size 500, got %d", cfg.Chunker.MaxChunkSize)
	}
	if cfg.TTS.Engine != "mock" || cfg.TTS.Language != "de" {
		t.Fatalf("unexpected tts config: %+v", cfg.TTS)
	}
	// untouched sections keep defaults
	if cfg.HTTP.Port != 8000 {
		t.Fatalf("expected default http port, got %d", cfg.HTTP.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PDF2MP3_TTS_ENGINE", "remote")
	t.Setenv("PDF2MP3_TTS_LANGUAGE", "fr")
	t.Setenv("PDF2MP3_TTS_REQUEST_TIMEOUT_MS", "5000")
	t.Setenv("PDF2MP3_TTS_RATE", "1.5")
	t.Setenv("PDF2MP3_CHUNKER_MAX_CHUNK_SIZE", "120")
	t.Setenv("PDF2MP3_BUS_ENABLED", "true")
	t.Setenv("PDF2MP3_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("PDF2MP3_BUS_EMBEDDED", "false")
	t.Setenv("PDF2MP3_HISTORY_RETENTION_MODE", "persistent")
	t.Setenv("PDF2MP3_HISTORY_MAX_SESSIONS", "123")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TTS.Engine != "remote" || cfg.TTS.Language != "fr" {
		t.Fatalf("expected tts overrides, got %+v", cfg.TTS)
	}
	if cfg.TTS.RequestTimeout != 5000 {
		t.Fatalf("expected timeout 5000, got %d", cfg.TTS.RequestTimeout)
	}
	if cfg.TTS.Rate != 1.5 {
		t.Fatalf("expected rate 1.5, got %v", cfg.TTS.Rate)
	}
	if cfg.Chunker.MaxChunkSize != 120 {
		t.Fatalf("expected chunk size override, got %d", cfg.Chunker.MaxChunkSize)
	}
	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.Bus.Embedded {
		t.Fatal("expected embedded override false")
	}
	if cfg.History.RetentionMode != "persistent" {
		t.Fatalf("expected retention mode override")
	}
	if cfg.History.MaxSessions != 123 {
		t.Fatalf("expected max sessions override")
	}
}

func TestValidateRejectsBadEngine(t *testing.T) {
	t.Setenv("PDF2MP3_TTS_ENGINE", "bogus")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for unknown engine")
	}
}

func TestValidateRejectsExecWithoutCommand(t *testing.T) {
	t.Setenv("PDF2MP3_TTS_ENGINE", "exec")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for exec engine without command")
	}
}
