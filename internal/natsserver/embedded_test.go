package natsserver

import (
	"io"
	"log/slog"
	"testing"

	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStartSkipsWhenBusDisabled(t *testing.T) {
	srv, err := Start(config.BusConfig{Enabled: false, Embedded: true}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if srv != nil {
		t.Fatal("expected no server when the bus is disabled")
	}
}

func TestStartSkipsWhenExternalServers(t *testing.T) {
	srv, err := Start(config.BusConfig{Enabled: true, Embedded: false}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if srv != nil {
		t.Fatal("expected no server for an external bus")
	}
}

func TestStartRunsEmbeddedServer(t *testing.T) {
	cfg := config.BusConfig{
		Enabled:  true,
		Embedded: true,
		Port:     -1, // random free port
		StoreDir: t.TempDir(),
	}
	srv, err := Start(cfg, testLogger())
	if err != nil {
		t.Fatalf("start embedded server: %v", err)
	}
	if srv == nil {
		t.Fatal("expected a running server")
	}
	srv.Shutdown()
}
