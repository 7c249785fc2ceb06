package api

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
	"github.com/BenGothard/PDF-Text-Extractor/internal/convert"
	"github.com/BenGothard/PDF-Text-Extractor/internal/extract"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.TTS.Engine = "mock"

	log := newLogger()
	loader := extract.NewLoader(cfg.Extract, log)
	conv := convert.New(cfg, nil, nil, log)
	h := New(cfg, loader, conv, nil, log)

	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postForm(t *testing.T, srv *httptest.Server, values url.Values) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/convert", "application/x-www-form-urlencoded",
		strings.NewReader(values.Encode()))
	if err != nil {
		t.Fatalf("post convert: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestConvertTextOnly(t *testing.T) {
	srv := newTestServer(t)

	resp := postForm(t, srv, url.Values{"text": {"Hello world. This is fine."}})
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Fatalf("expected audio/mpeg, got %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "speech.mp3") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(body) == 0 {
		t.Fatal("expected audio bytes")
	}
}

func postMultipart(t *testing.T, srv *httptest.Server, fields map[string]string, fileName string, fileData []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(fileData); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	mw.Close()

	resp, err := http.Post(srv.URL+"/convert", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post convert: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestConvertMultipartText(t *testing.T) {
	srv := newTestServer(t)

	resp := postMultipart(t, srv, map[string]string{"text": "Hello world. This is fine."}, "", nil)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Fatalf("expected audio/mpeg, got %q", ct)
	}
}

func TestConvertCorruptUploadRejected(t *testing.T) {
	srv := newTestServer(t)

	resp := postMultipart(t, srv, nil, "broken.pdf", []byte("this is not a pdf"))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, body)
	}
}

func TestConvertRequiresInput(t *testing.T) {
	srv := newTestServer(t)

	resp := postForm(t, srv, url.Values{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSessionNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/sessions/nope")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHistoryEmptyWithoutStore(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/history")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("expected empty list, got %q", body)
	}
}
