// Package api exposes the daemon's conversion endpoints: upload a document,
// receive the spoken audio as an attachment, poll session progress.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
	"github.com/BenGothard/PDF-Text-Extractor/internal/convert"
	"github.com/BenGothard/PDF-Text-Extractor/internal/extract"
	"github.com/BenGothard/PDF-Text-Extractor/internal/history"
	"github.com/BenGothard/PDF-Text-Extractor/internal/tts"
)

type Handler struct {
	cfg    config.Config
	log    *slog.Logger
	loader *extract.Loader
	conv   *convert.Converter
	hist   *history.Store
}

func New(cfg config.Config, loader *extract.Loader, conv *convert.Converter, hist *history.Store, log *slog.Logger) *Handler {
	return &Handler{
		cfg:    cfg,
		log:    log.With(slog.String("component", "api")),
		loader: loader,
		conv:   conv,
		hist:   hist,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /convert", h.handleConvert)
	mux.HandleFunc("GET /sessions/{id}", h.handleSession)
	mux.HandleFunc("GET /history", h.handleHistory)
}

func (h *Handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(h.cfg.HTTP.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	text, nameHint, err := h.gatherInput(r)
	if err != nil {
		var extErr *extract.ExtractionError
		switch {
		case errors.As(err, &extErr):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	opts := tts.Options{
		Voice:    h.cfg.TTS.Voice,
		Rate:     h.cfg.TTS.Rate,
		Language: h.cfg.TTS.Language,
	}
	if v := r.FormValue("voice"); v != "" {
		opts.Voice = v
	}
	if v := r.FormValue("lang"); v != "" {
		opts.Language = v
	}

	artifact, err := h.conv.Convert(r.Context(), convert.Request{
		Text:     text,
		NameHint: nameHint,
		Source:   nameHint,
		Options:  opts,
	})
	if err != nil {
		switch {
		case errors.Is(err, convert.ErrBusy):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, convert.ErrNoText):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", artifact.Format.MIME())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		h.log.Warn("failed to write artifact", slog.String("error", err.Error()))
	}
}

// gatherInput extracts the document text from the uploaded file (if any) and
// appends the manual text field. At least one of the two must be present.
func (h *Handler) gatherInput(r *http.Request) (text, nameHint string, err error) {
	var parts []string
	nameHint = "speech"

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			return "", "", fmt.Errorf("parse upload: %w", err)
		}
		file, header, err := r.FormFile("file")
		switch {
		case err == nil:
			defer file.Close()
			extracted, err := h.extractUpload(r, file, header.Filename)
			if err != nil {
				return "", "", err
			}
			parts = append(parts, extracted)
			nameHint = header.Filename
		case errors.Is(err, http.ErrMissingFile):
			// text-only request
		default:
			return "", "", fmt.Errorf("read upload: %w", err)
		}
	}

	if manual := strings.TrimSpace(r.FormValue("text")); manual != "" {
		parts = append(parts, manual)
	}
	if len(parts) == 0 {
		return "", "", errors.New("no file uploaded and no text provided")
	}
	return strings.Join(parts, "\n"), nameHint, nil
}

// extractUpload spools the upload to a temp file for the PDF parser, which
// needs random access, and removes it before returning.
func (h *Handler) extractUpload(r *http.Request, file io.Reader, filename string) (string, error) {
	tmp, err := os.CreateTemp("", "pdf2mp3-upload-*"+filepath.Ext(filename))
	if err != nil {
		return "", fmt.Errorf("spool upload: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		return "", fmt.Errorf("spool upload: %w", err)
	}
	tmp.Close()

	src, closeSrc, err := extract.OpenPDF(tmp.Name())
	if err != nil {
		return "", err
	}
	defer closeSrc()

	raw, err := h.loader.FromSource(r.Context(), src)
	if err != nil {
		return "", err
	}
	return h.loader.Clean(raw), nil
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.conv.Session(r.PathValue("id"))
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	writeJSON(w, h.log, snap)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	list, err := h.hist.ListRecent(r.Context(), 20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []history.Conversion{}
	}
	writeJSON(w, h.log, list)
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to encode response", slog.String("error", err.Error()))
	}
}
