package tts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
)

// sayBaseWPM is the default speaking rate of the macOS voice engine; the
// configured rate multiplier is applied to it.
const sayBaseWPM = 175.0

// nativeBackend drives the host's voice synthesizer as a subprocess. It
// speaks the whole document in one invocation and captures the output into
// an encoded file (AIFF from `say`, WAV from espeak).
type nativeBackend struct {
	argv []string // explicit command, empty = discover on PATH
	bin  string   // resolved by Probe
	log  *slog.Logger
}

var nativeCandidates = []string{"say", "espeak-ng", "espeak"}

func NewNative(cfg config.TTSConfig, log *slog.Logger) (Backend, error) {
	b := &nativeBackend{log: log.With(slog.String("component", "tts-native"))}
	if cfg.Command != "" {
		argv, err := shellwords.NewParser().Parse(cfg.Command)
		if err != nil {
			return nil, fmt.Errorf("parse tts command: %w", err)
		}
		if len(argv) == 0 {
			return nil, fmt.Errorf("tts command empty")
		}
		b.argv = argv
	}
	return b, nil
}

func (b *nativeBackend) Name() string { return "native" }

func (b *nativeBackend) Granularity() Granularity { return GranularityDocument }

// Probe resolves a usable voice binary. Failure means the host has no native
// synthesis facility and the caller should fall back to the remote strategy.
func (b *nativeBackend) Probe(_ context.Context) error {
	if len(b.argv) > 0 {
		path, err := exec.LookPath(b.argv[0])
		if err != nil {
			return fmt.Errorf("%w: %s not found", ErrUnavailable, b.argv[0])
		}
		b.bin = path
		return nil
	}
	for _, candidate := range nativeCandidates {
		if path, err := exec.LookPath(candidate); err == nil {
			b.bin = path
			b.argv = []string{candidate}
			return nil
		}
	}
	return fmt.Errorf("%w: no voice synthesizer on PATH", ErrUnavailable)
}

func (b *nativeBackend) Synthesize(ctx context.Context, text string, opts Options) (*Audio, error) {
	if b.bin == "" {
		return nil, &SynthesisError{Backend: b.Name(), Err: ErrUnavailable}
	}

	dir, err := os.MkdirTemp("", "pdf2mp3-native-")
	if err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: err}
	}
	defer os.RemoveAll(dir)

	// Long documents overflow argv limits, so the text goes through a file.
	textPath := filepath.Join(dir, "speech.txt")
	if err := os.WriteFile(textPath, []byte(text), 0o600); err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: err}
	}

	format := FormatWAV
	if b.dialect() == "say" {
		format = FormatAIFF
	}
	outPath := filepath.Join(dir, "speech."+string(format))

	args := append([]string{}, b.argv[1:]...)
	args = append(args, b.speechArgs(textPath, outPath, opts)...)

	cmd := exec.CommandContext(ctx, b.bin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, &SynthesisError{Backend: b.Name(), Err: ctx.Err()}
		}
		return nil, &SynthesisError{Backend: b.Name(), Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))}
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: fmt.Errorf("read captured audio: %w", err)}
	}
	if len(data) == 0 {
		return nil, &SynthesisError{Backend: b.Name(), Err: fmt.Errorf("voice engine produced no audio")}
	}
	return &Audio{Data: data, Format: format}, nil
}

func (b *nativeBackend) dialect() string {
	base := filepath.Base(b.argv[0])
	if strings.Contains(base, "say") {
		return "say"
	}
	return "espeak"
}

func (b *nativeBackend) speechArgs(textPath, outPath string, opts Options) []string {
	rate := opts.Rate
	if rate <= 0 {
		rate = 1.0
	}
	wpm := int(sayBaseWPM * rate)

	if b.dialect() == "say" {
		args := []string{"-f", textPath, "-o", outPath, "-r", fmt.Sprintf("%d", wpm)}
		if opts.Voice != "" {
			args = append(args, "-v", opts.Voice)
		}
		return args
	}

	args := []string{"-f", textPath, "-w", outPath, "-s", fmt.Sprintf("%d", wpm)}
	if opts.Voice != "" {
		args = append(args, "-v", opts.Voice)
	} else if opts.Language != "" {
		args = append(args, "-v", opts.Language)
	}
	return args
}
