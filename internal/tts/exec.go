package tts

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"

	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
)

// execBackend delegates synthesis to a worker subprocess speaking a small
// JSON line protocol: one request object on stdin, base64 PCM frames on
// stdout.
// The collected PCM is wrapped into a WAV artifact.
type execBackend struct {
	argv       []string
	sampleRate int
	channels   int
	mu         sync.Mutex
}

type execRequest struct {
	Text       string `json:"text"`
	Voice      string `json:"voice"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type execResponse struct {
	PCMBase64 string `json:"pcm_base64"`
	Final     bool   `json:"final"`
}

func NewExec(cfg config.TTSConfig) (Backend, error) {
	argv, err := shellwords.NewParser().Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse tts command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("tts command empty")
	}
	return &execBackend{argv: argv, sampleRate: cfg.SampleRate, channels: cfg.Channels}, nil
}

func (b *execBackend) Name() string { return "exec" }

func (b *execBackend) Granularity() Granularity { return GranularityDocument }

func (b *execBackend) Probe(_ context.Context) error {
	if _, err := exec.LookPath(b.argv[0]); err != nil {
		return fmt.Errorf("%w: %s not found", ErrUnavailable, b.argv[0])
	}
	return nil
}

func (b *execBackend) Synthesize(ctx context.Context, text string, opts Options) (*Audio, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	payload, err := json.Marshal(execRequest{
		Text:       text,
		Voice:      opts.Voice,
		SampleRate: b.sampleRate,
		Channels:   b.channels,
	})
	if err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: err}
	}

	cmd := exec.CommandContext(ctx, b.argv[0], b.argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: err}
	}

	if _, err := stdin.Write(payload); err != nil {
		cmd.Wait()
		return nil, &SynthesisError{Backend: b.Name(), Err: err}
	}
	stdin.Close()

	var pcm []byte
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp execResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			cmd.Wait()
			return nil, &SynthesisError{Backend: b.Name(), Err: fmt.Errorf("decode worker frame: %w", err)}
		}
		frame, err := base64.StdEncoding.DecodeString(resp.PCMBase64)
		if err != nil {
			cmd.Wait()
			return nil, &SynthesisError{Backend: b.Name(), Err: fmt.Errorf("decode pcm: %w", err)}
		}
		pcm = append(pcm, frame...)
		if resp.Final {
			break
		}
	}
	// drain trailing output so Wait cannot block on a full pipe
	_, _ = io.Copy(io.Discard, stdout)
	if err := cmd.Wait(); err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: err}
	}
	if err := scanner.Err(); err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: err}
	}
	if len(pcm) == 0 {
		return nil, &SynthesisError{Backend: b.Name(), Err: fmt.Errorf("worker produced no audio")}
	}

	data, err := EncodeWAV(pcm, b.sampleRate, b.channels)
	if err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: err}
	}
	return &Audio{Data: data, Format: FormatWAV}, nil
}
