package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
)

// remoteBackend synthesizes one segment per HTTP GET against a translate-style
// text-to-speech endpoint. The response body is the raw MP3 for the segment.
// Failures are fatal to the conversion: no retry, no backoff. That mirrors the
// original tool; only the request timeout is a defensive addition.
type remoteBackend struct {
	endpoint string
	clientID string
	client   *http.Client
}

func NewRemote(cfg config.TTSConfig) Backend {
	timeout := time.Duration(cfg.RequestTimeout) * time.Millisecond
	return &remoteBackend{
		endpoint: cfg.Endpoint,
		clientID: cfg.ClientID,
		client:   &http.Client{Timeout: timeout},
	}
}

func (b *remoteBackend) Name() string { return "remote" }

func (b *remoteBackend) Granularity() Granularity { return GranularitySegment }

func (b *remoteBackend) Probe(_ context.Context) error {
	u, err := url.Parse(b.endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: invalid endpoint %q", ErrUnavailable, b.endpoint)
	}
	return nil
}

func (b *remoteBackend) Synthesize(ctx context.Context, text string, opts Options) (*Audio, error) {
	u, err := url.Parse(b.endpoint)
	if err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: err}
	}

	q := u.Query()
	q.Set("ie", "UTF-8")
	q.Set("client", b.clientID)
	q.Set("tl", opts.Language)
	q.Set("q", text)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: err}
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &SynthesisError{
			Backend: b.Name(),
			Err:     fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, string(body)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: fmt.Errorf("read audio body: %w", err)}
	}
	return &Audio{Data: data, Format: FormatMP3}, nil
}
