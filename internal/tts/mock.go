package tts

import (
	"context"
	"sync"
)

// Mock is a scripted backend for tests. SynthFn, when set, fully controls
// each call; otherwise every call returns a fixed byte pattern.
type Mock struct {
	BackendName string
	Gran        Granularity
	ProbeErr    error
	SynthFn     func(ctx context.Context, text string, opts Options) (*Audio, error)

	mu    sync.Mutex
	calls []string
}

func NewMock() *Mock {
	return &Mock{BackendName: "mock", Gran: GranularitySegment}
}

func (m *Mock) Name() string {
	if m.BackendName == "" {
		return "mock"
	}
	return m.BackendName
}

func (m *Mock) Granularity() Granularity { return m.Gran }

func (m *Mock) Probe(_ context.Context) error { return m.ProbeErr }

func (m *Mock) Synthesize(ctx context.Context, text string, opts Options) (*Audio, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.SynthFn != nil {
		return m.SynthFn(ctx, text, opts)
	}
	return &Audio{Data: []byte("mock-audio:" + text), Format: FormatMP3}, nil
}

// Calls returns the texts synthesized so far, in call order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
