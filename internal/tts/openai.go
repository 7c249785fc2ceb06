package tts

import (
	"context"
	"fmt"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
)

// openaiBackend synthesizes one segment per call through the OpenAI speech
// endpoint, returning MP3 bytes.
type openaiBackend struct {
	client *openai.Client
	model  string
	voice  string
	apiKey string
}

func NewOpenAI(cfg config.TTSConfig) Backend {
	apiKey := os.Getenv("OPENAI_API_KEY")
	return &openaiBackend{
		client: openai.NewClient(apiKey),
		model:  cfg.OpenAIModel,
		voice:  cfg.OpenAIVoice,
		apiKey: apiKey,
	}
}

func (b *openaiBackend) Name() string { return "openai" }

func (b *openaiBackend) Granularity() Granularity { return GranularitySegment }

func (b *openaiBackend) Probe(_ context.Context) error {
	if b.apiKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY not set", ErrUnavailable)
	}
	return nil
}

func (b *openaiBackend) Synthesize(ctx context.Context, text string, opts Options) (*Audio, error) {
	voice := b.voice
	if opts.Voice != "" {
		voice = opts.Voice
	}
	speed := opts.Rate
	if speed <= 0 {
		speed = 1.0
	}

	resp, err := b.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(b.model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          speed,
	})
	if err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: err}
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, &SynthesisError{Backend: b.Name(), Err: fmt.Errorf("read audio body: %w", err)}
	}
	return &Audio{Data: data, Format: FormatMP3}, nil
}
