package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
)

// Select builds the backend for one conversion and runs its capability probe
// exactly once. With engine=auto the native strategy is preferred and its
// unavailability is non-fatal: the remote strategy takes over. An explicitly
// chosen engine that fails its probe is an error.
func Select(ctx context.Context, cfg config.TTSConfig, log *slog.Logger) (Backend, error) {
	switch cfg.Engine {
	case "auto":
		native, err := NewNative(cfg, log)
		if err != nil {
			return nil, err
		}
		if probeErr := native.Probe(ctx); probeErr == nil {
			return native, nil
		} else if !errors.Is(probeErr, ErrUnavailable) {
			return nil, probeErr
		} else {
			log.Info("native voice unavailable, falling back to remote synthesis",
				slog.String("reason", probeErr.Error()))
		}
		remote := NewRemote(cfg)
		if err := remote.Probe(ctx); err != nil {
			return nil, fmt.Errorf("no usable synthesis backend: %w", err)
		}
		return remote, nil
	case "native":
		b, err := NewNative(cfg, log)
		if err != nil {
			return nil, err
		}
		return probed(ctx, b)
	case "remote":
		return probed(ctx, NewRemote(cfg))
	case "exec":
		b, err := NewExec(cfg)
		if err != nil {
			return nil, err
		}
		return probed(ctx, b)
	case "openai":
		return probed(ctx, NewOpenAI(cfg))
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown tts engine %q", cfg.Engine)
	}
}

func probed(ctx context.Context, b Backend) (Backend, error) {
	if err := b.Probe(ctx); err != nil {
		return nil, fmt.Errorf("%s backend: %w", b.Name(), err)
	}
	return b, nil
}
