package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/BenGothard/PDF-Text-Extractor/internal/config"
	"github.com/BenGothard/PDF-Text-Extractor/internal/convert"
	"github.com/BenGothard/PDF-Text-Extractor/internal/extract"
	"github.com/BenGothard/PDF-Text-Extractor/internal/history"
	"github.com/BenGothard/PDF-Text-Extractor/internal/tts"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath  string
		outputPath  string
		inlineText  string
		engine      string
		voice       string
		language    string
		rate        float64
		listHistory bool
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file (optional)")
	flag.StringVar(&outputPath, "o", "", "Output file path (default: output dir + derived name)")
	flag.StringVar(&inlineText, "text", "", "Convert this text instead of a PDF")
	flag.StringVar(&engine, "engine", "", "Speech engine: auto, native, remote, exec, openai")
	flag.StringVar(&voice, "voice", "", "Voice override")
	flag.StringVar(&language, "lang", "", "Language code for remote synthesis")
	flag.Float64Var(&rate, "rate", 0, "Speech rate multiplier (1.0 = normal)")
	flag.BoolVar(&listHistory, "history", false, "List recent conversions and exit")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load(configPath)
	if err != nil {
		fatal("load config: %v", err)
	}
	if engine != "" {
		cfg.TTS.Engine = engine
	}
	if voice != "" {
		cfg.TTS.Voice = voice
	}
	if language != "" {
		cfg.TTS.Language = language
	}
	if rate > 0 {
		cfg.TTS.Rate = rate
	}

	ctx := context.Background()

	hist, err := history.Open(ctx, cfg.History, logger)
	if err != nil {
		fatal("open history: %v", err)
	}
	defer hist.Close()

	if listHistory {
		printHistory(ctx, hist)
		return
	}

	text, nameHint, source, err := gatherText(ctx, cfg, logger, inlineText)
	if err != nil {
		fatal("%v", err)
	}

	conv := convert.New(cfg, nil, hist, logger)
	artifact, err := conv.Convert(ctx, convert.Request{
		Text:     text,
		NameHint: nameHint,
		Source:   source,
		Options: tts.Options{
			Voice:    cfg.TTS.Voice,
			Rate:     cfg.TTS.Rate,
			Language: cfg.TTS.Language,
		},
	})
	if err != nil {
		fatal("conversion failed: %v", err)
	}

	dest := outputPath
	if dest == "" {
		dest = filepath.Join(cfg.Output.Dir, artifact.Name)
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatal("create output dir: %v", err)
		}
	}
	if err := os.WriteFile(dest, artifact.Data, 0o644); err != nil {
		fatal("write output: %v", err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", dest, len(artifact.Data))
}

// gatherText resolves the conversion input: inline -text wins, otherwise the
// first positional argument is treated as a PDF path.
func gatherText(ctx context.Context, cfg config.Config, logger *slog.Logger, inline string) (text, nameHint, source string, err error) {
	loader := extract.NewLoader(cfg.Extract, logger)

	if inline != "" {
		return loader.Clean(inline), "", "text", nil
	}

	path := flag.Arg(0)
	if path == "" {
		return "", "", "", fmt.Errorf("nothing to convert: pass a PDF path or -text")
	}

	src, closeSrc, err := extract.OpenPDF(path)
	if err != nil {
		return "", "", "", err
	}
	defer closeSrc()

	raw, err := loader.FromSource(ctx, src)
	if err != nil {
		return "", "", "", err
	}
	return loader.Clean(raw), filepath.Base(path), path, nil
}

func printHistory(ctx context.Context, hist *history.Store) {
	list, err := hist.ListRecent(ctx, 20)
	if err != nil {
		fatal("list history: %v", err)
	}
	if len(list) == 0 {
		fmt.Println("no recorded conversions")
		return
	}
	for _, c := range list {
		fmt.Printf("%s  %-8s  %s  %d/%d chunks  %d bytes  %s\n",
			c.StartedAt.Format("2006-01-02 15:04:05"), c.Status, c.Engine,
			c.ChunksDone, c.ChunksTotal, c.Bytes, c.Source)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "pdf2mp3: "+format+"\n", args...)
	os.Exit(1)
}
