package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind          string `yaml:"bind"`
	Port          int    `yaml:"port"`
	MaxUploadMB   int    `yaml:"max_upload_mb"`
	ShutdownGrace int    `yaml:"shutdown_grace_ms"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	StoreDir       string   `yaml:"store_dir"`
	Servers        []string `yaml:"servers"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type ExtractConfig struct {
	StripMetadataLines bool `yaml:"strip_metadata_lines"`
	MaxPages           int  `yaml:"max_pages"`
}

type ChunkerConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size"`
}

type TTSConfig struct {
	Engine         string  `yaml:"engine"` // auto, native, remote, exec, openai, mock
	Command        string  `yaml:"command"`
	Voice          string  `yaml:"voice"`
	Rate           float64 `yaml:"rate"`
	Language       string  `yaml:"language"`
	Endpoint       string  `yaml:"endpoint"`
	ClientID       string  `yaml:"client_id"`
	RequestTimeout int     `yaml:"request_timeout_ms"`
	SampleRate     int     `yaml:"sample_rate"`
	Channels       int     `yaml:"channels"`
	OpenAIModel    string  `yaml:"openai_model"`
	OpenAIVoice    string  `yaml:"openai_voice"`
}

type HistoryConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxSessions   int    `yaml:"max_sessions"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type Config struct {
	ServiceName string          `yaml:"service_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Extract     ExtractConfig   `yaml:"extract"`
	Chunker     ChunkerConfig   `yaml:"chunker"`
	TTS         TTSConfig       `yaml:"tts"`
	History     HistoryConfig   `yaml:"history"`
	Output      OutputConfig    `yaml:"output"`
}

func Default() Config {
	return Config{
		ServiceName: "pdf2mp3",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind:          "0.0.0.0",
			Port:          8000,
			MaxUploadMB:   64,
			ShutdownGrace: 10000,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			StoreDir:       "./data/nats",
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Extract: ExtractConfig{
			StripMetadataLines: true,
			MaxPages:           0,
		},
		Chunker: ChunkerConfig{
			MaxChunkSize: 200,
		},
		TTS: TTSConfig{
			Engine:         "auto",
			Rate:           1.0,
			Language:       "en",
			Endpoint:       "https://translate.google.com/translate_tts",
			ClientID:       "tw-ob",
			RequestTimeout: 30000,
			SampleRate:     22050,
			Channels:       1,
			OpenAIModel:    "tts-1",
			OpenAIVoice:    "alloy",
		},
		History: HistoryConfig{
			Path:          "./data/pdf2mp3-history.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxSessions:   10000,
		},
		Output: OutputConfig{
			Dir: ".",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ServiceName, "PDF2MP3_SERVICE_NAME")
	overrideString(&cfg.Environment, "PDF2MP3_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "PDF2MP3_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "PDF2MP3_HTTP_PORT")
	overrideInt(&cfg.HTTP.MaxUploadMB, "PDF2MP3_HTTP_MAX_UPLOAD_MB")
	overrideInt(&cfg.HTTP.ShutdownGrace, "PDF2MP3_HTTP_SHUTDOWN_GRACE_MS")
	overrideString(&cfg.Telemetry.LogLevel, "PDF2MP3_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "PDF2MP3_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "PDF2MP3_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "PDF2MP3_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Enabled, "PDF2MP3_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "PDF2MP3_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "PDF2MP3_BUS_PORT")
	overrideString(&cfg.Bus.StoreDir, "PDF2MP3_BUS_STORE_DIR")
	overrideStringSlice(&cfg.Bus.Servers, "PDF2MP3_BUS_SERVERS")
	overrideInt(&cfg.Bus.ConnectTimeout, "PDF2MP3_BUS_CONNECT_TIMEOUT_MS")
	overrideBool(&cfg.Extract.StripMetadataLines, "PDF2MP3_EXTRACT_STRIP_METADATA_LINES")
	overrideInt(&cfg.Extract.MaxPages, "PDF2MP3_EXTRACT_MAX_PAGES")
	overrideInt(&cfg.Chunker.MaxChunkSize, "PDF2MP3_CHUNKER_MAX_CHUNK_SIZE")
	overrideString(&cfg.TTS.Engine, "PDF2MP3_TTS_ENGINE")
	overrideString(&cfg.TTS.Command, "PDF2MP3_TTS_COMMAND")
	overrideString(&cfg.TTS.Voice, "PDF2MP3_TTS_VOICE")
	overrideFloat(&cfg.TTS.Rate, "PDF2MP3_TTS_RATE")
	overrideString(&cfg.TTS.Language, "PDF2MP3_TTS_LANGUAGE")
	overrideString(&cfg.TTS.Endpoint, "PDF2MP3_TTS_ENDPOINT")
	overrideString(&cfg.TTS.ClientID, "PDF2MP3_TTS_CLIENT_ID")
	overrideInt(&cfg.TTS.RequestTimeout, "PDF2MP3_TTS_REQUEST_TIMEOUT_MS")
	overrideInt(&cfg.TTS.SampleRate, "PDF2MP3_TTS_SAMPLE_RATE")
	overrideInt(&cfg.TTS.Channels, "PDF2MP3_TTS_CHANNELS")
	overrideString(&cfg.TTS.OpenAIModel, "PDF2MP3_TTS_OPENAI_MODEL")
	overrideString(&cfg.TTS.OpenAIVoice, "PDF2MP3_TTS_OPENAI_VOICE")
	overrideString(&cfg.History.Path, "PDF2MP3_HISTORY_PATH")
	overrideString(&cfg.History.RetentionMode, "PDF2MP3_HISTORY_RETENTION_MODE")
	overrideInt(&cfg.History.RetentionDays, "PDF2MP3_HISTORY_RETENTION_DAYS")
	overrideInt(&cfg.History.MaxSessions, "PDF2MP3_HISTORY_MAX_SESSIONS")
	overrideBool(&cfg.History.VacuumOnStart, "PDF2MP3_HISTORY_VACUUM_ON_START")
	overrideString(&cfg.Output.Dir, "PDF2MP3_OUTPUT_DIR")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.ServiceName == "" {
		return errors.New("service_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.HTTP.MaxUploadMB <= 0 {
		return errors.New("http.max_upload_mb must be positive")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Extract.MaxPages < 0 {
		return errors.New("extract.max_pages must be >= 0")
	}
	if cfg.Chunker.MaxChunkSize < 1 {
		return errors.New("chunker.max_chunk_size must be >= 1")
	}
	switch cfg.TTS.Engine {
	case "auto", "native", "remote", "exec", "openai", "mock":
	default:
		return errors.New("tts.engine must be one of auto|native|remote|exec|openai|mock")
	}
	if cfg.TTS.Engine == "exec" && cfg.TTS.Command == "" {
		return errors.New("tts.command must be set when engine=exec")
	}
	if (cfg.TTS.Engine == "remote" || cfg.TTS.Engine == "auto") && cfg.TTS.Endpoint == "" {
		return errors.New("tts.endpoint must not be empty")
	}
	if cfg.TTS.Rate <= 0 {
		return errors.New("tts.rate must be positive")
	}
	if cfg.TTS.SampleRate <= 0 {
		return errors.New("tts.sample_rate must be positive")
	}
	if cfg.TTS.Channels <= 0 {
		return errors.New("tts.channels must be positive")
	}
	if cfg.TTS.RequestTimeout < 0 {
		return errors.New("tts.request_timeout_ms must be >= 0")
	}
	if cfg.History.Path == "" {
		return errors.New("history.path must not be empty")
	}
	switch cfg.History.RetentionMode {
	case "ephemeral", "session", "persistent":
		// ok
	default:
		return errors.New("history.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	if cfg.Output.Dir == "" {
		return errors.New("output.dir must not be empty")
	}
	return nil
}
