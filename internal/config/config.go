package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port              string        `env:"PORT" envDefault:"8080"`
	ModelPath         string        `env:"MODEL_PATH" envDefault:"models/model.onnx"`
	MetadataPath      string        `env:"METADATA_PATH" envDefault:"models/model_metadata.json"`
	ModelCacheDir     string        `env:"MODEL_CACHE_DIR" envDefault:".cache/models"`
	OnnxRuntimeLib    string        `env:"ONNXRUNTIME_LIB"`
	RemedyCatalogPath string        `env:"REMEDY_CATALOG_PATH"`
	MultipartMemory   int64         `env:"MULTIPART_MEMORY" envDefault:"10485760"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat         string        `env:"LOG_FORMAT" envDefault:"text"`

	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
}

// Load reads envFile into the process environment (when given) and then parses
// the environment into a Config.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("error loading env file '%s': %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.MultipartMemory <= 0 {
		return Config{}, fmt.Errorf("MULTIPART_MEMORY must be positive, got %d", cfg.MultipartMemory)
	}

	return cfg, nil
}

func (c Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
