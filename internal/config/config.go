package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultMaxUploadBytes is the request body ceiling for uploads.
const DefaultMaxUploadBytes int64 = 16 << 20

// Config holds the runtime configuration of the service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Model   ModelConfig   `yaml:"model"`
	Web     WebConfig     `yaml:"web"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type ServerConfig struct {
	// Host is the address to bind the HTTP server to
	Host string `yaml:"host"`

	// Port is the HTTP port to listen on
	Port int `yaml:"port"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	// EnableCORS enables Cross-Origin Resource Sharing
	EnableCORS bool `yaml:"enable_cors"`

	// MaxUploadBytes rejects larger request bodies with 413
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

type ModelConfig struct {
	Path              string `yaml:"path"`
	MetadataPath      string `yaml:"metadata_path"`
	SharedLibraryPath string `yaml:"shared_library_path"`
}

type WebConfig struct {
	StaticDir string `yaml:"static_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           5000,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
			IdleTimeout:    120 * time.Second,
			EnableCORS:     true,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
		Model: ModelConfig{
			Path:         "outputs/model/densenet121_model.onnx",
			MetadataPath: "outputs/model/model_metadata.json",
		},
		Web: WebConfig{
			StaticDir: "static",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty or the file does not exist), then the
// environment. A .env file in the working directory is loaded first.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.Server.Host = envOrDefault("HOST", cfg.Server.Host)
	cfg.Server.Port = envInt("PORT", cfg.Server.Port)
	cfg.Server.EnableCORS = envBool("ENABLE_CORS", cfg.Server.EnableCORS)
	cfg.Server.MaxUploadBytes = int64(envInt("MAX_UPLOAD_BYTES", int(cfg.Server.MaxUploadBytes)))
	cfg.Model.Path = envOrDefault("MODEL_PATH", cfg.Model.Path)
	cfg.Model.MetadataPath = envOrDefault("MODEL_METADATA_PATH", cfg.Model.MetadataPath)
	cfg.Model.SharedLibraryPath = envOrDefault("ONNXRUNTIME_LIB", cfg.Model.SharedLibraryPath)
	cfg.Web.StaticDir = envOrDefault("STATIC_DIR", cfg.Web.StaticDir)
	cfg.Log.Level = envOrDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOrDefault("LOG_FORMAT", cfg.Log.Format)
	cfg.Metrics.Enabled = envBool("METRICS_ENABLED", cfg.Metrics.Enabled)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid max_upload_bytes %d", c.Server.MaxUploadBytes)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
