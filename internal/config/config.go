// Package config loads the application configuration from an optional YAML
// file with environment variable overrides. The service is designed to run
// inside a container with nothing but environment variables, so a missing
// config file is not an error.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPort is the port the HTTP server binds when PORT is unset or
// unusable.
const DefaultPort = 8000

// Config represents the application configuration structure.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on. The
		// PORT environment variable, when set, takes precedence (see Load).
		Addr string `env:"HTTP_ADDR" env-default:"0.0.0.0:8000" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"2m" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MaxUploadBytes caps the size of an uploaded image
		MaxUploadBytes int64 `env:"HTTP_MAX_UPLOAD_BYTES" env-default:"10485760" yaml:"maxUploadBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
	} `yaml:"http"`

	// Vision configures the model provider used to solve images
	Vision struct {
		// BaseURL is the API root of the OpenAI-compatible provider
		BaseURL string `env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1" yaml:"baseUrl"`
		// APIKey authenticates against the provider
		APIKey string `env:"OPENAI_API_KEY" env-default:"" yaml:"apiKey"`
		// Model names the vision-capable model to query
		Model string `env:"OPENAI_MODEL" env-default:"gpt-4o-mini" yaml:"model"`
		// RequestTimeout bounds a single provider round trip
		RequestTimeout time.Duration `env:"VISION_REQUEST_TIMEOUT" env-default:"90s" yaml:"requestTimeout"`
	} `yaml:"vision"`

	// Store configures where rendered pages are kept
	Store struct {
		// Root is the directory for page sets; empty means the OS temp dir
		Root string `env:"STORE_ROOT" env-default:"" yaml:"root"`
		// CacheSize caps the in-memory page read cache
		CacheSize int `env:"STORE_CACHE_SIZE" env-default:"128" yaml:"cacheSize"`
		// TTL is how long a page set is kept before the cleanup command removes it
		TTL time.Duration `env:"STORE_TTL" env-default:"24h" yaml:"ttl"`
	} `yaml:"store"`

	// Solver configures the solving pipeline
	Solver struct {
		// ReuseStored skips the model call when the same image was solved before
		ReuseStored bool `env:"SOLVER_REUSE_STORED" env-default:"true" yaml:"reuseStored"`
	} `yaml:"solver"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// ResolvePort parses a PORT value. It returns DefaultPort when the value is
// empty, malformed or outside [1, 65535]: an orchestrator-supplied variable
// must never crash the process at startup.
func ResolvePort(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultPort
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return DefaultPort
	}

	return port
}

// Load reads the YAML config file at configPath with environment overrides.
// A missing file falls back to environment-only configuration. When the PORT
// environment variable is set it overrides the configured listen address,
// binding all interfaces on the resolved port.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("could not read environment: %w", err)
		}
	}

	if raw, ok := os.LookupEnv("PORT"); ok {
		cfg.HTTP.Addr = net.JoinHostPort("0.0.0.0", strconv.Itoa(ResolvePort(raw)))
	}

	return &cfg, nil
}
