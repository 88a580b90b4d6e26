package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/codex-k8s/aha-mcp-server/internal/pipeline"
)

// ErrMissingCredentials is returned when neither the environment nor the
// fallback file provide a domain and an API key.
var ErrMissingCredentials = errors.New("Aha! configuration not found. Please set AHA_DOMAIN and AHA_API_KEY " +
	"environment variables or create an aha_config.json file with 'aha_domain' and 'api_key' fields")

// Config stores environment-driven settings for the server.
type Config struct {
	// Domain is the Aha! account host, e.g. company.aha.io.
	Domain string `env:"AHA_DOMAIN"`
	// BaseURL overrides the API root derived from Domain.
	BaseURL string `env:"AHA_BASE_URL"`
	// APIKey is the bearer token.
	APIKey pipeline.Credential `env:"AHA_API_KEY"`
	// DefaultProduct is used by product-scoped listings without an explicit product.
	DefaultProduct string `env:"AHA_DEFAULT_PRODUCT"`
	// ConfigFile is the fallback file for domain and API key.
	ConfigFile string `env:"AHA_CONFIG_FILE" envDefault:"aha_config.json"`

	// TimeoutSeconds bounds a single HTTP attempt.
	TimeoutSeconds float64 `env:"AHA_TIMEOUT" envDefault:"30"`
	// RateLimitDelay is the minimum spacing between requests, in seconds.
	RateLimitDelay float64 `env:"AHA_RATE_LIMIT_DELAY" envDefault:"0.2"`
	// RateLimitBurst is the token bucket size.
	RateLimitBurst int `env:"AHA_RATE_LIMIT_BURST" envDefault:"1"`
	// MaxRetries is the retry budget after the first attempt.
	MaxRetries int `env:"AHA_MAX_RETRIES" envDefault:"3"`
	// BackoffBase is the first retry delay, in seconds.
	BackoffBase float64 `env:"AHA_BACKOFF_BASE" envDefault:"1.0"`
	// BackoffMultiplier is the delay growth factor.
	BackoffMultiplier float64 `env:"AHA_BACKOFF_MULTIPLIER" envDefault:"2.0"`
	// BackoffJitter randomizes delays by +/- this fraction.
	BackoffJitter float64 `env:"AHA_BACKOFF_JITTER" envDefault:"0.2"`
	// BackoffMax caps a single retry delay, in seconds.
	BackoffMax float64 `env:"AHA_BACKOFF_MAX" envDefault:"30"`
	// HonorRetryAfter lets Retry-After hints stretch retry delays.
	HonorRetryAfter bool `env:"AHA_HONOR_RETRY_AFTER" envDefault:"false"`
	// ExtraHeaders are default headers sent with every request.
	ExtraHeaders map[string]string `env:"AHA_EXTRA_HEADERS" envSeparator:"," envKeyValSeparator:":"`
	// UserAgent overrides the default user agent.
	UserAgent string `env:"AHA_USER_AGENT"`

	// LogLevel sets the logger level.
	LogLevel string `env:"AHA_LOG_LEVEL" envDefault:"info"`
	// Lang selects message language for templates.
	Lang string `env:"AHA_LANG" envDefault:"en"`

	// Transport is stdio or http.
	Transport string `env:"AHA_TRANSPORT" envDefault:"stdio"`
	// HTTPListen is the streamable HTTP listen address.
	HTTPListen string `env:"AHA_HTTP_LISTEN" envDefault:":8080"`
	// HTTPPath is the MCP endpoint path.
	HTTPPath string `env:"AHA_HTTP_PATH" envDefault:"/mcp"`
	// HTTPStateless disables session tracking for streamable HTTP.
	HTTPStateless bool `env:"AHA_HTTP_STATELESS" envDefault:"false"`
	// MetricsListen exposes /metrics on a side listener in stdio mode.
	MetricsListen string `env:"AHA_METRICS_LISTEN"`
	// ShutdownTimeout controls graceful shutdown duration.
	ShutdownTimeout time.Duration `env:"AHA_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// ToolTimeout bounds a single tool call. Zero disables it.
	ToolTimeout time.Duration `env:"AHA_TOOL_TIMEOUT" envDefault:"0"`
	// IdempotencyTTL enables replay of mutating tool calls. Zero disables it.
	IdempotencyTTL time.Duration `env:"AHA_IDEMPOTENCY_TTL" envDefault:"0"`
	// IdempotencyMaxEntries bounds the replay cache.
	IdempotencyMaxEntries int `env:"AHA_IDEMPOTENCY_MAX_ENTRIES" envDefault:"1000"`
}

// fileConfig is the fallback file layout. JSON documents parse as YAML.
type fileConfig struct {
	Domain         string `yaml:"aha_domain"`
	APIKey         string `yaml:"api_key"`
	DefaultProduct string `yaml:"default_product"`
}

// Load parses environment variables into Config and fills the domain and
// API key from the fallback file when the environment lacks either.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.applyFile(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile() error {
	hasTarget := strings.TrimSpace(c.Domain) != "" || strings.TrimSpace(c.BaseURL) != ""
	if hasTarget && !c.APIKey.Empty() {
		return nil
	}
	path := strings.TrimSpace(c.ConfigFile)
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	// Both values come from the file together, as a pair.
	c.Domain = file.Domain
	c.APIKey = pipeline.Credential(file.APIKey)
	if c.DefaultProduct == "" {
		c.DefaultProduct = file.DefaultProduct
	}
	return nil
}

func (c *Config) validate() error {
	c.Domain = strings.TrimSpace(c.Domain)
	if (c.Domain == "" && strings.TrimSpace(c.BaseURL) == "") || c.APIKey.Empty() {
		return ErrMissingCredentials
	}
	switch strings.ToLower(c.Transport) {
	case "stdio", "http":
		c.Transport = strings.ToLower(c.Transport)
	default:
		return fmt.Errorf("unsupported transport %q (want stdio or http)", c.Transport)
	}
	if !strings.HasPrefix(c.HTTPPath, "/") {
		return fmt.Errorf("http path %q must start with /", c.HTTPPath)
	}
	if c.ToolTimeout < 0 || c.IdempotencyTTL < 0 {
		return errors.New("tool timeout and idempotency ttl must be >= 0")
	}
	return nil
}

// APIBaseURL returns the API root.
func (c Config) APIBaseURL() string {
	if base := strings.TrimSpace(c.BaseURL); base != "" {
		return strings.TrimRight(base, "/")
	}
	domain := strings.TrimPrefix(strings.TrimPrefix(c.Domain, "https://"), "http://")
	return "https://" + strings.TrimRight(domain, "/") + "/api/v1"
}

// Endpoint converts the settings into a pipeline configuration.
func (c Config) Endpoint(version string) pipeline.Config {
	userAgent := c.UserAgent
	if userAgent == "" {
		userAgent = "aha-mcp-server/" + version
	}
	return pipeline.Config{
		BaseURL:         c.APIBaseURL(),
		Credential:      c.APIKey,
		UserAgent:       userAgent,
		Headers:         c.ExtraHeaders,
		Timeout:         seconds(c.TimeoutSeconds),
		PacingDelay:     seconds(c.RateLimitDelay),
		Burst:           c.RateLimitBurst,
		MaxRetries:      c.MaxRetries,
		BaseDelay:       seconds(c.BackoffBase),
		Multiplier:      c.BackoffMultiplier,
		Jitter:          c.BackoffJitter,
		MaxDelay:        seconds(c.BackoffMax),
		HonorRetryAfter: c.HonorRetryAfter,
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
