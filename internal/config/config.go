// Package config loads the server configuration from an optional .env file,
// an optional YAML file and the environment, in increasing precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the server.
type Config struct {
	Port           string   `yaml:"port"`
	Env            string   `yaml:"env"`
	LogLevel       string   `yaml:"logLevel"`
	AllowedOrigins []string `yaml:"allowedOrigins"`

	// Storage
	UseMemoryStore   bool   `yaml:"useMemoryStore"`
	ProjectID        string `yaml:"projectId"`
	StatementsBucket string `yaml:"statementsBucket"`
	DatabaseURL      string `yaml:"databaseUrl"`

	// Auth
	SkipAuth bool `yaml:"skipAuth"`

	// Chat
	GeminiAPIKey        string  `yaml:"geminiApiKey"`
	GeminiModel         string  `yaml:"geminiModel"`
	ChatTemperature     float32 `yaml:"chatTemperature"`
	ChatMaxTokens       int32   `yaml:"chatMaxTokens"`
	ChatMaxMessageChars int     `yaml:"chatMaxMessageChars"`

	// Integrations
	AlgoliaAppID        string `yaml:"algoliaAppId"`
	AlgoliaAPIKey       string `yaml:"algoliaApiKey"`
	AlgoliaIndexName    string `yaml:"algoliaIndexName"`
	StripeSecretKey     string `yaml:"stripeSecretKey"`
	StripeWebhookSecret string `yaml:"stripeWebhookSecret"`

	// Extraction
	DraftTTL time.Duration `yaml:"draftTTL"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:     "8111",
		Env:      "production",
		LogLevel: "info",
		AllowedOrigins: []string{
			"http://localhost:1234",
			"http://127.0.0.1:1234",
		},
		GeminiModel:         "gemini-2.0-flash",
		ChatTemperature:     0.3,
		ChatMaxTokens:       1024,
		ChatMaxMessageChars: 2000,
		AlgoliaIndexName:    "wealthportal_clients",
		DraftTTL:            24 * time.Hour,
	}
}

// IsLocal reports whether the server runs against in-process backends.
func (c *Config) IsLocal() bool {
	return c.UseMemoryStore || c.Env == "local"
}

// Load reads .env (current or parent directory), the YAML file named by
// PORTAL_CONFIG and finally the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil && !os.IsNotExist(err) {
			slog.Warn("[config] error loading .env file, relying on environment", "error", err)
		}
	}
	return LoadFrom(os.Getenv("PORTAL_CONFIG"), os.Getenv)
}

// LoadFrom builds a Config from an optional YAML file and an environment
// lookup function.
func LoadFrom(path string, getenv func(string) string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("PORT", &cfg.Port)
	str("ENV", &cfg.Env)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("GOOGLE_CLOUD_PROJECT", &cfg.ProjectID)
	str("STATEMENTS_BUCKET", &cfg.StatementsBucket)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("GEMINI_API_KEY", &cfg.GeminiAPIKey)
	str("GEMINI_MODEL", &cfg.GeminiModel)
	str("ALGOLIA_APP_ID", &cfg.AlgoliaAppID)
	str("ALGOLIA_API_KEY", &cfg.AlgoliaAPIKey)
	str("ALGOLIA_INDEX_NAME", &cfg.AlgoliaIndexName)
	str("STRIPE_SECRET_KEY", &cfg.StripeSecretKey)
	str("STRIPE_WEBHOOK_SECRET", &cfg.StripeWebhookSecret)

	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.AllowedOrigins = origins
	}
	if v := getenv("USE_MEMORY_STORE"); v != "" {
		cfg.UseMemoryStore = v == "true"
	}
	if v := getenv("SKIP_AUTH"); v != "" {
		cfg.SkipAuth = v == "true"
	}

	if v := getenv("CHAT_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("invalid CHAT_TEMPERATURE %q: %w", v, err)
		}
		cfg.ChatTemperature = float32(f)
	}
	if v := getenv("CHAT_MAX_TOKENS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid CHAT_MAX_TOKENS %q: %w", v, err)
		}
		cfg.ChatMaxTokens = int32(n)
	}
	if v := getenv("CHAT_MAX_MESSAGE_CHARS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CHAT_MAX_MESSAGE_CHARS %q: %w", v, err)
		}
		cfg.ChatMaxMessageChars = n
	}
	if v := getenv("DRAFT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DRAFT_TTL %q: %w", v, err)
		}
		cfg.DraftTTL = d
	}
	return nil
}
