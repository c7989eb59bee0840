// Package config loads the deepbrain configuration.
//
// Configuration comes from three layers, each overriding the previous:
// built-in defaults, a TOML file (~/.config/deepbrain/config.toml or the
// path passed to --config), and environment variables. The server and the
// CLI share one Config so a single file drives both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/pengpongpang/deepbrain/pkg/forest/layout"
)

// Config is the root configuration shared by the server and the CLI.
type Config struct {
	Server ServerConfig `toml:"server"`
	Mongo  MongoConfig  `toml:"mongo"`
	Redis  RedisConfig  `toml:"redis"`
	Auth   AuthConfig   `toml:"auth"`
	LLM    LLMConfig    `toml:"llm"`
	Layout LayoutConfig `toml:"layout"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	// Addr is the listen address, host optional.
	Addr string `toml:"addr"`

	// BaseURL is the server address CLI commands talk to.
	BaseURL string `toml:"base_url"`
}

// MongoConfig controls document persistence.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// RedisConfig controls the optional shared cache. An empty URL disables
// Redis; the server falls back to its in-process cache.
type RedisConfig struct {
	URL string `toml:"url"`
}

// AuthConfig controls token issuing.
type AuthConfig struct {
	// JWTSecret signs access tokens. The default is only suitable for
	// local development.
	JWTSecret string `toml:"jwt_secret"`

	// TokenTTLHours is the access token lifetime.
	TokenTTLHours int `toml:"token_ttl_hours"`
}

// LLMConfig controls the OpenAI-compatible completion client.
type LLMConfig struct {
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
}

// LayoutConfig seeds the engine's layout options.
type LayoutConfig struct {
	Direction string  `toml:"direction"`
	LevelGap  float64 `toml:"level_gap"`
	NodeGap   float64 `toml:"node_gap"`
}

// devJWTSecret is the signing fallback for local development. Any real
// deployment must override it via JWT_SECRET or the config file.
const devJWTSecret = "your-super-secret-jwt-key-change-in-production"

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:    ":8000",
			BaseURL: "http://localhost:8000",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "deepbrain",
		},
		Auth: AuthConfig{
			JWTSecret:     devJWTSecret,
			TokenTTLHours: 24,
		},
		LLM: LLMConfig{
			Model:       "gpt-3.5-turbo",
			Temperature: 0.7,
		},
		Layout: LayoutConfig{
			Direction: string(layout.DirectionHorizontal),
		},
	}
}

// DefaultPath returns the conventional config file location,
// ~/.config/deepbrain/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "deepbrain", "config.toml"), nil
}

// Load builds the configuration from defaults, the TOML file at path, and
// environment overrides, in that order. An empty path means the default
// location; a missing file at either is not an error. An explicitly passed
// file that fails to parse is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Fresh install, defaults apply.
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Environment variable names. MONGODB_URI, JWT_SECRET, and the OPENAI_*
// names follow the conventional spellings so existing deployments work
// without renaming anything.
const (
	EnvAddr          = "DEEPBRAIN_ADDR"
	EnvBaseURL       = "DEEPBRAIN_SERVER_URL"
	EnvMongoURI      = "MONGODB_URI"
	EnvRedisURL      = "REDIS_URL"
	EnvJWTSecret     = "JWT_SECRET"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvOpenAIModel   = "OPENAI_MODEL"
)

func (c *Config) applyEnv() {
	setFromEnv(&c.Server.Addr, EnvAddr)
	setFromEnv(&c.Server.BaseURL, EnvBaseURL)
	setFromEnv(&c.Mongo.URI, EnvMongoURI)
	setFromEnv(&c.Redis.URL, EnvRedisURL)
	setFromEnv(&c.Auth.JWTSecret, EnvJWTSecret)
	setFromEnv(&c.LLM.APIKey, EnvOpenAIKey)
	setFromEnv(&c.LLM.BaseURL, EnvOpenAIBaseURL)
	setFromEnv(&c.LLM.Model, EnvOpenAIModel)
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate rejects configurations the services cannot start with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo.database is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Auth.TokenTTLHours <= 0 {
		return fmt.Errorf("auth.token_ttl_hours must be positive, got %d", c.Auth.TokenTTLHours)
	}
	lo := c.LayoutOptions()
	if err := lo.ValidateAndSetDefaults(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	return nil
}

// TokenTTL returns the access token lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// LayoutOptions maps the layout section onto engine layout options.
// Unknown direction names fall back to horizontal, matching how persisted
// documents are read.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		Direction: layout.ParseDirection(c.Layout.Direction),
		LevelGap:  c.Layout.LevelGap,
		NodeGap:   c.Layout.NodeGap,
	}
}
