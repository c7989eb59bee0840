package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pengpongpang/deepbrain/pkg/forest/layout"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Addr != ":8000" {
		t.Errorf("got addr %q, want :8000", cfg.Server.Addr)
	}
	if cfg.Mongo.Database != "deepbrain" {
		t.Errorf("got database %q, want deepbrain", cfg.Mongo.Database)
	}
	if cfg.Auth.TokenTTLHours != 24 {
		t.Errorf("got token TTL %d, want 24", cfg.Auth.TokenTTLHours)
	}
	if cfg.LLM.Model != "gpt-3.5-turbo" {
		t.Errorf("got model %q, want gpt-3.5-turbo", cfg.LLM.Model)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
addr = ":9000"

[mongo]
uri = "mongodb://db:27017"

[auth]
jwt_secret = "test-secret"
token_ttl_hours = 2

[llm]
model = "gpt-4"

[layout]
direction = "radial"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("got addr %q, want :9000", cfg.Server.Addr)
	}
	if cfg.Mongo.URI != "mongodb://db:27017" {
		t.Errorf("got mongo URI %q", cfg.Mongo.URI)
	}
	if cfg.Mongo.Database != "deepbrain" {
		t.Errorf("unset field should keep default, got %q", cfg.Mongo.Database)
	}
	if cfg.Auth.JWTSecret != "test-secret" {
		t.Errorf("got secret %q", cfg.Auth.JWTSecret)
	}
	if got := cfg.TokenTTL(); got != 2*time.Hour {
		t.Errorf("got TTL %v, want 2h", got)
	}
	if cfg.LLM.Model != "gpt-4" {
		t.Errorf("got model %q, want gpt-4", cfg.LLM.Model)
	}
	if got := cfg.LayoutOptions().Direction; got != layout.DirectionRadial {
		t.Errorf("got direction %v, want radial", got)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("Load() should fail for an explicitly named missing file")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\naddr="), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("got error %v, want parse error", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`[server]`+"\n"+`addr = ":9000"`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(EnvAddr, ":7000")
	t.Setenv(EnvMongoURI, "mongodb://env:27017")
	t.Setenv(EnvJWTSecret, "env-secret")
	t.Setenv(EnvOpenAIKey, "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Addr != ":7000" {
		t.Errorf("env should override file, got addr %q", cfg.Server.Addr)
	}
	if cfg.Mongo.URI != "mongodb://env:27017" {
		t.Errorf("got mongo URI %q", cfg.Mongo.URI)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("got secret %q", cfg.Auth.JWTSecret)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("got api key %q", cfg.LLM.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"Defaults", func(c *Config) {}, false},
		{"EmptyAddr", func(c *Config) { c.Server.Addr = "" }, true},
		{"EmptyDatabase", func(c *Config) { c.Mongo.Database = "" }, true},
		{"EmptySecret", func(c *Config) { c.Auth.JWTSecret = "" }, true},
		{"ZeroTTL", func(c *Config) { c.Auth.TokenTTLHours = 0 }, true},
		{"NegativeGap", func(c *Config) { c.Layout.LevelGap = -1 }, true},
		{"UnknownDirectionFallsBack", func(c *Config) { c.Layout.Direction = "force" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
