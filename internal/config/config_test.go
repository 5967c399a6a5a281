package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setMinimalValidConfigEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TIMEZONE", "UTC")
}

func TestLoadConfigFromEnvWithDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	setMinimalValidConfigEnv(t)

	cfg := LoadConfig()

	if cfg.LLMProvider != "openai" {
		t.Fatalf("unexpected provider: %q", cfg.LLMProvider)
	}
	if cfg.DBPath != "./commentsieve.db" {
		t.Fatalf("unexpected db path default: %q", cfg.DBPath)
	}
	if cfg.OutputDir != "./results" {
		t.Fatalf("unexpected output dir default: %q", cfg.OutputDir)
	}
	if cfg.CategoriesPath != "./categories.yaml" {
		t.Fatalf("unexpected categories path default: %q", cfg.CategoriesPath)
	}
	if cfg.LLMMaxRetries != 3 {
		t.Fatalf("unexpected max retries default: %d", cfg.LLMMaxRetries)
	}
	if cfg.LLMRetryDelaySeconds != 1 {
		t.Fatalf("unexpected retry delay default: %d", cfg.LLMRetryDelaySeconds)
	}
	if cfg.CheckpointEvery != 5 {
		t.Fatalf("unexpected checkpoint cadence default: %d", cfg.CheckpointEvery)
	}
	if cfg.ScanOrder != "shuffle" {
		t.Fatalf("unexpected scan order default: %q", cfg.ScanOrder)
	}
	if cfg.ExternalHTTPTimeoutSeconds != int(defaultExternalHTTPTimeout/time.Second) {
		t.Fatalf("unexpected external HTTP timeout default: %d", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.Location == nil || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm_provider: "anthropic"
anthropic_api_key: "yaml-anthropic"
db_path: "/tmp/yaml.db"
output_dir: "/tmp/yaml-results"
scan_order: "preserve"
scan_source: "yaml-source"
checkpoint_every: 10
external_http_timeout_seconds: 75
timezone: "America/Los_Angeles"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_PATH", cfgPath)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("DB_PATH", "/tmp/env.db")
	t.Setenv("SCAN_EXHAUSTIVE", "true")
	t.Setenv("EXTERNAL_HTTP_TIMEOUT_SECONDS", "120")

	cfg := LoadConfig()

	if cfg.LLMProvider != "openai" {
		t.Fatalf("env must override yaml provider, got %q", cfg.LLMProvider)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("env must override yaml db path, got %q", cfg.DBPath)
	}
	if cfg.OutputDir != "/tmp/yaml-results" {
		t.Fatalf("yaml value must survive when no env override, got %q", cfg.OutputDir)
	}
	if cfg.ScanOrder != "preserve" {
		t.Fatalf("unexpected scan order: %q", cfg.ScanOrder)
	}
	if cfg.ScanSource != "yaml-source" {
		t.Fatalf("unexpected scan source: %q", cfg.ScanSource)
	}
	if !cfg.ScanExhaustive {
		t.Fatal("SCAN_EXHAUSTIVE=true must set exhaustive mode")
	}
	if cfg.CheckpointEvery != 10 {
		t.Fatalf("unexpected checkpoint cadence: %d", cfg.CheckpointEvery)
	}
	if cfg.ExternalHTTPTimeoutSeconds != 120 {
		t.Fatalf("env must override yaml timeout, got %d", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.Location == nil || cfg.Location.String() != "America/Los_Angeles" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{LLMProvider: "ollama", ScanOrder: "shuffle"}
	if err := valid.validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"anthropic without key", Config{LLMProvider: "anthropic", ScanOrder: "shuffle"}},
		{"openai without key", Config{LLMProvider: "openai", ScanOrder: "shuffle"}},
		{"unknown provider", Config{LLMProvider: "bard", ScanOrder: "shuffle"}},
		{"bad scan order", Config{LLMProvider: "ollama", ScanOrder: "random"}},
		{"half-configured battle", Config{LLMProvider: "ollama", ScanOrder: "shuffle", BattleSideASource: "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestBattleConfigured(t *testing.T) {
	cfg := Config{BattleSideASource: "a", BattleSideBSource: "b"}
	if !cfg.BattleConfigured() {
		t.Error("both sides set must report configured")
	}
	if (Config{}).BattleConfigured() {
		t.Error("no sides set must report not configured")
	}
}
