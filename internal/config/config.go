package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultExternalHTTPTimeout = 90 * time.Second

// Config holds everything the service reads at startup. Values come from
// config.yaml, overridden by environment variables, with defaults filled
// last.
type Config struct {
	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OllamaURL       string `yaml:"ollama_url"`

	LLMMaxRetries        int `yaml:"llm_max_retries"`
	LLMRetryDelaySeconds int `yaml:"llm_retry_delay_seconds"`

	DBPath         string `yaml:"db_path"`
	OutputDir      string `yaml:"output_dir"`
	CategoriesPath string `yaml:"categories_path"`

	CheckpointEvery int    `yaml:"checkpoint_every"`
	ScanOrder       string `yaml:"scan_order"` // "shuffle" or "preserve"
	ScanExhaustive  bool   `yaml:"scan_exhaustive"`
	ScanSource      string `yaml:"scan_source"`
	ScanSchedule    string `yaml:"scan_schedule"` // 5-field cron, empty disables

	// ImportJSONPath, when set, imports comments from that JSON file into
	// the scan_source corpus at startup.
	ImportJSONPath string `yaml:"import_json_path"`

	BattleSideASource string `yaml:"battle_side_a_source"`
	BattleSideBSource string `yaml:"battle_side_b_source"`
	BattleSampleSize  int    `yaml:"battle_sample_size"`
	BattleBatchSize   int    `yaml:"battle_batch_size"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`

	ExternalHTTPTimeoutSeconds int    `yaml:"external_http_timeout_seconds"`
	Timezone                   string `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

// LoadConfig reads config.yaml (CONFIG_PATH overrides the location), applies
// env overrides and defaults, and exits on invalid configuration.
func LoadConfig() Config {
	var cfg Config

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.OllamaURL, "OLLAMA_URL")
	envOverrideInt(&cfg.LLMMaxRetries, "LLM_MAX_RETRIES")
	envOverrideInt(&cfg.LLMRetryDelaySeconds, "LLM_RETRY_DELAY_SECONDS")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.OutputDir, "OUTPUT_DIR")
	envOverride(&cfg.CategoriesPath, "CATEGORIES_PATH")
	envOverrideInt(&cfg.CheckpointEvery, "CHECKPOINT_EVERY")
	envOverride(&cfg.ScanOrder, "SCAN_ORDER")
	envOverrideBool(&cfg.ScanExhaustive, "SCAN_EXHAUSTIVE")
	envOverride(&cfg.ScanSource, "SCAN_SOURCE")
	envOverride(&cfg.ScanSchedule, "SCAN_SCHEDULE")
	envOverride(&cfg.ImportJSONPath, "IMPORT_JSON_PATH")
	envOverride(&cfg.BattleSideASource, "BATTLE_SIDE_A_SOURCE")
	envOverride(&cfg.BattleSideBSource, "BATTLE_SIDE_B_SOURCE")
	envOverrideInt(&cfg.BattleSampleSize, "BATTLE_SAMPLE_SIZE")
	envOverrideInt(&cfg.BattleBatchSize, "BATTLE_BATCH_SIZE")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.Timezone, "TIMEZONE")

	// Defaults
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.LLMMaxRetries == 0 {
		cfg.LLMMaxRetries = 3
	}
	if cfg.LLMRetryDelaySeconds == 0 {
		cfg.LLMRetryDelaySeconds = 1
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./commentsieve.db"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./results"
	}
	if cfg.CategoriesPath == "" {
		cfg.CategoriesPath = "./categories.yaml"
	}
	if cfg.CheckpointEvery == 0 {
		cfg.CheckpointEvery = 5
	}
	if cfg.ScanOrder == "" {
		cfg.ScanOrder = "shuffle"
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	if err := cfg.validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Invalid timezone '%s': %v", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg
}

func (c Config) validate() error {
	switch c.LLMProvider {
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("anthropic_api_key is required for llm_provider=anthropic")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("openai_api_key is required for llm_provider=openai")
		}
	case "ollama":
	default:
		return fmt.Errorf("unknown llm_provider %q (want anthropic, openai, or ollama)", c.LLMProvider)
	}
	if c.ScanOrder != "shuffle" && c.ScanOrder != "preserve" {
		return fmt.Errorf("scan_order must be 'shuffle' or 'preserve', got %q", c.ScanOrder)
	}
	if (c.BattleSideASource == "") != (c.BattleSideBSource == "") {
		return fmt.Errorf("battle mode needs both battle_side_a_source and battle_side_b_source")
	}
	return nil
}

// BattleConfigured reports whether both comparison sides are set.
func (c Config) BattleConfigured() bool {
	return c.BattleSideASource != "" && c.BattleSideBSource != ""
}

func envOverride(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func envOverrideInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			log.Fatalf("Invalid %s value '%s': %v", key, v, err)
		}
		*target = n
	}
}

func envOverrideBool(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			log.Fatalf("Invalid %s value '%s': %v", key, v, err)
		}
		*target = b
	}
}
