package app

import (
	"context"
	"log"
	"os"
	"time"

	"commentsieve/internal/classify"
	"commentsieve/internal/config"
	"commentsieve/internal/httpx"
	"commentsieve/internal/notify"
	"commentsieve/internal/storage/sqlite"
)

func Main() {
	cfg := config.LoadConfig()
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Provider=%s Model=%s ScanSource=%s ScanOrder=%s Exhaustive=%t CheckpointEvery=%d Timezone=%s ExternalHTTPTimeout=%s",
		cfg.LLMProvider,
		cfg.LLMModel,
		cfg.ScanSource,
		cfg.ScanOrder,
		cfg.ScanExhaustive,
		cfg.CheckpointEvery,
		cfg.Timezone,
		appliedHTTPTimeout,
	)

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	log.Printf("Database initialized at %s", cfg.DBPath)
	defer db.Close()

	os.MkdirAll(cfg.OutputDir, 0755)
	log.Printf("Output dir: %s", cfg.OutputDir)

	cats, err := config.LoadCategoryFile(cfg.CategoriesPath)
	if err != nil {
		log.Fatalf("Failed to load categories from %s: %v", cfg.CategoriesPath, err)
	}
	if err := cats.Validate(); err != nil {
		log.Fatalf("Invalid categories file %s: %v", cfg.CategoriesPath, err)
	}
	log.Printf("Loaded %d categories from %s", len(cats.Categories), cfg.CategoriesPath)

	classifier, err := classify.New(classify.Config{
		Provider:        cfg.LLMProvider,
		Model:           cfg.LLMModel,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OllamaURL:       cfg.OllamaURL,
		MaxRetries:      cfg.LLMMaxRetries,
		RetryDelay:      time.Duration(cfg.LLMRetryDelaySeconds) * time.Second,
	})
	if err != nil {
		log.Fatalf("Failed to build classifier: %v", err)
	}
	if cfg.LLMProvider == "ollama" {
		pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := classifier.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Fatalf("Ollama unreachable: %v", err)
		}
		log.Printf("Ollama reachable at %s", cfg.OllamaURL)
	}

	notifier := notify.New(cfg.SlackBotToken, cfg.SlackChannelID)

	if cfg.ImportJSONPath != "" {
		inserted, err := sqlite.ImportCommentsJSON(db, cfg.ImportJSONPath, cfg.ScanSource)
		if err != nil {
			log.Fatalf("Failed to import comments from %s: %v", cfg.ImportJSONPath, err)
		}
		log.Printf("Imported %d comments from %s into source=%s", inserted, cfg.ImportJSONPath, cfg.ScanSource)
	}

	ctx := context.Background()

	if cfg.BattleConfigured() {
		res, err := RunBattle(ctx, cfg, db, classifier, cats, notifier)
		if err != nil {
			log.Fatalf("Battle failed: %v", err)
		}
		log.Printf("Battle complete: winner=%s elapsed=%s", res.Winner, res.Elapsed.Round(time.Second))
		return
	}

	if cfg.ScanSchedule != "" {
		StartScanScheduler(cfg, db, classifier, cats, notifier)
		log.Println("Scheduler running; waiting for scheduled scans...")
		select {}
	}

	if cfg.ScanSource == "" {
		log.Fatalf("Nothing to do: set scan_source, scan_schedule, or the battle sources")
	}
	result, err := RunAllScans(ctx, cfg, db, classifier, cats, notifier)
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}
	log.Printf("Scan complete: %s", FormatScanSummary(result))
}
