package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"commentsieve/internal/classify"
	"commentsieve/internal/config"
	"commentsieve/internal/engine"
	"commentsieve/internal/notify"
	"commentsieve/internal/progress"
	"commentsieve/internal/report"
	"commentsieve/internal/storage/sqlite"
)

// ScanResult tracks per-category outcomes of one full scan pass.
type ScanResult struct {
	Categories int
	Satisfied  int
	Exhausted  int
	Errors     []string
}

// RunAllScans samples the configured source corpus against every category
// in the category file, one category at a time, checkpointing as it goes.
// It has no Slack dependency so it can be called from both the CLI path
// and the scheduler.
func RunAllScans(ctx context.Context, cfg config.Config, db *sql.DB, classifier engine.Classifier, cats *config.CategoryFile, notifier *notify.Notifier) (ScanResult, error) {
	texts, err := sqlite.CommentTextsBySource(db, cfg.ScanSource)
	if err != nil {
		return ScanResult{}, fmt.Errorf("loading corpus: %w", err)
	}
	if len(texts) == 0 {
		return ScanResult{}, fmt.Errorf("no comments for source %q", cfg.ScanSource)
	}
	log.Printf("scan source=%s comments=%d categories=%d", cfg.ScanSource, len(texts), len(cats.Categories))

	corpus := engine.SliceCorpus(texts)
	store := sqlite.NewCheckpointStore(db)

	order := engine.OrderShuffle
	if cfg.ScanOrder == "preserve" {
		order = engine.OrderPreserve
	}

	var result ScanResult
	for _, entry := range cats.Categories {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Categories++

		sampler := engine.NewQuotaSampler(classifier, store, engine.SamplerConfig{
			Category:        engine.Category{Name: entry.Name, Description: entry.Description},
			TargetPositive:  entry.TargetPositive,
			TargetNegative:  entry.TargetNegative,
			Order:           order,
			Exhaustive:      cfg.ScanExhaustive,
			CheckpointEvery: cfg.CheckpointEvery,
		})

		tracker := progress.NewTracker(func(fraction float64, status string) {
			log.Printf("scan progress=%.0f%% %s", fraction*100, status)
		})

		rep, err := sampler.Run(ctx, corpus, tracker)
		if err != nil {
			log.Printf("scan error category=%s err=%v", entry.Name, err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.Name, err))
			continue
		}
		if rep.Satisfied {
			result.Satisfied++
		} else {
			result.Exhausted++
		}

		outputPath, err := report.WriteScanCSV(cfg.OutputDir, rep)
		if err != nil {
			log.Printf("scan csv error category=%s err=%v", entry.Name, err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.Name, err))
		} else {
			log.Printf("scan results written category=%s path=%s", entry.Name, outputPath)
		}

		runID, err := sqlite.InsertScanRun(db, rep, outputPath)
		if err != nil {
			log.Printf("scan run insert error category=%s err=%v", entry.Name, err)
		} else {
			log.Printf("scan run recorded id=%s category=%s", runID, entry.Name)
		}

		notifier.PostScanSummary(rep.Category, rep.CountPositive, rep.TargetPositive,
			rep.CountNegative, rep.TargetNegative, rep.Processed, rep.Satisfied)
	}

	logClassifierStats(classifier)
	return result, nil
}

// RunBattle compares the two configured source corpora and writes a
// markdown report plus a database record.
func RunBattle(ctx context.Context, cfg config.Config, db *sql.DB, classifier engine.Classifier, cats *config.CategoryFile, notifier *notify.Notifier) (*engine.BattleResult, error) {
	sideA, err := sqlite.CommentTextsBySource(db, cfg.BattleSideASource)
	if err != nil {
		return nil, fmt.Errorf("loading side A corpus: %w", err)
	}
	sideB, err := sqlite.CommentTextsBySource(db, cfg.BattleSideBSource)
	if err != nil {
		return nil, fmt.Errorf("loading side B corpus: %w", err)
	}
	log.Printf("battle %s=%d comments vs %s=%d comments", cfg.BattleSideASource, len(sideA), cfg.BattleSideBSource, len(sideB))

	categories := make([]engine.Category, 0, len(cats.Categories))
	for _, entry := range cats.Categories {
		categories = append(categories, engine.Category{Name: entry.Name, Description: entry.Description})
	}

	comparator := engine.NewBattleComparator(classifier, engine.BattleConfig{
		Categories: categories,
		SideALabel: cfg.BattleSideASource,
		SideBLabel: cfg.BattleSideBSource,
		SampleSize: cfg.BattleSampleSize,
		BatchSize:  cfg.BattleBatchSize,
	})

	tracker := progress.NewTracker(func(fraction float64, status string) {
		log.Printf("battle progress=%.0f%% %s", fraction*100, status)
	})

	res, err := comparator.Compare(ctx, sideA, sideB, tracker)
	if err != nil {
		return nil, err
	}

	outputPath, err := report.WriteBattleMarkdown(cfg.OutputDir, res)
	if err != nil {
		log.Printf("battle report error: %v", err)
		outputPath = ""
	} else {
		log.Printf("battle report written path=%s", outputPath)
	}

	runID, err := sqlite.InsertBattleRun(db, res, outputPath)
	if err != nil {
		log.Printf("battle run insert error: %v", err)
	} else {
		log.Printf("battle run recorded id=%s winner=%s", runID, res.Winner)
	}

	notifier.PostSummary(fmt.Sprintf("Battle complete: %s vs %s, winner %s\n%s",
		res.SideALabel, res.SideBLabel, res.Winner, res.Summary))
	if outputPath != "" {
		notifier.PostFile(outputPath, fmt.Sprintf("Battle report: %s vs %s", res.SideALabel, res.SideBLabel))
	}

	logClassifierStats(classifier)
	return res, nil
}

// FormatScanSummary renders a ScanResult as a single human-readable line.
func FormatScanSummary(result ScanResult) string {
	msg := fmt.Sprintf("%d categories: %d satisfied, %d exhausted", result.Categories, result.Satisfied, result.Exhausted)
	if len(result.Errors) > 0 {
		msg += fmt.Sprintf("\nWarnings:\n%s", strings.Join(result.Errors, "\n"))
	}
	return msg
}

func logClassifierStats(classifier engine.Classifier) {
	client, ok := classifier.(*classify.Client)
	if !ok {
		return
	}
	usage := client.Usage()
	hits, misses := client.CacheStats()
	log.Printf("classifier usage input=%d output=%d total=%d failures=%d cache_hits=%d cache_misses=%d",
		usage.InputTokens, usage.OutputTokens, usage.TotalTokens(), client.Failures(), hits, misses)
}
