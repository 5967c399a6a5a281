package app

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"commentsieve/internal/config"
	"commentsieve/internal/engine"
	"commentsieve/internal/storage/sqlite"
)

// containsClassifier labels 1 when the text contains the category name.
type containsClassifier struct{}

func (containsClassifier) Classify(ctx context.Context, text string, cat engine.Category) (int, error) {
	if strings.Contains(text, cat.Name) {
		return 1, nil
	}
	return 0, nil
}

func (c containsClassifier) ClassifyBatch(ctx context.Context, texts []string, cat engine.Category) ([]int, error) {
	out := make([]int, len(texts))
	for i, text := range texts {
		out[i], _ = c.Classify(ctx, text, cat)
	}
	return out, nil
}

func seedComments(t *testing.T, db *sql.DB, source string, texts ...string) {
	t.Helper()
	comments := make([]sqlite.Comment, len(texts))
	for i, text := range texts {
		comments[i] = sqlite.Comment{Text: text, Source: source}
	}
	if _, err := sqlite.InsertComments(db, comments); err != nil {
		t.Fatalf("seeding comments: %v", err)
	}
}

func testRunConfig(t *testing.T) (config.Config, *sql.DB) {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.InitDB(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return config.Config{
		OutputDir:       filepath.Join(dir, "results"),
		ScanSource:      "main",
		ScanOrder:       "preserve",
		CheckpointEvery: 5,
	}, db
}

func TestRunAllScans(t *testing.T) {
	cfg, db := testRunConfig(t)
	seedComments(t, db, "main", "pure spam", "harmless", "spam again", "also fine")

	cats := &config.CategoryFile{Categories: []config.CategoryEntry{
		{Name: "spam", Description: "unsolicited advertising", TargetPositive: 2, TargetNegative: 1},
	}}

	result, err := RunAllScans(context.Background(), cfg, db, containsClassifier{}, cats, nil)
	if err != nil {
		t.Fatalf("RunAllScans: %v", err)
	}
	if result.Categories != 1 || result.Satisfied != 1 || result.Exhausted != 0 {
		t.Errorf("result = %+v, want 1 category satisfied", result)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}

	runs, err := sqlite.ListScanRuns(db, "spam", 0)
	if err != nil {
		t.Fatalf("ListScanRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("recorded runs = %d, want 1", len(runs))
	}
	if !runs[0].Satisfied || runs[0].CountPositive != 2 || runs[0].CountNegative != 1 {
		t.Errorf("recorded run = %+v, want satisfied 2/1", runs[0])
	}
	if runs[0].OutputPath == "" {
		t.Error("recorded run has no output path")
	}
}

func TestRunAllScansEmptyCorpus(t *testing.T) {
	cfg, db := testRunConfig(t)
	cats := &config.CategoryFile{Categories: []config.CategoryEntry{
		{Name: "spam", Description: "ads", TargetPositive: 1, TargetNegative: 1},
	}}

	if _, err := RunAllScans(context.Background(), cfg, db, containsClassifier{}, cats, nil); err == nil {
		t.Error("empty corpus must error")
	}
}

func TestRunBattle(t *testing.T) {
	cfg, db := testRunConfig(t)
	cfg.BattleSideASource = "side-a"
	cfg.BattleSideBSource = "side-b"
	seedComments(t, db, "side-a", "spam here", "spam there")
	seedComments(t, db, "side-b", "all clean", "still clean")

	cats := &config.CategoryFile{Categories: []config.CategoryEntry{
		{Name: "spam", Description: "unsolicited advertising"},
	}}

	res, err := RunBattle(context.Background(), cfg, db, containsClassifier{}, cats, nil)
	if err != nil {
		t.Fatalf("RunBattle: %v", err)
	}
	if res.Winner != "side-a" {
		t.Errorf("winner = %q, want side-a", res.Winner)
	}

	stored, err := sqlite.LoadBattleRun(db, mustLastBattleID(t, db))
	if err != nil {
		t.Fatalf("LoadBattleRun: %v", err)
	}
	if stored.Winner != "side-a" {
		t.Errorf("stored winner = %q, want side-a", stored.Winner)
	}
}

func mustLastBattleID(t *testing.T, db *sql.DB) string {
	t.Helper()
	var id string
	if err := db.QueryRow(`SELECT id FROM battle_runs ORDER BY finished_at DESC LIMIT 1`).Scan(&id); err != nil {
		t.Fatalf("querying battle id: %v", err)
	}
	return id
}

func TestFormatScanSummary(t *testing.T) {
	got := FormatScanSummary(ScanResult{Categories: 3, Satisfied: 2, Exhausted: 1})
	if got != "3 categories: 2 satisfied, 1 exhausted" {
		t.Errorf("summary = %q", got)
	}

	withErrors := FormatScanSummary(ScanResult{Categories: 1, Errors: []string{"spam: boom"}})
	if !strings.Contains(withErrors, "Warnings:") || !strings.Contains(withErrors, "spam: boom") {
		t.Errorf("summary with errors = %q", withErrors)
	}
}
