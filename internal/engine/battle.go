package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"commentsieve/internal/progress"
)

const (
	// DefaultBattleSampleSize bounds how many comments per side are
	// classified in a comparison.
	DefaultBattleSampleSize = 30
	// DefaultBattleBatchSize is how many comments go into one classifier
	// call.
	DefaultBattleBatchSize = 5

	matrixTextLimit = 100
	sampleTextLimit = 150
	maxSamples      = 3
)

// BattleConfig configures a dual-corpus comparison.
type BattleConfig struct {
	Categories []Category
	SideALabel string
	SideBLabel string
	// SampleSize truncates each side to at most this many comments.
	// Defaults to DefaultBattleSampleSize.
	SampleSize int
	// BatchSize is the number of comments per classifier call. Defaults to
	// DefaultBattleBatchSize.
	BatchSize int
}

// ClassificationRecord is one row of a side's classification matrix:
// a truncated comment plus its label for every category.
type ClassificationRecord struct {
	Text   string         `json:"text"`
	Labels map[string]int `json:"labels"`
}

// CategoryComparison is the head-to-head outcome for one category.
type CategoryComparison struct {
	CategoryName string   `json:"category"`
	SideACount   int      `json:"side_a_count"`
	SideAPercent float64  `json:"side_a_percent"`
	SideBCount   int      `json:"side_b_count"`
	SideBPercent float64  `json:"side_b_percent"`
	SideASamples []string `json:"side_a_samples"`
	SideBSamples []string `json:"side_b_samples"`
}

// BattleResult is the immutable outcome of one comparison run.
type BattleResult struct {
	SideALabel      string                        `json:"side_a_label"`
	SideBLabel      string                        `json:"side_b_label"`
	SideATotalItems int                           `json:"side_a_total_items"`
	SideBTotalItems int                           `json:"side_b_total_items"`
	Categories      map[string]CategoryComparison `json:"categories"`
	CategoryOrder   []string                      `json:"category_order"`
	Winner          string                        `json:"winner"`
	Summary         string                        `json:"summary"`
	SideAMatrix     []ClassificationRecord        `json:"side_a_matrix"`
	SideBMatrix     []ClassificationRecord        `json:"side_b_matrix"`
	Elapsed         time.Duration                 `json:"-"`
}

// WinnerTie is the Winner value when both sides score equal.
const WinnerTie = "tie"

// BattleComparator classifies bounded samples from two corpora against the
// same category set and computes per-category and overall winners.
type BattleComparator struct {
	classifier Classifier
	cfg        BattleConfig
}

func NewBattleComparator(classifier Classifier, cfg BattleConfig) *BattleComparator {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultBattleSampleSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBattleBatchSize
	}
	if cfg.SideALabel == "" {
		cfg.SideALabel = "side A"
	}
	if cfg.SideBLabel == "" {
		cfg.SideBLabel = "side B"
	}
	return &BattleComparator{classifier: classifier, cfg: cfg}
}

func (b *BattleComparator) validate() error {
	if b.classifier == nil {
		return configErrorf("classifier is nil")
	}
	if len(b.cfg.Categories) == 0 {
		return configErrorf("no categories to compare")
	}
	seen := make(map[string]bool, len(b.cfg.Categories))
	for _, cat := range b.cfg.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return configErrorf("category with empty name")
		}
		if strings.TrimSpace(cat.Description) == "" {
			return configErrorf("category %q has no description", cat.Name)
		}
		if seen[cat.Name] {
			return configErrorf("duplicate category %q", cat.Name)
		}
		seen[cat.Name] = true
	}
	return nil
}

// Compare runs the full comparison. Batches are processed sequentially so
// the matrix fill order and progress fraction stay deterministic.
func (b *BattleComparator) Compare(ctx context.Context, sideA, sideB []string, tracker *progress.Tracker) (*BattleResult, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	sampleA := truncateSample(sideA, b.cfg.SampleSize)
	sampleB := truncateSample(sideB, b.cfg.SampleSize)

	res := &BattleResult{
		SideALabel:      b.cfg.SideALabel,
		SideBLabel:      b.cfg.SideBLabel,
		SideATotalItems: len(sideA),
		SideBTotalItems: len(sideB),
		Categories:      make(map[string]CategoryComparison, len(b.cfg.Categories)),
		SideAMatrix:     newMatrix(sampleA),
		SideBMatrix:     newMatrix(sampleB),
	}

	totalBatches := len(b.cfg.Categories) * (batchCount(len(sampleA), b.cfg.BatchSize) + batchCount(len(sampleB), b.cfg.BatchSize))
	processedBatches := 0

	var scoreA, scoreB float64
	for _, cat := range b.cfg.Categories {
		res.CategoryOrder = append(res.CategoryOrder, cat.Name)

		countA, samplesA, err := b.classifySide(ctx, cat, b.cfg.SideALabel, sampleA, res.SideAMatrix, tracker, &processedBatches, totalBatches)
		if err != nil {
			tracker.Fail(err.Error())
			return nil, err
		}
		countB, samplesB, err := b.classifySide(ctx, cat, b.cfg.SideBLabel, sampleB, res.SideBMatrix, tracker, &processedBatches, totalBatches)
		if err != nil {
			tracker.Fail(err.Error())
			return nil, err
		}

		cmp := CategoryComparison{
			CategoryName: cat.Name,
			SideACount:   countA,
			SideAPercent: percent(countA, len(sampleA)),
			SideBCount:   countB,
			SideBPercent: percent(countB, len(sampleB)),
			SideASamples: samplesA,
			SideBSamples: samplesB,
		}
		res.Categories[cat.Name] = cmp
		scoreA += cmp.SideAPercent
		scoreB += cmp.SideBPercent

		log.Printf("battle category=%s %s=%d(%.1f%%) %s=%d(%.1f%%)",
			cat.Name, res.SideALabel, cmp.SideACount, cmp.SideAPercent, res.SideBLabel, cmp.SideBCount, cmp.SideBPercent)
	}

	switch {
	case scoreA > scoreB:
		res.Winner = res.SideALabel
	case scoreB > scoreA:
		res.Winner = res.SideBLabel
	default:
		res.Winner = WinnerTie
	}
	res.Summary = buildSummary(res)
	res.Elapsed = time.Since(start)

	tracker.Complete(fmt.Sprintf("winner=%s categories=%d", res.Winner, len(b.cfg.Categories)))
	return res, nil
}

func (b *BattleComparator) classifySide(
	ctx context.Context,
	cat Category,
	sideLabel string,
	sample []string,
	matrix []ClassificationRecord,
	tracker *progress.Tracker,
	processedBatches *int,
	totalBatches int,
) (int, []string, error) {
	matched := 0
	var samples []string

	for startIdx := 0; startIdx < len(sample); startIdx += b.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return matched, samples, err
		}
		end := startIdx + b.cfg.BatchSize
		if end > len(sample) {
			end = len(sample)
		}

		labels, err := b.classifier.ClassifyBatch(ctx, sample[startIdx:end], cat)
		if err != nil {
			// Absorbed like the sampler: the whole batch keeps the default
			// label.
			log.Printf("battle classify error side=%s category=%s batch=%d err=%v (defaulting to 0)", sideLabel, cat.Name, startIdx, err)
			labels = make([]int, end-startIdx)
		}
		for j, label := range labels {
			idx := startIdx + j
			matrix[idx].Labels[cat.Name] = label
			if label == 1 {
				matched++
				if len(samples) < maxSamples {
					samples = append(samples, truncateText(sample[idx], sampleTextLimit))
				}
			}
		}

		*processedBatches++
		if totalBatches > 0 {
			eta, ok := tracker.ETA(*processedBatches, totalBatches)
			tracker.Update(float64(*processedBatches)/float64(totalBatches),
				fmt.Sprintf("side=%s category=%s batch=%d/%d eta=%s",
					sideLabel, cat.Name, *processedBatches, totalBatches, progress.FormatETA(eta, ok)))
		}
	}
	return matched, samples, nil
}

// buildSummary iterates categories in declared order so the text is
// deterministic for a deterministic classifier.
func buildSummary(res *BattleResult) string {
	var lines []string
	for _, name := range res.CategoryOrder {
		c := res.Categories[name]
		switch {
		case c.SideAPercent > c.SideBPercent:
			lines = append(lines, fmt.Sprintf("%s: %s leads (%.1f%% vs %.1f%%)", name, res.SideALabel, c.SideAPercent, c.SideBPercent))
		case c.SideBPercent > c.SideAPercent:
			lines = append(lines, fmt.Sprintf("%s: %s leads (%.1f%% vs %.1f%%)", name, res.SideBLabel, c.SideBPercent, c.SideAPercent))
		default:
			lines = append(lines, fmt.Sprintf("%s: tied (%.1f%%)", name, c.SideAPercent))
		}
	}
	return strings.Join(lines, "\n")
}

func truncateSample(comments []string, limit int) []string {
	if len(comments) <= limit {
		return comments
	}
	return comments[:limit]
}

func newMatrix(sample []string) []ClassificationRecord {
	matrix := make([]ClassificationRecord, len(sample))
	for i, text := range sample {
		matrix[i] = ClassificationRecord{
			Text:   truncateText(text, matrixTextLimit),
			Labels: make(map[string]int),
		}
	}
	return matrix
}

func truncateText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func percent(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total) * 100
}

func batchCount(n, batchSize int) int {
	if n == 0 {
		return 0
	}
	return (n + batchSize - 1) / batchSize
}
