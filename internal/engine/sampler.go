package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"commentsieve/internal/progress"
)

// OrderMode selects how the remaining corpus positions are visited.
type OrderMode int

const (
	// OrderShuffle visits unprocessed positions in random order. This is
	// the exploration default: quota scans should not be biased by corpus
	// ordering.
	OrderShuffle OrderMode = iota
	// OrderPreserve keeps the original corpus order, for pre-filtered or
	// pre-sorted item lists whose relative order matters.
	OrderPreserve
)

// SamplerConfig configures one quota scan.
type SamplerConfig struct {
	Category       Category
	TargetPositive int
	TargetNegative int
	Order          OrderMode
	// Exhaustive classifies every item instead of stopping at the quota;
	// progress is then measured against corpus size.
	Exhaustive bool
	// CheckpointEvery flushes the checkpoint after this many newly
	// accumulated results. Defaults to 5.
	CheckpointEvery int
	// Shuffle overrides the shuffle function; tests inject a deterministic
	// one. Nil uses math/rand.
	Shuffle func(ids []int)
}

// ScanReport is the final state of a quota scan.
type ScanReport struct {
	Category       string
	TargetPositive int
	TargetNegative int
	CountPositive  int
	CountNegative  int
	Processed      int
	Satisfied      bool
	Results        []ResultRow
	Elapsed        time.Duration
}

// QuotaSampler scans one corpus for one category until the positive and
// negative quotas are both met or the corpus is exhausted, checkpointing as
// it goes. One sampler instance owns its checkpoint key for the duration of
// a run; concurrent scans against the same key are the caller's bug.
type QuotaSampler struct {
	classifier Classifier
	store      CheckpointStore
	cfg        SamplerConfig
}

func NewQuotaSampler(classifier Classifier, store CheckpointStore, cfg SamplerConfig) *QuotaSampler {
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = 5
	}
	return &QuotaSampler{classifier: classifier, store: store, cfg: cfg}
}

func (s *QuotaSampler) validate(corpus Corpus) error {
	if s.classifier == nil {
		return configErrorf("classifier is nil")
	}
	if s.store == nil {
		return configErrorf("checkpoint store is nil")
	}
	if corpus == nil {
		return configErrorf("corpus is nil")
	}
	if strings.TrimSpace(s.cfg.Category.Name) == "" {
		return configErrorf("category name is empty")
	}
	if strings.TrimSpace(s.cfg.Category.Description) == "" {
		return configErrorf("category %q has no description", s.cfg.Category.Name)
	}
	if s.cfg.TargetPositive < 0 || s.cfg.TargetNegative < 0 {
		return configErrorf("category %q has negative targets (%d positive, %d negative)",
			s.cfg.Category.Name, s.cfg.TargetPositive, s.cfg.TargetNegative)
	}
	return nil
}

// Run executes the scan. It resumes from a stored checkpoint when one exists
// for the same (category, targets) tuple, never reclassifying an already
// processed position. Cancellation is honored between items; the checkpoint
// is flushed before returning so a restart resumes exactly where it left off.
func (s *QuotaSampler) Run(ctx context.Context, corpus Corpus, tracker *progress.Tracker) (*ScanReport, error) {
	if err := s.validate(corpus); err != nil {
		return nil, err
	}

	start := time.Now()
	cp := s.loadOrInit()
	processed := make(map[int]bool, len(cp.ProcessedIDs))
	for _, id := range cp.ProcessedIDs {
		processed[id] = true
	}

	remaining := make([]int, 0, corpus.Len())
	for id := 0; id < corpus.Len(); id++ {
		if !processed[id] {
			remaining = append(remaining, id)
		}
	}
	if s.cfg.Order == OrderShuffle {
		shuffle := s.cfg.Shuffle
		if shuffle == nil {
			shuffle = func(ids []int) {
				rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
			}
		}
		shuffle(remaining)
	}

	log.Printf("scan start category=%s targets=%d/%d resumed_positive=%d resumed_negative=%d remaining=%d",
		cp.Category, cp.TargetPositive, cp.TargetNegative, cp.CountPositive, cp.CountNegative, len(remaining))

	var runErr error
	for _, id := range remaining {
		state := quotaStateOf(cp.CountPositive, cp.TargetPositive, cp.CountNegative, cp.TargetNegative)
		if !s.cfg.Exhaustive && state == quotaSatisfied {
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		text := corpus.ItemAt(id)
		if strings.TrimSpace(text) == "" {
			s.markProcessed(cp, processed, id)
			continue
		}

		label, err := s.classifier.Classify(ctx, text, s.cfg.Category)
		if err != nil {
			// Per-item failures never abort the scan; fall back to the
			// safe default label.
			log.Printf("scan classify error category=%s id=%d err=%v (defaulting to 0)", cp.Category, id, err)
			label = 0
		}

		if !s.cfg.Exhaustive && discardLabel(state, label) {
			s.markProcessed(cp, processed, id)
			continue
		}

		cp.Results = append(cp.Results, ResultRow{Category: cp.Category, Text: text, Label: label})
		if label == 1 {
			cp.CountPositive++
		} else {
			cp.CountNegative++
		}
		s.markProcessed(cp, processed, id)
		s.reportProgress(cp, corpus, tracker)

		if len(cp.Results)%s.cfg.CheckpointEvery == 0 {
			if err := s.flush(cp); err != nil {
				return s.report(cp, start), err
			}
		}
	}

	if err := s.flush(cp); err != nil && runErr == nil {
		runErr = err
	}

	rep := s.report(cp, start)
	if runErr != nil {
		tracker.Fail(runErr.Error())
		return rep, runErr
	}
	tracker.Complete(fmt.Sprintf("category=%s positive=%d/%d negative=%d/%d processed=%d",
		rep.Category, rep.CountPositive, rep.TargetPositive, rep.CountNegative, rep.TargetNegative, rep.Processed))
	return rep, nil
}

func (s *QuotaSampler) loadOrInit() *Checkpoint {
	key := CheckpointKey{
		Category:       s.cfg.Category.Name,
		TargetPositive: s.cfg.TargetPositive,
		TargetNegative: s.cfg.TargetNegative,
	}
	cp, err := s.store.Load(key)
	switch {
	case errors.Is(err, ErrCheckpointNotFound):
	case err != nil:
		log.Printf("scan checkpoint unreadable category=%s err=%v (starting fresh)", key.Category, err)
	case cp.Key() != key:
		log.Printf("scan checkpoint mismatch category=%s stored_targets=%d/%d want=%d/%d (starting fresh)",
			key.Category, cp.TargetPositive, cp.TargetNegative, key.TargetPositive, key.TargetNegative)
	default:
		return cp
	}
	return &Checkpoint{
		Category:       key.Category,
		TargetPositive: key.TargetPositive,
		TargetNegative: key.TargetNegative,
	}
}

func (s *QuotaSampler) markProcessed(cp *Checkpoint, processed map[int]bool, id int) {
	if processed[id] {
		return
	}
	processed[id] = true
	cp.ProcessedIDs = append(cp.ProcessedIDs, id)
}

func (s *QuotaSampler) reportProgress(cp *Checkpoint, corpus Corpus, tracker *progress.Tracker) {
	var fraction float64
	var done, total int
	if s.cfg.Exhaustive {
		done, total = len(cp.ProcessedIDs), corpus.Len()
	} else {
		done, total = cp.CountPositive+cp.CountNegative, cp.TargetPositive+cp.TargetNegative
	}
	if total > 0 {
		fraction = float64(done) / float64(total)
	}
	eta, ok := tracker.ETA(done, total)
	tracker.Update(fraction, fmt.Sprintf("category=%s positive=%d/%d negative=%d/%d eta=%s",
		cp.Category, cp.CountPositive, cp.TargetPositive, cp.CountNegative, cp.TargetNegative, progress.FormatETA(eta, ok)))
}

func (s *QuotaSampler) flush(cp *Checkpoint) error {
	cp.Timestamp = time.Now()
	if err := s.store.Save(cp); err != nil {
		return fmt.Errorf("saving checkpoint for category %q: %w", cp.Category, err)
	}
	return nil
}

func (s *QuotaSampler) report(cp *Checkpoint, start time.Time) *ScanReport {
	return &ScanReport{
		Category:       cp.Category,
		TargetPositive: cp.TargetPositive,
		TargetNegative: cp.TargetNegative,
		CountPositive:  cp.CountPositive,
		CountNegative:  cp.CountNegative,
		Processed:      len(cp.ProcessedIDs),
		Satisfied:      quotaStateOf(cp.CountPositive, cp.TargetPositive, cp.CountNegative, cp.TargetNegative) == quotaSatisfied,
		Results:        cp.Results,
		Elapsed:        time.Since(start),
	}
}
