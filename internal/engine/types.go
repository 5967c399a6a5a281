package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Category is one classification criterion. Name is the key; Description is
// sent verbatim to the classifier.
type Category struct {
	Name        string
	Description string
}

// Classifier produces a binary label for a text against a category.
// ClassifyBatch must return one label per input text, in input order.
type Classifier interface {
	Classify(ctx context.Context, text string, cat Category) (int, error)
	ClassifyBatch(ctx context.Context, texts []string, cat Category) ([]int, error)
}

// Corpus is the minimal view a scan needs: a stable count and text lookup by
// position. Position doubles as the item id recorded in checkpoints.
type Corpus interface {
	Len() int
	ItemAt(id int) string
}

// SliceCorpus adapts an in-memory comment list.
type SliceCorpus []string

func (c SliceCorpus) Len() int             { return len(c) }
func (c SliceCorpus) ItemAt(id int) string { return c[id] }

// ResultRow is one collected classification.
type ResultRow struct {
	Category string `json:"category"`
	Text     string `json:"text"`
	Label    int    `json:"label"`
}

// CheckpointKey identifies a resumable scan. Changing any field starts a
// fresh scan.
type CheckpointKey struct {
	Category       string
	TargetPositive int
	TargetNegative int
}

// Checkpoint is the full durable state of a quota scan.
type Checkpoint struct {
	Category       string      `json:"category"`
	TargetPositive int         `json:"target_positive"`
	TargetNegative int         `json:"target_negative"`
	CountPositive  int         `json:"count_positive"`
	CountNegative  int         `json:"count_negative"`
	Results        []ResultRow `json:"results"`
	ProcessedIDs   []int       `json:"processed_ids"`
	Timestamp      time.Time   `json:"timestamp"`
}

// Key returns the checkpoint's identity tuple.
func (c *Checkpoint) Key() CheckpointKey {
	return CheckpointKey{Category: c.Category, TargetPositive: c.TargetPositive, TargetNegative: c.TargetNegative}
}

// ErrCheckpointNotFound is returned by CheckpointStore.Load when no
// checkpoint exists for the key.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// CheckpointStore persists scan state keyed by (category, targets).
// Save must overwrite atomically: a crashed process must never leave a
// half-written checkpoint behind.
type CheckpointStore interface {
	Load(key CheckpointKey) (*Checkpoint, error)
	Save(cp *Checkpoint) error
	Delete(key CheckpointKey) error
}

// ConfigError reports invalid engine inputs. It is surfaced before any
// classifier call is made.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}
