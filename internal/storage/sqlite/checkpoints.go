package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"commentsieve/internal/engine"
)

// CheckpointStore persists scan checkpoints in the checkpoints table, keyed
// by (category, target_positive, target_negative). INSERT OR REPLACE runs as
// one transaction, so a reader never observes a half-written checkpoint.
type CheckpointStore struct {
	db *sql.DB
}

func NewCheckpointStore(db *sql.DB) *CheckpointStore {
	return &CheckpointStore{db: db}
}

func (s *CheckpointStore) Load(key engine.CheckpointKey) (*engine.Checkpoint, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM checkpoints WHERE category = ? AND target_positive = ? AND target_negative = ?`,
		key.Category, key.TargetPositive, key.TargetNegative,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint for category %q: %w", key.Category, err)
	}

	var cp engine.Checkpoint
	if err := json.Unmarshal([]byte(payload), &cp); err != nil {
		return nil, fmt.Errorf("corrupt checkpoint for category %q: %w", key.Category, err)
	}
	return &cp, nil
}

func (s *CheckpointStore) Save(cp *engine.Checkpoint) error {
	payload, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encoding checkpoint for category %q: %w", cp.Category, err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO checkpoints
		 (category, target_positive, target_negative, count_positive, count_negative, payload, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		cp.Category, cp.TargetPositive, cp.TargetNegative, cp.CountPositive, cp.CountNegative, string(payload),
	)
	if err != nil {
		return fmt.Errorf("writing checkpoint for category %q: %w", cp.Category, err)
	}
	return nil
}

func (s *CheckpointStore) Delete(key engine.CheckpointKey) error {
	_, err := s.db.Exec(
		`DELETE FROM checkpoints WHERE category = ? AND target_positive = ? AND target_negative = ?`,
		key.Category, key.TargetPositive, key.TargetNegative,
	)
	return err
}
