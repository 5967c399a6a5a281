package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"commentsieve/internal/engine"
)

// ScanRun is one completed quota scan as recorded in history.
type ScanRun struct {
	ID             string
	Category       string
	TargetPositive int
	TargetNegative int
	CountPositive  int
	CountNegative  int
	Processed      int
	Satisfied      bool
	OutputPath     string
	FinishedAt     time.Time
}

// InsertScanRun records a finished scan and returns its generated id.
func InsertScanRun(db *sql.DB, rep *engine.ScanReport, outputPath string) (string, error) {
	id := uuid.New().String()
	_, err := db.Exec(
		`INSERT INTO scan_runs
		 (id, category, target_positive, target_negative, count_positive, count_negative, processed, satisfied, output_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rep.Category, rep.TargetPositive, rep.TargetNegative,
		rep.CountPositive, rep.CountNegative, rep.Processed, boolToInt(rep.Satisfied), outputPath,
	)
	if err != nil {
		return "", fmt.Errorf("recording scan run for category %q: %w", rep.Category, err)
	}
	return id, nil
}

// ListScanRuns returns scan history for one category, newest first.
func ListScanRuns(db *sql.DB, category string, limit int) ([]ScanRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(
		`SELECT id, category, target_positive, target_negative, count_positive, count_negative, processed, satisfied, output_path, finished_at
		 FROM scan_runs WHERE category = ? ORDER BY finished_at DESC LIMIT ?`,
		category, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ScanRun
	for rows.Next() {
		var r ScanRun
		var satisfied int
		if err := rows.Scan(&r.ID, &r.Category, &r.TargetPositive, &r.TargetNegative,
			&r.CountPositive, &r.CountNegative, &r.Processed, &satisfied, &r.OutputPath, &r.FinishedAt); err != nil {
			return nil, err
		}
		r.Satisfied = satisfied != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// InsertBattleRun records a finished comparison, including the full result
// payload for later re-rendering, and returns its generated id.
func InsertBattleRun(db *sql.DB, res *engine.BattleResult, outputPath string) (string, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("encoding battle result: %w", err)
	}
	id := uuid.New().String()
	_, err = db.Exec(
		`INSERT INTO battle_runs (id, side_a, side_b, winner, summary, payload, output_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, res.SideALabel, res.SideBLabel, res.Winner, res.Summary, string(payload), outputPath,
	)
	if err != nil {
		return "", fmt.Errorf("recording battle run: %w", err)
	}
	return id, nil
}

// LoadBattleRun re-reads a stored comparison result by id.
func LoadBattleRun(db *sql.DB, id string) (*engine.BattleResult, error) {
	var payload string
	if err := db.QueryRow(`SELECT payload FROM battle_runs WHERE id = ?`, id).Scan(&payload); err != nil {
		return nil, fmt.Errorf("loading battle run %s: %w", id, err)
	}
	var res engine.BattleResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("corrupt battle run %s: %w", id, err)
	}
	return &res, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
