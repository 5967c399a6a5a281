package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"commentsieve/internal/engine"
)

// WriteScanCSV writes a finished scan's collected rows to
// <category>_<timestamp>.csv under dir and returns the file path.
func WriteScanCSV(dir string, rep *engine.ScanReport) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.csv", safeFileName(rep.Category), time.Now().Format("20060102_1504"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating results file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"category", "comment", "label"}); err != nil {
		return "", err
	}
	for _, row := range rep.Results {
		if err := w.Write([]string{row.Category, row.Text, strconv.Itoa(row.Label)}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("writing results csv: %w", err)
	}
	return path, nil
}

// safeFileName keeps letters and digits and replaces everything else with
// underscores, so category names are safe as file names.
func safeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
