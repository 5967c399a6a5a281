package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"commentsieve/internal/engine"
)

// WriteBattleMarkdown renders a comparison result as a markdown report
// under dir and returns the file path.
func WriteBattleMarkdown(dir string, res *engine.BattleResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	name := fmt.Sprintf("battle_%s_vs_%s_%s.md",
		safeFileName(res.SideALabel), safeFileName(res.SideBLabel), time.Now().Format("20060102_1504"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating battle report: %w", err)
	}
	defer f.Close()

	md := markdown.NewMarkdown(f)

	md.H1(fmt.Sprintf("Battle: %s vs %s", res.SideALabel, res.SideBLabel))
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{res.SideALabel + " comments", strconv.Itoa(res.SideATotalItems)},
			{res.SideBLabel + " comments", strconv.Itoa(res.SideBTotalItems)},
			{"Winner", res.Winner},
		},
	})
	md.PlainText("")

	md.H2("Categories")
	rows := make([][]string, 0, len(res.CategoryOrder))
	for _, catName := range res.CategoryOrder {
		c := res.Categories[catName]
		rows = append(rows, []string{
			catName,
			fmt.Sprintf("%d (%.1f%%)", c.SideACount, c.SideAPercent),
			fmt.Sprintf("%d (%.1f%%)", c.SideBCount, c.SideBPercent),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Category", res.SideALabel, res.SideBLabel},
		Rows:   rows,
	})
	md.PlainText("")

	md.H2("Summary")
	md.PlainText(res.Summary)
	md.PlainText("")

	for _, catName := range res.CategoryOrder {
		c := res.Categories[catName]
		if len(c.SideASamples) == 0 && len(c.SideBSamples) == 0 {
			continue
		}
		md.H2("Samples: " + catName)
		if len(c.SideASamples) > 0 {
			md.PlainText(res.SideALabel + ":")
			md.BulletList(c.SideASamples...)
		}
		if len(c.SideBSamples) > 0 {
			md.PlainText(res.SideBLabel + ":")
			md.BulletList(c.SideBSamples...)
		}
		md.PlainText("")
	}

	if err := md.Build(); err != nil {
		return "", fmt.Errorf("writing battle report: %w", err)
	}
	return path, nil
}
