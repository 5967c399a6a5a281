package app

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"commentsieve/internal/config"
	"commentsieve/internal/engine"
	"commentsieve/internal/notify"
)

// StartScanScheduler starts a cron-based scheduler that periodically runs
// a full scan pass and posts a summary.
// The schedule is a standard 5-field cron expression (minute hour day-of-month month day-of-week).
// Examples: "0 9 * * *" (daily 9am), "0 9 * * 1-5" (weekdays 9am).
func StartScanScheduler(cfg config.Config, db *sql.DB, classifier engine.Classifier, cats *config.CategoryFile, notifier *notify.Notifier) {
	schedule := strings.TrimSpace(cfg.ScanSchedule)
	if schedule == "" {
		log.Println("Scheduled scans disabled (scan_schedule not set)")
		return
	}
	if cfg.ScanSource == "" {
		log.Println("Scheduled scans disabled: scan_source not set")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid scan_schedule '%s': %v, scheduled scans disabled", schedule, err)
		return
	}
	log.Printf("Scans scheduled (cron: %s) source=%s", schedule, cfg.ScanSource)

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next scan at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			result, runErr := RunAllScans(context.Background(), cfg, db, classifier, cats, notifier)
			summary := FormatScanSummary(result)
			if runErr != nil {
				log.Printf("Scheduled scan error: %v", runErr)
				continue
			}
			log.Printf("Scheduled scan complete: %s", summary)
			notifier.PostSummary("Scheduled scan complete: " + summary)
		}
	}()
}
