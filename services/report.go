package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/musss2003/price-predictor-app/models"
)

// SourceReport pairs one source's crawl counters with its sync outcome.
type SourceReport struct {
	Run     models.RunStats
	Sync    SourceResult
	Expired int64
}

// Reporter renders the end-of-run summary.
type Reporter struct{}

// NewReporter creates a Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Totals folds per-source reports into one SyncStats record.
func (r *Reporter) Totals(sources []SourceReport) models.SyncStats {
	var stats models.SyncStats
	stats.SourcesSynced = len(sources)
	for _, s := range sources {
		stats.TotalScraped += s.Run.Extracted
		stats.TotalInserted += s.Sync.Inserted
		stats.TotalUpdated += s.Sync.Updated
		stats.TotalUnchanged += s.Sync.Unchanged
		stats.TotalExpired += int(s.Expired)
		stats.TotalErrors += s.Run.Errored + s.Sync.Errors
	}
	return stats
}

// Print writes the run summary to stdout.
func (r *Reporter) Print(stats *models.SyncStats, sources []SourceReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🏠 LISTING SYNC SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	for _, s := range sources {
		fmt.Printf("\033[1;33m  %s\033[0m\n", s.Run.Source)
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  Pages crawled   : \033[1m%d\033[0m\n", s.Run.Pages)
		fmt.Printf("  Links found     : \033[1m%d\033[0m (%d already seen)\n", s.Run.Found, s.Run.Duplicate)
		fmt.Printf("  Extracted       : \033[1m%d\033[0m (%d skipped, %d errors)\n",
			s.Run.Extracted, s.Run.Skipped, s.Run.Errored)
		fmt.Printf("  Inserted        : \033[1;32m%d\033[0m\n", s.Sync.Inserted)
		fmt.Printf("  Updated         : \033[1;32m%d\033[0m\n", s.Sync.Updated)
		fmt.Printf("  Unchanged       : %d\n", s.Sync.Unchanged)
		fmt.Printf("  Marked inactive : %d\n", s.Expired)
		if s.Sync.Errors > 0 {
			fmt.Printf("  Sync errors     : \033[1;31m%d\033[0m\n", s.Sync.Errors)
		}
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Totals\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Sources synced  : \033[1m%d\033[0m\n", stats.SourcesSynced)
	fmt.Printf("  Scraped         : \033[1m%d\033[0m\n", stats.TotalScraped)
	fmt.Printf("  Inserted        : \033[1;32m%d\033[0m\n", stats.TotalInserted)
	fmt.Printf("  Updated         : \033[1;32m%d\033[0m\n", stats.TotalUpdated)
	fmt.Printf("  Unchanged       : %d\n", stats.TotalUnchanged)
	fmt.Printf("  Marked inactive : %d\n", stats.TotalExpired)
	fmt.Printf("  Errors          : %d\n", stats.TotalErrors)
	fmt.Printf("  Duration        : %s\n", stats.Duration().Round(time.Second))

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}
