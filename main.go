package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/musss2003/price-predictor-app/config"
	"github.com/musss2003/price-predictor-app/dedupe"
	"github.com/musss2003/price-predictor-app/geo"
	"github.com/musss2003/price-predictor-app/models"
	"github.com/musss2003/price-predictor-app/scraper"
	"github.com/musss2003/price-predictor-app/scraper/nekretnine"
	"github.com/musss2003/price-predictor-app/scraper/olx"
	"github.com/musss2003/price-predictor-app/services"
	"github.com/musss2003/price-predictor-app/storage"
	"github.com/musss2003/price-predictor-app/utils"
)

// sources returns the enabled listing sites, in sync order.
func sources() []*scraper.Source {
	return []*scraper.Source{olx.Source(), nekretnine.Source()}
}

type app struct {
	cfg    *config.Config
	logger *utils.Logger
	store  storage.Store
}

func newApp(ctx context.Context) (*app, error) {
	logger := utils.NewLogger()
	cfg := config.Load()

	store, err := storage.NewPostgresStore(ctx, cfg.DSN())
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, store: store}, nil
}

func (a *app) geocoder() geo.Geocoder {
	if a.cfg.GeocoderURL == "" {
		return nil
	}
	return geo.NewHTTPGeocoder(a.cfg.GeocoderURL,
		time.Duration(a.cfg.GeocoderTimeoutSec)*time.Second, a.logger)
}

// syncOnce runs one crawl-and-sync pass over every source. A driver
// failure aborts the failing source only; the others still run.
func (a *app) syncOnce(ctx context.Context, full bool) error {
	started := time.Now()
	resolver := geo.NewResolver(a.logger, a.geocoder())
	syncSvc := services.NewSyncService(a.store, a.logger, nil)

	maxPages := a.cfg.PagesToScrape
	if !full {
		maxPages = a.cfg.IncrementalPages
	}
	expiry := time.Duration(a.cfg.ExpiryDays) * 24 * time.Hour

	var reports []services.SourceReport
	for _, src := range sources() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		report, err := a.syncSource(ctx, src, resolver, syncSvc, maxPages, expiry)
		if err != nil {
			a.logger.Error("%s: source aborted: %v", src.Name, err)
			report.Run.Source = src.Name
			report.Run.Errored++
		}
		reports = append(reports, report)
	}

	reporter := services.NewReporter()
	stats := reporter.Totals(reports)
	stats.StartedAt = started
	stats.FinishedAt = time.Now()

	if err := a.store.LogSync(ctx, stats); err != nil {
		a.logger.Error("record sync log: %v", err)
	}
	reporter.Print(&stats, reports)
	return nil
}

func (a *app) syncSource(ctx context.Context, src *scraper.Source, resolver *geo.Resolver,
	syncSvc *services.SyncService, maxPages int, expiry time.Duration) (services.SourceReport, error) {

	var report services.SourceReport
	report.Run = models.RunStats{Source: src.Name}

	existing, err := a.store.ExistingListings(ctx, src.Name)
	if err != nil {
		return report, err
	}
	// Seed only fresh active rows: stale and expired listings must be
	// re-extracted so the sync can refresh or reactivate them.
	index := dedupe.FromExisting(existing, time.Now().Add(-services.StaleAfter))

	session, err := scraper.NewSession(a.cfg, a.logger)
	if err != nil {
		return report, err
	}
	defer session.Close()

	crawler := scraper.NewCrawler(a.cfg, a.logger, session, resolver)
	listings, run := crawler.Run(ctx, src, index, maxPages)
	report.Run = run

	result, err := syncSvc.SyncSource(ctx, src.Name, listings)
	report.Sync = result
	if err != nil {
		return report, err
	}

	expired, err := syncSvc.ExpireStale(ctx, src.Name, expiry)
	if err != nil {
		return report, err
	}
	report.Expired = expired
	return report, nil
}

func newSyncCmd(ctx context.Context) *cobra.Command {
	var incremental bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Crawl every source once and reconcile the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()
			return a.syncOnce(ctx, !incremental)
		},
	}
	cmd.Flags().BoolVar(&incremental, "incremental", false,
		"crawl fewer pages (recent listings only)")
	return cmd
}

func newScheduleCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run continuously: periodic full and incremental syncs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			sched := services.NewScheduler(a.logger,
				time.Duration(a.cfg.FullSyncHours)*time.Hour,
				time.Duration(a.cfg.IncrementalSyncHours)*time.Hour,
				a.syncOnce)
			if err := sched.Run(ctx); err != context.Canceled {
				return err
			}
			return nil
		},
	}
}

func newCleanupCmd(ctx context.Context) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Re-map stored municipalities; remove unmappable rows",
		Long: "Re-runs municipality normalization over every stored listing. " +
			"Mismatched rows are rewritten to their canonical name; rows that " +
			"cannot be mapped at all are deactivated and deleted. Without " +
			"--apply nothing is written — the command only reports what it " +
			"would do.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.store.Close()

			svc := services.NewCleanupService(a.store, a.logger)
			for _, src := range sources() {
				if _, err := svc.Run(ctx, src.Name, apply); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false,
		"actually write changes (default is a dry run)")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "listing-sync",
		Short:         "Sarajevo real-estate listing scraper and sync pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSyncCmd(ctx), newScheduleCmd(ctx), newCleanupCmd(ctx))

	if err := root.Execute(); err != nil {
		utils.NewLogger().Error("%v", err)
		os.Exit(1)
	}
}
