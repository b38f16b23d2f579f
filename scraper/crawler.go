package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/musss2003/price-predictor-app/config"
	"github.com/musss2003/price-predictor-app/dedupe"
	"github.com/musss2003/price-predictor-app/geo"
	"github.com/musss2003/price-predictor-app/models"
	"github.com/musss2003/price-predictor-app/utils"
)

// Crawler walks one source's paginated results, filters known listings
// through the run-scoped index, and dispatches detail extraction.
// Pages and listings are processed strictly in order with a randomized
// politeness delay between outbound requests.
type Crawler struct {
	cfg      *config.Config
	logger   *utils.Logger
	session  *Session
	pacer    *utils.Pacer
	retry    *utils.RetryConfig
	resolver *geo.Resolver
	builder  *Builder
}

// NewCrawler wires a Crawler around an established session.
func NewCrawler(cfg *config.Config, logger *utils.Logger, session *Session, resolver *geo.Resolver) *Crawler {
	return &Crawler{
		cfg:     cfg,
		logger:  logger,
		session: session,
		pacer:   utils.NewPacer(cfg.DelayMinMs, cfg.DelayMaxMs),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		resolver: resolver,
		builder:  NewBuilder(logger),
	}
}

// Run crawls up to maxPages result pages of src. The index is owned by
// the caller for the run's lifetime; listings already in it are never
// re-extracted, and each successfully extracted listing is added so a
// URL repeated later in the same run yields exactly one record.
//
// Page failures advance to the next page; listing failures skip that
// listing. Run always returns its stats, even on early abort.
func (c *Crawler) Run(ctx context.Context, src *Source, index *dedupe.Index, maxPages int) ([]*models.Listing, models.RunStats) {
	log := c.logger.WithPrefix(src.Name)
	stats := models.RunStats{Source: src.Name}
	var listings []*models.Listing

	log.Info("starting crawl — up to %d pages, %d known listings", maxPages, index.Size())

	for page := 1; page <= maxPages; page++ {
		if ctx.Err() != nil {
			log.Warn("crawl interrupted on page %d", page)
			return listings, stats
		}

		links, err := c.fetchPageLinks(ctx, src, page)
		if err != nil {
			stats.Errored++
			log.Error("page %d failed: %v — continuing with next page", page, err)
			continue
		}
		stats.Pages++
		stats.Found += len(links)

		if len(links) == 0 {
			log.Info("page %d returned no listing links — stopping", page)
			break
		}
		log.Info("page %d: %d listing links", page, len(links))

		for _, link := range links {
			if ctx.Err() != nil {
				return listings, stats
			}

			externalID := src.ExternalID(link)
			if index.Seen(externalID, link) {
				stats.Duplicate++
				log.Debug("duplicate skipped: %s", link)
				continue
			}

			listing, err := c.scrapeDetail(ctx, src, link)
			if err != nil {
				stats.Errored++
				log.Warn("listing failed: %s: %v", link, err)
				continue
			}
			if listing == nil {
				stats.Skipped++
				continue
			}

			index.Add(listing.ExternalID, listing.URL)
			listings = append(listings, listing)
			stats.Extracted++
		}

		log.Info("page %d done — %d extracted so far", page, stats.Extracted)
	}

	log.Info("crawl complete — found %d, extracted %d, duplicates %d, skipped %d, errors %d",
		stats.Found, stats.Extracted, stats.Duplicate, stats.Skipped, stats.Errored)
	return listings, stats
}

// fetchPageLinks loads one results page and discovers detail links.
func (c *Crawler) fetchPageLinks(ctx context.Context, src *Source, page int) ([]string, error) {
	var links []string

	err := c.retry.Do(ctx, fmt.Sprintf("%s-page-%d", src.Name, page), func() error {
		c.pacer.Wait()

		html, err := c.session.FetchHTML(ctx, src.SearchURL(page), src.PageWait)
		if err != nil {
			return err
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return fmt.Errorf("parse results page: %w", err)
		}

		links = src.DiscoverLinks(doc)
		return nil
	})

	return links, err
}

// scrapeDetail renders one detail page and assembles the canonical
// record. A nil listing with nil error is a listing-level skip.
func (c *Crawler) scrapeDetail(ctx context.Context, src *Source, link string) (*models.Listing, error) {
	c.pacer.Wait()

	html, err := c.session.FetchHTML(ctx, link, src.DetailWait)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}

	bag := src.Extract(doc)

	point, located := geo.Point{}, false
	if c.resolver != nil {
		point, located = c.resolver.Resolve(ctx, doc, bag.Get(FieldAddress), bag.Get(FieldMunicipality))
	}

	return c.builder.Build(src, link, bag, point, located), nil
}

// IsFatal reports whether err means the source's browser session is
// gone and the run cannot continue.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDriverUnavailable)
}
