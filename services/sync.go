package services

import (
	"context"
	"time"

	"github.com/musss2003/price-predictor-app/models"
	"github.com/musss2003/price-predictor-app/storage"
	"github.com/musss2003/price-predictor-app/utils"
)

// insertBatchSize bounds one INSERT statement.
const insertBatchSize = 100

// StaleAfter forces a refresh of rows not touched in this long even
// when price and title look unchanged. The crawl index uses the same
// window as its seed cutoff, so every row this would refresh actually
// gets re-extracted.
const StaleAfter = 24 * time.Hour

// SourceResult counts what one source's sync did.
type SourceResult struct {
	Inserted  int
	Updated   int
	Unchanged int
	Errors    int
}

// SyncService reconciles freshly scraped listings with stored state:
// new rows are inserted in bounded batches, changed rows get their
// price history appended before the overwrite, unchanged rows are left
// alone.
type SyncService struct {
	store   storage.Store
	logger  *utils.Logger
	predict Predictor
	now     func() time.Time
}

// NewSyncService creates a SyncService. A nil predictor falls back to
// the heuristic baseline.
func NewSyncService(store storage.Store, logger *utils.Logger, predict Predictor) *SyncService {
	if predict == nil {
		predict = DefaultPredictor
	}
	return &SyncService{
		store:   store,
		logger:  logger.WithPrefix("sync"),
		predict: predict,
		now:     time.Now,
	}
}

// SyncSource partitions scraped listings against the stored projection
// and applies the changes. Row-level failures are counted and skipped;
// only a failure to read the existing projection aborts the source.
func (s *SyncService) SyncSource(ctx context.Context, source string, scraped []*models.Listing) (SourceResult, error) {
	var res SourceResult

	existing, err := s.store.ExistingListings(ctx, source)
	if err != nil {
		return res, err
	}

	byID := make(map[string]models.ExistingListing, len(existing))
	byURL := make(map[string]models.ExistingListing, len(existing))
	for _, e := range existing {
		if e.ExternalID != "" {
			byID[e.ExternalID] = e
		}
		if e.URL != "" {
			byURL[e.URL] = e
		}
	}

	var toInsert []*models.Listing
	for _, l := range scraped {
		l.DealScore = ScoreListing(l, s.predict)

		prev, found := byID[l.ExternalID]
		if !found {
			prev, found = byURL[l.URL]
		}
		if !found {
			toInsert = append(toInsert, l)
			continue
		}

		if !s.changed(prev, l) {
			res.Unchanged++
			continue
		}

		// Record the price move before the overwrite erases it.
		if prev.Price != nil && l.Price != nil && *prev.Price != *l.Price {
			entry := models.PriceHistoryEntry{
				Source:    source,
				ListingID: prev.ID,
				OldPrice:  *prev.Price,
				NewPrice:  *l.Price,
				ChangedAt: s.now(),
			}
			if err := s.store.InsertPriceHistory(ctx, entry); err != nil {
				s.logger.Error("price history for %s: %v", l.ExternalID, err)
				res.Errors++
				continue
			}
		}

		l.LastUpdated = s.now()
		if err := s.store.UpdateListing(ctx, prev.ID, l); err != nil {
			s.logger.Error("update %s: %v", l.ExternalID, err)
			res.Errors++
			continue
		}
		res.Updated++
	}

	for i := 0; i < len(toInsert); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(toInsert) {
			end = len(toInsert)
		}
		batch := toInsert[i:end]
		n, err := s.store.InsertListings(ctx, batch)
		if err != nil {
			s.logger.Error("insert batch of %d: %v", len(batch), err)
			res.Errors += len(batch)
			continue
		}
		res.Inserted += n
	}

	s.logger.Info("%s: %d inserted, %d updated, %d unchanged, %d errors",
		source, res.Inserted, res.Updated, res.Unchanged, res.Errors)
	return res, nil
}

// changed reports whether a stored row needs the overwrite: price or
// title differ, the row went stale, or it was expired and the scrape
// proves it is listed again.
func (s *SyncService) changed(prev models.ExistingListing, l *models.Listing) bool {
	if !prev.IsActive {
		return true
	}
	if prev.Title != l.Title {
		return true
	}
	if (prev.Price == nil) != (l.Price == nil) {
		return true
	}
	if prev.Price != nil && *prev.Price != *l.Price {
		return true
	}
	return s.now().Sub(prev.LastUpdated) > StaleAfter
}

// ExpireStale deactivates rows not seen by a scrape within window. It
// is the only deactivation in the live pipeline and safe to re-run.
func (s *SyncService) ExpireStale(ctx context.Context, source string, window time.Duration) (int64, error) {
	cutoff := s.now().Add(-window)
	n, err := s.store.MarkExpired(ctx, source, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("%s: marked %d listings inactive (not seen since %s)",
			source, n, cutoff.Format("2006-01-02"))
	}
	return n, nil
}
