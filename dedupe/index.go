// Package dedupe holds the run-scoped index of already-known listings.
// The crawl controller owns one Index per source run and hands it by
// reference to anything that needs a membership test; it is never
// process-wide state.
package dedupe

import (
	"sync"
	"time"

	"github.com/musss2003/price-predictor-app/models"
)

// Index is the existing-listing membership set for one source: external
// IDs and URLs loaded once at run start, grown in place as new records
// are confirmed. It answers membership only — the backing store owns
// the records themselves.
type Index struct {
	mu    sync.RWMutex
	byID  map[string]struct{}
	byURL map[string]struct{}
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{
		byID:  make(map[string]struct{}),
		byURL: make(map[string]struct{}),
	}
}

// FromExisting builds an Index seeded with the store's known rows.
// Only active rows updated after cutoff go in: an inactive or stale
// listing must be re-extracted so the sync can refresh its record,
// append price history, or reactivate it.
func FromExisting(rows []models.ExistingListing, cutoff time.Time) *Index {
	idx := NewIndex()
	for _, row := range rows {
		if !row.IsActive || !row.LastUpdated.After(cutoff) {
			continue
		}
		idx.add(row.ExternalID, row.URL)
	}
	return idx
}

// Seen reports whether either the external ID or the URL is already
// known. Empty keys never match.
func (idx *Index) Seen(externalID, url string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if externalID != "" {
		if _, ok := idx.byID[externalID]; ok {
			return true
		}
	}
	if url != "" {
		if _, ok := idx.byURL[url]; ok {
			return true
		}
	}
	return false
}

// Add records a listing as known. It returns false when the listing was
// already present, which doubles as the within-batch duplicate check.
func (idx *Index) Add(externalID, url string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	known := false
	if externalID != "" {
		if _, ok := idx.byID[externalID]; ok {
			known = true
		}
	}
	if !known && url != "" {
		if _, ok := idx.byURL[url]; ok {
			known = true
		}
	}
	idx.add(externalID, url)
	return !known
}

func (idx *Index) add(externalID, url string) {
	if externalID != "" {
		idx.byID[externalID] = struct{}{}
	}
	if url != "" {
		idx.byURL[url] = struct{}{}
	}
}

// Size returns the number of distinct external IDs tracked.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byID)
}
