package storage

import (
	"context"
	"time"

	"github.com/musss2003/price-predictor-app/models"
)

// Store is the persistence interface the sync and cleanup services
// consume. Every method that takes a source operates on that source's
// own listings table.
type Store interface {
	// EnsureSchema creates the per-source listings tables, the price
	// history table and the sync log table if they do not exist.
	EnsureSchema(ctx context.Context) error

	// ExistingListings returns the slim projection of every stored row
	// for a source, used for duplicate filtering and change detection.
	ExistingListings(ctx context.Context, source string) ([]models.ExistingListing, error)

	// InsertListings inserts a batch of new listings and returns how
	// many rows were written. Callers bound the batch size.
	InsertListings(ctx context.Context, listings []*models.Listing) (int, error)

	// UpdateListing overwrites the stored row id with the fresh scrape.
	UpdateListing(ctx context.Context, id int64, listing *models.Listing) error

	// InsertPriceHistory appends one observed price change.
	InsertPriceHistory(ctx context.Context, entry models.PriceHistoryEntry) error

	// MarkExpired deactivates active rows last scraped before cutoff
	// and returns how many rows changed. Safe to re-run.
	MarkExpired(ctx context.Context, source string, cutoff time.Time) (int64, error)

	// MunicipalityPage reads one page of rows for the cleanup pass:
	// rows with id greater than afterID, ordered by id. Keyset paging
	// stays stable while the pass itself deletes rows.
	MunicipalityPage(ctx context.Context, source string, afterID int64, limit int) ([]models.MunicipalityRow, error)

	// UpdateMunicipality rewrites a single row's municipality.
	UpdateMunicipality(ctx context.Context, source string, id int64, municipality string) error

	// DeactivateListing clears a row's active flag.
	DeactivateListing(ctx context.Context, source string, id int64) error

	// DeleteListing removes a row permanently.
	DeleteListing(ctx context.Context, source string, id int64) error

	// LogSync records one completed sync run.
	LogSync(ctx context.Context, stats models.SyncStats) error

	Close() error
}
