package models

import "time"

// Listing is the canonical property record ready for PostgreSQL storage.
// Nullable fields use pointers: a nil price means the source showed no
// price ("Po dogovoru"), and latitude/longitude are either both set or
// both nil.
type Listing struct {
	ID         int64
	Source     string
	ExternalID string
	URL        string

	Title        string
	Description  string
	Price        *int
	Municipality string

	PropertyType string
	AdType       string
	Rooms        *int
	AreaM2       *float64

	Latitude  *float64
	Longitude *float64
	Address   string

	ImageURLs    []string
	ThumbnailURL string

	Heating   string
	Condition string
	Level     string
	YearBuilt string
	Bathrooms *int

	HasGarage   bool
	HasElevator bool
	HasBalcony  bool
	HasParking  bool
	HasInternet bool
	HasCableTV  bool
	HasBasement bool

	// Extra holds source fields that do not map to a dedicated column.
	Extra map[string]string

	PublicationDate string
	ScrapedAt       time.Time
	LastUpdated     time.Time
	IsActive        bool
	DealScore       int
}

// HasCoordinates reports whether the listing carries a resolved position.
func (l *Listing) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// PriceHistoryEntry records one observed price change for a listing.
// A row exists only when an update actually changed the price.
type PriceHistoryEntry struct {
	ID        int64
	Source    string
	ListingID int64
	OldPrice  int
	NewPrice  int
	ChangedAt time.Time
}

// ExistingListing is the slim projection of a stored row used for
// duplicate filtering and change detection at run start.
type ExistingListing struct {
	ID          int64
	ExternalID  string
	URL         string
	Title       string
	Price       *int
	LastUpdated time.Time
	IsActive    bool
}

// MunicipalityRow is the projection the cleanup pass reads: just enough
// to re-run normalization and decide update / deactivate / delete.
type MunicipalityRow struct {
	ID           int64
	Municipality string
	Title        string
	Description  string
	IsActive     bool
}

// RunStats holds the per-source counters every crawl reports, whether it
// completed or failed partway.
type RunStats struct {
	Source    string
	Pages     int
	Found     int
	Duplicate int
	Extracted int
	Skipped   int
	Errored   int
}

// SyncStats aggregates one full sync run across all sources.
type SyncStats struct {
	SourcesSynced  int
	TotalScraped   int
	TotalInserted  int
	TotalUpdated   int
	TotalUnchanged int
	TotalExpired   int
	TotalErrors    int
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Duration returns the wall-clock length of the sync run.
func (s *SyncStats) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
