package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/musss2003/price-predictor-app/models"
)

// tableBySource maps source names to their dedicated listings table.
// Unknown sources are rejected rather than guessed at.
var tableBySource = map[string]string{
	"olx_ba":        "listings_olx",
	"nekretnine_ba": "listings_nekretnine",
}

// listingColumns is the insert/update column list, in scan order.
var listingColumns = []string{
	"external_id", "url", "title", "description", "price", "municipality",
	"property_type", "ad_type", "rooms", "area_m2",
	"latitude", "longitude", "address",
	"image_urls", "thumbnail_url",
	"heating", "condition", "level", "year_built", "bathrooms",
	"has_garage", "has_elevator", "has_balcony", "has_parking",
	"has_internet", "has_cable_tv", "has_basement",
	"extra", "publication_date", "scraped_at", "last_updated",
	"is_active", "deal_score",
}

// PostgresStore implements Store on top of PostgreSQL with one listings
// table per source.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, waits for the server to accept
// pings, and runs schema bootstrap.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func tableFor(source string) (string, error) {
	table, ok := tableBySource[source]
	if !ok {
		return "", fmt.Errorf("postgres: unknown source %q", source)
	}
	return table, nil
}

// EnsureSchema creates the per-source listings tables, price_history
// and sync_logs.
func (ps *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, table := range tableBySource {
		stmt := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id               BIGSERIAL PRIMARY KEY,
				external_id      TEXT UNIQUE NOT NULL,
				url              TEXT NOT NULL,
				title            TEXT NOT NULL DEFAULT '',
				description      TEXT NOT NULL DEFAULT '',
				price            INTEGER,
				municipality     TEXT NOT NULL DEFAULT '',
				property_type    TEXT NOT NULL DEFAULT '',
				ad_type          TEXT NOT NULL DEFAULT '',
				rooms            INTEGER,
				area_m2          NUMERIC(8,2),
				latitude         DOUBLE PRECISION,
				longitude        DOUBLE PRECISION,
				address          TEXT NOT NULL DEFAULT '',
				image_urls       TEXT[] NOT NULL DEFAULT '{}',
				thumbnail_url    TEXT NOT NULL DEFAULT '',
				heating          TEXT NOT NULL DEFAULT '',
				condition        TEXT NOT NULL DEFAULT '',
				level            TEXT NOT NULL DEFAULT '',
				year_built       TEXT NOT NULL DEFAULT '',
				bathrooms        INTEGER,
				has_garage       BOOLEAN NOT NULL DEFAULT FALSE,
				has_elevator     BOOLEAN NOT NULL DEFAULT FALSE,
				has_balcony      BOOLEAN NOT NULL DEFAULT FALSE,
				has_parking      BOOLEAN NOT NULL DEFAULT FALSE,
				has_internet     BOOLEAN NOT NULL DEFAULT FALSE,
				has_cable_tv     BOOLEAN NOT NULL DEFAULT FALSE,
				has_basement     BOOLEAN NOT NULL DEFAULT FALSE,
				extra            JSONB,
				publication_date TEXT NOT NULL DEFAULT '',
				scraped_at       TIMESTAMPTZ NOT NULL,
				last_updated     TIMESTAMPTZ NOT NULL,
				is_active        BOOLEAN NOT NULL DEFAULT TRUE,
				deal_score       INTEGER NOT NULL DEFAULT 0
			);

			CREATE INDEX IF NOT EXISTS idx_%s_municipality ON %s(municipality);
			CREATE INDEX IF NOT EXISTS idx_%s_price        ON %s(price);
			CREATE INDEX IF NOT EXISTS idx_%s_active       ON %s(is_active);
		`, table, table, table, table, table, table, table)

		if _, err := ps.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS price_history (
			id         BIGSERIAL PRIMARY KEY,
			source     TEXT NOT NULL,
			listing_id BIGINT NOT NULL,
			old_price  INTEGER NOT NULL,
			new_price  INTEGER NOT NULL,
			changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_price_history_listing
			ON price_history(source, listing_id);

		CREATE TABLE IF NOT EXISTS sync_logs (
			id              BIGSERIAL PRIMARY KEY,
			sources_synced  INTEGER NOT NULL,
			total_scraped   INTEGER NOT NULL,
			total_inserted  INTEGER NOT NULL,
			total_updated   INTEGER NOT NULL,
			total_unchanged INTEGER NOT NULL,
			total_expired   INTEGER NOT NULL,
			total_errors    INTEGER NOT NULL,
			started_at      TIMESTAMPTZ NOT NULL,
			finished_at     TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

// ExistingListings loads the change-detection projection for a source.
func (ps *PostgresStore) ExistingListings(ctx context.Context, source string) ([]models.ExistingListing, error) {
	table, err := tableFor(source)
	if err != nil {
		return nil, err
	}

	rows, err := ps.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, external_id, url, title, price, last_updated, is_active
		FROM %s
		ORDER BY id
	`, table))
	if err != nil {
		return nil, fmt.Errorf("postgres: existing listings: %w", err)
	}
	defer rows.Close()

	var out []models.ExistingListing
	for rows.Next() {
		var e models.ExistingListing
		var price sql.NullInt64
		if err := rows.Scan(&e.ID, &e.ExternalID, &e.URL, &e.Title, &price, &e.LastUpdated, &e.IsActive); err != nil {
			return nil, fmt.Errorf("postgres: scan existing: %w", err)
		}
		if price.Valid {
			p := int(price.Int64)
			e.Price = &p
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertListings batch-inserts new rows. Conflicting external ids are
// skipped, and the returned count reflects rows actually written.
func (ps *PostgresStore) InsertListings(ctx context.Context, listings []*models.Listing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}
	table, err := tableFor(listings[0].Source)
	if err != nil {
		return 0, err
	}

	n := len(listingColumns)
	valueStrings := make([]string, 0, len(listings))
	valueArgs := make([]interface{}, 0, len(listings)*n)

	for idx, l := range listings {
		placeholders := make([]string, n)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", idx*n+i+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		args, err := listingArgs(l)
		if err != nil {
			return 0, err
		}
		valueArgs = append(valueArgs, args...)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES %s
		ON CONFLICT (external_id) DO NOTHING
	`, table, strings.Join(listingColumns, ", "), strings.Join(valueStrings, ","))

	res, err := ps.db.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert batch: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// UpdateListing overwrites a stored row with the fresh scrape. The
// external_id stays what it was.
func (ps *PostgresStore) UpdateListing(ctx context.Context, id int64, l *models.Listing) error {
	table, err := tableFor(l.Source)
	if err != nil {
		return err
	}

	all, err := listingArgs(l)
	if err != nil {
		return err
	}

	sets := make([]string, 0, len(listingColumns))
	args := make([]interface{}, 0, len(listingColumns))
	for i, col := range listingColumns {
		if col == "external_id" {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)+1))
		args = append(args, all[i])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		table, strings.Join(sets, ", "), len(args))

	if _, err := ps.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres: update listing %d: %w", id, err)
	}
	return nil
}

// InsertPriceHistory appends one price change row.
func (ps *PostgresStore) InsertPriceHistory(ctx context.Context, entry models.PriceHistoryEntry) error {
	_, err := ps.db.ExecContext(ctx, `
		INSERT INTO price_history (source, listing_id, old_price, new_price, changed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.Source, entry.ListingID, entry.OldPrice, entry.NewPrice, entry.ChangedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert price history: %w", err)
	}
	return nil
}

// MarkExpired deactivates active rows last scraped before cutoff.
func (ps *PostgresStore) MarkExpired(ctx context.Context, source string, cutoff time.Time) (int64, error) {
	table, err := tableFor(source)
	if err != nil {
		return 0, err
	}

	res, err := ps.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s SET is_active = FALSE
		WHERE is_active = TRUE AND scraped_at < $1
	`, table), cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: mark expired: %w", err)
	}
	return res.RowsAffected()
}

// MunicipalityPage reads one cleanup page: rows past afterID, ordered
// by id. Deleting rows from an earlier page cannot shift what the next
// page returns.
func (ps *PostgresStore) MunicipalityPage(ctx context.Context, source string, afterID int64, limit int) ([]models.MunicipalityRow, error) {
	table, err := tableFor(source)
	if err != nil {
		return nil, err
	}

	rows, err := ps.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, municipality, title, description, is_active
		FROM %s
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`, table), afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: municipality page: %w", err)
	}
	defer rows.Close()

	var out []models.MunicipalityRow
	for rows.Next() {
		var r models.MunicipalityRow
		if err := rows.Scan(&r.ID, &r.Municipality, &r.Title, &r.Description, &r.IsActive); err != nil {
			return nil, fmt.Errorf("postgres: scan municipality row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateMunicipality rewrites a single row's municipality.
func (ps *PostgresStore) UpdateMunicipality(ctx context.Context, source string, id int64, municipality string) error {
	table, err := tableFor(source)
	if err != nil {
		return err
	}
	_, err = ps.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET municipality = $1 WHERE id = $2", table),
		municipality, id)
	return err
}

// DeactivateListing clears a row's active flag.
func (ps *PostgresStore) DeactivateListing(ctx context.Context, source string, id int64) error {
	table, err := tableFor(source)
	if err != nil {
		return err
	}
	_, err = ps.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET is_active = FALSE WHERE id = $1", table), id)
	return err
}

// DeleteListing removes a row permanently.
func (ps *PostgresStore) DeleteListing(ctx context.Context, source string, id int64) error {
	table, err := tableFor(source)
	if err != nil {
		return err
	}
	_, err = ps.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	return err
}

// LogSync records one completed sync run.
func (ps *PostgresStore) LogSync(ctx context.Context, stats models.SyncStats) error {
	_, err := ps.db.ExecContext(ctx, `
		INSERT INTO sync_logs (sources_synced, total_scraped, total_inserted,
			total_updated, total_unchanged, total_expired, total_errors,
			started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, stats.SourcesSynced, stats.TotalScraped, stats.TotalInserted,
		stats.TotalUpdated, stats.TotalUnchanged, stats.TotalExpired,
		stats.TotalErrors, stats.StartedAt, stats.FinishedAt)
	if err != nil {
		return fmt.Errorf("postgres: log sync: %w", err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

// listingArgs renders a listing as insert/update arguments in
// listingColumns order.
func listingArgs(l *models.Listing) ([]interface{}, error) {
	var extra interface{}
	if len(l.Extra) > 0 {
		raw, err := json.Marshal(l.Extra)
		if err != nil {
			return nil, fmt.Errorf("postgres: marshal extras: %w", err)
		}
		extra = raw
	}

	images := l.ImageURLs
	if images == nil {
		images = []string{}
	}

	return []interface{}{
		l.ExternalID, l.URL, l.Title, l.Description, nullableInt(l.Price), l.Municipality,
		l.PropertyType, l.AdType, nullableInt(l.Rooms), nullableFloat(l.AreaM2),
		nullableFloat(l.Latitude), nullableFloat(l.Longitude), l.Address,
		pq.Array(images), l.ThumbnailURL,
		l.Heating, l.Condition, l.Level, l.YearBuilt, nullableInt(l.Bathrooms),
		l.HasGarage, l.HasElevator, l.HasBalcony, l.HasParking,
		l.HasInternet, l.HasCableTV, l.HasBasement,
		extra, l.PublicationDate, l.ScrapedAt, l.LastUpdated,
		l.IsActive, l.DealScore,
	}, nil
}

func nullableInt(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullableFloat(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
