package services

import (
	"context"

	"github.com/musss2003/price-predictor-app/models"
	"github.com/musss2003/price-predictor-app/municipality"
	"github.com/musss2003/price-predictor-app/storage"
	"github.com/musss2003/price-predictor-app/utils"
)

// cleanupPageSize bounds one range read of the cleanup scan.
const cleanupPageSize = 500

// CleanupResult counts what one source's cleanup pass did (or, in dry
// runs, would have done).
type CleanupResult struct {
	Scanned     int
	Remapped    int
	Deactivated int
	Deleted     int
	Errors      int
}

// CleanupService re-runs municipality normalization over stored rows.
// Rows whose stored value disagrees with the mapping are rewritten;
// rows the mapping cannot place at all are deactivated and then
// deleted. The destructive half only runs with apply set — the default
// is a dry run that reports counts and touches nothing. This policy
// deliberately differs from live ingestion, which keeps unmapped rows.
type CleanupService struct {
	store  storage.Store
	logger *utils.Logger
}

// NewCleanupService creates a CleanupService.
func NewCleanupService(store storage.Store, logger *utils.Logger) *CleanupService {
	return &CleanupService{store: store, logger: logger.WithPrefix("cleanup")}
}

// Run scans one source table page by page and applies the policy.
func (c *CleanupService) Run(ctx context.Context, source string, apply bool) (CleanupResult, error) {
	var res CleanupResult

	mode := "dry run"
	if apply {
		mode = "apply"
	}
	c.logger.Info("%s: starting municipality cleanup (%s)", source, mode)

	// Keyset paging: the pass deletes rows as it goes, so offsets would
	// slide and skip survivors.
	var lastID int64
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		page, err := c.store.MunicipalityPage(ctx, source, lastID, cleanupPageSize)
		if err != nil {
			return res, err
		}
		if len(page) == 0 {
			break
		}

		for _, row := range page {
			res.Scanned++
			c.processRow(ctx, source, row, apply, &res)
		}
		lastID = page[len(page)-1].ID

		if len(page) < cleanupPageSize {
			break
		}
	}

	c.logger.Info("%s: scanned %d, remapped %d, deactivated %d, deleted %d, errors %d",
		source, res.Scanned, res.Remapped, res.Deactivated, res.Deleted, res.Errors)
	return res, nil
}

func (c *CleanupService) processRow(ctx context.Context, source string, row models.MunicipalityRow, apply bool, res *CleanupResult) {
	canonical, ok := municipality.Normalize(row.Municipality, row.Title, row.Description)

	if !ok {
		c.logger.Debug("%s: row %d unmapped (%q)", source, row.ID, row.Municipality)
		if !apply {
			res.Deactivated++
			res.Deleted++
			return
		}
		if err := c.store.DeactivateListing(ctx, source, row.ID); err != nil {
			c.logger.Error("deactivate row %d: %v", row.ID, err)
			res.Errors++
			return
		}
		res.Deactivated++
		if err := c.store.DeleteListing(ctx, source, row.ID); err != nil {
			c.logger.Error("delete row %d: %v", row.ID, err)
			res.Errors++
			return
		}
		res.Deleted++
		return
	}

	if canonical == row.Municipality {
		return
	}

	res.Remapped++
	if !apply {
		return
	}
	if err := c.store.UpdateMunicipality(ctx, source, row.ID, canonical); err != nil {
		c.logger.Error("remap row %d: %v", row.ID, err)
		res.Errors++
	}
}
