package scraper

import (
	"time"

	"github.com/musss2003/price-predictor-app/extract"
	"github.com/musss2003/price-predictor-app/geo"
	"github.com/musss2003/price-predictor-app/models"
	"github.com/musss2003/price-predictor-app/municipality"
	"github.com/musss2003/price-predictor-app/utils"
)

// Canonical bag field names shared by all source rule sets.
const (
	FieldTitle        = "title"
	FieldPrice        = "price"
	FieldMunicipality = "municipality"
	FieldDescription  = "description"
	FieldRooms        = "rooms"
	FieldArea         = "area"
	FieldPropertyType = "property_type"
	FieldAdType       = "ad_type"
	FieldHeating      = "heating"
	FieldCondition    = "condition"
	FieldLevel        = "level"
	FieldAddress      = "address"
	FieldBathrooms    = "bathrooms"
	FieldYearBuilt    = "year_built"
	FieldPubDate      = "publication_date"
)

// amenityFlags maps source flag labels to listing setters. Several
// labels fold into one column (podrum/tavan variants).
var amenityFlags = map[string]func(*models.Listing, bool){
	"garaža":        func(l *models.Listing, v bool) { l.HasGarage = l.HasGarage || v },
	"garaza":        func(l *models.Listing, v bool) { l.HasGarage = l.HasGarage || v },
	"internet":      func(l *models.Listing, v bool) { l.HasInternet = l.HasInternet || v },
	"kablovska_tv":  func(l *models.Listing, v bool) { l.HasCableTV = l.HasCableTV || v },
	"lift":          func(l *models.Listing, v bool) { l.HasElevator = l.HasElevator || v },
	"balkon":        func(l *models.Listing, v bool) { l.HasBalcony = l.HasBalcony || v },
	"podrum_tavan":  func(l *models.Listing, v bool) { l.HasBasement = l.HasBasement || v },
	"podrum":        func(l *models.Listing, v bool) { l.HasBasement = l.HasBasement || v },
	"tavan":         func(l *models.Listing, v bool) { l.HasBasement = l.HasBasement || v },
	"parking":       func(l *models.Listing, v bool) { l.HasParking = l.HasParking || v },
	"parking_mesto": func(l *models.Listing, v bool) { l.HasParking = l.HasParking || v },
}

// columnFields are bag fields with a dedicated listing column; anything
// else the extractor produced lands in the Extra map.
var columnFields = map[string]struct{}{
	FieldTitle: {}, FieldPrice: {}, FieldMunicipality: {}, FieldDescription: {},
	FieldRooms: {}, FieldArea: {}, FieldPropertyType: {}, FieldAdType: {},
	FieldHeating: {}, FieldCondition: {}, FieldLevel: {}, FieldAddress: {},
	FieldBathrooms: {}, FieldYearBuilt: {}, FieldPubDate: {},
}

// Builder assembles canonical listings from raw field bags, resolved
// coordinates and the municipality taxonomy.
type Builder struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewBuilder creates a Builder.
func NewBuilder(logger *utils.Logger) *Builder {
	return &Builder{logger: logger.WithPrefix("builder"), now: time.Now}
}

// Build turns one extraction attempt into a canonical listing. It
// returns nil when title and price are both unrecoverable — a
// listing-level skip, not an error. Unmapped municipalities keep the
// raw location string: live ingestion never drops a listing over the
// taxonomy (the destructive policy belongs to the cleanup pass only).
func (b *Builder) Build(src *Source, detailURL string, bag *extract.Bag, point geo.Point, located bool) *models.Listing {
	title := bag.Get(FieldTitle)
	price := extract.ParsePrice(bag.Get(FieldPrice))

	if title == "" && price == nil {
		b.logger.Debug("skipping %s: neither title nor price recoverable", detailURL)
		return nil
	}

	now := b.now()
	l := &models.Listing{
		Source:          src.Name,
		ExternalID:      src.ExternalID(detailURL),
		URL:             detailURL,
		Title:           title,
		Description:     bag.Get(FieldDescription),
		Price:           price,
		PropertyType:    bag.Get(FieldPropertyType),
		AdType:          bag.Get(FieldAdType),
		Rooms:           extract.ParseRooms(bag.Get(FieldRooms)),
		AreaM2:          extract.ParseArea(bag.Get(FieldArea)),
		Address:         bag.Get(FieldAddress),
		Heating:         bag.Get(FieldHeating),
		Condition:       bag.Get(FieldCondition),
		Level:           bag.Get(FieldLevel),
		YearBuilt:       bag.Get(FieldYearBuilt),
		Bathrooms:       extract.ParseNumber(bag.Get(FieldBathrooms)),
		ImageURLs:       bag.Images,
		PublicationDate: extract.ParseDate(bag.Get(FieldPubDate)),
		ScrapedAt:       now,
		LastUpdated:     now,
		IsActive:        true,
	}

	if len(bag.Images) > 0 {
		l.ThumbnailURL = bag.Images[0]
	}

	rawLocation := bag.Get(FieldMunicipality)
	if canonical, ok := municipality.Normalize(rawLocation, l.Title, l.Description); ok {
		l.Municipality = canonical
	} else {
		l.Municipality = rawLocation
	}

	if located {
		lat, lon := point.Lat, point.Lon
		l.Latitude, l.Longitude = &lat, &lon
	}

	for label, set := range amenityFlags {
		if v, ok := bag.Flags[label]; ok {
			set(l, v)
		}
	}

	for name, value := range bag.Fields {
		if _, mapped := columnFields[name]; mapped {
			continue
		}
		if l.Extra == nil {
			l.Extra = make(map[string]string)
		}
		l.Extra[name] = value
	}

	return l
}
