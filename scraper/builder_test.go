package scraper

import (
	"testing"
	"time"

	"github.com/musss2003/price-predictor-app/extract"
	"github.com/musss2003/price-predictor-app/geo"
	"github.com/musss2003/price-predictor-app/utils"
)

func testBuilder() *Builder {
	b := NewBuilder(utils.NewLogger())
	b.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return b
}

func TestBuildSkipsWithoutTitleAndPrice(t *testing.T) {
	bag := extract.NewBag()
	bag.Set(FieldDescription, "samo opis, ništa drugo")

	if l := testBuilder().Build(testSource(), "https://olx.ba/artikal/1", bag, geo.Point{}, false); l != nil {
		t.Errorf("expected nil listing when both title and price are missing, got %+v", l)
	}
}

func TestBuildTitleAloneIsEnough(t *testing.T) {
	bag := extract.NewBag()
	bag.Set(FieldTitle, "Dvosoban stan Grbavica")

	l := testBuilder().Build(testSource(), "https://olx.ba/artikal/2", bag, geo.Point{}, false)
	if l == nil {
		t.Fatal("expected listing with title only")
	}
	if l.Price != nil {
		t.Errorf("expected nil price, got %d", *l.Price)
	}
	if !l.IsActive {
		t.Error("new listings should start active")
	}
}

func TestBuildMapsFieldsAndCoordinates(t *testing.T) {
	bag := extract.NewBag()
	bag.Set(FieldTitle, "Trosoban stan, Ilidža")
	bag.Set(FieldPrice, "185.000 KM")
	bag.Set(FieldMunicipality, "Ilidža, Lužani")
	bag.Set(FieldRooms, "Trosoban")
	bag.Set(FieldArea, "72,5 m2")
	bag.Images = []string{"https://img.olx.ba/a.jpg", "https://img.olx.ba/b.jpg"}

	l := testBuilder().Build(testSource(), "https://olx.ba/artikal/3", bag, geo.Point{Lat: 43.8286, Lon: 18.3108}, true)
	if l == nil {
		t.Fatal("expected listing")
	}
	if *l.Price != 185000 {
		t.Errorf("price = %d, want 185000", *l.Price)
	}
	if l.Municipality != "Ilidža" {
		t.Errorf("municipality = %q, want Ilidža", l.Municipality)
	}
	if *l.Rooms != 3 {
		t.Errorf("rooms = %d, want 3", *l.Rooms)
	}
	if *l.AreaM2 != 72.5 {
		t.Errorf("area = %v, want 72.5", *l.AreaM2)
	}
	if l.Latitude == nil || l.Longitude == nil {
		t.Fatal("expected both coordinates set")
	}
	if *l.Latitude != 43.8286 || *l.Longitude != 18.3108 {
		t.Errorf("coordinates = %v,%v", *l.Latitude, *l.Longitude)
	}
	if l.ThumbnailURL != "https://img.olx.ba/a.jpg" {
		t.Errorf("thumbnail = %q", l.ThumbnailURL)
	}
	if l.ExternalID != "olx_3" {
		t.Errorf("external id = %q", l.ExternalID)
	}
}

func TestBuildUnmappedMunicipalityKeptRaw(t *testing.T) {
	bag := extract.NewBag()
	bag.Set(FieldTitle, "Kuća na prodaju")
	bag.Set(FieldPrice, "95000")
	bag.Set(FieldMunicipality, "Banja Luka")

	l := testBuilder().Build(testSource(), "https://olx.ba/artikal/4", bag, geo.Point{}, false)
	if l == nil {
		t.Fatal("expected listing")
	}
	if l.Municipality != "Banja Luka" {
		t.Errorf("unmapped municipality should keep raw value, got %q", l.Municipality)
	}
}

func TestBuildWithoutCoordinatesLeavesBothNil(t *testing.T) {
	bag := extract.NewBag()
	bag.Set(FieldTitle, "Stan bez mape")
	bag.Set(FieldPrice, "120000")

	l := testBuilder().Build(testSource(), "https://olx.ba/artikal/5", bag, geo.Point{Lat: 43.85, Lon: 18.41}, false)
	if l == nil {
		t.Fatal("expected listing")
	}
	if l.Latitude != nil || l.Longitude != nil {
		t.Error("unresolved location must leave both coordinates unset")
	}
}

func TestBuildAmenitiesAndExtra(t *testing.T) {
	bag := extract.NewBag()
	bag.Set(FieldTitle, "Stan sa garažom")
	bag.Set(FieldPrice, "150000")
	bag.Set("sprat_zgrade", "4")
	bag.Flags["garaža"] = true
	bag.Flags["lift"] = true
	bag.Flags["balkon"] = false
	bag.Flags["tavan"] = true

	l := testBuilder().Build(testSource(), "https://olx.ba/artikal/6", bag, geo.Point{}, false)
	if l == nil {
		t.Fatal("expected listing")
	}
	if !l.HasGarage || !l.HasElevator || !l.HasBasement {
		t.Errorf("amenity flags not applied: %+v", l)
	}
	if l.HasBalcony {
		t.Error("explicit false flag must stay false")
	}
	if l.Extra["sprat_zgrade"] != "4" {
		t.Errorf("unmapped field should land in Extra, got %v", l.Extra)
	}
	if _, ok := l.Extra[FieldTitle]; ok {
		t.Error("column fields must not leak into Extra")
	}
}
