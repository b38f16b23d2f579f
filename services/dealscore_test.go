package services

import (
	"testing"

	"github.com/musss2003/price-predictor-app/models"
)

func TestDealScore(t *testing.T) {
	tests := []struct {
		name      string
		price     int
		predicted int
		want      int
	}{
		{"no prediction", 100000, 0, 0},
		{"negative prediction", 100000, -5, 0},
		{"deep discount", 70000, 100000, 95},
		{"exactly 20 percent under", 80000, 100000, 85},
		{"moderate discount", 85000, 100000, 85},
		{"exactly 10 percent under", 90000, 100000, 70},
		{"slight discount", 99000, 100000, 70},
		{"at prediction", 100000, 100000, 40},
		{"over prediction", 120000, 100000, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DealScore(tt.price, tt.predicted); got != tt.want {
				t.Errorf("DealScore(%d, %d) = %d, want %d",
					tt.price, tt.predicted, got, tt.want)
			}
		})
	}
}

func TestDefaultPredictor(t *testing.T) {
	area := 65.0
	rooms := 2
	l := &models.Listing{AreaM2: &area, Rooms: &rooms}
	if got := DefaultPredictor(l); got != 160000 {
		t.Errorf("predicted = %d, want 160000", got)
	}

	if got := DefaultPredictor(&models.Listing{}); got != 0 {
		t.Errorf("empty listing predicted = %d, want 0", got)
	}
}

func TestScoreListing(t *testing.T) {
	area := 50.0
	l := &models.Listing{Price: intPtr(80000), AreaM2: &area}
	if got := ScoreListing(l, DefaultPredictor); got != 85 {
		t.Errorf("score = %d, want 85", got)
	}

	if got := ScoreListing(&models.Listing{AreaM2: &area}, DefaultPredictor); got != 0 {
		t.Errorf("priceless listing score = %d, want 0", got)
	}
}
