package services

import "github.com/musss2003/price-predictor-app/models"

// Predictor estimates a fair market price for a listing. The sync
// pipeline treats it as opaque so a trained model can replace the
// heuristic without touching the orchestration.
type Predictor func(l *models.Listing) int

// DefaultPredictor is the heuristic baseline: a flat rate per square
// meter plus a room premium. Listings without area and rooms predict 0,
// which scores as no-signal.
func DefaultPredictor(l *models.Listing) int {
	var area float64
	if l.AreaM2 != nil {
		area = *l.AreaM2
	}
	var rooms int
	if l.Rooms != nil {
		rooms = *l.Rooms
	}
	return int(2000*area) + 15000*rooms
}

// DealScore buckets the relative gap between asking and predicted
// price. A non-positive prediction yields 0: no signal, not a bad deal.
// Boundaries are strict, so asking exactly 20% under prediction lands
// in the 85 bucket.
func DealScore(price, predicted int) int {
	if predicted <= 0 {
		return 0
	}
	diff := float64(price-predicted) / float64(predicted)
	switch {
	case diff < -0.20:
		return 95
	case diff < -0.10:
		return 85
	case diff < 0:
		return 70
	default:
		return 40
	}
}

// ScoreListing computes the deal score for one listing, or 0 when the
// listing has no asking price.
func ScoreListing(l *models.Listing, predict Predictor) int {
	if l.Price == nil {
		return 0
	}
	return DealScore(*l.Price, predict(l))
}
