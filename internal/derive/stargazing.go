package derive

import "math"

// Rating is the ordinal stargazing quality.
type Rating string

const (
	RatingExcellent Rating = "Excellent"
	RatingGood      Rating = "Good"
	RatingFair      Rating = "Fair"
	RatingPoor      Rating = "Poor"
)

// StargazingScore combines cloud cover and visibility into one 0-100 score.
type StargazingScore struct {
	CloudScore      float64 `json:"cloud_score"`
	VisibilityScore float64 `json:"visibility_score"`
	Score           int     `json:"score"`
	Rating          Rating  `json:"rating"`
}

// Stargazing scores cloud cover c (percent) and visibility v (km).
// Visibility saturates at 10 km.
func Stargazing(cloudPct, visibilityKm float64) StargazingScore {
	cloud := math.Max(0, 100-cloudPct)
	vis := math.Max(0, math.Min(100, visibilityKm/10*100))
	score := int(math.Round((cloud + vis) / 2))

	return StargazingScore{
		CloudScore:      cloud,
		VisibilityScore: vis,
		Score:           score,
		Rating:          RateScore(score),
	}
}

// RateScore maps a score onto a Rating.
func RateScore(score int) Rating {
	switch {
	case score >= 80:
		return RatingExcellent
	case score >= 60:
		return RatingGood
	case score >= 40:
		return RatingFair
	default:
		return RatingPoor
	}
}

// Conditions describes the sky from cloud cover.
func Conditions(cloudPct float64) string {
	switch {
	case cloudPct < 20:
		return "Clear"
	case cloudPct < 40:
		return "Partly Cloudy"
	case cloudPct < 70:
		return "Mostly Cloudy"
	default:
		return "Overcast"
	}
}
