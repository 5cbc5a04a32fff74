package derive

import (
	"math"
	"time"
)

// SynodicMonth is the mean new-moon to new-moon period, 29.53 days.
const SynodicMonth = 2551392 * time.Second

// ReferenceNewMoon is a known new moon used as the phase epoch.
var ReferenceNewMoon = time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)

// LunarPhases are approximate upcoming phase instants. They drift from the
// true phases by up to about a day; that is acceptable for display.
type LunarPhases struct {
	NextNew  time.Time `json:"next_new"`
	NextFull time.Time `json:"next_full"`
	AgeDays  float64   `json:"age_days"`
	Phase    string    `json:"phase"`
}

// NextLunarPhases projects reference forward by whole periods.
// The next new moon is reference + ceil((now-reference)/period) * period.
// The next full moon is the first new + period/2 strictly after now.
func NextLunarPhases(reference time.Time, period time.Duration, now time.Time) LunarPhases {
	if period <= 0 {
		period = SynodicMonth
	}
	cycles := float64(now.Sub(reference)) / float64(period)

	newN := math.Ceil(cycles)
	fullN := math.Floor(cycles-0.5) + 1

	age := (cycles - math.Floor(cycles)) * period.Hours() / 24

	return LunarPhases{
		NextNew:  reference.Add(time.Duration(newN * float64(period))),
		NextFull: reference.Add(time.Duration((fullN + 0.5) * float64(period))),
		AgeDays:  age,
		Phase:    PhaseName(cycles - math.Floor(cycles)),
	}
}

// PhaseName names the phase for a cycle fraction in [0, 1).
func PhaseName(fraction float64) string {
	switch {
	case fraction < 0.0339 || fraction >= 0.9661:
		return "New Moon"
	case fraction < 0.2161:
		return "Waxing Crescent"
	case fraction < 0.2839:
		return "First Quarter"
	case fraction < 0.4661:
		return "Waxing Gibbous"
	case fraction < 0.5339:
		return "Full Moon"
	case fraction < 0.7161:
		return "Waning Gibbous"
	case fraction < 0.7839:
		return "Last Quarter"
	default:
		return "Waning Crescent"
	}
}
