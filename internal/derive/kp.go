package derive

// KpClass is the geomagnetic activity category.
type KpClass string

const (
	KpQuiet     KpClass = "Quiet"
	KpUnsettled KpClass = "Unsettled"
	KpActive    KpClass = "Active"
	KpStorm     KpClass = "Storm"
	KpExtreme   KpClass = "Extreme"
)

// ClassifyKp maps a planetary K-index (0-9) onto a KpClass.
func ClassifyKp(kp float64) KpClass {
	switch {
	case kp <= 2:
		return KpQuiet
	case kp <= 4:
		return KpUnsettled
	case kp <= 6:
		return KpActive
	case kp <= 8:
		return KpStorm
	default:
		return KpExtreme
	}
}

// AuroraChance gives a rough visibility hint for mid latitudes.
func AuroraChance(c KpClass) string {
	switch c {
	case KpQuiet, KpUnsettled:
		return "High latitudes only"
	case KpActive:
		return "Possible at mid-high latitudes"
	default:
		return "Likely at mid latitudes"
	}
}
