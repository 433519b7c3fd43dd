package vector

import "math"

// Orientation classifies an astigmatism axis relative to the horizontal and
// vertical meridians.
type Orientation string

const (
	// AgainstTheRule: steep axis near 0°/180°.
	AgainstTheRule Orientation = "ATR"
	// WithTheRule: steep axis near 90°.
	WithTheRule Orientation = "WTR"
	// Oblique: everything in between.
	Oblique Orientation = "OBL"
)

// DefaultOrientationBandDeg is the half-width of the WTR and ATR bands.
const DefaultOrientationBandDeg = 30.0

// Classify returns the three-way orientation of an axis. An axis within
// bandDeg of 0°/180° is ATR, within bandDeg of 90° is WTR, otherwise OBL.
func Classify(axisDeg, bandDeg float64) Orientation {
	a := NormalizeAxis(axisDeg)
	if math.Min(a, 180-a) <= bandDeg {
		return AgainstTheRule
	}
	if math.Abs(a-90) <= bandDeg {
		return WithTheRule
	}
	return Oblique
}

// IsWithTheRule reports whether an axis falls in the WTR band. This is the
// two-way split used by the posterior cornea model, which weights every
// non-WTR axis (oblique included) with the ATR factor.
func IsWithTheRule(axisDeg, bandDeg float64) bool {
	return math.Abs(NormalizeAxis(axisDeg)-90) <= bandDeg
}
