// Package vector implements power-vector algebra for corneal astigmatism.
// A cylinder (magnitude, axis) pair maps to orthogonal (J0, J45) components
// in which astigmatism contributions add linearly.
package vector

import "math"

// Astigmatism is an astigmatism power vector. J0 is the component along the
// 0°/90° meridians, J45 the component along 45°/135°. The zero value is the
// zero vector (no astigmatism).
type Astigmatism struct {
	J0  float64 `json:"j0"`
	J45 float64 `json:"j45"`
}

// FromPolar converts (magnitude, axis) cylinder notation to a power vector.
// The axis is reduced modulo 180° since cylinder orientation is unsigned; a
// negative magnitude is clamped to zero.
func FromPolar(magnitude, axisDeg float64) Astigmatism {
	if magnitude < 0 {
		magnitude = 0
	}
	th := 2 * NormalizeAxis(axisDeg) * math.Pi / 180
	return Astigmatism{
		J0:  0.5 * magnitude * math.Cos(th),
		J45: 0.5 * magnitude * math.Sin(th),
	}
}

// Polar returns the (magnitude, axis) cylinder form of v. The axis is in
// [0°, 180°). For the zero vector the magnitude is 0 and the axis is
// undefined; 0° is returned by convention.
func (v Astigmatism) Polar() (magnitude, axisDeg float64) {
	magnitude = v.Magnitude()
	if magnitude == 0 {
		return 0, 0
	}
	axisDeg = NormalizeAxis(math.Atan2(v.J45, v.J0) * 180 / math.Pi / 2)
	return magnitude, axisDeg
}

// Magnitude returns the cylinder magnitude represented by v.
func (v Astigmatism) Magnitude() float64 {
	return 2 * math.Hypot(v.J0, v.J45)
}

// Axis returns the cylinder axis in [0°, 180°).
func (v Astigmatism) Axis() float64 {
	_, axis := v.Polar()
	return axis
}

// Add returns the pointwise sum of v and w.
func (v Astigmatism) Add(w Astigmatism) Astigmatism {
	return Astigmatism{J0: v.J0 + w.J0, J45: v.J45 + w.J45}
}

// Sub returns the pointwise difference of v and w.
func (v Astigmatism) Sub(w Astigmatism) Astigmatism {
	return Astigmatism{J0: v.J0 - w.J0, J45: v.J45 - w.J45}
}

// IsZero reports whether v is exactly the zero vector.
func (v Astigmatism) IsZero() bool {
	return v.J0 == 0 && v.J45 == 0
}

// NormalizeAxis reduces an axis in degrees to [0, 180).
func NormalizeAxis(axisDeg float64) float64 {
	a := math.Mod(axisDeg, 180)
	if a < 0 {
		a += 180
	}
	return a
}
