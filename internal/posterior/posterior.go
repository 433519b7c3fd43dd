// Package posterior estimates the posterior corneal astigmatism contribution
// from anterior keratometry using a tunable empirical model.
package posterior

import (
	"fmt"

	"github.com/lake-health/lakecalc-ai/internal/vector"
)

// Default model coefficients. These are the single source of truth; callers
// should start from DefaultParams rather than repeating them.
const (
	DefaultGamma0 = 0.10 // base posterior magnitude (D)
	DefaultGamma1 = 0.30 // anterior cylinder scaling
	DefaultGamma2 = 0.02 // mean-K dependency (per D above 43)

	DefaultWTRFactor = 1.15
	DefaultATRFactor = 0.85

	DefaultWTRBandDeg = 30.0

	// ReferenceMeanK anchors the mean-K term of the model.
	ReferenceMeanK = 43.0
)

// Params holds the tunable coefficients of the posterior model.
//
// The magnitude is γ0 + γ1·C_ant + γ2·(K_mean − 43), scaled by WTRFactor when
// the anterior axis is with-the-rule and by ATRFactor otherwise. The model is
// deliberately two-way: oblique anterior axes take the ATR factor.
type Params struct {
	Gamma0 float64 `yaml:"gamma0" json:"gamma0"`
	Gamma1 float64 `yaml:"gamma1" json:"gamma1"`
	Gamma2 float64 `yaml:"gamma2" json:"gamma2"`

	WTRFactor float64 `yaml:"wtr_factor" json:"wtr_factor"`
	ATRFactor float64 `yaml:"atr_factor" json:"atr_factor"`

	// WTRBandDeg is the half-width of the band around 90° treated as WTR.
	WTRBandDeg float64 `yaml:"wtr_band_deg" json:"wtr_band_deg"`
}

// DefaultParams returns the literature defaults.
func DefaultParams() Params {
	return Params{
		Gamma0:     DefaultGamma0,
		Gamma1:     DefaultGamma1,
		Gamma2:     DefaultGamma2,
		WTRFactor:  DefaultWTRFactor,
		ATRFactor:  DefaultATRFactor,
		WTRBandDeg: DefaultWTRBandDeg,
	}
}

// Validate rejects configurations that cannot describe a physical model.
func (p Params) Validate() error {
	if p.WTRFactor <= 0 {
		return fmt.Errorf("posterior model: wtr_factor must be positive, got %v", p.WTRFactor)
	}
	if p.ATRFactor <= 0 {
		return fmt.Errorf("posterior model: atr_factor must be positive, got %v", p.ATRFactor)
	}
	if p.WTRBandDeg <= 0 || p.WTRBandDeg > 90 {
		return fmt.Errorf("posterior model: wtr_band_deg must be in (0, 90], got %v", p.WTRBandDeg)
	}
	return nil
}

// Estimate returns the modeled posterior astigmatism vector. The posterior
// cornea is modeled as purely against-the-rule, so the result lies on the
// 180° meridian (J45 = 0). Inputs are clamped, never rejected: a negative
// anterior cylinder counts as zero and a negative computed magnitude
// collapses to the zero vector.
func (p Params) Estimate(antCyl, kMean, antAxisDeg float64) vector.Astigmatism {
	if antCyl < 0 {
		antCyl = 0
	}
	mag := p.Gamma0 + p.Gamma1*antCyl + p.Gamma2*(kMean-ReferenceMeanK)
	if vector.IsWithTheRule(antAxisDeg, p.WTRBandDeg) {
		mag *= p.WTRFactor
	} else {
		mag *= p.ATRFactor
	}
	if mag < 0 {
		return vector.Astigmatism{}
	}
	// 180° ≡ 0° modulo the 180° period: cos = 1, sin = 0.
	return vector.Astigmatism{J0: 0.5 * mag}
}
