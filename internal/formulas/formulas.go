// Package formulas implements spherical IOL power formulas. Each formula
// returns an effective lens position estimate and the baseline spherical
// power, the two quantities the toric refinement loop consumes.
package formulas

import (
	"context"
	"math"

	"github.com/lake-health/lakecalc-ai/internal/biometry"
)

// Generic fallback constants, used when the catalog has no IOL-specific
// values for the chosen family.
const (
	DefaultAConstant = 118.9

	DefaultHaigisA0 = 2.1
	DefaultHaigisA1 = 0.4
	DefaultHaigisA2 = 0.1

	// aqueous/vitreous refractive index
	nAqueous = 1.336

	// DefaultVertexDistanceM is the assumed spectacle vertex distance.
	DefaultVertexDistanceM = 0.012
)

// Constants holds the IOL-specific formula constants for one lens family.
type Constants struct {
	AConstant float64 `json:"a_constant"`

	HaigisA0 float64 `json:"haigis_a0"`
	HaigisA1 float64 `json:"haigis_a1"`
	HaigisA2 float64 `json:"haigis_a2"`
}

// DefaultConstants returns the generic fallback constants.
func DefaultConstants() Constants {
	return Constants{
		AConstant: DefaultAConstant,
		HaigisA0:  DefaultHaigisA0,
		HaigisA1:  DefaultHaigisA1,
		HaigisA2:  DefaultHaigisA2,
	}
}

// Estimate is the output of a spherical formula.
type Estimate struct {
	Formula        string  `json:"formula"`
	ELPMM          float64 `json:"elp_mm"`
	SphericalPower float64 `json:"spherical_power"`
	Notes          string  `json:"notes,omitempty"`
}

// Spherical is a spherical IOL power formula. Implementations must be
// idempotent: the refinement loop may call Estimate repeatedly with the same
// biometry.
type Spherical interface {
	Name() string
	Estimate(ctx context.Context, eye biometry.EyeBiometry, targetRefraction float64, consts Constants) (Estimate, error)
}

// SpectacleToCorneal converts a spectacle-plane refraction at vertex distance
// d (metres) to its corneal-plane equivalent: Rc = Rs / (1 − d·Rs).
func SpectacleToCorneal(rs, vertexM float64) float64 {
	denom := 1.0 - vertexM*rs
	if math.Abs(denom) < 1e-8 {
		return math.Inf(int(math.Copysign(1, rs)))
	}
	return rs / denom
}
