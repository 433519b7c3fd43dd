package formulas

import (
	"context"
	"fmt"
	"math"

	"github.com/lake-health/lakecalc-ai/internal/biometry"
)

// Haigis is the three-constant Haigis formula:
//
//	ELP = a0 + a1·ACD + a2·AL
//	P   = 1336/(AL − ELP) − 1336/(1336/K − ELP)
//
// with the target refraction vertex-corrected to the corneal plane and
// subtracted at the IOL plane.
type Haigis struct{}

// Name implements Spherical.
func (Haigis) Name() string { return "Haigis" }

// Estimate implements Spherical.
func (Haigis) Estimate(_ context.Context, eye biometry.EyeBiometry, targetRefraction float64, consts Constants) (Estimate, error) {
	al := eye.AxialLengthMM
	k := eye.MeanK()
	acd := eye.ACDMM
	if al <= 0 || k <= 0 {
		return Estimate{}, fmt.Errorf("haigis: axial length and mean K must be positive (AL=%v, K=%v)", al, k)
	}

	a0, a1, a2 := consts.HaigisA0, consts.HaigisA1, consts.HaigisA2
	if a0 == 0 && a1 == 0 && a2 == 0 {
		a0, a1, a2 = DefaultHaigisA0, DefaultHaigisA1, DefaultHaigisA2
	}

	elp := a0 + a1*acd + a2*al

	den1 := math.Max(al-elp, 1e-6)
	den2 := math.Max(1000.0*nAqueous/k-elp, 1e-6)
	plano := 1000.0*nAqueous/den1 - 1000.0*nAqueous/den2

	rc := 0.0
	notes := "plano target"
	if math.Abs(targetRefraction) > 1e-6 {
		rc = SpectacleToCorneal(targetRefraction, DefaultVertexDistanceM)
		notes = fmt.Sprintf("target %+.2f D at spectacle plane (%+.2f D corneal equivalent)", targetRefraction, rc)
	}

	return Estimate{
		Formula:        "Haigis",
		ELPMM:          elp,
		SphericalPower: plano - rc,
		Notes:          notes,
	}, nil
}
