package formulas

import (
	"context"
	"fmt"
	"math"

	"github.com/lake-health/lakecalc-ai/internal/biometry"
)

// SRKT is the full theoretical SRK/T formula (Retzlaff, Sanders, Kraff 1990):
// corneal radius from K, corrected axial length for long eyes, Fyodorov
// corneal height, A-constant to ACD-constant transform, retinal thickness
// correction and a thin-lens vergence model. This is not the SRK regression.
type SRKT struct{}

// Name implements Spherical.
func (SRKT) Name() string { return "SRK/T" }

// Estimate implements Spherical.
func (SRKT) Estimate(_ context.Context, eye biometry.EyeBiometry, targetRefraction float64, consts Constants) (Estimate, error) {
	al := eye.AxialLengthMM
	k := eye.MeanK()
	if al <= 0 || k <= 0 {
		return Estimate{}, fmt.Errorf("srkt: axial length and mean K must be positive (AL=%v, K=%v)", al, k)
	}
	a := consts.AConstant
	if a == 0 {
		a = DefaultAConstant
	}

	// Corneal radius from K (keratometric index 1.3375).
	r := 337.5 / k

	// Corrected axial length for long eyes.
	lcor := al
	if al > 24.2 {
		lcor = -3.446 + 1.715*al - 0.0237*al*al
	}

	// Corneal width and Fyodorov corneal height.
	cw := -5.40948 + 0.58412*lcor + 0.098*k
	x := r*r - cw*cw/4
	if x < 0 {
		x = 0
	}
	h := r - math.Sqrt(x)

	// A-constant to ACD-constant transform and ELP.
	acdConst := 0.62467*a - 68.747
	elp := h + acdConst - 3.336

	// Retinal thickness correction and IOL-to-retina distance.
	rethick := 0.65696 - 0.02029*al
	lopt := al - elp - rethick

	// Thin-lens vergence: corneal power translated to the IOL plane, object
	// at infinity.
	l1 := k / (1.0 - (elp/1000.0)*k/nAqueous)
	s := math.Max(lopt/1000.0, 1e-6)

	rc := 0.0
	notes := "plano target"
	if math.Abs(targetRefraction) > 1e-6 {
		rc = SpectacleToCorneal(targetRefraction, DefaultVertexDistanceM)
		notes = fmt.Sprintf("target %+.2f D at spectacle plane (%+.2f D corneal equivalent)", targetRefraction, rc)
	}

	power := nAqueous/s - l1 - rc

	return Estimate{
		Formula:        "SRK/T",
		ELPMM:          elp,
		SphericalPower: power,
		Notes:          notes,
	}, nil
}
