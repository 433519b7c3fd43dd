// Package selector picks the toric IOL cylinder power that minimizes
// predicted residual astigmatism over a discrete catalog of options.
package selector

import (
	"errors"
	"math"

	"github.com/lake-health/lakecalc-ai/internal/toricity"
	"github.com/lake-health/lakecalc-ai/internal/vector"
)

// ErrNoOptions is returned when the catalog has no toric powers for the
// requested family. This is a distinct outcome from "toric not recommended".
var ErrNoOptions = errors.New("no toric option available")

// DefaultATRBoost slightly favors over-correcting against-the-rule
// astigmatism, matching the clinical tendency to correct ATR aggressively.
const DefaultATRBoost = 1.05

// Option is one discrete toric power from an IOL family's catalog. Cyl is
// the corneal-plane-equivalent cylinder power in diopters, the unit the
// catalog service reports.
type Option struct {
	FamilyID string  `json:"family_id"`
	SKU      string  `json:"sku"`
	Cyl      float64 `json:"cyl"`
}

// Selection is the outcome of choosing an option against a total
// astigmatism vector.
type Selection struct {
	Option Option `json:"option"`

	// IOLCyl is the option's cylinder power at the IOL plane, derived from
	// the toricity ratio at the current ELP.
	IOLCyl float64 `json:"iol_cyl"`

	// AppliedCyl is the corneal-plane correction actually credited to the
	// option, including any ATR boost.
	AppliedCyl float64 `json:"applied_cyl"`

	Residual          vector.Astigmatism `json:"residual"`
	ResidualMagnitude float64            `json:"residual_magnitude"`
	ResidualAxis      float64            `json:"residual_axis"`

	// Beneficial reports whether the chosen option beats leaving the eye
	// uncorrected: its residual is strictly below the total magnitude.
	Beneficial bool `json:"beneficial"`
}

// Config holds the selection knobs.
type Config struct {
	Ratio      toricity.Ratio
	ATRBoost   float64
	WTRBandDeg float64
}

// DefaultConfig returns the standard selection configuration.
func DefaultConfig() Config {
	return Config{
		Ratio:      toricity.DefaultRatio(),
		ATRBoost:   DefaultATRBoost,
		WTRBandDeg: vector.DefaultOrientationBandDeg,
	}
}

// Choose evaluates every catalog option against the total astigmatism vector
// and returns the one with minimum residual magnitude. The candidate's
// correction vector is aligned with the total astigmatism axis; when the
// total orientation is not with-the-rule the correction is credited at
// ATRBoost times its nominal power (the boost biases the comparison, it does
// not hard-select a stronger lens).
//
// Ties on residual are broken by preferring the option whose nominal power is
// closest to the uncorrected total magnitude, then the lower power. The
// result is deterministic for a given option order.
func Choose(total vector.Astigmatism, elpMM float64, options []Option, cfg Config) (Selection, error) {
	if len(options) == 0 {
		return Selection{}, ErrNoOptions
	}

	totalMag, totalAxis := total.Polar()

	boost := 1.0
	if !vector.IsWithTheRule(totalAxis, cfg.WTRBandDeg) {
		boost = cfg.ATRBoost
	}

	const eps = 1e-9

	var best Selection
	haveBest := false
	for _, opt := range options {
		applied := opt.Cyl * boost
		residual := total.Sub(vector.FromPolar(applied, totalAxis))
		resMag, resAxis := residual.Polar()

		cand := Selection{
			Option:            opt,
			IOLCyl:            cfg.Ratio.IOLEquivalent(opt.Cyl, elpMM),
			AppliedCyl:        applied,
			Residual:          residual,
			ResidualMagnitude: resMag,
			ResidualAxis:      resAxis,
			Beneficial:        resMag < totalMag,
		}

		if !haveBest || better(cand, best, totalMag, eps) {
			best = cand
			haveBest = true
		}
	}
	return best, nil
}

// better reports whether a should replace b as the current best selection.
func better(a, b Selection, totalMag, eps float64) bool {
	if a.ResidualMagnitude < b.ResidualMagnitude-eps {
		return true
	}
	if a.ResidualMagnitude > b.ResidualMagnitude+eps {
		return false
	}
	da := math.Abs(a.Option.Cyl - totalMag)
	db := math.Abs(b.Option.Cyl - totalMag)
	if da != db {
		return da < db
	}
	return a.Option.Cyl < b.Option.Cyl
}
