package selector

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lake-health/lakecalc-ai/internal/vector"
)

func powers(cyls ...float64) []Option {
	opts := make([]Option, 0, len(cyls))
	for i, c := range cyls {
		opts = append(opts, Option{FamilyID: "test", SKU: fmt.Sprintf("T%d", i), Cyl: c})
	}
	return opts
}

func TestChoose_EmptyCatalog(t *testing.T) {
	_, err := Choose(vector.FromPolar(3.0, 90), 5.0, nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNoOptions)
}

func TestChoose_WTRPicksNearestPower(t *testing.T) {
	total := vector.FromPolar(2.35, 85) // WTR, no boost
	sel, err := Choose(total, 5.17, powers(0.0, 1.0, 1.5, 2.0, 2.5, 3.0), DefaultConfig())
	require.NoError(t, err)

	assert.InDelta(t, 2.5, sel.Option.Cyl, 1e-9)
	assert.InDelta(t, 0.15, sel.ResidualMagnitude, 1e-9)
	assert.True(t, sel.Beneficial)
	assert.InDelta(t, 2.5*1.46, sel.IOLCyl, 1e-9)
}

func TestChoose_ATRBoostBiasesComparison(t *testing.T) {
	// 1.9D at 180° (ATR). Unboosted, 2.0 leaves 0.1; with the 1.05 boost the
	// 2.0 option is credited 2.10 leaving 0.2, so 1.5 (credited 1.575,
	// residual 0.325) still loses. The boost matters near the midpoints.
	total := vector.FromPolar(1.72, 180)
	cfg := DefaultConfig()

	sel, err := Choose(total, 5.0, powers(1.5, 2.0), cfg)
	require.NoError(t, err)
	// Credited: 1.575 → residual 0.145; 2.10 → residual 0.38.
	assert.InDelta(t, 1.5, sel.Option.Cyl, 1e-9)

	cfg.ATRBoost = 1.0
	sel, err = Choose(total, 5.0, powers(1.5, 2.0), cfg)
	require.NoError(t, err)
	// Unboosted: residuals 0.22 vs 0.28, still 1.5.
	assert.InDelta(t, 1.5, sel.Option.Cyl, 1e-9)
}

func TestChoose_ZeroOptionNotBeneficial(t *testing.T) {
	total := vector.FromPolar(0.30, 10)
	sel, err := Choose(total, 5.0, powers(0.0, 1.0), DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sel.Option.Cyl, 1e-9)
	assert.False(t, sel.Beneficial, "residual equals total when no correction is applied")
}

func TestChoose_TieBreakDeterministic(t *testing.T) {
	// Equidistant options: 1.0 and 2.0 both leave 0.5 of residual for a
	// 1.5D WTR total. Both are 0.5 from the total magnitude, so the lower
	// power wins.
	total := vector.FromPolar(1.5, 90)
	sel, err := Choose(total, 5.0, powers(2.0, 1.0), DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sel.Option.Cyl, 1e-9)

	// Order independence.
	sel2, err := Choose(total, 5.0, powers(1.0, 2.0), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, sel.Option, sel2.Option)
}

func TestChoose_BruteForceOptimality(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	catalog := powers(0.0, 0.5, 1.0, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0, 4.5, 5.0, 5.5, 6.0)
	cfg := DefaultConfig()

	for i := 0; i < 200; i++ {
		mag := rng.Float64() * 6
		axis := rng.Float64() * 180
		total := vector.FromPolar(mag, axis)

		sel, err := Choose(total, 4.0+rng.Float64()*2, catalog, cfg)
		require.NoError(t, err)

		boost := 1.0
		if !vector.IsWithTheRule(axis, cfg.WTRBandDeg) {
			boost = cfg.ATRBoost
		}
		for _, opt := range catalog {
			res := total.Sub(vector.FromPolar(opt.Cyl*boost, total.Axis())).Magnitude()
			assert.LessOrEqual(t, sel.ResidualMagnitude, res+1e-9,
				"case %d: option %v beats chosen %v", i, opt.Cyl, sel.Option.Cyl)
		}
	}
}

func TestChoose_ResidualAxisOrthogonalOnOvercorrection(t *testing.T) {
	// Over-correcting flips the residual to the orthogonal meridian.
	total := vector.FromPolar(1.0, 90)
	cfg := DefaultConfig()
	cfg.ATRBoost = 1.0
	sel, err := Choose(total, 5.0, powers(2.0), cfg)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sel.ResidualMagnitude, 1e-9)
	assert.InDelta(t, 0.0, math.Min(sel.ResidualAxis, 180-sel.ResidualAxis), 1e-6)
}
