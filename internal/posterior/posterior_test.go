package posterior

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimate_WTRWeighting(t *testing.T) {
	p := DefaultParams()

	// Anterior 2.35D @ 90° (WTR), mean K 42.625.
	v := p.Estimate(2.35, 42.625, 90)
	base := DefaultGamma0 + DefaultGamma1*2.35 + DefaultGamma2*(42.625-ReferenceMeanK)
	assert.InDelta(t, base*DefaultWTRFactor, v.Magnitude(), 1e-9)
	assert.InDelta(t, 0, v.Axis(), 1e-9, "posterior axis is fixed at 180° ≡ 0°")
}

func TestEstimate_NonWTRTakesATRFactor(t *testing.T) {
	p := DefaultParams()
	atr := p.Estimate(1.0, 44.0, 5)   // ATR axis
	obl := p.Estimate(1.0, 44.0, 45)  // oblique axis
	wtr := p.Estimate(1.0, 44.0, 100) // WTR axis

	// Oblique is ATR-weighted in the two-way model.
	assert.InDelta(t, atr.Magnitude(), obl.Magnitude(), 1e-12)
	assert.Greater(t, wtr.Magnitude(), atr.Magnitude())
}

func TestEstimate_NegativeAnteriorClamped(t *testing.T) {
	p := DefaultParams()
	got := p.Estimate(-2.0, 43.0, 90)
	want := p.Estimate(0, 43.0, 90)
	assert.Equal(t, want, got)
}

func TestEstimate_NegativeMagnitudeCollapsesToZero(t *testing.T) {
	p := DefaultParams()
	p.Gamma0 = -1.0
	v := p.Estimate(0, 43.0, 90)
	assert.True(t, v.IsZero())
}

func TestEstimate_Gamma1Monotonic(t *testing.T) {
	p := DefaultParams()
	prev := p.Estimate(1.5, 43.5, 90).Magnitude()
	for g1 := DefaultGamma1; g1 <= 1.0; g1 += 0.1 {
		p.Gamma1 = g1
		cur := p.Estimate(1.5, 43.5, 90).Magnitude()
		assert.GreaterOrEqual(t, cur, prev, "gamma1 %v", g1)
		prev = cur
	}
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	bad := DefaultParams()
	bad.WTRFactor = 0
	assert.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.ATRFactor = -0.5
	assert.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.WTRBandDeg = 120
	assert.Error(t, bad.Validate())
}
