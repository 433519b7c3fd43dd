package formulas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lake-health/lakecalc-ai/internal/biometry"
)

func testEye() biometry.EyeBiometry {
	lt, wtw, cct := 4.95, 11.6, 544.0
	return biometry.EyeBiometry{
		Eye:           biometry.OD,
		K1:            biometry.KReading{Power: 41.45, Axis: 90},
		K2:            biometry.KReading{Power: 43.80, Axis: 180},
		AxialLengthMM: 23.77,
		ACDMM:         2.83,
		LTMM:          &lt,
		WTWMM:         &wtw,
		CCTUM:         &cct,
		SIA:           biometry.SIA{Magnitude: 0.1, Axis: 120},
	}
}

func TestSpectacleToCorneal(t *testing.T) {
	// -2.00 D at 12 mm vertex is about -1.95 D at the cornea.
	rc := SpectacleToCorneal(-2.0, 0.012)
	assert.InDelta(t, -1.953, rc, 0.001)

	// Plano stays plano.
	assert.Zero(t, SpectacleToCorneal(0, 0.012))
}

func TestSRKT_PlanoTarget(t *testing.T) {
	est, err := SRKT{}.Estimate(context.Background(), testEye(), 0, DefaultConstants())
	require.NoError(t, err)

	assert.Equal(t, "SRK/T", est.Formula)
	assert.InDelta(t, 5.3466, est.ELPMM, 1e-3)
	assert.InDelta(t, 21.819, est.SphericalPower, 1e-2)
}

func TestSRKT_NotTheRegressionFormula(t *testing.T) {
	eye := testEye()
	est, err := SRKT{}.Estimate(context.Background(), eye, 0, DefaultConstants())
	require.NoError(t, err)

	// The SRK I regression P = A − 2.5·AL − 0.9·K is a different formula;
	// the theoretical chain must not collapse into it.
	regression := DefaultAConstant - 2.5*eye.AxialLengthMM - 0.9*eye.MeanK()
	assert.Greater(t, absf(est.SphericalPower-regression), 0.1)
}

func TestSRKT_TargetShiftsPower(t *testing.T) {
	plano, err := SRKT{}.Estimate(context.Background(), testEye(), 0, DefaultConstants())
	require.NoError(t, err)
	myopic, err := SRKT{}.Estimate(context.Background(), testEye(), -1.0, DefaultConstants())
	require.NoError(t, err)

	// Aiming myopic needs a stronger lens.
	assert.Greater(t, myopic.SphericalPower, plano.SphericalPower)
}

func TestSRKT_LongEyeUsesCorrectedLength(t *testing.T) {
	eye := testEye()
	eye.AxialLengthMM = 27.5
	est, err := SRKT{}.Estimate(context.Background(), eye, 0, DefaultConstants())
	require.NoError(t, err)
	// Long eyes need much weaker lenses.
	assert.Less(t, est.SphericalPower, 15.0)
}

func TestSRKT_InvalidInput(t *testing.T) {
	eye := testEye()
	eye.AxialLengthMM = 0
	_, err := SRKT{}.Estimate(context.Background(), eye, 0, DefaultConstants())
	assert.Error(t, err)
}

func TestHaigis_PlanoTarget(t *testing.T) {
	est, err := Haigis{}.Estimate(context.Background(), testEye(), 0, DefaultConstants())
	require.NoError(t, err)

	// ELP = 2.1 + 0.4·2.83 + 0.1·23.77 = 5.609.
	assert.InDelta(t, 5.609, est.ELPMM, 1e-9)
	assert.InDelta(t, 21.649, est.SphericalPower, 1e-2)
}

func TestHaigis_IOLSpecificConstants(t *testing.T) {
	consts := Constants{AConstant: 119.0, HaigisA0: 1.36, HaigisA1: 0.4, HaigisA2: 0.1}
	est, err := Haigis{}.Estimate(context.Background(), testEye(), 0, consts)
	require.NoError(t, err)
	assert.InDelta(t, 1.36+0.4*2.83+0.1*23.77, est.ELPMM, 1e-9)
}

func TestHaigis_Idempotent(t *testing.T) {
	a, err := Haigis{}.Estimate(context.Background(), testEye(), 0, DefaultConstants())
	require.NoError(t, err)
	b, err := Haigis{}.Estimate(context.Background(), testEye(), 0, DefaultConstants())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCookeK6_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"IOLs":[{"Predictions":[{"IOL":22.0,"Rx":-0.12}]}]}]`))
	}))
	defer srv.Close()

	c := &CookeK6{URL: srv.URL, Client: srv.Client()}
	est, err := c.Estimate(context.Background(), testEye(), 0, DefaultConstants())
	require.NoError(t, err)
	assert.Equal(t, "Cooke K6", est.Formula)
	assert.InDelta(t, 22.0, est.SphericalPower, 1e-9)
	assert.InDelta(t, 5.609, est.ELPMM, 1e-9, "ELP falls back to Haigis")
}

func TestCookeK6_MissingBiometry(t *testing.T) {
	eye := testEye()
	eye.LTMM = nil
	_, err := NewCookeK6().Estimate(context.Background(), eye, 0, DefaultConstants())
	assert.Error(t, err)
}

func TestCookeK6_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &CookeK6{URL: srv.URL, Client: srv.Client()}
	_, err := c.Estimate(context.Background(), testEye(), 0, DefaultConstants())
	assert.Error(t, err)
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
