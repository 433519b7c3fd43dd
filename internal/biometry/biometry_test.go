package biometry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validExamYAML = `
patient: anon-001
od:
  k1: {power: 41.45, axis: 90}
  k2: {power: 43.80, axis: 180}
  al_mm: 23.77
  acd_mm: 2.83
  lt_mm: 4.95
  wtw_mm: 11.6
  cct_um: 544
  sia: {magnitude: 0.1, axis: 120}
os:
  k1: {power: 42.0, axis: 75}
  k2: {power: 42.9, axis: 165}
  al_mm: 23.5
  acd_mm: 3.0
  sia: {magnitude: 0.1, axis: 120}
`

func TestParseExam_Valid(t *testing.T) {
	exam, err := ParseExam([]byte(validExamYAML))
	require.NoError(t, err)
	require.NotNil(t, exam.OD)
	require.NotNil(t, exam.OS)

	assert.Equal(t, OD, exam.OD.Eye)
	assert.Equal(t, OS, exam.OS.Eye)
	assert.Equal(t, "anon-001", exam.Patient)
	assert.InDelta(t, 2.35, exam.OD.DeltaK(), 1e-9)
	assert.InDelta(t, 42.625, exam.OD.MeanK(), 1e-9)
	require.NotNil(t, exam.OD.LTMM)
	assert.InDelta(t, 4.95, *exam.OD.LTMM, 1e-9)
	assert.Nil(t, exam.OS.LTMM, "LT is optional")
	assert.Len(t, exam.Eyes(), 2)
}

func TestSteepAxis(t *testing.T) {
	b := EyeBiometry{
		K1: KReading{Power: 41.45, Axis: 90},
		K2: KReading{Power: 43.80, Axis: 180},
	}
	// K2 is steeper: its axis wins, normalized into [0, 180).
	assert.InDelta(t, 0, b.SteepAxis(), 1e-12)

	b.K1.Power = 44.0
	assert.InDelta(t, 90, b.SteepAxis(), 1e-12)
}

func TestSteepAxis_EqualKsUsesK1Axis(t *testing.T) {
	b := EyeBiometry{
		K1: KReading{Power: 43.0, Axis: 37},
		K2: KReading{Power: 43.0, Axis: 127},
	}
	assert.Zero(t, b.DeltaK())
	assert.InDelta(t, 37, b.SteepAxis(), 1e-12)
}

func TestAnteriorVector(t *testing.T) {
	b := EyeBiometry{
		K1: KReading{Power: 42.0, Axis: 90},
		K2: KReading{Power: 44.0, Axis: 180},
	}
	mag, axis := b.AnteriorVector().Polar()
	assert.InDelta(t, 2.0, mag, 1e-9)
	assert.InDelta(t, 0, axis, 1e-9)
}

func TestParseExam_MissingRequiredField(t *testing.T) {
	bad := `
patient: x
od:
  k1: {power: 41.45, axis: 90}
  al_mm: 23.77
  acd_mm: 2.83
  sia: {magnitude: 0.1, axis: 120}
`
	_, err := ParseExam([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exam")
}

func TestParseExam_OutOfRangeValues(t *testing.T) {
	bad := `
od:
  k1: {power: 41.45, axis: 90}
  k2: {power: 43.80, axis: 270}
  al_mm: 99
  acd_mm: 2.83
  sia: {magnitude: 0.1, axis: 120}
`
	_, err := ParseExam([]byte(bad))
	require.Error(t, err)
}

func TestParseExam_NeitherEye(t *testing.T) {
	_, err := ParseExam([]byte(`patient: x`))
	require.Error(t, err)
}

func TestLoadExam_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exam.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validExamYAML), 0o644))

	exam, err := LoadExam(path)
	require.NoError(t, err)
	assert.Equal(t, "anon-001", exam.Patient)
}

func TestLoadExam_MissingFile(t *testing.T) {
	_, err := LoadExam(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
