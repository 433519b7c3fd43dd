package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lake-health/lakecalc-ai/internal/policy"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lakecalc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	require.Equal(t, policy.DefaultName, s.Policy)
	require.Equal(t, "haigis", s.Formula)
	require.InDelta(t, 1.46, s.Toricity.Base, 1e-9)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
policy: conservative
family: tecnis_toric
toricity:
  base: 1.50
posterior:
  gamma1: 0.25
`)

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "conservative", s.Policy)
	require.Equal(t, "tecnis_toric", s.Family)
	require.InDelta(t, 1.50, s.Toricity.Base, 1e-9)
	require.InDelta(t, 0.25, s.Posterior.Gamma1, 1e-9)

	// Untouched fields keep their defaults.
	require.Equal(t, "haigis", s.Formula)
	require.InDelta(t, 0.10, s.Posterior.Gamma0, 1e-9)
	require.InDelta(t, 1.15, s.Posterior.WTRFactor, 1e-9)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"unknown policy", "policy: nope\n"},
		{"unknown formula", "formula: nope\n"},
		{"bad posterior", "posterior: {wtr_factor: -1}\n"},
		{"bad toricity", "toricity: {base: 0}\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
