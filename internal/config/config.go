// Package config loads the optional lakecalc settings file: default CLI
// choices plus overrides for the posterior cornea model and the toricity
// ratio.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lake-health/lakecalc-ai/internal/formulas"
	"github.com/lake-health/lakecalc-ai/internal/policy"
	"github.com/lake-health/lakecalc-ai/internal/posterior"
	"github.com/lake-health/lakecalc-ai/internal/toricity"
)

// Settings is the full configuration surface. Flags override file values,
// file values override defaults.
type Settings struct {
	Policy   string  `yaml:"policy"`
	Family   string  `yaml:"family"`
	Formula  string  `yaml:"formula"`
	Target   float64 `yaml:"target"`
	AuditDir string  `yaml:"audit_dir"`
	DB       string  `yaml:"db"`

	Posterior posterior.Params `yaml:"posterior"`
	Toricity  toricity.Ratio   `yaml:"toricity"`
}

// Default returns the settings used when no file is given.
func Default() Settings {
	return Settings{
		Policy:    policy.DefaultName,
		Family:    "acrysof_toric",
		Formula:   formulas.DefaultFormulaName,
		Posterior: posterior.DefaultParams(),
		Toricity:  toricity.DefaultRatio(),
	}
}

// Load reads a YAML settings file over the defaults and validates the
// result.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing config file: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings that the engine would reject later, so the
// failure points at the config file instead of a calculation.
func (s Settings) Validate() error {
	if _, err := policy.Get(s.Policy); err != nil {
		return err
	}
	if _, err := formulas.ByName(s.Formula); err != nil {
		return err
	}
	if err := s.Posterior.Validate(); err != nil {
		return err
	}
	return s.Toricity.Validate()
}
