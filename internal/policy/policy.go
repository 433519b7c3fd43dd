// Package policy defines the named threshold sets that drive the toric
// recommendation decision. Presets are data, not code: they ship as embedded
// YAML and callers may load custom policies from files.
package policy

import (
	"errors"
	"fmt"

	"github.com/lake-health/lakecalc-ai/internal/vector"
)

// ErrUnknownPolicy is returned when a preset name does not exist.
var ErrUnknownPolicy = errors.New("unknown toric policy")

// DefaultName is the preset used when the caller does not pick one.
const DefaultName = "lifetime_atr"

// Thresholds holds the orientation-specific decision bounds, all in diopters
// of post-bias total astigmatism except PrebiasFloor which applies to the
// anterior-only magnitude.
type Thresholds struct {
	Recommend    float64 `yaml:"recommend" json:"recommend" mapstructure:"recommend"`
	BorderLow    float64 `yaml:"border_low" json:"border_low" mapstructure:"border_low"`
	BorderHigh   float64 `yaml:"border_high" json:"border_high" mapstructure:"border_high"`
	PrebiasFloor float64 `yaml:"prebias_floor" json:"prebias_floor" mapstructure:"prebias_floor"`
}

// ToricPolicy is one named clinical philosophy for toric recommendations.
// Immutable once validated.
type ToricPolicy struct {
	Name        string `yaml:"-" json:"name"`
	Description string `yaml:"description" json:"description" mapstructure:"description"`

	// OrientationBandDeg is the half-width of the ATR/WTR classification
	// bands around 0°/180° and 90°.
	OrientationBandDeg float64 `yaml:"orientation_band_deg" json:"orientation_band_deg" mapstructure:"orientation_band_deg"`

	ByOrientation map[vector.Orientation]Thresholds `yaml:"thresholds" json:"thresholds" mapstructure:"thresholds"`

	// PostopMax is the highest acceptable predicted residual with a toric.
	PostopMax float64 `yaml:"postop_max" json:"postop_max" mapstructure:"postop_max"`

	// Gain rule: required gain = max(BaseMinGain, GainScale · post-bias).
	BaseMinGain float64 `yaml:"base_min_gain" json:"base_min_gain" mapstructure:"base_min_gain"`
	GainScale   float64 `yaml:"gain_scale" json:"gain_scale" mapstructure:"gain_scale"`

	// Quality gate. When a measurement exceeds either limit, QualityPenalty
	// is added to the recommend threshold and required gain.
	AxisRepeatabilityMaxDeg float64 `yaml:"axis_repeatability_max_deg" json:"axis_repeatability_max_deg" mapstructure:"axis_repeatability_max_deg"`
	KRepeatabilityMaxD      float64 `yaml:"k_repeatability_max_d" json:"k_repeatability_max_d" mapstructure:"k_repeatability_max_d"`
	QualityPenalty          float64 `yaml:"quality_penalty" json:"quality_penalty" mapstructure:"quality_penalty"`
}

// Validate rejects policies that cannot partition decisions sensibly. This is
// the only failure class that halts a calculation, so the messages name the
// offending field.
func (p ToricPolicy) Validate() error {
	if p.OrientationBandDeg <= 0 || p.OrientationBandDeg > 45 {
		return fmt.Errorf("policy %q: orientation_band_deg must be in (0, 45], got %v", p.Name, p.OrientationBandDeg)
	}
	for _, o := range []vector.Orientation{vector.AgainstTheRule, vector.WithTheRule, vector.Oblique} {
		t, ok := p.ByOrientation[o]
		if !ok {
			return fmt.Errorf("policy %q: missing thresholds for orientation %s", p.Name, o)
		}
		if t.Recommend < 0 || t.BorderLow < 0 || t.BorderHigh < 0 || t.PrebiasFloor < 0 {
			return fmt.Errorf("policy %q: %s thresholds must be non-negative", p.Name, o)
		}
		if t.BorderLow > t.BorderHigh {
			return fmt.Errorf("policy %q: %s border_low %v exceeds border_high %v", p.Name, o, t.BorderLow, t.BorderHigh)
		}
	}
	if p.PostopMax < 0 {
		return fmt.Errorf("policy %q: postop_max must be non-negative, got %v", p.Name, p.PostopMax)
	}
	if p.BaseMinGain < 0 || p.GainScale < 0 {
		return fmt.Errorf("policy %q: gain parameters must be non-negative", p.Name)
	}
	if p.QualityPenalty < 0 {
		return fmt.Errorf("policy %q: quality_penalty must be non-negative, got %v", p.Name, p.QualityPenalty)
	}
	return nil
}

// For returns the thresholds for an orientation. Validate guarantees the
// entry exists.
func (p ToricPolicy) For(o vector.Orientation) Thresholds {
	return p.ByOrientation[o]
}

// MinGain returns the required astigmatism reduction for a given post-bias
// magnitude, before any quality penalty.
func (p ToricPolicy) MinGain(postBias float64) float64 {
	scaled := p.GainScale * postBias
	if scaled > p.BaseMinGain {
		return scaled
	}
	return p.BaseMinGain
}
