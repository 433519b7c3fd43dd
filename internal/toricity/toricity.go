// Package toricity converts cylinder power between the IOL plane and the
// corneal plane. The conversion factor is allowed to depend on the effective
// lens position so the ratio can be refined without an interface change.
package toricity

import "fmt"

// Defaults for the toricity ratio model.
const (
	DefaultBase  = 1.46
	DefaultSlope = 0.0

	// ReferenceELPMM anchors the slope term.
	ReferenceELPMM = 5.0
)

// Ratio models the toricity ratio as TR(ELP) = Base + Slope·(ELP − 5.0 mm).
// With the default zero slope the ratio is constant.
type Ratio struct {
	Base  float64 `yaml:"base" json:"base"`
	Slope float64 `yaml:"slope" json:"slope"`
}

// DefaultRatio returns the standard constant ratio.
func DefaultRatio() Ratio {
	return Ratio{Base: DefaultBase, Slope: DefaultSlope}
}

// Validate rejects ratios that would divide by zero or invert signs.
func (r Ratio) Validate() error {
	if r.Base <= 0 {
		return fmt.Errorf("toricity ratio: base must be positive, got %v", r.Base)
	}
	return nil
}

// At returns the toricity ratio for a given ELP in millimetres.
func (r Ratio) At(elpMM float64) float64 {
	return r.Base + r.Slope*(elpMM-ReferenceELPMM)
}

// CornealEquivalent converts an IOL-plane cylinder to its corneal-plane
// equivalent at the given ELP.
func (r Ratio) CornealEquivalent(iolCyl, elpMM float64) float64 {
	return iolCyl / r.At(elpMM)
}

// IOLEquivalent converts a corneal-plane cylinder back to the IOL plane.
func (r Ratio) IOLEquivalent(cornealCyl, elpMM float64) float64 {
	return cornealCyl * r.At(elpMM)
}
