// Package biometry defines the per-eye measurement inputs for IOL planning
// and the loader/validator for exam files.
package biometry

import "github.com/lake-health/lakecalc-ai/internal/vector"

// Eye identifies which eye a measurement belongs to.
type Eye string

const (
	OD Eye = "OD" // right eye
	OS Eye = "OS" // left eye
)

// KReading is a single keratometry meridian: power in diopters at an axis in
// degrees.
type KReading struct {
	Power float64 `yaml:"power" json:"power"`
	Axis  float64 `yaml:"axis" json:"axis"`
}

// SIA is the surgically-induced astigmatism the surgeon assumes for the
// planned incision.
type SIA struct {
	Magnitude float64 `yaml:"magnitude" json:"magnitude"`
	Axis      float64 `yaml:"axis" json:"axis"`
}

// EyeBiometry holds the measured inputs for one eye. WTW, CCT and LT are
// optional for astigmatism work; K1/K2 and axial length are required.
type EyeBiometry struct {
	Eye Eye `yaml:"eye" json:"eye"`

	K1 KReading `yaml:"k1" json:"k1"`
	K2 KReading `yaml:"k2" json:"k2"`

	AxialLengthMM float64  `yaml:"al_mm" json:"al_mm"`
	ACDMM         float64  `yaml:"acd_mm" json:"acd_mm"`
	LTMM          *float64 `yaml:"lt_mm,omitempty" json:"lt_mm,omitempty"`
	WTWMM         *float64 `yaml:"wtw_mm,omitempty" json:"wtw_mm,omitempty"`
	CCTUM         *float64 `yaml:"cct_um,omitempty" json:"cct_um,omitempty"`

	SIA SIA `yaml:"sia" json:"sia"`

	// Measurement repeatability, when the biometer reports it. Used by the
	// policy quality gate; zero values mean "not reported".
	AxisRepeatabilityDeg float64 `yaml:"axis_repeatability_deg,omitempty" json:"axis_repeatability_deg,omitempty"`
	KRepeatabilityD      float64 `yaml:"k_repeatability_d,omitempty" json:"k_repeatability_d,omitempty"`
}

// Exam is one patient's biometry, one record per measured eye.
type Exam struct {
	Patient string       `yaml:"patient" json:"patient"`
	OD      *EyeBiometry `yaml:"od,omitempty" json:"od,omitempty"`
	OS      *EyeBiometry `yaml:"os,omitempty" json:"os,omitempty"`
}

// DeltaK returns the anterior corneal cylinder magnitude in diopters.
func (b EyeBiometry) DeltaK() float64 {
	d := b.K1.Power - b.K2.Power
	if d < 0 {
		return -d
	}
	return d
}

// SteepAxis returns the axis of the steeper meridian. When the meridians are
// equal the cylinder is degenerate and the K1 axis is reported by convention.
func (b EyeBiometry) SteepAxis() float64 {
	if b.K2.Power > b.K1.Power {
		return vector.NormalizeAxis(b.K2.Axis)
	}
	return vector.NormalizeAxis(b.K1.Axis)
}

// MeanK returns the mean keratometric power in diopters.
func (b EyeBiometry) MeanK() float64 {
	return (b.K1.Power + b.K2.Power) / 2
}

// AnteriorVector returns the anterior corneal astigmatism as a power vector.
func (b EyeBiometry) AnteriorVector() vector.Astigmatism {
	return vector.FromPolar(b.DeltaK(), b.SteepAxis())
}

// SIAVector returns the assumed surgically-induced astigmatism as a power
// vector.
func (b EyeBiometry) SIAVector() vector.Astigmatism {
	return vector.FromPolar(b.SIA.Magnitude, b.SIA.Axis)
}

// Eyes returns the measured eyes in OD, OS order.
func (e Exam) Eyes() []*EyeBiometry {
	var eyes []*EyeBiometry
	if e.OD != nil {
		eyes = append(eyes, e.OD)
	}
	if e.OS != nil {
		eyes = append(eyes, e.OS)
	}
	return eyes
}
