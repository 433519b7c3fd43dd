// Package recommend turns one eye's refined astigmatism state into a
// ternary toric recommendation under a named policy, with a rationale trail
// suitable for clinical audit.
package recommend

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lake-health/lakecalc-ai/internal/biometry"
	"github.com/lake-health/lakecalc-ai/internal/policy"
	"github.com/lake-health/lakecalc-ai/internal/refine"
	"github.com/lake-health/lakecalc-ai/internal/selector"
	"github.com/lake-health/lakecalc-ai/internal/vector"
)

// Decision is the ternary recommendation outcome.
type Decision string

const (
	Toric      Decision = "toric"
	Borderline Decision = "borderline"
	NonToric   Decision = "non_toric"
)

// BorderSlackD relaxes the required gain for a borderline call relative to a
// full toric recommendation.
const BorderSlackD = 0.25

// Applied records the threshold values actually used for the decision,
// after any quality penalty.
type Applied struct {
	Recommend    float64 `json:"recommend"`
	BorderLow    float64 `json:"border_low"`
	BorderHigh   float64 `json:"border_high"`
	PostopMax    float64 `json:"postop_max"`
	MinGain      float64 `json:"min_gain"`
	PrebiasFloor float64 `json:"prebias_floor"`
}

// Recommendation is the per-eye output. Immutable once returned.
type Recommendation struct {
	ID  string       `json:"id"`
	Eye biometry.Eye `json:"eye"`

	Decision    Decision           `json:"decision"`
	Orientation vector.Orientation `json:"orientation"`

	// PreBias is the anterior-only cylinder; PostBias is the total after
	// SIA and the posterior model.
	PreBias  float64 `json:"pre_bias"`
	PostBias float64 `json:"post_bias"`
	Axis     float64 `json:"axis"`

	ChosenOption      *selector.Option `json:"chosen_option,omitempty"`
	IOLCyl            float64          `json:"iol_cyl"`
	ResidualMagnitude float64          `json:"residual_magnitude"`
	ResidualAxis      float64          `json:"residual_axis"`
	ExpectedGain      float64          `json:"expected_gain"`

	ELPMM          float64 `json:"elp_mm"`
	SphericalPower float64 `json:"spherical_power"`
	Formula        string  `json:"formula"`
	ToricityRatio  float64 `json:"toricity_ratio"`

	Iterations     int  `json:"iterations"`
	Converged      bool `json:"converged"`
	NoToricOptions bool `json:"no_toric_options"`
	QualityFlagged bool `json:"quality_flagged"`

	Policy    string   `json:"policy"`
	Applied   Applied  `json:"thresholds_applied"`
	Rationale []string `json:"rationale"`
}

// Engine binds a policy to a refinement configuration. Safe for concurrent
// use: both fields are read-only after construction.
type Engine struct {
	Policy policy.ToricPolicy
	Refine refine.Config
}

// NewEngine returns an engine with the default refinement configuration.
func NewEngine(p policy.ToricPolicy) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{Policy: p, Refine: refine.DefaultConfig()}, nil
}

// Recommend produces the recommendation for one eye. Identical inputs always
// yield an identical decision; only the ID differs between calls.
func (e *Engine) Recommend(ctx context.Context, eye biometry.EyeBiometry, targetRefraction float64, options []selector.Option, src refine.ELPSource) (*Recommendation, error) {
	res, err := refine.Run(ctx, eye, targetRefraction, options, src, e.Refine)
	if err != nil {
		return nil, err
	}

	orientation := vector.Classify(res.PreBiasAxis, e.Policy.OrientationBandDeg)
	th := e.Policy.For(orientation)

	rec := &Recommendation{
		ID:             uuid.NewString(),
		Eye:            eye.Eye,
		Orientation:    orientation,
		PreBias:        res.PreBiasMagnitude,
		PostBias:       res.TotalMagnitude,
		Axis:           res.TotalAxis,
		ELPMM:          res.ELPMM,
		SphericalPower: res.SphericalPower,
		Formula:        res.Formula,
		ToricityRatio:  res.ToricityRatio,
		Iterations:     res.Iterations,
		Converged:      res.Converged,
		NoToricOptions: res.NoOptions,
		Policy:         e.Policy.Name,
		Rationale:      append([]string(nil), res.Steps...),
	}
	rec.Rationale = append(rec.Rationale,
		fmt.Sprintf("Orientation: %s (anterior axis, ±%.0f° bands)", orientation, e.Policy.OrientationBandDeg))

	penalty := e.qualityPenalty(eye, rec)

	rec.Applied = Applied{
		Recommend:    th.Recommend + penalty,
		BorderLow:    th.BorderLow,
		BorderHigh:   th.BorderHigh,
		PostopMax:    e.Policy.PostopMax,
		MinGain:      e.Policy.MinGain(rec.PostBias) + penalty,
		PrebiasFloor: th.PrebiasFloor,
	}

	if res.Selection != nil {
		opt := res.Selection.Option
		rec.ChosenOption = &opt
		rec.IOLCyl = res.Selection.IOLCyl
		rec.ResidualMagnitude = res.Selection.ResidualMagnitude
		rec.ResidualAxis = res.Selection.ResidualAxis
		rec.ExpectedGain = rec.PostBias - rec.ResidualMagnitude
	}

	rec.Decision = e.decide(rec)
	return rec, nil
}

// qualityPenalty applies the measurement-quality gate: repeatability beyond
// the policy limits raises the recommend threshold and required gain, and is
// always surfaced in the rationale.
func (e *Engine) qualityPenalty(eye biometry.EyeBiometry, rec *Recommendation) float64 {
	flagged := false
	if e.Policy.AxisRepeatabilityMaxDeg > 0 && eye.AxisRepeatabilityDeg > e.Policy.AxisRepeatabilityMaxDeg {
		flagged = true
		rec.Rationale = append(rec.Rationale,
			fmt.Sprintf("Measurement quality: axis repeatability %.1f° exceeds the %.1f° limit", eye.AxisRepeatabilityDeg, e.Policy.AxisRepeatabilityMaxDeg))
	}
	if e.Policy.KRepeatabilityMaxD > 0 && eye.KRepeatabilityD > e.Policy.KRepeatabilityMaxD {
		flagged = true
		rec.Rationale = append(rec.Rationale,
			fmt.Sprintf("Measurement quality: K repeatability %.2fD exceeds the %.2fD limit", eye.KRepeatabilityD, e.Policy.KRepeatabilityMaxD))
	}
	if !flagged {
		return 0
	}
	rec.QualityFlagged = true
	rec.Rationale = append(rec.Rationale,
		fmt.Sprintf("Thresholds raised by %.2fD for reduced measurement confidence", e.Policy.QualityPenalty))
	return e.Policy.QualityPenalty
}

func (e *Engine) decide(rec *Recommendation) Decision {
	if rec.NoToricOptions || rec.ChosenOption == nil {
		rec.Rationale = append(rec.Rationale, "Decision: non-toric (no toric option available)")
		return NonToric
	}

	a := rec.Applied
	toricOK := rec.PostBias >= a.Recommend &&
		rec.ResidualMagnitude <= a.PostopMax &&
		rec.ExpectedGain >= a.MinGain
	borderOK := rec.PostBias >= a.BorderLow && rec.PostBias < a.BorderHigh &&
		rec.ResidualMagnitude <= a.PostopMax &&
		rec.ExpectedGain >= a.MinGain-BorderSlackD

	switch {
	case toricOK && rec.QualityFlagged:
		rec.Rationale = append(rec.Rationale,
			"Decision: borderline (toric criteria met, downgraded for measurement quality)")
		return Borderline
	case toricOK && rec.PreBias < a.PrebiasFloor:
		rec.Rationale = append(rec.Rationale,
			fmt.Sprintf("Decision: borderline (anterior cylinder %.2fD below the %.2fD floor; total is driven by modeled contributions)", rec.PreBias, a.PrebiasFloor))
		return Borderline
	case toricOK:
		rec.Rationale = append(rec.Rationale,
			fmt.Sprintf("Decision: toric (total %.2fD >= %.2fD, residual %.2fD <= %.2fD, gain %.2fD >= %.2fD)",
				rec.PostBias, a.Recommend, rec.ResidualMagnitude, a.PostopMax, rec.ExpectedGain, a.MinGain))
		return Toric
	case borderOK:
		rec.Rationale = append(rec.Rationale,
			fmt.Sprintf("Decision: borderline (total %.2fD in [%.2f, %.2f)D band)", rec.PostBias, a.BorderLow, a.BorderHigh))
		return Borderline
	default:
		rec.Rationale = append(rec.Rationale,
			fmt.Sprintf("Decision: non-toric (total %.2fD below the %.2fD threshold or insufficient gain)", rec.PostBias, a.Recommend))
		return NonToric
	}
}
