// Package refine runs the iterative coupling between total corneal
// astigmatism, the effective lens position from a spherical formula, and the
// discrete toric catalog. The loop always terminates: a small iteration cap
// bounds formula couplings that fail to settle.
package refine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/lake-health/lakecalc-ai/internal/biometry"
	"github.com/lake-health/lakecalc-ai/internal/formulas"
	"github.com/lake-health/lakecalc-ai/internal/posterior"
	"github.com/lake-health/lakecalc-ai/internal/selector"
	"github.com/lake-health/lakecalc-ai/internal/vector"
)

// Loop bounds. Convergence is expected within one or two iterations; the cap
// is a safety bound, not an error condition.
const (
	DefaultMaxIterations  = 5
	DefaultELPToleranceMM = 0.1
)

// ELPSource supplies the effective lens position and baseline spherical
// power for an eye. Implementations must be idempotent for the same inputs.
type ELPSource interface {
	EstimateELP(ctx context.Context, eye biometry.EyeBiometry, targetRefraction float64) (formulas.Estimate, error)
}

// FormulaSource adapts a spherical formula plus its IOL constants to the
// ELPSource interface.
type FormulaSource struct {
	Formula   formulas.Spherical
	Constants formulas.Constants
}

// EstimateELP implements ELPSource.
func (s FormulaSource) EstimateELP(ctx context.Context, eye biometry.EyeBiometry, targetRefraction float64) (formulas.Estimate, error) {
	return s.Formula.Estimate(ctx, eye, targetRefraction, s.Constants)
}

// Config holds the refinement knobs.
type Config struct {
	MaxIterations  int
	ELPToleranceMM float64
	Posterior      posterior.Params
	Selector       selector.Config
}

// DefaultConfig returns the standard refinement configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations:  DefaultMaxIterations,
		ELPToleranceMM: DefaultELPToleranceMM,
		Posterior:      posterior.DefaultParams(),
		Selector:       selector.DefaultConfig(),
	}
}

// Validate rejects configurations that cannot terminate or select.
func (c Config) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("refine: max_iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.ELPToleranceMM <= 0 {
		return fmt.Errorf("refine: elp_tolerance_mm must be positive, got %v", c.ELPToleranceMM)
	}
	if err := c.Posterior.Validate(); err != nil {
		return err
	}
	return c.Selector.Ratio.Validate()
}

// Result is the terminal state of one eye's refinement.
type Result struct {
	Total          vector.Astigmatism `json:"total"`
	TotalMagnitude float64            `json:"total_magnitude"`
	TotalAxis      float64            `json:"total_axis"`

	// Pre-bias anterior astigmatism, before SIA and the posterior model.
	PreBiasMagnitude float64 `json:"pre_bias_magnitude"`
	PreBiasAxis      float64 `json:"pre_bias_axis"`

	// Selection is nil when the catalog had no toric options.
	Selection *selector.Selection `json:"selection,omitempty"`
	NoOptions bool                `json:"no_options"`

	ELPMM          float64 `json:"elp_mm"`
	SphericalPower float64 `json:"spherical_power"`
	Formula        string  `json:"formula"`
	ToricityRatio  float64 `json:"toricity_ratio"`

	Iterations int  `json:"iterations"`
	Converged  bool `json:"converged"`

	// Steps is the ordered audit trail of each contribution.
	Steps []string `json:"steps"`
}

// Run executes the refinement state machine for one eye: build the total
// astigmatism vector (anterior + SIA + posterior), obtain an ELP from the
// spherical formula, select a toric option, and repeat until the ELP
// stabilizes within tolerance or the iteration cap is hit. Hitting the cap
// returns the last computed state with Converged set to false.
func Run(ctx context.Context, eye biometry.EyeBiometry, targetRefraction float64, options []selector.Option, src ELPSource, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	anterior := eye.AnteriorVector()
	sia := eye.SIAVector()
	post := cfg.Posterior.Estimate(eye.DeltaK(), eye.MeanK(), eye.SteepAxis())
	total := anterior.Add(sia).Add(post)

	totalMag, totalAxis := total.Polar()
	postMag, _ := post.Polar()

	res := &Result{
		Total:            total,
		TotalMagnitude:   totalMag,
		TotalAxis:        totalAxis,
		PreBiasMagnitude: eye.DeltaK(),
		PreBiasAxis:      eye.SteepAxis(),
		NoOptions:        len(options) == 0,
		Steps: []string{
			fmt.Sprintf("Anterior: %.2fD @ %.0f°", eye.DeltaK(), displayAxis(eye.SteepAxis())),
			fmt.Sprintf("SIA: %.2fD @ %.0f°", eye.SIA.Magnitude, displayAxis(vector.NormalizeAxis(eye.SIA.Axis))),
			fmt.Sprintf("Posterior: %.2fD @ 180°", postMag),
			fmt.Sprintf("Total astigmatism: %.2fD @ %.0f°", totalMag, displayAxis(totalAxis)),
		},
	}

	prevELP := 0.0
	for iter := 1; ; iter++ {
		res.Iterations = iter

		est, err := src.EstimateELP(ctx, eye, targetRefraction)
		if err != nil {
			return nil, fmt.Errorf("spherical formula: %w", err)
		}
		res.ELPMM = est.ELPMM
		res.SphericalPower = est.SphericalPower
		res.Formula = est.Formula
		res.ToricityRatio = cfg.Selector.Ratio.At(est.ELPMM)

		if len(options) > 0 {
			sel, err := selector.Choose(total, est.ELPMM, options, cfg.Selector)
			if err != nil && !errors.Is(err, selector.ErrNoOptions) {
				return nil, err
			}
			if err == nil {
				res.Selection = &sel
			}
		}

		if iter > 1 && math.Abs(est.ELPMM-prevELP) <= cfg.ELPToleranceMM {
			res.Converged = true
			break
		}
		if iter >= cfg.MaxIterations {
			break
		}
		prevELP = est.ELPMM
	}

	res.Steps = append(res.Steps,
		fmt.Sprintf("ELP (%s): %.2f mm after %d iteration(s)", res.Formula, res.ELPMM, res.Iterations))
	if res.Selection != nil {
		res.Steps = append(res.Steps,
			fmt.Sprintf("Best toric: %.2fD corneal equivalent (%s, %.2fD at IOL plane), residual %.2fD",
				res.Selection.Option.Cyl, res.Selection.Option.SKU, res.Selection.IOLCyl, res.Selection.ResidualMagnitude))
	} else {
		res.Steps = append(res.Steps, "No toric option available for this family")
	}
	if !res.Converged {
		res.Steps = append(res.Steps, "ELP did not fully converge within the iteration cap")
	}

	return res, nil
}

// displayAxis maps the internal [0°, 180°) representation to the clinical
// 1–180 convention, where the horizontal meridian is written 180°.
func displayAxis(axisDeg float64) float64 {
	if axisDeg < 0.5 {
		return 180
	}
	return axisDeg
}
