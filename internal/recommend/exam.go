package recommend

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/lake-health/lakecalc-ai/internal/biometry"
	"github.com/lake-health/lakecalc-ai/internal/refine"
	"github.com/lake-health/lakecalc-ai/internal/selector"
)

// ExamResult holds the per-eye recommendations for one exam. An eye absent
// from the exam is nil here.
type ExamResult struct {
	Patient string          `json:"patient,omitempty"`
	OD      *Recommendation `json:"od,omitempty"`
	OS      *Recommendation `json:"os,omitempty"`
}

// RecommendsToric reports whether any eye's decision keeps a toric lens on
// the table, i.e. at least one eye is toric or borderline. It drives which
// catalog families are worth surgeon review.
func (r *ExamResult) RecommendsToric() bool {
	for _, rec := range []*Recommendation{r.OD, r.OS} {
		if rec != nil && rec.Decision != NonToric {
			return true
		}
	}
	return false
}

// RecommendExam runs the engine for each eye present in the exam. The eyes
// share no mutable state, so they run concurrently.
func (e *Engine) RecommendExam(ctx context.Context, exam *biometry.Exam, targetRefraction float64, options []selector.Option, src refine.ELPSource) (*ExamResult, error) {
	out := &ExamResult{Patient: exam.Patient}

	g, ctx := errgroup.WithContext(ctx)
	if exam.OD != nil {
		g.Go(func() error {
			rec, err := e.Recommend(ctx, *exam.OD, targetRefraction, options, src)
			if err != nil {
				return err
			}
			out.OD = rec
			return nil
		})
	}
	if exam.OS != nil {
		g.Go(func() error {
			rec, err := e.Recommend(ctx, *exam.OS, targetRefraction, options, src)
			if err != nil {
				return err
			}
			out.OS = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
