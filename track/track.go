// Package track drives estimators against data sources and records the results.
package track

import (
	"context"
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-robokf"
	"github.com/milosgajdos/go-robokf/angle"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// History stores the step by step record of a filter run.
// Truth, Measured and Estimated store one vector per row.
type History struct {
	// Truth stores true states
	Truth *mat.Dense
	// Measured stores measurements
	Measured *mat.Dense
	// Estimated stores filter estimates
	Estimated *mat.Dense
	// Gains stores Kalman gains
	Gains []mat.Matrix
	// Covs stores estimate covariances
	Covs []mat.Symmetric
}

// Steps returns the number of recorded steps
func (h *History) Steps() int {
	r, _ := h.Estimated.Dims()
	return r
}

// Errors returns estimation errors of state element col for every step.
// If wrap is true the errors are treated as angles and wrapped into (-Pi, Pi].
func (h *History) Errors(col int, wrap bool) []float64 {
	errs := floats.SubTo(make([]float64, h.Steps()), mat.Col(nil, col, h.Estimated), mat.Col(nil, col, h.Truth))
	if wrap {
		for i := range errs {
			errs[i] = angle.Normalize(errs[i])
		}
	}

	return errs
}

// RMSE returns root mean square estimation error of state element col.
// If wrap is true the errors are treated as angles.
func (h *History) RMSE(col int, wrap bool) float64 {
	errs := h.Errors(col, wrap)
	for i := range errs {
		errs[i] *= errs[i]
	}

	return math.Sqrt(stat.Mean(errs, nil))
}

// MAE returns mean absolute estimation error of state element col.
// If wrap is true the errors are treated as angles.
func (h *History) MAE(col int, wrap bool) float64 {
	errs := h.Errors(col, wrap)
	for i := range errs {
		errs[i] = math.Abs(errs[i])
	}

	return stat.Mean(errs, nil)
}

// GainTrace returns a single column matrix holding gain element [i, j] of every step.
func (h *History) GainTrace(i, j int) *mat.Dense {
	g := mat.NewDense(len(h.Gains), 1, nil)
	for n, k := range h.Gains {
		g.Set(n, 0, k.At(i, j))
	}

	return g
}

// Series returns a two column matrix for plotting element col of m against the step number.
func Series(m *mat.Dense, col int) *mat.Dense {
	r, _ := m.Dims()
	s := mat.NewDense(r, 2, nil)
	for i := 0; i < r; i++ {
		s.Set(i, 0, float64(i))
		s.Set(i, 1, m.At(i, col))
	}

	return s
}

// Run runs estimator e for the given number of steps using control inputs and measurements from src.
// It returns error if steps is not positive or if either the source or the estimator fails;
// the error carries the number of the failed step.
func Run(e filter.Estimator, src filter.Source, steps int) (*History, error) {
	return RunContext(context.Background(), e, src, steps)
}

// RunContext runs estimator e like Run, checking ctx for cancellation between steps.
func RunContext(ctx context.Context, e filter.Estimator, src filter.Source, steps int) (*History, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("invalid number of steps: %d", steps)
	}

	var h *History
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		u, z, truth, err := src.Step()
		if err != nil {
			return nil, fmt.Errorf("step %d: source failed: %w", i, err)
		}

		x, k, err := e.Run(z, u)
		if err != nil {
			return nil, fmt.Errorf("step %d: filter failed: %w", i, err)
		}

		if h == nil {
			h = &History{
				Truth:     mat.NewDense(steps, truth.Len(), nil),
				Measured:  mat.NewDense(steps, z.Len(), nil),
				Estimated: mat.NewDense(steps, x.Len(), nil),
				Gains:     make([]mat.Matrix, 0, steps),
				Covs:      make([]mat.Symmetric, 0, steps),
			}
		}

		h.Truth.SetRow(i, mat.Col(nil, 0, truth))
		h.Measured.SetRow(i, mat.Col(nil, 0, z))
		h.Estimated.SetRow(i, mat.Col(nil, 0, x))
		h.Gains = append(h.Gains, k)
		h.Covs = append(h.Covs, e.Estimate().Cov())
	}

	return h, nil
}

// Job is a single estimator run
type Job struct {
	// Estimator is the filter being run
	Estimator filter.Estimator
	// Source supplies inputs and measurements
	Source filter.Source
	// Steps is the number of steps to run
	Steps int
}

// RunAll runs jobs concurrently, one goroutine per job, and returns their histories in job order.
// Jobs must not share estimators or sources. The first failure cancels the remaining jobs.
func RunAll(ctx context.Context, jobs []Job) ([]*History, error) {
	res := make([]*History, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			h, err := RunContext(ctx, job.Estimator, job.Source, job.Steps)
			if err != nil {
				return fmt.Errorf("job %d: %w", i, err)
			}
			res[i] = h
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return res, nil
}
