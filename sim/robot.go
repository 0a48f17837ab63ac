package sim

import (
	"fmt"

	filter "github.com/milosgajdos/go-robokf"
	"github.com/milosgajdos/go-robokf/model"
	"github.com/milosgajdos/go-robokf/noise"
	"gonum.org/v1/gonum/mat"
)

// Robot is a simulated agent: it moves its true state through a model,
// perturbs it with process noise and reports noisy observations.
type Robot struct {
	// m is the model of robot dynamics
	m filter.Model
	// x is true robot state
	x *mat.VecDense
	// ctl is the control input applied on every Step
	ctl *mat.VecDense
	// q is process noise
	q filter.Noise
	// r is observation noise
	r filter.Noise
	// states stores true state history
	states []*mat.VecDense
	// obs stores observation history
	obs []*mat.VecDense
}

// NewRobot creates new Robot and returns it.
// It accepts the following parameters:
//   - m:   robot dynamics model
//   - x0:  initial true state
//   - ctl: control input applied by Step
//   - q:   process noise; if nil, no process noise is applied
//   - r:   observation noise; if nil, observations are exact
//
// It returns error if the dimensions of any of the parameters do not match the model.
func NewRobot(m filter.Model, x0, ctl mat.Vector, q, r filter.Noise) (*Robot, error) {
	if m == nil {
		return nil, fmt.Errorf("invalid model: %v", m)
	}

	nx, nu, ny := m.Dims()
	if x0 == nil || x0.Len() != nx {
		return nil, fmt.Errorf("%w: invalid initial state", filter.ErrDimensionMismatch)
	}

	if ctl == nil || ctl.Len() != nu {
		return nil, fmt.Errorf("%w: invalid control input", filter.ErrDimensionMismatch)
	}

	var err error
	if q == nil {
		if q, err = noise.NewZero(nx); err != nil {
			return nil, err
		}
	}
	if q.Cov().SymmetricDim() != nx {
		return nil, fmt.Errorf("%w: invalid process noise dimension: %d", filter.ErrDimensionMismatch, q.Cov().SymmetricDim())
	}

	if r == nil {
		if r, err = noise.NewZero(ny); err != nil {
			return nil, err
		}
	}
	if r.Cov().SymmetricDim() != ny {
		return nil, fmt.Errorf("%w: invalid observation noise dimension: %d", filter.ErrDimensionMismatch, r.Cov().SymmetricDim())
	}

	rb := &Robot{
		m:   m,
		x:   mat.VecDenseCopyOf(x0),
		ctl: mat.VecDenseCopyOf(ctl),
		q:   q,
		r:   r,
	}

	z, err := rb.Observe()
	if err != nil {
		return nil, err
	}
	rb.states = append(rb.states, mat.VecDenseCopyOf(rb.x))
	rb.obs = append(rb.obs, mat.VecDenseCopyOf(z))

	return rb, nil
}

// NewRobot1D creates a robot moving along a line by displacement u on every step.
// Process and observation noise are Gaussian with standard deviations qStd and rStd,
// drawn from sources seeded with seed and seed+1 respectively.
func NewRobot1D(x0, u, qStd, rStd float64, seed uint64) (*Robot, error) {
	q, err := noise.NewGaussian([]float64{0}, mat.NewSymDense(1, []float64{qStd * qStd}), seed)
	if err != nil {
		return nil, err
	}

	r, err := noise.NewGaussian([]float64{0}, mat.NewSymDense(1, []float64{rStd * rStd}), seed+1)
	if err != nil {
		return nil, err
	}

	return NewRobot(model.Walk{}, mat.NewVecDense(1, []float64{x0}), mat.NewVecDense(1, []float64{u}), q, r)
}

// NewRobot2D creates a unicycle robot with state [x, y, theta] driven by ctl = [v, omega].
// Process and observation noise are Gaussian with per-axis standard deviations qStd and rStd,
// drawn from sources seeded with seed and seed+1 respectively.
func NewRobot2D(x0, ctl, qStd, rStd []float64, dt float64, seed uint64) (*Robot, error) {
	m, err := model.NewUnicycle(dt)
	if err != nil {
		return nil, err
	}

	nx, nu, ny := m.Dims()
	if len(x0) != nx || len(ctl) != nu || len(qStd) != nx || len(rStd) != ny {
		return nil, fmt.Errorf("%w: state %d, control %d, process noise %d, observation noise %d",
			filter.ErrDimensionMismatch, len(x0), len(ctl), len(qStd), len(rStd))
	}

	q, err := noise.NewGaussian(make([]float64, len(qStd)), diagCov(qStd), seed)
	if err != nil {
		return nil, err
	}

	r, err := noise.NewGaussian(make([]float64, len(rStd)), diagCov(rStd), seed+1)
	if err != nil {
		return nil, err
	}

	return NewRobot(m, mat.NewVecDense(len(x0), x0), mat.NewVecDense(len(ctl), ctl), q, r)
}

// Move moves the robot using control input u and returns its new true state.
func (rb *Robot) Move(u mat.Vector) (mat.Vector, error) {
	x, err := rb.m.Propagate(rb.x, u, rb.q.Sample())
	if err != nil {
		return nil, fmt.Errorf("failed to move robot: %w", err)
	}

	rb.x.CopyVec(x)

	z, err := rb.Observe()
	if err != nil {
		return nil, err
	}
	rb.states = append(rb.states, mat.VecDenseCopyOf(rb.x))
	rb.obs = append(rb.obs, mat.VecDenseCopyOf(z))

	return rb.State(), nil
}

// Observe returns a noisy observation of the current true state.
func (rb *Robot) Observe() (mat.Vector, error) {
	z, err := rb.m.Observe(rb.x, nil, rb.r.Sample())
	if err != nil {
		return nil, fmt.Errorf("failed to observe robot: %w", err)
	}

	return z, nil
}

// Step implements filter.Source: it moves the robot with its control input and
// returns the control, the observation recorded after the move and the true state.
func (rb *Robot) Step() (mat.Vector, mat.Vector, mat.Vector, error) {
	x, err := rb.Move(rb.ctl)
	if err != nil {
		return nil, nil, nil, err
	}

	z := mat.VecDenseCopyOf(rb.obs[len(rb.obs)-1])

	return mat.VecDenseCopyOf(rb.ctl), z, x, nil
}

// State returns current true state
func (rb *Robot) State() mat.Vector {
	return mat.VecDenseCopyOf(rb.x)
}

// States returns true state history, one state per row.
// The first row is the initial state.
func (rb *Robot) States() *mat.Dense {
	return stack(rb.states)
}

// Observations returns observation history, one observation per row.
// The first row is the observation of the initial state.
func (rb *Robot) Observations() *mat.Dense {
	return stack(rb.obs)
}

func stack(vs []*mat.VecDense) *mat.Dense {
	m := mat.NewDense(len(vs), vs[0].Len(), nil)
	for i, v := range vs {
		m.SetRow(i, mat.Col(nil, 0, v))
	}

	return m
}

func diagCov(std []float64) *mat.SymDense {
	cov := mat.NewSymDense(len(std), nil)
	for i, s := range std {
		cov.SetSym(i, i, s*s)
	}

	return cov
}
