package ekf

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-robokf"
	"github.com/milosgajdos/go-robokf/angle"
	"github.com/milosgajdos/go-robokf/estimate"
	"github.com/milosgajdos/go-robokf/matrix"
	"github.com/milosgajdos/go-robokf/model"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultDT is the default time step
	DefaultDT = 1.0
	// DefaultTolerance is the default magnitude of negative variance clamped to zero
	DefaultTolerance = 1e-9
)

// JacFunc returns the Jacobian of the motion model evaluated at state x and input u
type JacFunc func(x, u mat.Vector) *mat.Dense

// NumericJacobian makes EKF linearize the motion model with finite differences
func NumericJacobian(m *model.Unicycle) JacFunc {
	return m.NumJacobian
}

// Config contains EKF configuration parameters.
// Zero DT and Tolerance are replaced with their defaults.
type Config struct {
	// DT is the time step of the motion model
	DT float64
	// Tolerance is the relative negative drift of covariance diagonal which is silently clamped to zero.
	// Element i is clamped if it lies in [-Tolerance*max(1, |P[i,i]|), 0) where P is the covariance
	// before the step. It also bounds the smallest negative eigenvalue accepted in noise and
	// initial covariances. It must be finite.
	Tolerance float64
	// JosephForm enables Joseph form covariance update
	JosephForm bool
	// Jacobian overrides the analytic motion model Jacobian
	Jacobian func(m *model.Unicycle) JacFunc
}

// Phase is the step of the predict/update cycle the filter is in
type Phase int

const (
	// Constructed means neither Predict nor Update has run yet
	Constructed Phase = iota
	// Predicted means the last successful call was Predict
	Predicted
	// Updated means the last successful call was Update
	Updated
)

// String implements the Stringer interface.
func (p Phase) String() string {
	switch p {
	case Constructed:
		return "Constructed"
	case Predicted:
		return "Predicted"
	case Updated:
		return "Updated"
	}

	return fmt.Sprintf("Phase(%d)", int(p))
}

// EKF is Extended Kalman Filter for a unicycle robot with state [x, y, theta].
// The sensor observes the full state, so the observation Jacobian is identity.
type EKF struct {
	// m is EKF motion model
	m *model.Unicycle
	// q is state noise a.k.a. process noise covariance
	q *mat.SymDense
	// r is output noise a.k.a. measurement noise covariance
	r *mat.SymDense
	// FJacFn is propagation Jacobian function
	FJacFn JacFunc
	// x is state estimate
	x *mat.VecDense
	// p is the EKF covariance matrix
	p *mat.SymDense
	// inn is innovation vector
	inn *mat.VecDense
	// k is Kalman gain
	k *mat.Dense
	// c is EKF configuration
	c Config
	// phase is the last completed step
	phase Phase
}

// New creates new EKF and returns it.
// It accepts the following parameters:
//   - init:   initial condition of the filter
//   - q:      state a.k.a. process noise covariance
//   - r:      output a.k.a. measurement noise covariance
//   - c:      EKF configuration; if nil, default configuration is used
//
// It returns error if either of the following conditions is met:
//   - initial state, initial covariance or noise covariances are not 3 dimensional
//   - initial state is not finite
//   - initial covariance or noise covariances are not positive semi-definite
//   - invalid configuration is given
func New(init filter.InitCond, q, r mat.Symmetric, c *Config) (*EKF, error) {
	conf := Config{DT: DefaultDT, Tolerance: DefaultTolerance}
	if c != nil {
		if c.Tolerance < 0 || math.IsNaN(c.Tolerance) || math.IsInf(c.Tolerance, 0) {
			return nil, fmt.Errorf("invalid config supplied: %+v", *c)
		}
		conf = *c
		if conf.DT == 0 {
			conf.DT = DefaultDT
		}
		if conf.Tolerance == 0 {
			conf.Tolerance = DefaultTolerance
		}
	}

	m, err := model.NewUnicycle(conf.DT)
	if err != nil {
		return nil, fmt.Errorf("invalid config supplied: %w", err)
	}
	nx, _, ny := m.Dims()

	if init == nil || init.State() == nil || init.Cov() == nil {
		return nil, fmt.Errorf("%w: missing initial condition", filter.ErrDimensionMismatch)
	}

	x0, p0 := init.State(), init.Cov()
	if x0.Len() != nx || p0.SymmetricDim() != nx {
		return nil, fmt.Errorf("%w: initial state %d, initial covariance %d x %d",
			filter.ErrDimensionMismatch, x0.Len(), p0.SymmetricDim(), p0.SymmetricDim())
	}

	if q == nil || q.SymmetricDim() != nx {
		return nil, fmt.Errorf("%w: invalid state noise dimension", filter.ErrDimensionMismatch)
	}

	if r == nil || r.SymmetricDim() != ny {
		return nil, fmt.Errorf("%w: invalid output noise dimension", filter.ErrDimensionMismatch)
	}

	if !matrix.IsFiniteVec(x0) {
		return nil, fmt.Errorf("%w: initial state", filter.ErrNonFinite)
	}

	for name, cov := range map[string]mat.Symmetric{"initial": p0, "state noise": q, "output noise": r} {
		if !matrix.IsPSD(cov, conf.Tolerance) {
			return nil, fmt.Errorf("%w: %s covariance %v",
				filter.ErrInvalidNoiseCovariance, name, mat.Formatted(cov, mat.Squeeze()))
		}
	}

	fJacFn := m.Jacobian
	if conf.Jacobian != nil {
		fJacFn = conf.Jacobian(m)
	}

	x := mat.VecDenseCopyOf(x0)
	x.SetVec(model.Theta, angle.Normalize(x.AtVec(model.Theta)))

	p := mat.NewSymDense(nx, nil)
	p.CopySym(p0)

	qCov := mat.NewSymDense(nx, nil)
	qCov.CopySym(q)

	rCov := mat.NewSymDense(ny, nil)
	rCov.CopySym(r)

	return &EKF{
		m:      m,
		q:      qCov,
		r:      rCov,
		FJacFn: fJacFn,
		x:      x,
		p:      p,
		inn:    mat.NewVecDense(ny, nil),
		k:      mat.NewDense(nx, ny, nil),
		c:      conf,
		phase:  Constructed,
	}, nil
}

// Predict propagates the state estimate to the next step given input u = [v, omega]
// and propagates the covariance through the motion model Jacobian evaluated at the
// current (pre-propagation) state.
// It returns error if u is invalid or if the propagated covariance drifts negative past tolerance.
// The filter state is left unchanged on error.
func (k *EKF) Predict(u mat.Vector) error {
	_, nu, _ := k.m.Dims()
	if u == nil || u.Len() != nu {
		return fmt.Errorf("%w: invalid input vector", filter.ErrDimensionMismatch)
	}

	if !matrix.IsFiniteVec(u) {
		return fmt.Errorf("%w: input vector", filter.ErrNonFinite)
	}

	xNext, err := k.m.Propagate(k.x, u, nil)
	if err != nil {
		return fmt.Errorf("system state propagation failed: %w", err)
	}

	f := k.FJacFn(k.x, u)

	// F*P*F'
	cov := &mat.Dense{}
	cov.Mul(f, k.p)
	cov.Mul(cov, f.T())
	cov.Add(cov, k.q)

	pNext, err := k.cleanCov(cov, k.p)
	if err != nil {
		return err
	}

	k.x.CopyVec(xNext)
	k.p.CopySym(pNext)
	k.phase = Predicted

	return nil
}

// Update corrects the state estimate using measurement z = [x, y, theta] and returns Kalman gain.
// The angular component of the innovation is wrapped, so a measurement on the other side of
// the +-Pi boundary is treated as a small correction rather than a full turn.
// It returns error if z is invalid or if the innovation covariance can not be inverted.
// The filter state is left unchanged on error.
func (k *EKF) Update(z mat.Vector) (mat.Matrix, error) {
	nx, _, ny := k.m.Dims()
	if z == nil || z.Len() != ny {
		return nil, fmt.Errorf("%w: invalid measurement vector", filter.ErrDimensionMismatch)
	}

	if !matrix.IsFiniteVec(z) {
		return nil, fmt.Errorf("%w: measurement vector", filter.ErrNonFinite)
	}

	// innovation vector
	inn := &mat.VecDense{}
	inn.SubVec(z, k.x)
	inn.SetVec(model.Theta, angle.Normalize(inn.AtVec(model.Theta)))

	// H is identity: S = P + R
	pyy := &mat.Dense{}
	pyy.Add(k.p, k.r)

	pyyInv := &mat.Dense{}
	if err := pyyInv.Inverse(pyy); err != nil {
		return nil, fmt.Errorf("%w: %v", filter.ErrNonInvertible, err)
	}

	if !matrix.IsFinite(pyyInv) {
		return nil, fmt.Errorf("%w: non-finite inverse", filter.ErrNonInvertible)
	}

	// K = P*H'*S^-1 = P*S^-1
	gain := &mat.Dense{}
	gain.Mul(k.p, pyyInv)

	// x = x + K*y
	corr := &mat.VecDense{}
	corr.MulVec(gain, inn)
	x := &mat.VecDense{}
	x.AddVec(k.x, corr)
	x.SetVec(model.Theta, angle.Normalize(x.AtVec(model.Theta)))

	// I - K*H = I - K
	a := &mat.Dense{}
	a.Sub(matrix.Eye(nx), gain)

	cov := &mat.Dense{}
	cov.Mul(a, k.p)

	if k.c.JosephForm {
		// (I-K)*P*(I-K)' + K*R*K'
		cov.Mul(cov, a.T())
		krk := &mat.Dense{}
		krk.Mul(gain, k.r)
		krk.Mul(krk, gain.T())
		cov.Add(cov, krk)
	}

	pCorr, err := k.cleanCov(cov, k.p)
	if err != nil {
		return nil, err
	}

	k.x.CopyVec(x)
	k.p.CopySym(pCorr)
	k.inn.CopyVec(inn)
	k.k.Copy(gain)
	k.phase = Updated

	return mat.DenseCopyOf(gain), nil
}

// Run runs one step of EKF: it predicts the state using input u and corrects it with measurement z.
// It returns a copy of the corrected state and Kalman gain.
// It returns error if it either fails to propagate or correct the state.
func (k *EKF) Run(z, u mat.Vector) (mat.Vector, mat.Matrix, error) {
	_, nu, ny := k.m.Dims()
	if u == nil || u.Len() != nu || z == nil || z.Len() != ny {
		return nil, nil, fmt.Errorf("%w: invalid input or measurement vector", filter.ErrDimensionMismatch)
	}

	if err := k.Predict(u); err != nil {
		return nil, nil, err
	}

	gain, err := k.Update(z)
	if err != nil {
		return nil, nil, err
	}

	return k.State(), gain, nil
}

// cleanCov symmetrizes cov and clamps small negative drift of its diagonal to zero.
// The drift allowed is scaled by the diagonal of prior.
func (k *EKF) cleanCov(cov mat.Matrix, prior mat.Symmetric) (*mat.SymDense, error) {
	p, err := matrix.Symmetrize(cov)
	if err != nil {
		return nil, err
	}

	if err := matrix.ClampDiag(p, prior, k.c.Tolerance); err != nil {
		return nil, err
	}

	return p, nil
}

// Model returns EKF motion model
func (k *EKF) Model() *model.Unicycle {
	return k.m
}

// Config returns EKF configuration
func (k *EKF) Config() Config {
	return k.c
}

// Phase returns the last completed step
func (k *EKF) Phase() Phase {
	return k.phase
}

// State returns a copy of EKF state estimate
func (k *EKF) State() mat.Vector {
	return mat.VecDenseCopyOf(k.x)
}

// StateNoise returns state noise covariance
func (k *EKF) StateNoise() mat.Symmetric {
	return copySym(k.q)
}

// OutputNoise returns output noise covariance
func (k *EKF) OutputNoise() mat.Symmetric {
	return copySym(k.r)
}

// Cov returns EKF covariance
func (k *EKF) Cov() mat.Symmetric {
	return copySym(k.p)
}

// SetCov sets EKF covariance matrix to cov.
// It returns error if either cov is nil, its dimensions are not the same as EKF covariance dimensions
// or if it is not positive semi-definite.
func (k *EKF) SetCov(cov mat.Symmetric) error {
	if cov == nil {
		return fmt.Errorf("%w: invalid covariance matrix: %v", filter.ErrDimensionMismatch, cov)
	}

	if cov.SymmetricDim() != k.p.SymmetricDim() {
		return fmt.Errorf("%w: invalid covariance matrix dims: [%d x %d]",
			filter.ErrDimensionMismatch, cov.SymmetricDim(), cov.SymmetricDim())
	}

	if !matrix.IsPSD(cov, k.c.Tolerance) {
		return fmt.Errorf("%w: covariance matrix", filter.ErrInvalidNoiseCovariance)
	}

	k.p.CopySym(cov)

	return nil
}

// Gain returns Kalman gain
func (k *EKF) Gain() mat.Matrix {
	return mat.DenseCopyOf(k.k)
}

// Innovation returns innovation vector computed in the last update
func (k *EKF) Innovation() mat.Vector {
	return mat.VecDenseCopyOf(k.inn)
}

// Estimate returns current estimate
func (k *EKF) Estimate() filter.Estimate {
	est, _ := estimate.NewBaseWithCov(k.x, k.p)

	return est
}

func copySym(s *mat.SymDense) *mat.SymDense {
	c := mat.NewSymDense(s.SymmetricDim(), nil)
	c.CopySym(s)

	return c
}
