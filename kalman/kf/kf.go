package kf

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-robokf"
	"github.com/milosgajdos/go-robokf/estimate"
	"gonum.org/v1/gonum/mat"
)

// DefaultTolerance is the default magnitude of negative variance clamped to zero
const DefaultTolerance = 1e-9

// Config contains KF configuration parameters
type Config struct {
	// Tolerance is the relative negative drift of the variance which is silently clamped to zero.
	// The posterior variance is clamped if it lies in [-Tolerance*max(1, prior variance), 0).
	Tolerance float64
}

// KF is a scalar Kalman Filter for a state driven by commanded displacement:
//
//	x[k] = x[k-1] + u[k] + w[k],  w ~ N(0, Q)
//	z[k] = x[k] + v[k],           v ~ N(0, R)
type KF struct {
	// q is process noise variance
	q float64
	// r is measurement noise variance
	r float64
	// x is state estimate
	x float64
	// p is state variance
	p float64
	// k is Kalman gain computed in the last update
	k float64
	// tol is negative variance tolerance
	tol float64
}

// New creates new KF and returns it.
// It accepts the following parameters:
//   - q:  process noise variance
//   - r:  measurement noise variance
//   - x0: initial state estimate
//   - p0: initial state variance
//   - c:  KF configuration; if nil, default configuration is used
//
// It returns error if either of the following conditions is met:
//   - any of q, r, p0 is negative or not finite
//   - x0 is not finite
//   - configured tolerance is negative
func New(q, r, x0, p0 float64, c *Config) (*KF, error) {
	for name, v := range map[string]float64{"process": q, "measurement": r, "initial state": p0} {
		if !isFinite(v) || v < 0 {
			return nil, fmt.Errorf("%w: %s variance %v", filter.ErrInvalidNoiseCovariance, name, v)
		}
	}

	if !isFinite(x0) {
		return nil, fmt.Errorf("%w: initial state %v", filter.ErrNonFinite, x0)
	}

	tol := DefaultTolerance
	if c != nil {
		if !isFinite(c.Tolerance) || c.Tolerance < 0 {
			return nil, fmt.Errorf("invalid config supplied: %+v", *c)
		}
		tol = c.Tolerance
	}

	return &KF{
		q:   q,
		r:   r,
		x:   x0,
		p:   p0,
		tol: tol,
	}, nil
}

// Predict moves the state estimate by displacement u and grows its variance by process noise.
// It returns error if u is not finite.
func (k *KF) Predict(u float64) error {
	if !isFinite(u) {
		return fmt.Errorf("%w: input %v", filter.ErrNonFinite, u)
	}

	k.x += u
	k.p += k.q

	return nil
}

// Update corrects the state estimate using measurement z and returns Kalman gain.
// The gain is always within [0, 1] and the posterior variance never exceeds the prior one.
// It returns error if z is not finite or if the innovation variance is zero,
// in which case the filter state is left unchanged.
func (k *KF) Update(z float64) (float64, error) {
	if !isFinite(z) {
		return 0, fmt.Errorf("%w: measurement %v", filter.ErrNonFinite, z)
	}

	s := k.p + k.r
	if !(s > 0) {
		return 0, fmt.Errorf("%w: innovation variance %v", filter.ErrNonInvertible, s)
	}

	gain := k.p / s
	x := k.x + gain*(z-k.x)
	p := (1 - gain) * k.p

	if p < 0 {
		if p < -k.tol*math.Max(1, k.p) {
			return 0, fmt.Errorf("%w: variance %v", filter.ErrCovarianceDrift, p)
		}
		p = 0
	}

	k.x, k.p, k.k = x, p, gain

	return gain, nil
}

// Run runs one step of KF: it predicts the state using input u and corrects it with measurement z.
// It returns the corrected state estimate and Kalman gain.
func (k *KF) Run(z, u float64) (float64, float64, error) {
	if err := k.Predict(u); err != nil {
		return 0, 0, err
	}

	gain, err := k.Update(z)
	if err != nil {
		return 0, 0, err
	}

	return k.x, gain, nil
}

// State returns state estimate
func (k *KF) State() float64 {
	return k.x
}

// Cov returns state variance
func (k *KF) Cov() float64 {
	return k.p
}

// Gain returns Kalman gain computed in the last update
func (k *KF) Gain() float64 {
	return k.k
}

// StateNoise returns process noise variance
func (k *KF) StateNoise() float64 {
	return k.q
}

// OutputNoise returns measurement noise variance
func (k *KF) OutputNoise() float64 {
	return k.r
}

// Estimate returns current estimate
func (k *KF) Estimate() filter.Estimate {
	est, _ := estimate.NewBaseWithCov(
		mat.NewVecDense(1, []float64{k.x}),
		mat.NewSymDense(1, []float64{k.p}),
	)

	return est
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
