package filter

import "gonum.org/v1/gonum/mat"

// Estimator is a recursive state estimator
type Estimator interface {
	// Predict propagates the internal state to the next step given control input u
	Predict(u mat.Vector) error
	// Update corrects the internal state using measurement z and returns the gain used
	Update(z mat.Vector) (mat.Matrix, error)
	// Run runs Predict followed by Update and returns the corrected state and gain
	Run(z, u mat.Vector) (mat.Vector, mat.Matrix, error)
	// Estimate returns the current estimate
	Estimate() Estimate
}

// Propagator propagates internal state of the system to the next step
type Propagator interface {
	// Propagate propagates internal state x to the next step given input u and process noise q
	Propagate(x, u, q mat.Vector) (mat.Vector, error)
}

// Observer observes external state (output) of the system
type Observer interface {
	// Observe observes external state of the system given internal state x, input u and noise r
	Observe(x, u, r mat.Vector) (mat.Vector, error)
}

// Model is a model of a dynamical system
type Model interface {
	// Propagator is system propagator
	Propagator
	// Observer is system observer
	Observer
	// Dims returns state, input and output dimensions of the model
	Dims() (nx, nu, ny int)
}

// InitCond is initial state condition of the filter
type InitCond interface {
	// State returns initial filter state
	State() mat.Vector
	// Cov returns initial state covariance
	Cov() mat.Symmetric
}

// Estimate is dynamical system filter estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset()
}

// Source supplies control inputs and measurements to a filter one step at a time
type Source interface {
	// Step advances the source by one step. It returns the control input u that was
	// applied, the noisy measurement z and the true state after the step.
	Step() (u, z, truth mat.Vector, err error)
}
