package filter

import "errors"

var (
	// ErrDimensionMismatch is returned when a matrix or vector has the wrong shape
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidNoiseCovariance is returned when a covariance matrix is not positive semi-definite
	ErrInvalidNoiseCovariance = errors.New("invalid noise covariance")
	// ErrNonInvertible is returned when the innovation covariance can not be inverted
	ErrNonInvertible = errors.New("non-invertible innovation covariance")
	// ErrNonFinite is returned when an input contains NaN or Inf values
	ErrNonFinite = errors.New("non-finite value")
	// ErrCovarianceDrift is returned when a covariance diagonal drifts below zero past tolerance
	ErrCovarianceDrift = errors.New("covariance drift")
)
