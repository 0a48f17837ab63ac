package estimate

import (
	"fmt"

	filter "github.com/milosgajdos/go-robokf"
	"gonum.org/v1/gonum/mat"
)

// Base is a snapshot of filter estimate.
// It owns copies of the estimated value and covariance.
type Base struct {
	// val is estimated value
	val *mat.VecDense
	// cov is estimated covariance
	cov *mat.SymDense
}

// NewBase returns base estimate with zero covariance given val
func NewBase(val mat.Vector) (*Base, error) {
	if val == nil || val.Len() == 0 {
		return nil, fmt.Errorf("%w: empty estimate value", filter.ErrDimensionMismatch)
	}

	v := mat.VecDenseCopyOf(val)
	c := mat.NewSymDense(v.Len(), nil)

	return &Base{
		val: v,
		cov: c,
	}, nil
}

// NewBaseWithCov returns base estimate given value val and covariance cov.
// It returns error if the dimensions of val and cov do not match.
func NewBaseWithCov(val mat.Vector, cov mat.Symmetric) (*Base, error) {
	if val == nil || cov == nil {
		return nil, fmt.Errorf("%w: nil estimate value or covariance", filter.ErrDimensionMismatch)
	}

	n := val.Len()
	if n == 0 || n != cov.SymmetricDim() {
		return nil, fmt.Errorf("%w: value %d, covariance %d x %d",
			filter.ErrDimensionMismatch, n, cov.SymmetricDim(), cov.SymmetricDim())
	}

	c := mat.NewSymDense(n, nil)
	c.CopySym(cov)

	return &Base{
		val: mat.VecDenseCopyOf(val),
		cov: c,
	}, nil
}

// Val returns estimated value
func (b *Base) Val() mat.Vector {
	return mat.VecDenseCopyOf(b.val)
}

// Cov returns covariance estimate
func (b *Base) Cov() mat.Symmetric {
	cov := mat.NewSymDense(b.cov.SymmetricDim(), nil)
	cov.CopySym(b.cov)

	return cov
}

// String implements the Stringer interface.
func (b *Base) String() string {
	return fmt.Sprintf("Estimate{\nVal=%v\nCov=%v\n}",
		mat.Formatted(b.val.T(), mat.Squeeze()), mat.Formatted(b.cov, mat.Prefix("    "), mat.Squeeze()))
}
