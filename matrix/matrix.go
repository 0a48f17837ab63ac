// Package matrix provides covariance matrix helpers used by the filters.
package matrix

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-robokf"
	gomatrix "github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Eye returns n x n identity matrix.
func Eye(n int) mat.Matrix {
	eye, _ := gomatrix.NewDenseValIdentity(n, 1.0)

	return eye
}

// IsFinite returns true if none of the elements of m is NaN or Inf.
func IsFinite(m mat.Matrix) bool {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}

	return true
}

// IsFiniteVec returns true if none of the elements of v is NaN or Inf.
func IsFiniteVec(v mat.Vector) bool {
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}

	return true
}

// IsPSD returns true if m is positive semi-definite i.e. none of its eigenvalues is smaller than -tol.
// It returns false if m contains non-finite values or if its eigen decomposition fails.
func IsPSD(m mat.Symmetric, tol float64) bool {
	if m.SymmetricDim() == 0 {
		return true
	}

	if !IsFinite(m) {
		return false
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(m, false); !ok {
		return false
	}

	return floats.Min(eig.Values(nil)) >= -tol
}

// Symmetrize returns symmetric matrix (m + m')/2.
// It returns error if m is not a square matrix.
func Symmetrize(m mat.Matrix) (*mat.SymDense, error) {
	rows, cols := m.Dims()
	if rows != cols {
		return nil, fmt.Errorf("%w: non-square matrix [%d x %d]", filter.ErrDimensionMismatch, rows, cols)
	}

	s := mat.NewSymDense(rows, nil)
	for i := 0; i < rows; i++ {
		for j := i; j < cols; j++ {
			s.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}

	return s, nil
}

// ClampDiag sets the small negative diagonal elements of p to zero.
// The tolerance is relative: element i may drift down to -tol*max(1, |ref[i,i]|),
// where ref is usually the covariance p was computed from. If ref is nil, tol is absolute.
// It returns error if any diagonal element drifts further or if it is not finite.
func ClampDiag(p *mat.SymDense, ref mat.Symmetric, tol float64) error {
	n := p.SymmetricDim()
	if ref != nil && ref.SymmetricDim() != n {
		return fmt.Errorf("%w: reference covariance %d x %d", filter.ErrDimensionMismatch, ref.SymmetricDim(), ref.SymmetricDim())
	}

	for i := 0; i < n; i++ {
		v := p.At(i, i)
		limit := tol
		if ref != nil {
			limit *= math.Max(1, math.Abs(ref.At(i, i)))
		}
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			return fmt.Errorf("%w: covariance element [%d,%d] = %v", filter.ErrNonFinite, i, i, v)
		case v < -limit:
			return fmt.Errorf("%w: covariance element [%d,%d] = %v", filter.ErrCovarianceDrift, i, i, v)
		case v < 0:
			p.SetSym(i, i, 0)
		}
	}

	return nil
}
