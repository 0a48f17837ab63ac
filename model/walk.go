package model

import (
	"fmt"

	filter "github.com/milosgajdos/go-robokf"
	"gonum.org/v1/gonum/mat"
)

// Walk is a one dimensional random walk driven by commanded displacement:
//
//	x[n+1] = x[n] + u[n] + q[n]
//	y[n]   = x[n] + r[n]
type Walk struct{}

// Propagate returns the next state of the walk given state x, displacement u and process noise q.
// Both u and q may be nil.
func (Walk) Propagate(x, u, q mat.Vector) (mat.Vector, error) {
	if err := checkVec("state", x, 1); err != nil {
		return nil, err
	}

	next := x.AtVec(0)
	if u != nil {
		if err := checkVec("input", u, 1); err != nil {
			return nil, err
		}
		next += u.AtVec(0)
	}

	if q != nil && q.Len() == 1 {
		next += q.AtVec(0)
	}

	return mat.NewVecDense(1, []float64{next}), nil
}

// Observe returns the position measured with noise r. r may be nil.
func (Walk) Observe(x, _, r mat.Vector) (mat.Vector, error) {
	if err := checkVec("state", x, 1); err != nil {
		return nil, err
	}

	y := x.AtVec(0)
	if r != nil && r.Len() == 1 {
		y += r.AtVec(0)
	}

	return mat.NewVecDense(1, []float64{y}), nil
}

// Dims returns state, input and output dimensions
func (Walk) Dims() (nx, nu, ny int) {
	return 1, 1, 1
}

func checkVec(name string, v mat.Vector, n int) error {
	if v == nil || v.Len() != n {
		l := 0
		if v != nil {
			l = v.Len()
		}
		return fmt.Errorf("%w: invalid %s vector length %d, expected %d", filter.ErrDimensionMismatch, name, l, n)
	}

	return nil
}
