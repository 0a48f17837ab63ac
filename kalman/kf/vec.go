package kf

import (
	"fmt"

	filter "github.com/milosgajdos/go-robokf"
	"gonum.org/v1/gonum/mat"
)

// Vec exposes KF through filter.Estimator using single element vectors
type Vec struct {
	kf *KF
}

// Vec returns filter.Estimator view of k.
// The returned value shares its state with k.
func (k *KF) Vec() *Vec {
	return &Vec{kf: k}
}

// Predict predicts the next state given single element input vector u.
func (v *Vec) Predict(u mat.Vector) error {
	if err := checkLen("input", u); err != nil {
		return err
	}

	return v.kf.Predict(u.AtVec(0))
}

// Update corrects the state given single element measurement vector z and returns 1x1 gain matrix.
func (v *Vec) Update(z mat.Vector) (mat.Matrix, error) {
	if err := checkLen("measurement", z); err != nil {
		return nil, err
	}

	gain, err := v.kf.Update(z.AtVec(0))
	if err != nil {
		return nil, err
	}

	return mat.NewDense(1, 1, []float64{gain}), nil
}

// Run runs one step of the filter and returns the corrected state and gain.
func (v *Vec) Run(z, u mat.Vector) (mat.Vector, mat.Matrix, error) {
	if err := checkLen("input", u); err != nil {
		return nil, nil, err
	}

	if err := checkLen("measurement", z); err != nil {
		return nil, nil, err
	}

	x, gain, err := v.kf.Run(z.AtVec(0), u.AtVec(0))
	if err != nil {
		return nil, nil, err
	}

	return mat.NewVecDense(1, []float64{x}), mat.NewDense(1, 1, []float64{gain}), nil
}

// Estimate returns current estimate
func (v *Vec) Estimate() filter.Estimate {
	return v.kf.Estimate()
}

func checkLen(name string, v mat.Vector) error {
	if v == nil {
		return fmt.Errorf("%w: missing %s vector", filter.ErrDimensionMismatch, name)
	}

	if v.Len() != 1 {
		return fmt.Errorf("%w: invalid %s vector length: %d", filter.ErrDimensionMismatch, name, v.Len())
	}

	return nil
}
