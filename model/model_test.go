package model

import (
	"errors"
	"math"
	"testing"

	filter "github.com/milosgajdos/go-robokf"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestInitCond(t *testing.T) {
	assert := assert.New(t)

	state := mat.NewVecDense(2, []float64{1.0, 3.0})
	cov := mat.NewSymDense(2, []float64{0.25, 0, 0, 0.25})

	ic := NewInitCond(state, cov)

	s := ic.State()
	for i := 0; i < state.Len(); i++ {
		assert.Equal(state.AtVec(i), s.AtVec(i))
	}
	assert.True(mat.Equal(cov, ic.Cov()))

	state.SetVec(0, 10)
	cov.SetSym(0, 0, 10)
	assert.Equal(1.0, ic.State().AtVec(0))
	assert.Equal(0.25, ic.Cov().At(0, 0))
}

func TestWalk(t *testing.T) {
	assert := assert.New(t)

	var w Walk
	var _ filter.Model = w

	x := mat.NewVecDense(1, []float64{1.0})
	u := mat.NewVecDense(1, []float64{2.0})
	q := mat.NewVecDense(1, []float64{0.5})

	next, err := w.Propagate(x, u, q)
	assert.NoError(err)
	assert.Equal(3.5, next.AtVec(0))

	next, err = w.Propagate(x, nil, nil)
	assert.NoError(err)
	assert.Equal(1.0, next.AtVec(0))

	_, err = w.Propagate(x, mat.NewVecDense(2, nil), nil)
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))

	_, err = w.Propagate(mat.NewVecDense(2, nil), u, nil)
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))

	y, err := w.Observe(x, nil, q)
	assert.NoError(err)
	assert.Equal(1.5, y.AtVec(0))

	nx, nu, ny := w.Dims()
	assert.Equal([]int{1, 1, 1}, []int{nx, nu, ny})
}

func TestNewUnicycle(t *testing.T) {
	assert := assert.New(t)

	m, err := NewUnicycle(0.1)
	assert.NotNil(m)
	assert.NoError(err)

	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		m, err = NewUnicycle(dt)
		assert.Nil(m)
		assert.Error(err)
	}
}

func TestUnicyclePropagate(t *testing.T) {
	assert := assert.New(t)
	delta := 1e-12

	m, err := NewUnicycle(1.0)
	assert.NoError(err)
	var _ filter.Model = m

	// straight line along x
	x := mat.NewVecDense(3, []float64{0, 0, 0})
	next, err := m.Propagate(x, mat.NewVecDense(2, []float64{1, 0}), nil)
	assert.NoError(err)
	assert.InDeltaSlice([]float64{1, 0, 0}, mat.Col(nil, 0, next), delta)

	// pure rotation
	next, err = m.Propagate(x, mat.NewVecDense(2, []float64{0, math.Pi / 2}), nil)
	assert.NoError(err)
	assert.InDeltaSlice([]float64{0, 0, math.Pi / 2}, mat.Col(nil, 0, next), delta)

	// heading wraps past Pi
	x = mat.NewVecDense(3, []float64{0, 0, 3.0})
	next, err = m.Propagate(x, mat.NewVecDense(2, []float64{0, 1.0}), nil)
	assert.NoError(err)
	assert.InDelta(4.0-2*math.Pi, next.AtVec(Theta), delta)

	// additive noise
	next, err = m.Propagate(mat.NewVecDense(3, nil), mat.NewVecDense(2, nil), mat.NewVecDense(3, []float64{0.1, 0.2, 0.3}))
	assert.NoError(err)
	assert.InDeltaSlice([]float64{0.1, 0.2, 0.3}, mat.Col(nil, 0, next), delta)

	_, err = m.Propagate(x, mat.NewVecDense(3, nil), nil)
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))

	_, err = m.Propagate(mat.NewVecDense(2, nil), mat.NewVecDense(2, nil), nil)
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))
}

func TestUnicycleObserve(t *testing.T) {
	assert := assert.New(t)

	m, err := NewUnicycle(1.0)
	assert.NoError(err)

	x := mat.NewVecDense(3, []float64{1, 2, 3.0})
	y, err := m.Observe(x, nil, mat.NewVecDense(3, []float64{0, 0, 0.5}))
	assert.NoError(err)
	assert.InDeltaSlice([]float64{1, 2, 3.5 - 2*math.Pi}, mat.Col(nil, 0, y), 1e-12)
	// x must not be modified
	assert.Equal(3.0, x.AtVec(Theta))
}

func TestUnicycleJacobian(t *testing.T) {
	assert := assert.New(t)

	m, err := NewUnicycle(0.5)
	assert.NoError(err)

	for _, test := range []struct {
		x []float64
		u []float64
	}{
		{x: []float64{0, 0, 0}, u: []float64{1, 0}},
		{x: []float64{1, -2, 0.7}, u: []float64{2.5, 0.3}},
		{x: []float64{5, 5, math.Pi}, u: []float64{-1, 1}},
		{x: []float64{0, 0, -math.Pi / 2}, u: []float64{0, 0}},
	} {
		x := mat.NewVecDense(3, test.x)
		u := mat.NewVecDense(2, test.u)

		jac := m.Jacobian(x, u)
		num := m.NumJacobian(x, u)
		assert.True(mat.EqualApprox(jac, num, 1e-6), "analytic %v numeric %v", mat.Formatted(jac), mat.Formatted(num))

		// exact expected form
		v, theta := test.u[0], test.x[2]
		assert.InDelta(-v*math.Sin(theta)*0.5, jac.At(0, 2), 1e-15)
		assert.InDelta(v*math.Cos(theta)*0.5, jac.At(1, 2), 1e-15)
		assert.Equal(1.0, jac.At(2, 2))
	}
}
