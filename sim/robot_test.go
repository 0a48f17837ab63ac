package sim

import (
	"errors"
	"math"
	"testing"

	filter "github.com/milosgajdos/go-robokf"
	"github.com/milosgajdos/go-robokf/model"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewRobot(t *testing.T) {
	assert := assert.New(t)

	x0 := mat.NewVecDense(1, []float64{0})
	u := mat.NewVecDense(1, []float64{1})

	rb, err := NewRobot(model.Walk{}, x0, u, nil, nil)
	assert.NotNil(rb)
	assert.NoError(err)

	rb, err = NewRobot(nil, x0, u, nil, nil)
	assert.Nil(rb)
	assert.Error(err)

	rb, err = NewRobot(model.Walk{}, mat.NewVecDense(2, nil), u, nil, nil)
	assert.Nil(rb)
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))

	rb, err = NewRobot(model.Walk{}, x0, mat.NewVecDense(3, nil), nil, nil)
	assert.Nil(rb)
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))
}

func TestRobotNoiseless(t *testing.T) {
	assert := assert.New(t)

	rb, err := NewRobot1D(0, 1.0, 0, 0, 1)
	assert.NoError(err)

	var src filter.Source = rb
	for i := 1; i <= 5; i++ {
		u, z, x, err := src.Step()
		assert.NoError(err)
		assert.Equal(1.0, u.AtVec(0))
		assert.Equal(float64(i), x.AtVec(0))
		assert.Equal(float64(i), z.AtVec(0))
	}

	states := rb.States()
	rows, cols := states.Dims()
	assert.Equal(6, rows)
	assert.Equal(1, cols)
	assert.Equal(0.0, states.At(0, 0))
	assert.Equal(5.0, states.At(5, 0))

	obs := rb.Observations()
	rows, _ = obs.Dims()
	assert.Equal(6, rows)
}

func TestRobotDeterministic(t *testing.T) {
	assert := assert.New(t)

	x0 := []float64{0, 0, 0}
	ctl := []float64{1.0, 0.2}
	qStd := []float64{0.05, 0.05, 0.02}
	rStd := []float64{0.3, 0.3, 0.1}

	a, err := NewRobot2D(x0, ctl, qStd, rStd, 1.0, 42)
	assert.NoError(err)
	b, err := NewRobot2D(x0, ctl, qStd, rStd, 1.0, 42)
	assert.NoError(err)

	for i := 0; i < 30; i++ {
		_, za, xa, err := a.Step()
		assert.NoError(err)
		_, zb, xb, err := b.Step()
		assert.NoError(err)

		assert.True(mat.Equal(xa, xb))
		assert.True(mat.Equal(za, zb))

		theta := xa.AtVec(model.Theta)
		assert.True(theta > -math.Pi && theta <= math.Pi)
		theta = za.AtVec(model.Theta)
		assert.True(theta > -math.Pi && theta <= math.Pi)
	}
}

func TestNewRobot2D(t *testing.T) {
	assert := assert.New(t)

	std := []float64{0.1, 0.1, 0.1}

	rb, err := NewRobot2D([]float64{0, 0}, []float64{1, 0}, std, std, 1.0, 1)
	assert.Nil(rb)
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))

	rb, err = NewRobot2D([]float64{0, 0, 0}, []float64{1, 0}, []float64{0.1}, std, 1.0, 1)
	assert.Nil(rb)
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))

	rb, err = NewRobot2D([]float64{0, 0, 0}, []float64{1, 0}, std, std, 0, 1)
	assert.Nil(rb)
	assert.Error(err)

	// noiseless straight line
	rb, err = NewRobot2D([]float64{0, 0, 0}, []float64{1, 0}, []float64{0, 0, 0}, []float64{0, 0, 0}, 0.5, 1)
	assert.NoError(err)
	x, err := rb.Move(mat.NewVecDense(2, []float64{2, 0}))
	assert.NoError(err)
	assert.InDeltaSlice([]float64{1, 0, 0}, mat.Col(nil, 0, x), 1e-12)

	_, err = rb.Move(mat.NewVecDense(3, nil))
	assert.True(errors.Is(err, filter.ErrDimensionMismatch))
}
