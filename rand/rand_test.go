package rand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	rnd "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func TestWithCovN(t *testing.T) {
	assert := assert.New(t)

	src := rnd.NewSource(42)
	covTest := mat.NewSymDense(2, []float64{1.0, 0.0, 0.0, 1.0})
	covR := covTest.SymmetricDim()

	// n must be bigger than 1
	res, err := WithCovN(covTest, -3, src)
	assert.Error(err)
	assert.Nil(res)

	// source must be supplied
	res, err = WithCovN(covTest, 1, nil)
	assert.Error(err)
	assert.Nil(res)

	res, err = WithCovN(covTest, 1, src)
	assert.NoError(err)
	assert.NotNil(res)

	nTest := 2
	res, err = WithCovN(covTest, nTest, src)
	assert.NoError(err)
	assert.NotNil(res)
	r, c := res.Dims()
	assert.Equal(covR, r)
	assert.Equal(nTest, c)
}

func TestWithCovNZeroCov(t *testing.T) {
	assert := assert.New(t)

	res, err := WithCovN(mat.NewSymDense(3, nil), 5, rnd.NewSource(1))
	assert.NoError(err)
	r, c := res.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.Equal(0.0, res.At(i, j))
		}
	}
}

func TestWithCovNDeterministic(t *testing.T) {
	assert := assert.New(t)

	cov := mat.NewSymDense(2, []float64{2.0, 0.5, 0.5, 1.0})

	a, err := WithCovN(cov, 10, rnd.NewSource(7))
	assert.NoError(err)
	b, err := WithCovN(cov, 10, rnd.NewSource(7))
	assert.NoError(err)
	assert.True(mat.Equal(a, b))
}
