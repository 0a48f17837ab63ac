package noise

import (
	"fmt"

	filter "github.com/milosgajdos/go-robokf"
	"github.com/milosgajdos/go-robokf/matrix"
	"github.com/milosgajdos/go-robokf/rand"
	rnd "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// PSDTolerance is the smallest negative eigenvalue accepted in noise covariance
const PSDTolerance = 1e-12

// Gaussian is gaussian noise drawn from a seeded random source
type Gaussian struct {
	// mean is Gaussian mean
	mean []float64
	// cov is Gaussian covariance
	cov *mat.SymDense
	// seed seeds src
	seed uint64
	// src is the source of randomness
	src rnd.Source
}

// NewGaussian creates new Gaussian noise with given mean and covariance.
// Samples are drawn from a random source seeded with seed, so the same seed always
// produces the same sequence of samples.
// It returns error if mean and cov dimensions differ or if cov is not positive semi-definite.
func NewGaussian(mean []float64, cov mat.Symmetric, seed uint64) (*Gaussian, error) {
	if cov == nil || len(mean) != cov.SymmetricDim() {
		return nil, fmt.Errorf("%w: mean %d, covariance %v", filter.ErrDimensionMismatch, len(mean), cov)
	}

	if !matrix.IsPSD(cov, PSDTolerance) {
		return nil, fmt.Errorf("%w: %v", filter.ErrInvalidNoiseCovariance, mat.Formatted(cov, mat.Squeeze()))
	}

	m := make([]float64, len(mean))
	copy(m, mean)

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	return &Gaussian{
		mean: m,
		cov:  c,
		seed: seed,
		src:  rnd.NewSource(seed),
	}, nil
}

// Sample generates a sample from Gaussian noise and returns it.
// It panics if the noise can not be sampled.
func (g *Gaussian) Sample() mat.Vector {
	s := mat.NewVecDense(len(g.mean), g.Mean())

	r, err := rand.WithCovN(g.cov, 1, g.src)
	if err != nil {
		panic(err)
	}
	s.AddVec(s, r.ColView(0))

	return s
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() mat.Symmetric {
	cov := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	cov.CopySym(g.cov)

	return cov
}

// Mean returns Gaussian mean.
func (g *Gaussian) Mean() []float64 {
	mean := make([]float64, len(g.mean))
	copy(mean, g.mean)

	return mean
}

// Reset reseeds the noise source: samples drawn after Reset repeat the sequence from the start.
func (g *Gaussian) Reset() {
	g.src = rnd.NewSource(g.seed)
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.mean, mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}
