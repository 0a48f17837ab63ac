package model

import (
	"fmt"
	"math"

	"github.com/milosgajdos/go-robokf/angle"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

const (
	// X is the index of x position in unicycle state
	X = iota
	// Y is the index of y position in unicycle state
	Y
	// Theta is the index of heading in unicycle state
	Theta
)

// Unicycle is a planar robot with state [x, y, theta] driven by
// linear velocity v and angular velocity omega over a fixed time step DT:
//
//	x[n+1]     = x[n] + v*cos(theta[n])*DT
//	y[n+1]     = y[n] + v*sin(theta[n])*DT
//	theta[n+1] = theta[n] + omega*DT
//
// The sensor observes the full state.
type Unicycle struct {
	// DT is time step
	DT float64
}

// NewUnicycle creates new Unicycle with time step dt.
// It returns error if dt is not a positive finite number.
func NewUnicycle(dt float64) (*Unicycle, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("invalid time step: %v", dt)
	}

	return &Unicycle{DT: dt}, nil
}

// Propagate propagates state x to the next step given input u = [v, omega] and process noise q.
// q may be nil. The heading of the returned state is normalized into (-Pi, Pi].
func (m *Unicycle) Propagate(x, u, q mat.Vector) (mat.Vector, error) {
	if err := checkVec("state", x, 3); err != nil {
		return nil, err
	}

	if err := checkVec("input", u, 2); err != nil {
		return nil, err
	}

	v, omega := u.AtVec(0), u.AtVec(1)
	theta := x.AtVec(Theta)

	next := mat.NewVecDense(3, []float64{
		x.AtVec(X) + v*math.Cos(theta)*m.DT,
		x.AtVec(Y) + v*math.Sin(theta)*m.DT,
		theta + omega*m.DT,
	})

	if q != nil && q.Len() == 3 {
		next.AddVec(next, q)
	}
	next.SetVec(Theta, angle.Normalize(next.AtVec(Theta)))

	return next, nil
}

// Observe returns state x measured with noise r. r may be nil.
// The heading of the returned measurement is normalized into (-Pi, Pi].
func (m *Unicycle) Observe(x, _, r mat.Vector) (mat.Vector, error) {
	if err := checkVec("state", x, 3); err != nil {
		return nil, err
	}

	y := mat.VecDenseCopyOf(x)
	if r != nil && r.Len() == 3 {
		y.AddVec(y, r)
	}
	y.SetVec(Theta, angle.Normalize(y.AtVec(Theta)))

	return y, nil
}

// Dims returns state, input and output dimensions
func (m *Unicycle) Dims() (nx, nu, ny int) {
	return 3, 2, 3
}

// Jacobian returns the Jacobian of the motion model with respect to the state,
// evaluated at state x and input u.
func (m *Unicycle) Jacobian(x, u mat.Vector) *mat.Dense {
	v := u.AtVec(0)
	theta := x.AtVec(Theta)

	return mat.NewDense(3, 3, []float64{
		1, 0, -v * math.Sin(theta) * m.DT,
		0, 1, v * math.Cos(theta) * m.DT,
		0, 0, 1,
	})
}

// NumJacobian approximates the Jacobian of the motion model with respect to the state
// using central finite differences.
func (m *Unicycle) NumJacobian(x, u mat.Vector) *mat.Dense {
	v, omega := u.AtVec(0), u.AtVec(1)

	// heading is not wrapped here so the derivative is smooth across +-Pi
	f := func(y, s []float64) {
		y[X] = s[X] + v*math.Cos(s[Theta])*m.DT
		y[Y] = s[Y] + v*math.Sin(s[Theta])*m.DT
		y[Theta] = s[Theta] + omega*m.DT
	}

	jac := mat.NewDense(3, 3, nil)
	fd.Jacobian(jac, f, mat.Col(nil, 0, x), &fd.JacobianSettings{
		Formula: fd.Central,
	})

	return jac
}
