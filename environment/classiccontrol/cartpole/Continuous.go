package cartpole

import (
	"fmt"

	env "github.com/samuelfneumann/goppo/environment"
	ts "github.com/samuelfneumann/goppo/timestep"
	"gonum.org/v1/gonum/mat"
)

// Continuous implements the classic control environment Cartpole with
// continuous actions. Actions are the signed magnitude, in [-1, 1], of
// the horizontal force applied to the cart. Actions outside this range
// result in an error.
type Continuous struct {
	*base
}

// NewContinuous constructs a new Cartpole environment with continuous
// actions
func NewContinuous(t env.Task, discount float64) (*Continuous, error) {
	base, err := newBase(t, discount)
	if err != nil {
		return nil, fmt.Errorf("newContinuous: %v", err)
	}

	return &Continuous{base}, nil
}

// ActionSpec returns the action specification of the environment
func (c *Continuous) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims, []float64{MinContinuousAction})
	upperBound := mat.NewVecDense(ActionDims, []float64{MaxContinuousAction})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Continuous)
}

// Step takes one environmental step given action a and returns the next
// state as a timestep.TimeStep and a bool indicating whether or not the
// episode has ended
func (c *Continuous) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, false, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	directionMagnitude := a.AtVec(0)
	if directionMagnitude < MinContinuousAction ||
		directionMagnitude > MaxContinuousAction {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action %v "+
			"∉ [%v, %v]", directionMagnitude, MinContinuousAction,
			MaxContinuousAction)
	}

	step, done := c.update(a, c.nextState(directionMagnitude))
	return step, done, nil
}
