package pendulum

import (
	"fmt"

	env "github.com/samuelfneumann/goppo/environment"
	ts "github.com/samuelfneumann/goppo/timestep"
	"gonum.org/v1/gonum/mat"
)

// Continuous implements the classic control environment Pendulum with
// continuous actions. Actions are the torque applied at the fixed base,
// in [MinContinuousAction, MaxContinuousAction]. Actions outside this
// range result in an error.
type Continuous struct {
	*base
}

// NewContinuous constructs a new Pendulum environment with continuous
// actions
func NewContinuous(t env.Task, discount float64) (*Continuous, error) {
	base, err := newBase(t, discount)
	if err != nil {
		return nil, fmt.Errorf("newContinuous: %v", err)
	}

	return &Continuous{base}, nil
}

// ActionSpec returns the action specification of the environment
func (p *Continuous) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims, []float64{p.torqueBounds.Min})
	upperBound := mat.NewVecDense(ActionDims, []float64{p.torqueBounds.Max})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Continuous)
}

// Step takes one environmental step given action a and returns the next
// state as a timestep.TimeStep and a bool indicating whether or not the
// episode has ended
func (p *Continuous) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, false, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	torque := a.AtVec(0)
	if torque < p.torqueBounds.Min || torque > p.torqueBounds.Max {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action %v "+
			"∉ %v", torque, p.torqueBounds)
	}

	step, done := p.update(a, p.nextState(torque))
	return step, done, nil
}
