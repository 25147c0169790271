package pendulum

import (
	"fmt"

	env "github.com/samuelfneumann/goppo/environment"
	ts "github.com/samuelfneumann/goppo/timestep"
	"gonum.org/v1/gonum/mat"
)

// Discrete implements the classic control environment Pendulum with
// discrete actions. Actions are the integers in
// [MinDiscreteAction, MaxDiscreteAction], which apply evenly spaced
// torques from MinContinuousAction to MaxContinuousAction:
//
//	Action	Torque
//	0	-2
//	1	-1
//	2	0
//	3	1
//	4	2
type Discrete struct {
	*base
}

// NewDiscrete constructs a new Pendulum environment with discrete
// actions
func NewDiscrete(t env.Task, discount float64) (*Discrete, error) {
	base, err := newBase(t, discount)
	if err != nil {
		return nil, fmt.Errorf("newDiscrete: %v", err)
	}

	return &Discrete{base}, nil
}

// ActionSpec returns the action specification of the environment
func (p *Discrete) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims,
		[]float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(ActionDims,
		[]float64{float64(MaxDiscreteAction)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete)
}

// Step takes one environmental step given action a and returns the next
// state as a timestep.TimeStep and a bool indicating whether or not the
// episode has ended
func (p *Discrete) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, false, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	action := a.AtVec(0)
	if action != float64(int(action)) || int(action) < MinDiscreteAction ||
		int(action) > MaxDiscreteAction {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action %v",
			action)
	}

	// Map actions evenly onto the torque bounds
	frac := (action - float64(MinDiscreteAction)) /
		float64(MaxDiscreteAction-MinDiscreteAction)
	torque := p.torqueBounds.Min + frac*(p.torqueBounds.Max-p.torqueBounds.Min)

	step, done := p.update(a, p.nextState(torque))
	return step, done, nil
}
