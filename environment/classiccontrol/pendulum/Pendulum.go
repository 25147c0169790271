// Package pendulum implements the Pendulum classic control environment
package pendulum

import (
	"fmt"
	"math"

	env "github.com/samuelfneumann/goppo/environment"
	ts "github.com/samuelfneumann/goppo/timestep"
	"github.com/samuelfneumann/goppo/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// default physical constants
const (
	AngleBound  float64 = math.Pi // +/- Angle bounds
	SpeedBound  float64 = 8.0     // +/- Speed bounds
	TorqueBound float64 = 2.0     // +/- Torque bounds

	MaxContinuousAction float64 = TorqueBound
	MinContinuousAction float64 = -MaxContinuousAction

	MaxDiscreteAction int = 4
	MinDiscreteAction int = 0

	Dt              float64 = 0.05
	Gravity         float64 = 9.8
	Mass            float64 = 1.0
	Length          float64 = 1.0
	ActionDims      int     = 1
	ObservationDims int     = 2
)

// base implements the physics shared by the discrete and continuous
// action Pendulum environments. A pendulum is attached to a fixed base
// and an underpowered torque is applied at the base. To swing the
// pendulum straight up it must first be rocked back and forth.
//
// Observations are the angle of the pendulum from the positive y-axis,
// normalized to (-π, π], and the angular velocity, clipped to
// [-SpeedBound, SpeedBound].
type base struct {
	env.Task
	lastStep     ts.TimeStep
	discount     float64
	angleBounds  r1.Interval
	speedBounds  r1.Interval
	torqueBounds r1.Interval
}

// newBase returns a new base Pendulum environment
func newBase(t env.Task, discount float64) (*base, error) {
	p := &base{
		Task:         t,
		discount:     discount,
		angleBounds:  r1.Interval{Min: -AngleBound, Max: AngleBound},
		speedBounds:  r1.Interval{Min: -SpeedBound, Max: SpeedBound},
		torqueBounds: r1.Interval{Min: -TorqueBound, Max: TorqueBound},
	}

	if _, err := p.Reset(); err != nil {
		return nil, fmt.Errorf("newBase: %v", err)
	}
	return p, nil
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (p *base) Reset() (ts.TimeStep, error) {
	state := p.Start()
	if err := p.validateState(state); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	startStep := ts.New(ts.First, 0, p.discount, state, 0)
	p.lastStep = startStep

	return startStep, nil
}

// CurrentTimeStep returns the last TimeStep that occurred in the
// environment
func (p *base) CurrentTimeStep() ts.TimeStep {
	return p.lastStep
}

// ObservationSpec returns the observation specification of the
// environment
func (p *base) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lowerBound := mat.NewVecDense(ObservationDims,
		[]float64{p.angleBounds.Min, p.speedBounds.Min})
	upperBound := mat.NewVecDense(ObservationDims,
		[]float64{p.angleBounds.Max, p.speedBounds.Max})

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (p *base) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{p.discount})
	upperBound := mat.NewVecDense(1, []float64{p.discount})

	return env.NewSpec(shape, env.Discount, lowerBound, upperBound,
		env.Continuous)
}

// nextState computes the state following the current one when torque
// is applied at the fixed base. The torque is clipped to the torque
// bounds.
func (p *base) nextState(torque float64) *mat.VecDense {
	state := p.lastStep.Observation
	th, thDot := state.AtVec(0), state.AtVec(1)

	torque = floatutils.ClipInterval(torque, p.torqueBounds)

	thAcc := -3*Gravity/(2*Length)*math.Sin(th+math.Pi) +
		3.0/(Mass*Length*Length)*torque
	thDot += thAcc * Dt
	th += thDot * Dt

	thDot = floatutils.ClipInterval(thDot, p.speedBounds)
	th = normalizeAngle(th, p.angleBounds)

	return mat.NewVecDense(ObservationDims, []float64{th, thDot})
}

// update transitions the environment to nextState and returns the
// resulting TimeStep along with whether the episode ended
func (p *base) update(a *mat.VecDense, nextState *mat.VecDense) (ts.TimeStep,
	bool) {
	reward := p.GetReward(p.lastStep.Observation, a, nextState)
	nextStep := ts.New(ts.Mid, reward, p.discount, nextState,
		p.lastStep.Number+1)

	p.End(&nextStep)

	p.lastStep = nextStep
	return nextStep, nextStep.Last()
}

// validateState ensures that a state observation is within the
// physical bounds of the Pendulum environment
func (p *base) validateState(obs mat.Vector) error {
	if obs.Len() != ObservationDims {
		return fmt.Errorf("validateState: illegal state dimension"+
			"\n\twant(%v)\n\thave(%v)", ObservationDims, obs.Len())
	}

	if th := obs.AtVec(0); th < p.angleBounds.Min || th > p.angleBounds.Max {
		return fmt.Errorf("validateState: angle %v not within bounds %v",
			th, p.angleBounds)
	}
	if thDot := obs.AtVec(1); thDot < p.speedBounds.Min ||
		thDot > p.speedBounds.Max {
		return fmt.Errorf("validateState: angular velocity %v not within "+
			"bounds %v", thDot, p.speedBounds)
	}
	return nil
}

func (p *base) String() string {
	state := p.lastStep.Observation
	return fmt.Sprintf("Pendulum  |  theta: %v  |  theta dot: %v",
		state.AtVec(0), state.AtVec(1))
}

// normalizeAngle normalizes the pendulum angle to (-π, π]
func normalizeAngle(th float64, angleBounds r1.Interval) float64 {
	width := angleBounds.Max - angleBounds.Min
	for th > angleBounds.Max {
		th -= width
	}
	for th <= angleBounds.Min {
		th += width
	}
	return th
}
