package pendulum

import (
	"math"

	env "github.com/samuelfneumann/goppo/environment"
	"gonum.org/v1/gonum/mat"
)

// SwingUp implements a task where the agent must swing the pendulum up
// and hold it in a vertical position. Rewards are the cosine of the
// pendulum angle measured from the positive y-axis, so the agent
// receives a reward of 1 on each step that the pendulum points
// straight up. Episodes end after a step limit.
type SwingUp struct {
	env.Starter
	env.StepLimit
}

// NewSwingUp creates and returns a new SwingUp task
func NewSwingUp(s env.Starter, episodeSteps int) *SwingUp {
	return &SwingUp{s, env.NewStepLimit(episodeSteps)}
}

// GetReward returns the reward for an action taken in some state,
// resulting in a transition to the next state nextState.
func (s *SwingUp) GetReward(_, _, nextState mat.Vector) float64 {
	return math.Cos(nextState.AtVec(0))
}

// Min returns the minimum possible reward
func (s *SwingUp) Min() float64 {
	return -1.0
}

// Max returns the maximum possible reward
func (s *SwingUp) Max() float64 {
	return 1.0
}

// RewardSpec returns the reward specification of the Task
func (s *SwingUp) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{s.Min()})
	upperBound := mat.NewVecDense(1, []float64{s.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}
