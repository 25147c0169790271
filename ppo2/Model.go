package ppo2

import (
	env "github.com/samuelfneumann/goppo/environment"
	"gonum.org/v1/gonum/mat"
)

// LossNames are the names of the training diagnostics returned by
// Model.Train, in the order returned by Losses.Values
var LossNames = []string{
	"policy_loss",
	"value_loss",
	"policy_entropy",
	"approxkl",
	"clipfrac",
}

// Losses holds the diagnostics of a single training step
type Losses struct {
	PolicyLoss    float64
	ValueLoss     float64
	PolicyEntropy float64
	ApproxKL      float64
	ClipFrac      float64
}

// Values returns the diagnostics in the order of LossNames
func (l Losses) Values() []float64 {
	return []float64{l.PolicyLoss, l.ValueLoss, l.PolicyEntropy,
		l.ApproxKL, l.ClipFrac}
}

// MeanLosses returns the element-wise mean of losses
func MeanLosses(losses []Losses) Losses {
	if len(losses) == 0 {
		return Losses{}
	}

	var sum Losses
	for _, l := range losses {
		sum.PolicyLoss += l.PolicyLoss
		sum.ValueLoss += l.ValueLoss
		sum.PolicyEntropy += l.PolicyEntropy
		sum.ApproxKL += l.ApproxKL
		sum.ClipFrac += l.ClipFrac
	}

	n := float64(len(losses))
	return Losses{
		PolicyLoss:    sum.PolicyLoss / n,
		ValueLoss:     sum.ValueLoss / n,
		PolicyEntropy: sum.PolicyEntropy / n,
		ApproxKL:      sum.ApproxKL / n,
		ClipFrac:      sum.ClipFrac / n,
	}
}

// StepResult is the output of a Model on a batch of observations.
// Actions holds one row per environment.
type StepResult struct {
	Actions     *mat.Dense
	Values      []float64
	State       State
	NegLogProbs []float64
}

// Model is a combined policy and value function which can be trained
// with the clipped PPO objective.
//
// Step and Value never change the parameters of the Model, and the
// recurrent state is threaded through them by the caller. The dones
// argument flags the environments whose observation is the first of an
// episode, so that a recurrent Model can reset their state.
type Model interface {
	Step(obs *mat.Dense, state State, dones []bool) (StepResult, error)
	Value(obs *mat.Dense, state State, dones []bool) ([]float64, error)

	// Train performs a single gradient step on the minibatch mb with
	// learning rate lr and clip range clipRange
	Train(lr, clipRange float64, mb *Batch) (Losses, error)

	// InitialState returns the recurrent state to use at the start of
	// training. Memoryless Models return NoState().
	InitialState() State

	// Save and Load persist the trainable parameters only
	Save(path string) error
	Load(path string) error
}

// ModelConfig holds the parameters needed to construct a Model
type ModelConfig struct {
	ObservationSpec env.Spec
	ActionSpec      env.Spec

	// NBatchAct is the batch size of calls to Step and Value, and
	// NBatchTrain is the batch size of calls to Train
	NBatchAct   int
	NBatchTrain int
	NSteps      int

	EntCoef float64
	VFCoef  float64

	// MaxGradNorm is the maximum global norm of the gradient. If nil,
	// gradients are not clipped.
	MaxGradNorm *float64

	Seed uint64
}

// ModelFactory constructs a Model
type ModelFactory func(ModelConfig) (Model, error)
