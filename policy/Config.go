package policy

import (
	"fmt"

	env "github.com/samuelfneumann/goppo/environment"
	"github.com/samuelfneumann/goppo/initwfn"
	"github.com/samuelfneumann/goppo/network"
	"github.com/samuelfneumann/goppo/ppo2"
	"github.com/samuelfneumann/goppo/solver"
	G "gorgonia.org/gorgonia"
)

// Type is the type of policy
type Type string

// Available policy types
const (
	Categorical Type = "Categorical"
	Gaussian    Type = "Gaussian"
)

// defaultStepSize is the step size of the default solver. It is
// overwritten by the learning rate schedule on every training step.
const defaultStepSize = 2.5e-4

// Config configures a policy and its value function.
//
// If Type is empty, a Categorical policy is used for discrete actions
// and a Gaussian policy for continuous actions. If InitWFn is nil,
// weights are initialized with initwfn.Default(). If Solver is nil,
// Adam with β1 = 0.9, β2 = 0.999, and ε = 1e-5 is used.
type Config struct {
	Type Type

	PolicyLayers      []int
	PolicyActivations []*network.Activation
	ValueLayers       []int
	ValueActivations  []*network.Activation

	InitWFn *initwfn.InitWFn
	Solver  *solver.Solver

	// InitLogStd is the initial log standard deviation of Gaussian
	// policies
	InitLogStd float64
}

// DefaultConfig returns a Config with two hidden layers of 64 tanh
// units in both the policy and value function
func DefaultConfig() Config {
	return Config{
		PolicyLayers:      []int{64, 64},
		PolicyActivations: []*network.Activation{network.TanH(), network.TanH()},
		ValueLayers:       []int{64, 64},
		ValueActivations:  []*network.Activation{network.TanH(), network.TanH()},
	}
}

// Validate returns an error if the Config is invalid
func (c Config) Validate() error {
	switch c.Type {
	case "", Categorical, Gaussian:
	default:
		return fmt.Errorf("validate: unknown policy type %v", c.Type)
	}

	if len(c.PolicyLayers) != len(c.PolicyActivations) {
		return fmt.Errorf("validate: policy has %v layers but %v "+
			"activations", len(c.PolicyLayers), len(c.PolicyActivations))
	}
	if len(c.ValueLayers) != len(c.ValueActivations) {
		return fmt.Errorf("validate: value function has %v layers but %v "+
			"activations", len(c.ValueLayers), len(c.ValueActivations))
	}
	for _, size := range append(append([]int{}, c.PolicyLayers...),
		c.ValueLayers...) {
		if size <= 0 {
			return fmt.Errorf("validate: layer sizes must be positive, "+
				"have(%v)", size)
		}
	}
	for _, act := range append(append([]*network.Activation{},
		c.PolicyActivations...), c.ValueActivations...) {
		if act == nil || act.IsNil() {
			return fmt.Errorf("validate: missing activation")
		}
	}
	return nil
}

// Factory returns a ppo2.ModelFactory which creates the policy
// described by the Config
func (c Config) Factory() ppo2.ModelFactory {
	return func(cfg ppo2.ModelConfig) (ppo2.Model, error) {
		t := c.Type
		if t == "" {
			t = Gaussian
			if cfg.ActionSpec.Cardinality == env.Discrete {
				t = Categorical
			}
		}

		switch t {
		case Categorical:
			p, err := NewCategoricalMLP(cfg, c)
			if err != nil {
				return nil, fmt.Errorf("factory: %v", err)
			}
			return p, nil

		case Gaussian:
			p, err := NewGaussianMLP(cfg, c)
			if err != nil {
				return nil, fmt.Errorf("factory: %v", err)
			}
			return p, nil

		default:
			return nil, fmt.Errorf("factory: unknown policy type %v", t)
		}
	}
}

func (c Config) initWFn() G.InitWFn {
	if c.InitWFn == nil {
		return initwfn.Default().InitWFn()
	}
	return c.InitWFn.InitWFn()
}

// newSolver returns a new solver with no state which clips gradients
// to a global norm of maxGradNorm, or does not clip them if
// maxGradNorm is nil
func (c Config) newSolver(maxGradNorm *float64) (*solver.Solver, error) {
	var s *solver.Solver
	var err error
	if c.Solver == nil {
		s, err = solver.NewDefaultAdam(defaultStepSize, 0)
	} else {
		s, err = c.Solver.Clone()
	}
	if err != nil {
		return nil, fmt.Errorf("newSolver: %v", err)
	}

	if maxGradNorm != nil {
		s.SetClipNorm(*maxGradNorm)
	} else {
		s.SetClipNorm(0)
	}
	return s, nil
}
