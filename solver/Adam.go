package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// AdamConfig describes a configuration of the Adam solver
type AdamConfig struct {
	StepSize float64
	Epsilon  float64 // Smoothing factor
	Beta1    float64
	Beta2    float64
	ClipNorm float64 // <= 0 if no clipping
}

// NewDefaultAdam returns a new Adam Solver with default hyperparameters
// β1 = 0.9, β2 = 0.999, and ε = 1e-5
func NewDefaultAdam(stepSize, clipNorm float64) (*Solver, error) {
	return NewAdam(stepSize, 1e-5, 0.9, 0.999, clipNorm)
}

// NewAdam returns a new Adam Solver
func NewAdam(stepSize, epsilon, beta1, beta2, clipNorm float64) (*Solver,
	error) {
	adam := AdamConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
		ClipNorm: clipNorm,
	}

	return newSolver(Adam, adam)
}

// Create returns a new Adam Stepper as described by the AdamConfig
func (a AdamConfig) Create() Stepper {
	solver := G.NewAdamSolver(
		G.WithLearnRate(a.StepSize),
		G.WithEps(a.Epsilon),
		G.WithBeta1(a.Beta1),
		G.WithBeta2(a.Beta2),
	)
	return &adam{
		AdamSolver:   solver,
		learningRate: a.StepSize,
		clipNorm:     a.ClipNorm,
	}
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (a AdamConfig) ValidType(t Type) bool {
	return t == Adam
}

// Validate returns an error if the hyperparameters are illegal
func (a AdamConfig) Validate() error {
	if a.StepSize < 0 {
		return fmt.Errorf("validate: negative step size %v", a.StepSize)
	}
	if a.Epsilon <= 0 {
		return fmt.Errorf("validate: epsilon must be positive")
	}
	if a.Beta1 < 0 || a.Beta1 >= 1 || a.Beta2 < 0 || a.Beta2 >= 1 {
		return fmt.Errorf("validate: betas (%v, %v) ∉ [0, 1)", a.Beta1,
			a.Beta2)
	}
	return nil
}

// adam wraps a Gorgonia Adam solver so that its learning rate can
// change between steps and gradients can be clipped by their global
// norm before each step.
//
// Moment estimates are matched to model parameters by position, so the
// same model must be passed to each call to Step.
type adam struct {
	*G.AdamSolver
	learningRate float64
	clipNorm     float64
}

// SetLearningRate sets the learning rate used for subsequent steps.
// Moment estimates are kept.
func (a *adam) SetLearningRate(lr float64) {
	a.learningRate = lr
	G.WithLearnRate(lr)(a.AdamSolver)
}

// LearningRate returns the current learning rate
func (a *adam) LearningRate() float64 {
	return a.learningRate
}

// SetClipNorm sets the maximum global norm of the gradients
func (a *adam) SetClipNorm(norm float64) {
	a.clipNorm = norm
}

// Step clips the gradients of the model by their global norm and then
// takes one step of Adam. Gradients are zeroed afterwards.
func (a *adam) Step(model []G.ValueGrad) error {
	if err := clip(model, a.clipNorm); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	if err := a.AdamSolver.Step(model); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	return nil
}
