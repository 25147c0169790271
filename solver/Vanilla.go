package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// VanillaConfig describes a configuration of the vanilla gradient
// descent solver.
type VanillaConfig struct {
	StepSize float64
	ClipNorm float64 // <= 0 if no clipping
}

// NewVanilla returns a new Vanilla Solver
func NewVanilla(stepSize, clipNorm float64) (*Solver, error) {
	vanilla := VanillaConfig{
		StepSize: stepSize,
		ClipNorm: clipNorm,
	}

	return newSolver(Vanilla, vanilla)
}

// Create returns a Vanilla Stepper as described by the VanillaConfig
func (v VanillaConfig) Create() Stepper {
	return &vanilla{
		VanillaSolver: G.NewVanillaSolver(G.WithLearnRate(v.StepSize)),
		learningRate:  v.StepSize,
		clipNorm:      v.ClipNorm,
	}
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (v VanillaConfig) ValidType(t Type) bool {
	return t == Vanilla
}

// Validate returns an error if the step size is negative
func (v VanillaConfig) Validate() error {
	if v.StepSize < 0 {
		return fmt.Errorf("validate: negative step size %v", v.StepSize)
	}
	return nil
}

// vanilla wraps a Gorgonia stochastic gradient descent solver:
// w <- w - lr * ∇w
type vanilla struct {
	*G.VanillaSolver
	learningRate float64
	clipNorm     float64
}

func (v *vanilla) SetLearningRate(lr float64) {
	v.learningRate = lr
	G.WithLearnRate(lr)(v.VanillaSolver)
}

func (v *vanilla) LearningRate() float64 {
	return v.learningRate
}

func (v *vanilla) SetClipNorm(norm float64) {
	v.clipNorm = norm
}

// Step clips the gradients of the model by their global norm and then
// takes one step of gradient descent. Gradients are zeroed afterwards.
func (v *vanilla) Step(model []G.ValueGrad) error {
	if err := clip(model, v.clipNorm); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	if err := v.VanillaSolver.Step(model); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	return nil
}
