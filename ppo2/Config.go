package ppo2

import (
	"fmt"
)

// Config configures a run of Learn
type Config struct {
	// NSteps is the number of steps taken in each environment per
	// update
	NSteps         int
	TotalTimesteps int

	EntCoef      float64
	LearningRate Schedule
	VFCoef       float64

	// MaxGradNorm is the maximum global norm of gradients. If nil,
	// gradients are not clipped.
	MaxGradNorm *float64

	Gamma  float64
	Lambda float64

	// LogInterval and SaveInterval are in updates. A SaveInterval of 0
	// disables checkpointing.
	LogInterval  int
	SaveInterval int

	NMinibatches int
	NOptEpochs   int
	ClipRange    Schedule

	// LoadPath, if set, is the path to load the model parameters from
	// before training
	LoadPath string

	Seed         uint64
	ShowProgress bool
}

// DefaultConfig returns the default configuration. TotalTimesteps
// must still be set.
func DefaultConfig() Config {
	maxGradNorm := 0.5
	return Config{
		NSteps:       128,
		EntCoef:      0.01,
		LearningRate: Constant(2.5e-4),
		VFCoef:       0.5,
		MaxGradNorm:  &maxGradNorm,
		Gamma:        0.99,
		Lambda:       0.95,
		LogInterval:  10,
		SaveInterval: 0,
		NMinibatches: 4,
		NOptEpochs:   4,
		ClipRange:    Constant(0.2),
	}
}

// Validate returns an error if the Config is invalid
func (c Config) Validate() error {
	if c.NSteps <= 0 {
		return fmt.Errorf("validate: NSteps must be positive, have(%v)",
			c.NSteps)
	}
	if c.TotalTimesteps <= 0 {
		return fmt.Errorf("validate: TotalTimesteps must be positive, "+
			"have(%v)", c.TotalTimesteps)
	}
	if c.NMinibatches <= 0 {
		return fmt.Errorf("validate: NMinibatches must be positive, "+
			"have(%v)", c.NMinibatches)
	}
	if c.NOptEpochs <= 0 {
		return fmt.Errorf("validate: NOptEpochs must be positive, have(%v)",
			c.NOptEpochs)
	}
	if c.LogInterval <= 0 {
		return fmt.Errorf("validate: LogInterval must be positive, "+
			"have(%v)", c.LogInterval)
	}
	if c.SaveInterval < 0 {
		return fmt.Errorf("validate: SaveInterval must be non-negative, "+
			"have(%v)", c.SaveInterval)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: Gamma must be in [0, 1], have(%v)",
			c.Gamma)
	}
	if c.Lambda < 0 || c.Lambda > 1 {
		return fmt.Errorf("validate: Lambda must be in [0, 1], have(%v)",
			c.Lambda)
	}
	if c.MaxGradNorm != nil && *c.MaxGradNorm <= 0 {
		return fmt.Errorf("validate: MaxGradNorm must be positive or nil, "+
			"have(%v)", *c.MaxGradNorm)
	}
	if err := c.LearningRate.Validate(); err != nil {
		return fmt.Errorf("validate: LearningRate: %w", err)
	}
	if err := c.ClipRange.Validate(); err != nil {
		return fmt.Errorf("validate: ClipRange: %w", err)
	}
	return nil
}
