// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/goppo/environment"
	"github.com/samuelfneumann/goppo/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/goppo/environment/classiccontrol/pendulum"
	"github.com/samuelfneumann/goppo/environment/wrappers"
	"gonum.org/v1/gonum/spatial/r1"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Cartpole EnvName = "Cartpole"
	Pendulum EnvName = "Pendulum"
)

// TaskName stores the tasks that can be configured with this package.
// Note that not all tasks can be used with all environments. The tasks
// that can be used with each environment are as follows:
//
//	Environment			Task
//	Cartpole			Balance
//	Pendulum			SwingUp
type TaskName string

// Tasks available for configuration
const (
	Balance TaskName = "Balance"
	SwingUp TaskName = "SwingUp"
)

// Config implements a specific configuration of a specific environment
// and specific task. Not all environments can have all tasks.
type Config struct {
	Environment       EnvName
	Task              TaskName
	ContinuousActions bool
	EpisodeCutoff     uint
	Discount          float64
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, taskName TaskName, continuousActions bool,
	episodeCutoff uint, discount float64) Config {
	return Config{
		Environment:       envName,
		Task:              taskName,
		ContinuousActions: continuousActions,
		EpisodeCutoff:     episodeCutoff,
		Discount:          discount,
	}
}

// Validate returns an error if the Config does not describe a known
// environment and task
func (c Config) Validate() error {
	if c.EpisodeCutoff == 0 {
		return fmt.Errorf("validate: episode cutoff must be positive")
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount %v ∉ [0, 1]", c.Discount)
	}

	switch c.Environment {
	case Cartpole:
		if c.Task != Balance {
			return fmt.Errorf("validate: Cartpole environment has no task %v",
				c.Task)
		}
		return nil

	case Pendulum:
		if c.Task != SwingUp {
			return fmt.Errorf("validate: Pendulum environment has no task %v",
				c.Task)
		}
		return nil
	}
	return fmt.Errorf("validate: no such environment %v", c.Environment)
}

// Create returns the environment described by the Config
func (c Config) Create(seed uint64) (env.Environment, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	switch c.Environment {
	case Cartpole:
		return CreateCartpole(c.ContinuousActions, c.Task,
			int(c.EpisodeCutoff), seed, c.Discount)

	case Pendulum:
		return CreatePendulum(c.ContinuousActions, c.Task,
			int(c.EpisodeCutoff), seed, c.Discount)
	}

	return nil, fmt.Errorf("create: cannot create environment %v, no such "+
		"environment", c.Environment)
}

// CreateVec returns numEnvs copies of the environment described by the
// Config, each wrapped in a wrappers.Monitor, and batched into a
// vectorized environment. Environment i is seeded with seed+i. If
// parallel is true, the environments are stepped concurrently.
func (c Config) CreateVec(numEnvs int, seed uint64,
	parallel bool) (*env.SyncVec, error) {
	if numEnvs <= 0 {
		return nil, fmt.Errorf("createVec: number of environments must be "+
			"positive, have(%v)", numEnvs)
	}

	envs := make([]env.Environment, numEnvs)
	for i := range envs {
		e, err := c.Create(seed + uint64(i))
		if err != nil {
			return nil, fmt.Errorf("createVec: %v", err)
		}
		envs[i] = wrappers.NewMonitor(e)
	}

	vec, err := env.NewSyncVec(envs, parallel)
	if err != nil {
		return nil, fmt.Errorf("createVec: %v", err)
	}
	return vec, nil
}

// CreateCartpole is a factory for creating the Cartpole environment
// with default physical parameters and default task parameters.
func CreateCartpole(continuousActions bool, taskName TaskName, cutoff int,
	seed uint64, discount float64) (env.Environment, error) {
	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	s := env.NewUniformStarter([]r1.Interval{
		bounds,
		bounds,
		bounds,
		bounds,
	}, seed)

	var task env.Task
	switch taskName {
	case Balance:
		task = cartpole.NewBalance(s, cutoff, cartpole.FailAngle)

	default:
		return nil, fmt.Errorf("createCartpole: Cartpole environment has "+
			"no task %v", taskName)
	}

	if continuousActions {
		c, err := cartpole.NewContinuous(task, discount)
		if err != nil {
			return nil, fmt.Errorf("createCartpole: %v", err)
		}
		return c, nil
	}

	d, err := cartpole.NewDiscrete(task, discount)
	if err != nil {
		return nil, fmt.Errorf("createCartpole: %v", err)
	}
	return d, nil
}

// CreatePendulum is a factory for creating the Pendulum environment
// with default physical parameters and default task parameters.
func CreatePendulum(continuousActions bool, taskName TaskName, cutoff int,
	seed uint64, discount float64) (env.Environment, error) {
	angle := r1.Interval{Min: -pendulum.AngleBound, Max: pendulum.AngleBound}
	speed := r1.Interval{Min: -1.0, Max: 1.0}
	s := env.NewUniformStarter([]r1.Interval{angle, speed}, seed)

	var task env.Task
	switch taskName {
	case SwingUp:
		task = pendulum.NewSwingUp(s, cutoff)

	default:
		return nil, fmt.Errorf("createPendulum: Pendulum environment has "+
			"no task %v", taskName)
	}

	if continuousActions {
		p, err := pendulum.NewContinuous(task, discount)
		if err != nil {
			return nil, fmt.Errorf("createPendulum: %v", err)
		}
		return p, nil
	}

	p, err := pendulum.NewDiscrete(task, discount)
	if err != nil {
		return nil, fmt.Errorf("createPendulum: %v", err)
	}
	return p, nil
}
