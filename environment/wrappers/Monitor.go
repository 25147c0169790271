// Package wrappers implements wrappers around environments that
// alter or record the interaction with the wrapped environment
package wrappers

import (
	"fmt"
	"time"

	env "github.com/samuelfneumann/goppo/environment"
	ts "github.com/samuelfneumann/goppo/timestep"
	"gonum.org/v1/gonum/mat"
)

// Monitor wraps an environment and records the undiscounted return,
// length, and wall-clock duration of each episode. Once an episode
// ends, its summary is available through Episode until the next call
// to Step or Reset.
//
// Monitor itself implements the environment.Environment interface and
// the environment.EpisodeReporter interface.
type Monitor struct {
	env.Environment

	epReturn float64
	epLength int
	start    time.Time

	last     env.EpisodeInfo
	finished bool

	// Completed episodes since construction
	episodes int
	total    int
}

// NewMonitor returns a new Monitor wrapping e
func NewMonitor(e env.Environment) *Monitor {
	return &Monitor{Environment: e, start: time.Now()}
}

// Reset resets the environment and starts recording a new episode
func (m *Monitor) Reset() (ts.TimeStep, error) {
	step, err := m.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	m.epReturn = 0
	m.epLength = 0
	m.start = time.Now()
	m.finished = false

	return step, nil
}

// Step takes one environmental step and records its reward. If the
// episode ends, the episode summary becomes available through Episode.
func (m *Monitor) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	step, done, err := m.Environment.Step(action)
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %v", err)
	}
	m.finished = false

	m.epReturn += step.Reward
	m.epLength++
	m.total++

	if done {
		m.last = env.EpisodeInfo{
			Return:  m.epReturn,
			Length:  m.epLength,
			Elapsed: time.Since(m.start),
		}
		m.finished = true
		m.episodes++
	}

	return step, done, nil
}

// Episode returns the summary of the episode that ended on the last
// step, if any
func (m *Monitor) Episode() (env.EpisodeInfo, bool) {
	if !m.finished {
		return env.EpisodeInfo{}, false
	}
	return m.last, true
}

// EpisodesCompleted returns the number of completed episodes
func (m *Monitor) EpisodesCompleted() int {
	return m.episodes
}

// TotalSteps returns the number of steps taken across all episodes
func (m *Monitor) TotalSteps() int {
	return m.total
}

// Close closes the wrapped environment if it can be closed
func (m *Monitor) Close() error {
	if closer, ok := m.Environment.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
