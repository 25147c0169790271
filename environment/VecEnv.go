package environment

import (
	"fmt"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"
)

// EpisodeInfo summarizes a completed episode
type EpisodeInfo struct {
	Return  float64
	Length  int
	Elapsed time.Duration
}

// StepInfo holds auxiliary information about a single environment in
// a vectorized step. Episode is nil unless an episode finished on the
// step.
type StepInfo struct {
	Episode *EpisodeInfo
}

// EpisodeReporter is an Environment that can report a summary of the
// episode that was just completed. Episode returns false if no
// episode was completed on the last step.
type EpisodeReporter interface {
	Environment
	Episode() (EpisodeInfo, bool)
}

// VecEnv is a batch of independent environments which are advanced in
// lockstep. Observations and actions are stored row-wise, one row per
// environment. When an episode of some environment ends, the
// environment is reset and the first observation of the next episode
// is returned in place of the last observation of the ended episode.
type VecEnv interface {
	NumEnvs() int
	ObservationSpec() Spec
	ActionSpec() Spec

	// Reset resets all environments and returns the first
	// observations
	Reset() (*mat.Dense, error)

	// Step steps each environment with its row of actions. Step blocks
	// until all environments have been stepped.
	Step(actions *mat.Dense) (obs *mat.Dense, rewards []float64,
		dones []bool, infos []StepInfo, err error)

	Close() error
}

// SyncVec implements a VecEnv over a slice of Environments. If
// parallel, each environment is stepped in its own goroutine, but Step
// still returns only once all environments have been stepped.
type SyncVec struct {
	envs     []Environment
	parallel bool
	obsDims  int
	actDims  int
	closed   bool
}

// NewSyncVec returns a new SyncVec. All environments must share the
// same observation and action specifications.
func NewSyncVec(envs []Environment, parallel bool) (*SyncVec, error) {
	if len(envs) == 0 {
		return nil, fmt.Errorf("newSyncVec: at least one environment needed")
	}

	obsDims := envs[0].ObservationSpec().Dims()
	actDims := envs[0].ActionSpec().Dims()
	for i, e := range envs[1:] {
		if e.ObservationSpec().Dims() != obsDims {
			return nil, fmt.Errorf("newSyncVec: environment %v has "+
				"observation dimension %v != %v", i+1,
				e.ObservationSpec().Dims(), obsDims)
		}
		if e.ActionSpec().Dims() != actDims {
			return nil, fmt.Errorf("newSyncVec: environment %v has "+
				"action dimension %v != %v", i+1, e.ActionSpec().Dims(),
				actDims)
		}
	}

	return &SyncVec{
		envs:     envs,
		parallel: parallel,
		obsDims:  obsDims,
		actDims:  actDims,
	}, nil
}

// NumEnvs returns the number of environments
func (s *SyncVec) NumEnvs() int {
	return len(s.envs)
}

// ObservationSpec returns the observation specification of a single
// environment
func (s *SyncVec) ObservationSpec() Spec {
	return s.envs[0].ObservationSpec()
}

// ActionSpec returns the action specification of a single environment
func (s *SyncVec) ActionSpec() Spec {
	return s.envs[0].ActionSpec()
}

// Reset resets all environments
func (s *SyncVec) Reset() (*mat.Dense, error) {
	if s.closed {
		return nil, fmt.Errorf("reset: environment closed")
	}

	obs := mat.NewDense(len(s.envs), s.obsDims, nil)
	for i, e := range s.envs {
		step, err := e.Reset()
		if err != nil {
			return nil, fmt.Errorf("reset: could not reset environment "+
				"%v: %v", i, err)
		}
		obs.SetRow(i, step.Observation.RawVector().Data)
	}
	return obs, nil
}

// Step steps all environments in lockstep
func (s *SyncVec) Step(actions *mat.Dense) (*mat.Dense, []float64, []bool,
	[]StepInfo, error) {
	if s.closed {
		return nil, nil, nil, nil, fmt.Errorf("step: environment closed")
	}
	if r, c := actions.Dims(); r != len(s.envs) || c != s.actDims {
		return nil, nil, nil, nil, fmt.Errorf("step: illegal action shape"+
			"\n\twant(%v, %v)\n\thave(%v, %v)", len(s.envs), s.actDims, r, c)
	}

	obs := mat.NewDense(len(s.envs), s.obsDims, nil)
	rewards := make([]float64, len(s.envs))
	dones := make([]bool, len(s.envs))
	infos := make([]StepInfo, len(s.envs))
	errs := make([]error, len(s.envs))

	stepOne := func(i int) {
		action := mat.VecDenseCopyOf(actions.RowView(i))
		step, done, err := s.envs[i].Step(action)
		if err != nil {
			errs[i] = err
			return
		}
		rewards[i] = step.Reward
		dones[i] = done

		if done {
			if reporter, ok := s.envs[i].(EpisodeReporter); ok {
				if ep, ok := reporter.Episode(); ok {
					infos[i].Episode = &ep
				}
			}
			step, err = s.envs[i].Reset()
			if err != nil {
				errs[i] = err
				return
			}
		}
		obs.SetRow(i, step.Observation.RawVector().Data)
	}

	if s.parallel {
		var wg sync.WaitGroup
		wg.Add(len(s.envs))
		for i := range s.envs {
			go func(i int) {
				defer wg.Done()
				stepOne(i)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range s.envs {
			stepOne(i)
		}
	}

	for i, err := range errs {
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("step: could not step "+
				"environment %v: %v", i, err)
		}
	}

	return obs, rewards, dones, infos, nil
}

// Close closes the SyncVec. Environments that implement io.Closer are
// closed as well.
func (s *SyncVec) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	for i, e := range s.envs {
		if closer, ok := e.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				return fmt.Errorf("close: could not close environment %v: %v",
					i, err)
			}
		}
	}
	return nil
}
