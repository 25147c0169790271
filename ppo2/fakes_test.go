package ppo2

import (
	"fmt"
	"os"
	"path/filepath"

	env "github.com/samuelfneumann/goppo/environment"
	"gonum.org/v1/gonum/mat"
)

// countEnv is a VecEnv whose observation in each environment is the
// number of steps taken in the current episode. Every step has reward
// 1 and every episode lasts episodeLen steps.
type countEnv struct {
	nenvs      int
	episodeLen int
	continuous bool

	counts      []int
	lastActions *mat.Dense
	failAt      int
	stepped     int
	closed      bool
}

func newCountEnv(nenvs, episodeLen int) *countEnv {
	return &countEnv{
		nenvs:      nenvs,
		episodeLen: episodeLen,
		counts:     make([]int, nenvs),
		failAt:     -1,
	}
}

func (c *countEnv) NumEnvs() int { return c.nenvs }

func (c *countEnv) ObservationSpec() env.Spec {
	return env.NewSpec(mat.NewVecDense(1, nil), env.Observation,
		mat.NewVecDense(1, nil), mat.NewVecDense(1, []float64{1000}),
		env.Continuous)
}

func (c *countEnv) ActionSpec() env.Spec {
	if c.continuous {
		return env.NewSpec(mat.NewVecDense(1, nil), env.Action,
			mat.NewVecDense(1, []float64{-1}), mat.NewVecDense(1, []float64{1}),
			env.Continuous)
	}
	return env.NewSpec(mat.NewVecDense(1, nil), env.Action,
		mat.NewVecDense(1, []float64{0}), mat.NewVecDense(1, []float64{1}),
		env.Discrete)
}

func (c *countEnv) observations() *mat.Dense {
	obs := mat.NewDense(c.nenvs, 1, nil)
	for i, count := range c.counts {
		obs.Set(i, 0, float64(count))
	}
	return obs
}

func (c *countEnv) Reset() (*mat.Dense, error) {
	for i := range c.counts {
		c.counts[i] = 0
	}
	return c.observations(), nil
}

func (c *countEnv) Step(actions *mat.Dense) (*mat.Dense, []float64, []bool,
	[]env.StepInfo, error) {
	if c.stepped == c.failAt {
		return nil, nil, nil, nil, fmt.Errorf("step: failure")
	}
	c.stepped++
	c.lastActions = mat.DenseCopyOf(actions)

	rewards := make([]float64, c.nenvs)
	dones := make([]bool, c.nenvs)
	infos := make([]env.StepInfo, c.nenvs)
	for i := range c.counts {
		rewards[i] = 1
		c.counts[i]++
		if c.counts[i] == c.episodeLen {
			dones[i] = true
			infos[i].Episode = &env.EpisodeInfo{
				Return: float64(c.episodeLen),
				Length: c.episodeLen,
			}
			c.counts[i] = 0
		}
	}
	return c.observations(), rewards, dones, infos, nil
}

func (c *countEnv) Close() error {
	c.closed = true
	return nil
}

// constModel is a Model which always takes the same action and
// predicts the same value, and records its calls to Train
type constModel struct {
	nenvs     int
	action    float64
	value     float64
	recurrent bool

	lrs        []float64
	clipRanges []float64
	minibatch  []*Batch
	saved      []string
	loaded     string
}

func (c *constModel) Step(obs *mat.Dense, state State,
	dones []bool) (StepResult, error) {
	r, _ := obs.Dims()
	actions := mat.NewDense(r, 1, nil)
	values := make([]float64, r)
	nlps := make([]float64, r)
	for i := 0; i < r; i++ {
		actions.Set(i, 0, c.action)
		values[i] = c.value
		nlps[i] = 0.5
	}
	return StepResult{
		Actions:     actions,
		Values:      values,
		State:       state,
		NegLogProbs: nlps,
	}, nil
}

func (c *constModel) Value(obs *mat.Dense, _ State,
	_ []bool) ([]float64, error) {
	r, _ := obs.Dims()
	values := make([]float64, r)
	for i := range values {
		values[i] = c.value
	}
	return values, nil
}

func (c *constModel) Train(lr, clipRange float64, mb *Batch) (Losses,
	error) {
	c.lrs = append(c.lrs, lr)
	c.clipRanges = append(c.clipRanges, clipRange)
	c.minibatch = append(c.minibatch, mb)
	return Losses{1, 2, 3, 4, 5}, nil
}

func (c *constModel) InitialState() State {
	if !c.recurrent {
		return NoState()
	}
	state := mat.NewDense(c.nenvs, 1, nil)
	for i := 0; i < c.nenvs; i++ {
		state.Set(i, 0, float64(i))
	}
	return NewState(state)
}

func (c *constModel) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	c.saved = append(c.saved, path)
	return os.WriteFile(path, nil, 0644)
}

func (c *constModel) Load(path string) error {
	c.loaded = path
	return nil
}

// recorder is a tracker.Tracker which records the episodes it tracks
type recorder struct {
	episodes []env.EpisodeInfo
}

func (r *recorder) Track(ep env.EpisodeInfo) {
	r.episodes = append(r.episodes, ep)
}

func (r *recorder) Save() error { return nil }
