package ppo2

import (
	"fmt"

	env "github.com/samuelfneumann/goppo/environment"
	"github.com/samuelfneumann/goppo/utils/floatutils"
	"gonum.org/v1/gonum/mat"
)

// Runner collects rollouts of a fixed number of steps from a VecEnv
// using a Model. The current observations, recurrent state, and done
// flags persist across calls to Run, so consecutive rollouts continue
// the same episodes.
type Runner struct {
	env    env.VecEnv
	model  Model
	nsteps int
	gamma  float64
	lambda float64

	obs   *mat.Dense
	state State
	dones []bool

	// Bounds which continuous actions are clipped to before stepping
	// the environment. Nil for discrete actions.
	low, high []float64
}

// NewRunner returns a new Runner which takes nsteps steps in each
// environment per rollout and computes advantages with discount gamma
// and GAE parameter lambda. The environment is reset once.
func NewRunner(e env.VecEnv, model Model, nsteps int, gamma,
	lambda float64) (*Runner, error) {
	if nsteps <= 0 {
		return nil, fmt.Errorf("newRunner: nsteps must be positive, "+
			"have(%v)", nsteps)
	}

	obs, err := e.Reset()
	if err != nil {
		return nil, fmt.Errorf("newRunner: could not reset environment: %v",
			err)
	}

	r := &Runner{
		env:    e,
		model:  model,
		nsteps: nsteps,
		gamma:  gamma,
		lambda: lambda,
		obs:    obs,
		state:  model.InitialState(),
		dones:  make([]bool, e.NumEnvs()),
	}

	spec := e.ActionSpec()
	if spec.Cardinality == env.Continuous {
		r.low = vecData(spec.LowerBound)
		r.high = vecData(spec.UpperBound)
	}

	return r, nil
}

// Run collects a rollout of nsteps steps in each environment and
// returns it flattened, with returns computed by GAE
func (r *Runner) Run() (*Batch, error) {
	nenvs := r.env.NumEnvs()
	_, obsDims := r.obs.Dims()
	initialState := r.state.Clone()

	var actDims int
	mbObs := make([][]float64, r.nsteps)
	mbActions := make([][]float64, r.nsteps)
	mbRewards := make([][]float64, r.nsteps)
	mbValues := make([][]float64, r.nsteps)
	mbNegLogProbs := make([][]float64, r.nsteps)
	mbDones := make([][]bool, r.nsteps)
	var epInfos []env.EpisodeInfo

	for t := 0; t < r.nsteps; t++ {
		res, err := r.model.Step(r.obs, r.state, r.dones)
		if err != nil {
			return nil, fmt.Errorf("run: could not step model: %v", err)
		}
		if len(res.Values) != nenvs || len(res.NegLogProbs) != nenvs {
			return nil, fmt.Errorf("run: model returned %v values and %v "+
				"negative log probabilities for %v environments",
				len(res.Values), len(res.NegLogProbs), nenvs)
		}

		_, actDims = res.Actions.Dims()
		mbObs[t] = denseData(r.obs)
		mbActions[t] = denseData(res.Actions)
		mbValues[t] = append([]float64(nil), res.Values...)
		mbNegLogProbs[t] = append([]float64(nil), res.NegLogProbs...)
		mbDones[t] = append([]bool(nil), r.dones...)

		actions, err := r.clip(res.Actions)
		if err != nil {
			return nil, fmt.Errorf("run: %v", err)
		}
		obs, rewards, dones, infos, err := r.env.Step(actions)
		if err != nil {
			return nil, fmt.Errorf("run: could not step environment: %v",
				err)
		}
		for _, info := range infos {
			if info.Episode != nil {
				epInfos = append(epInfos, *info.Episode)
			}
		}

		mbRewards[t] = rewards
		r.obs = obs
		r.state = res.State
		r.dones = dones
	}

	lastValues, err := r.model.Value(r.obs, r.state, r.dones)
	if err != nil {
		return nil, fmt.Errorf("run: could not compute bootstrap value: %v",
			err)
	}

	_, returns := GAE(mbRewards, mbValues, mbDones, lastValues, r.dones,
		r.gamma, r.lambda)

	nbatch := nenvs * r.nsteps
	return &Batch{
		Observations: mat.NewDense(nbatch, obsDims,
			SwapAndFlatten(mbObs, obsDims)),
		Returns: SwapAndFlatten(returns, 1),
		Dones:   SwapAndFlattenBools(mbDones),
		Actions: mat.NewDense(nbatch, actDims,
			SwapAndFlatten(mbActions, actDims)),
		Values:       SwapAndFlatten(mbValues, 1),
		NegLogProbs:  SwapAndFlatten(mbNegLogProbs, 1),
		States:       initialState,
		EpisodeInfos: epInfos,
	}, nil
}

// clip returns the actions clipped to the bounds of the action space.
// The unclipped actions are the ones stored in the rollout.
func (r *Runner) clip(actions *mat.Dense) (*mat.Dense, error) {
	if r.low == nil {
		return actions, nil
	}
	if _, c := actions.Dims(); c != len(r.low) {
		return nil, fmt.Errorf("clip: illegal action dimension \n\twant(%v)"+
			"\n\thave(%v)", len(r.low), c)
	}

	clipped := mat.DenseCopyOf(actions)
	clipped.Apply(func(_, j int, v float64) float64 {
		return floatutils.Clip(v, r.low[j], r.high[j])
	}, clipped)
	return clipped, nil
}

// denseData returns a copy of the data of m in row-major order
func denseData(m *mat.Dense) []float64 {
	return mat.DenseCopyOf(m).RawMatrix().Data
}

func vecData(v mat.Vector) []float64 {
	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return data
}
