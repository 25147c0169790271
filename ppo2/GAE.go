package ppo2

// GAE computes generalized advantage estimates and returns of a
// rollout. All arguments are time-major: rewards[t][n] is the reward
// for step t of environment n. dones[t][n] flags whether the
// observation at step t of environment n started an episode, and
// lastValues and lastDones are the values and flags of the
// observations following the last step.
//
// The advantage at step t is
//
//	δ_t + γλ(1 - d_{t+1})A_{t+1}
//
// where δ_t = r_t + γ(1 - d_{t+1})V_{t+1} - V_t, and the return is
// A_t + V_t.
func GAE(rewards, values [][]float64, dones [][]bool, lastValues []float64,
	lastDones []bool, gamma, lambda float64) (advs, returns [][]float64) {
	nsteps := len(rewards)
	advs = make([][]float64, nsteps)
	returns = make([][]float64, nsteps)
	if nsteps == 0 {
		return
	}

	nenvs := len(rewards[0])
	lastGAELam := make([]float64, nenvs)
	for t := nsteps - 1; t >= 0; t-- {
		advs[t] = make([]float64, nenvs)
		returns[t] = make([]float64, nenvs)

		var nextValues []float64
		var nextDones []bool
		if t == nsteps-1 {
			nextValues, nextDones = lastValues, lastDones
		} else {
			nextValues, nextDones = values[t+1], dones[t+1]
		}

		for n := 0; n < nenvs; n++ {
			nextNonTerminal := 1.0
			if nextDones[n] {
				nextNonTerminal = 0.0
			}

			delta := rewards[t][n] + gamma*nextValues[n]*nextNonTerminal -
				values[t][n]
			lastGAELam[n] = delta + gamma*lambda*nextNonTerminal*lastGAELam[n]

			advs[t][n] = lastGAELam[n]
			returns[t][n] = advs[t][n] + values[t][n]
		}
	}
	return advs, returns
}

// SwapAndFlatten flattens time-major rollout data so that all steps of
// an environment are contiguous. Each steps[t] holds width values for
// each environment, and element k of environment n at step t is moved
// to index (n*T + t)*width + k of the result, where T = len(steps).
func SwapAndFlatten(steps [][]float64, width int) []float64 {
	nsteps := len(steps)
	if nsteps == 0 {
		return nil
	}
	nenvs := len(steps[0]) / width

	flat := make([]float64, nsteps*nenvs*width)
	for t, step := range steps {
		for n := 0; n < nenvs; n++ {
			copy(flat[(n*nsteps+t)*width:(n*nsteps+t+1)*width],
				step[n*width:(n+1)*width])
		}
	}
	return flat
}

// SwapAndFlattenBools is SwapAndFlatten for single flags per
// environment
func SwapAndFlattenBools(steps [][]bool) []bool {
	nsteps := len(steps)
	if nsteps == 0 {
		return nil
	}
	nenvs := len(steps[0])

	flat := make([]bool, nsteps*nenvs)
	for t, step := range steps {
		for n, v := range step {
			flat[n*nsteps+t] = v
		}
	}
	return flat
}
