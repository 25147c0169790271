package ppo2

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
)

// ErrBatchSize is returned when a batch cannot be evenly divided into
// minibatches
var ErrBatchSize = errors.New("batch size not divisible by minibatches")

// FlatMinibatches shuffles the indices [0, nbatch) and partitions them
// into minibatches of nbatchTrain indices
func FlatMinibatches(rng *rand.Rand, nbatch, nbatchTrain int) ([][]int,
	error) {
	if nbatchTrain <= 0 || nbatch <= 0 || nbatch%nbatchTrain != 0 {
		return nil, fmt.Errorf("flatMinibatches: cannot split %v samples "+
			"into minibatches of %v: %w", nbatch, nbatchTrain, ErrBatchSize)
	}

	inds := rng.Perm(nbatch)
	mbs := make([][]int, 0, nbatch/nbatchTrain)
	for start := 0; start < nbatch; start += nbatchTrain {
		mbs = append(mbs, inds[start:start+nbatchTrain])
	}
	return mbs, nil
}

// RecurrentMinibatches shuffles the environments [0, nenvs) and
// partitions them into minibatches of envsPerBatch environments. For
// each minibatch, the indices of all nsteps steps of each of its
// environments are returned in temporal order, using the layout of a
// Batch, along with the environments themselves.
func RecurrentMinibatches(rng *rand.Rand, nenvs, nsteps,
	envsPerBatch int) (inds, envs [][]int, err error) {
	if envsPerBatch <= 0 || nenvs <= 0 || nenvs%envsPerBatch != 0 {
		return nil, nil, fmt.Errorf("recurrentMinibatches: cannot split %v "+
			"environments into minibatches of %v: %w", nenvs, envsPerBatch,
			ErrBatchSize)
	}

	perm := rng.Perm(nenvs)
	for start := 0; start < nenvs; start += envsPerBatch {
		mbEnvs := perm[start : start+envsPerBatch]

		mbInds := make([]int, 0, envsPerBatch*nsteps)
		for _, env := range mbEnvs {
			for t := 0; t < nsteps; t++ {
				mbInds = append(mbInds, env*nsteps+t)
			}
		}

		inds = append(inds, mbInds)
		envs = append(envs, mbEnvs)
	}
	return inds, envs, nil
}

// checkBatchSize returns an error wrapping ErrBatchSize if a batch of
// nenvs environments and nsteps steps cannot be split into
// nminibatches minibatches
func checkBatchSize(nenvs, nsteps, nminibatches int, recurrent bool) error {
	nbatch := nenvs * nsteps
	if nminibatches <= 0 || nbatch%nminibatches != 0 {
		return fmt.Errorf("batch size %v not divisible by %v minibatches: "+
			"%w", nbatch, nminibatches, ErrBatchSize)
	}
	if recurrent && nenvs%nminibatches != 0 {
		return fmt.Errorf("number of environments %v not divisible by %v "+
			"minibatches: %w", nenvs, nminibatches, ErrBatchSize)
	}
	return nil
}
