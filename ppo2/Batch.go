package ppo2

import (
	env "github.com/samuelfneumann/goppo/environment"
	"gonum.org/v1/gonum/mat"
)

// Batch is a rollout of a number of steps in each of a number of
// environments, flattened so that all steps of a single environment are
// contiguous. Row n*T + t holds step t of environment n, where T is
// the number of steps in the rollout.
//
// Dones[i] flags whether Observations row i is the first observation
// of an episode. States is the recurrent state of each environment
// before the rollout.
type Batch struct {
	Observations *mat.Dense
	Returns      []float64
	Dones        []bool
	Actions      *mat.Dense
	Values       []float64
	NegLogProbs  []float64

	States       State
	EpisodeInfos []env.EpisodeInfo
}

// Len returns the number of samples in the Batch
func (b *Batch) Len() int {
	return len(b.Returns)
}

// Gather returns a minibatch holding the samples at indices, in order.
// The recurrent states of the minibatch are those of the environments
// envs, which may be nil if the Batch has no recurrent state.
func (b *Batch) Gather(indices []int, envs []int) *Batch {
	mb := &Batch{
		Observations: gatherRows(b.Observations, indices),
		Returns:      make([]float64, len(indices)),
		Dones:        make([]bool, len(indices)),
		Actions:      gatherRows(b.Actions, indices),
		Values:       make([]float64, len(indices)),
		NegLogProbs:  make([]float64, len(indices)),
		States:       b.States.Rows(envs),
	}

	for i, index := range indices {
		mb.Returns[i] = b.Returns[index]
		mb.Dones[i] = b.Dones[index]
		mb.Values[i] = b.Values[index]
		mb.NegLogProbs[i] = b.NegLogProbs[index]
	}
	return mb
}

// Advantages returns the advantage estimates of the samples, which are
// the returns minus the values
func (b *Batch) Advantages() []float64 {
	advs := make([]float64, len(b.Returns))
	for i := range advs {
		advs[i] = b.Returns[i] - b.Values[i]
	}
	return advs
}

func gatherRows(m *mat.Dense, indices []int) *mat.Dense {
	_, c := m.Dims()
	rows := mat.NewDense(len(indices), c, nil)
	for i, index := range indices {
		rows.SetRow(i, m.RawRowView(index))
	}
	return rows
}
