package policy

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/goppo/ppo2"
	"github.com/samuelfneumann/goppo/utils/op"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
)

// CategoricalMLP is a softmax policy over discrete actions, whose
// logits are predicted by an MLP. Actions are the integers in the
// bounds of the action specification.
//
// The training graph takes actions as one-hot rows, and computes
//
//	-log π(a|s) = logsumexp(logits) - logits[a]
//	H(π(·|s))   = -Σ π(a|s) log π(a|s)
type CategoricalMLP struct {
	*mlp
	numActions int
	minAction  float64
}

// NewCategoricalMLP returns a new CategoricalMLP
func NewCategoricalMLP(cfg ppo2.ModelConfig,
	c Config) (*CategoricalMLP, error) {
	numActions, err := cfg.ActionSpec.NumActions()
	if err != nil {
		return nil, fmt.Errorf("newCategoricalMLP: %v", err)
	}

	m, err := newMLP(cfg, c, numActions, numActions)
	if err != nil {
		return nil, fmt.Errorf("newCategoricalMLP: %v", err)
	}

	logits := m.trainPolicy.Prediction()
	lse := op.LogSumExp(logits, 1)

	selected := G.Must(G.Sum(G.Must(G.HadamardProd(m.actions, logits)), 1))
	negLogProbs := G.Must(G.Sub(lse, selected))

	logProbs := G.Must(G.BroadcastSub(logits, lse, nil, []byte{1}))
	probs := G.Must(G.Exp(logProbs))
	entropies := G.Must(G.Sum(G.Must(G.HadamardProd(probs, logProbs)), 1))
	entropies = G.Must(G.Neg(entropies))

	if err := m.buildObjective(negLogProbs, entropies, nil); err != nil {
		return nil, fmt.Errorf("newCategoricalMLP: %v", err)
	}

	return &CategoricalMLP{
		mlp:        m,
		numActions: numActions,
		minAction:  cfg.ActionSpec.LowerBound.AtVec(0),
	}, nil
}

// Step samples an action for each observation
func (c *CategoricalMLP) Step(obs *mat.Dense, state ppo2.State,
	_ []bool) (ppo2.StepResult, error) {
	logits, values, err := c.forward(obs, state)
	if err != nil {
		return ppo2.StepResult{}, fmt.Errorf("step: %v", err)
	}

	actions := mat.NewDense(c.nbatchAct, 1, nil)
	negLogProbs := make([]float64, c.nbatchAct)
	probs := make([]float64, c.numActions)
	for i := 0; i < c.nbatchAct; i++ {
		row := logits[i*c.numActions : (i+1)*c.numActions]
		lse := floats.LogSumExp(row)
		for j, l := range row {
			probs[j] = math.Exp(l - lse)
		}

		action := int(distuv.NewCategorical(probs, c.src).Rand())
		actions.Set(i, 0, c.minAction+float64(action))
		negLogProbs[i] = lse - row[action]
	}

	return ppo2.StepResult{
		Actions:     actions,
		Values:      values,
		State:       state,
		NegLogProbs: negLogProbs,
	}, nil
}

// Train performs a single training step on a minibatch
func (c *CategoricalMLP) Train(lr, clipRange float64,
	mb *ppo2.Batch) (ppo2.Losses, error) {
	if r, cols := mb.Actions.Dims(); r != c.nbatchTrain || cols != 1 {
		return ppo2.Losses{}, fmt.Errorf("train: illegal action shape "+
			"\n\twant(%v, 1)\n\thave(%v, %v)", c.nbatchTrain, r, cols)
	}

	oneHot := make([]float64, c.nbatchTrain*c.numActions)
	for i := 0; i < c.nbatchTrain; i++ {
		action := int(mb.Actions.At(i, 0) - c.minAction)
		if action < 0 || action >= c.numActions {
			return ppo2.Losses{}, fmt.Errorf("train: illegal action %v",
				mb.Actions.At(i, 0))
		}
		oneHot[i*c.numActions+action] = 1
	}

	losses, err := c.train(lr, clipRange, mb, oneHot)
	if err != nil {
		return ppo2.Losses{}, fmt.Errorf("train: %v", err)
	}
	return losses, nil
}
