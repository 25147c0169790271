package policy

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/goppo/ppo2"
	"github.com/samuelfneumann/goppo/utils/op"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// GaussianMLP is a diagonal Gaussian policy over continuous actions.
// The mean is predicted by an MLP, and the log standard deviation is
// a learned vector which does not depend on the observation.
//
// Actions are sampled as μ + σε with ε ~ N(0, 1). The entropy of the
// policy is Σ (log σ + ½ log 2πe).
type GaussianMLP struct {
	*mlp
	actionDims int
	logStd     *G.Node
	normal     distuv.Normal
}

// NewGaussianMLP returns a new GaussianMLP
func NewGaussianMLP(cfg ppo2.ModelConfig, c Config) (*GaussianMLP, error) {
	actionDims := cfg.ActionSpec.Dims()
	if actionDims <= 0 {
		return nil, fmt.Errorf("newGaussianMLP: actions must have at "+
			"least one dimension, have(%v)", actionDims)
	}

	m, err := newMLP(cfg, c, actionDims, actionDims)
	if err != nil {
		return nil, fmt.Errorf("newGaussianMLP: %v", err)
	}

	initial := make([]float64, actionDims)
	for i := range initial {
		initial[i] = c.InitLogStd
	}
	logStd := G.NewMatrix(m.trainGraph, tensor.Float64,
		G.WithShape(1, actionDims), G.WithName("logStd"),
		G.WithValue(tensor.New(tensor.WithShape(1, actionDims),
			tensor.WithBacking(initial))))

	// Repeat the log standard deviation for each sample in the batch
	ones := G.NewMatrix(m.trainGraph, tensor.Float64,
		G.WithShape(m.nbatchTrain, 1), G.WithName("ones"),
		G.WithInit(G.Ones()))
	logStds := G.Must(G.Mul(ones, logStd))

	mean := m.trainPolicy.Prediction()
	negLogProbs := G.Must(G.Neg(op.GaussianLogPdf(mean, logStds, m.actions)))

	entropy := G.Must(G.Add(G.Must(G.Sum(logStd)),
		G.NewConstant(0.5*float64(actionDims)*math.Log(2*math.Pi*math.E))))
	entropies := G.Must(G.Mul(G.Must(G.Reshape(ones,
		tensor.Shape{m.nbatchTrain})), entropy))

	if err := m.buildObjective(negLogProbs, entropies,
		G.Nodes{logStd}); err != nil {
		return nil, fmt.Errorf("newGaussianMLP: %v", err)
	}

	return &GaussianMLP{
		mlp:        m,
		actionDims: actionDims,
		logStd:     logStd,
		normal:     distuv.Normal{Mu: 0, Sigma: 1, Src: m.src},
	}, nil
}

// LogStd returns the current log standard deviation of the policy
func (g *GaussianMLP) LogStd() []float64 {
	return append([]float64(nil), g.logStd.Value().Data().([]float64)...)
}

// Step samples an action for each observation
func (g *GaussianMLP) Step(obs *mat.Dense, state ppo2.State,
	_ []bool) (ppo2.StepResult, error) {
	means, values, err := g.forward(obs, state)
	if err != nil {
		return ppo2.StepResult{}, fmt.Errorf("step: %v", err)
	}

	logStd := g.LogStd()
	actions := mat.NewDense(g.nbatchAct, g.actionDims, nil)
	negLogProbs := make([]float64, g.nbatchAct)
	for i := 0; i < g.nbatchAct; i++ {
		for j := 0; j < g.actionDims; j++ {
			dist := distuv.Normal{
				Mu:    means[i*g.actionDims+j],
				Sigma: math.Exp(logStd[j]),
			}
			a := dist.Mu + dist.Sigma*g.normal.Rand()
			actions.Set(i, j, a)
			negLogProbs[i] -= dist.LogProb(a)
		}
	}

	return ppo2.StepResult{
		Actions:     actions,
		Values:      values,
		State:       state,
		NegLogProbs: negLogProbs,
	}, nil
}

// Train performs a single training step on a minibatch
func (g *GaussianMLP) Train(lr, clipRange float64,
	mb *ppo2.Batch) (ppo2.Losses, error) {
	if r, c := mb.Actions.Dims(); r != g.nbatchTrain || c != g.actionDims {
		return ppo2.Losses{}, fmt.Errorf("train: illegal action shape "+
			"\n\twant(%v, %v)\n\thave(%v, %v)", g.nbatchTrain, g.actionDims,
			r, c)
	}

	actions := mat.DenseCopyOf(mb.Actions).RawMatrix().Data
	losses, err := g.train(lr, clipRange, mb, actions)
	if err != nil {
		return ppo2.Losses{}, fmt.Errorf("train: %v", err)
	}
	return losses, nil
}
