// Package policy implements policies and value functions which can be
// trained with ppo2.Learn. Each policy holds two copies of its
// networks: one which acts on a batch of one observation per
// environment, and one which is trained on minibatches. After each
// training step, the weights of the acting networks are set to those
// of the trained networks.
package policy

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/goppo/network"
	"github.com/samuelfneumann/goppo/ppo2"
	"github.com/samuelfneumann/goppo/solver"
	"github.com/samuelfneumann/goppo/utils/op"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// advEps stabilizes the standardization of advantages
const advEps = 1e-8

// mlp holds the networks and training objective shared by all
// policies. The policy and value function are separate MLPs which
// share an input.
type mlp struct {
	features    int
	nbatchAct   int
	nbatchTrain int
	entCoef     float64
	vfCoef      float64

	// Acting networks
	actGraph  *G.ExprGraph
	actPolicy network.NeuralNet
	actValue  network.NeuralNet
	actVM     G.VM

	// Training networks and the inputs to the objective
	trainGraph     *G.ExprGraph
	trainPolicy    network.NeuralNet
	trainValue     network.NeuralNet
	actions        *G.Node
	advs           *G.Node
	returns        *G.Node
	oldValues      *G.Node
	oldNegLogProbs *G.Node
	clipRange      *G.Node

	// extra holds learnables of the training graph which are not part
	// of the networks
	extra      G.Nodes
	learnables G.Nodes
	model      []G.ValueGrad
	trainVM    G.VM
	solver     *solver.Solver

	pgLoss, vfLoss, entropy, approxKL, clipFrac G.Value

	// src is the source of randomness for sampling actions
	src rand.Source
}

// newMLP creates the acting and training networks of a policy whose
// policy network has outputs outputs and whose training actions have
// actionWidth columns. The objective must be built with
// buildObjective before training.
func newMLP(cfg ppo2.ModelConfig, c Config, outputs,
	actionWidth int) (*mlp, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newMLP: %v", err)
	}
	if cfg.NBatchAct <= 0 || cfg.NBatchTrain <= 0 {
		return nil, fmt.Errorf("newMLP: batch sizes must be positive, "+
			"have act(%v) train(%v)", cfg.NBatchAct, cfg.NBatchTrain)
	}

	features := cfg.ObservationSpec.Dims()
	init := c.initWFn()

	actGraph := G.NewGraph()
	actObs := G.NewMatrix(actGraph, tensor.Float64,
		G.WithShape(cfg.NBatchAct, features), G.WithName("obs"),
		G.WithInit(G.Zeroes()))

	actPolicy, err := network.NewMultiHeadMLPFromInput(actObs, outputs,
		actGraph, c.PolicyLayers, biases(len(c.PolicyLayers)), init,
		c.PolicyActivations, "pi")
	if err != nil {
		return nil, fmt.Errorf("newMLP: could not create policy: %v", err)
	}
	actValue, err := network.NewSingleHeadMLPFromInput(actObs, actGraph,
		c.ValueLayers, biases(len(c.ValueLayers)), init, c.ValueActivations,
		"vf")
	if err != nil {
		return nil, fmt.Errorf("newMLP: could not create value function: %v",
			err)
	}

	trainGraph := G.NewGraph()
	trainObs := G.NewMatrix(trainGraph, tensor.Float64,
		G.WithShape(cfg.NBatchTrain, features), G.WithName("obs"),
		G.WithInit(G.Zeroes()))

	trainPolicy, err := actPolicy.CloneWithInputTo(trainObs, trainGraph)
	if err != nil {
		return nil, fmt.Errorf("newMLP: could not clone policy: %v", err)
	}
	trainValue, err := actValue.CloneWithInputTo(trainObs, trainGraph)
	if err != nil {
		return nil, fmt.Errorf("newMLP: could not clone value function: %v",
			err)
	}

	vector := func(name string) *G.Node {
		return G.NewVector(trainGraph, tensor.Float64,
			G.WithShape(cfg.NBatchTrain), G.WithName(name),
			G.WithInit(G.Zeroes()))
	}

	s, err := c.newSolver(cfg.MaxGradNorm)
	if err != nil {
		return nil, fmt.Errorf("newMLP: %v", err)
	}

	return &mlp{
		features:    features,
		nbatchAct:   cfg.NBatchAct,
		nbatchTrain: cfg.NBatchTrain,
		entCoef:     cfg.EntCoef,
		vfCoef:      cfg.VFCoef,

		actGraph:  actGraph,
		actPolicy: actPolicy,
		actValue:  actValue,
		actVM:     G.NewTapeMachine(actGraph),

		trainGraph:  trainGraph,
		trainPolicy: trainPolicy,
		trainValue:  trainValue,
		actions: G.NewMatrix(trainGraph, tensor.Float64,
			G.WithShape(cfg.NBatchTrain, actionWidth), G.WithName("actions"),
			G.WithInit(G.Zeroes())),
		advs:           vector("advs"),
		returns:        vector("returns"),
		oldValues:      vector("oldValues"),
		oldNegLogProbs: vector("oldNegLogProbs"),
		clipRange: G.NewScalar(trainGraph, tensor.Float64,
			G.WithName("clipRange"), G.WithValue(0.2)),

		solver: s,
		src:    rand.NewSource(cfg.Seed),
	}, nil
}

// buildObjective builds the PPO objective on the training graph given
// the negative log probabilities of the training actions and the
// entropies of the policy, one per sample. Extra learnables used to
// compute either are trained along with the networks.
func (m *mlp) buildObjective(negLogProbs, entropies *G.Node,
	extra G.Nodes) error {
	m.extra = extra
	m.learnables = append(append(append(G.Nodes{},
		m.trainPolicy.Learnables()...), m.trainValue.Learnables()...),
		extra...)
	m.model = make([]G.ValueGrad, len(m.learnables))
	for i, node := range m.learnables {
		m.model[i] = node
	}

	one := G.NewConstant(1.0)
	half := G.NewConstant(0.5)
	negClipRange := G.Must(G.Neg(m.clipRange))

	// Clipped value loss
	vpred := G.Must(G.Reshape(m.trainValue.Prediction(),
		tensor.Shape{m.nbatchTrain}))
	vdiff := G.Must(G.Sub(vpred, m.oldValues))
	vdiff, err := op.Clip(vdiff, negClipRange, m.clipRange)
	if err != nil {
		return fmt.Errorf("buildObjective: %v", err)
	}
	vpredClipped := G.Must(G.Add(m.oldValues, vdiff))
	vfLosses1 := G.Must(G.Square(G.Must(G.Sub(vpred, m.returns))))
	vfLosses2 := G.Must(G.Square(G.Must(G.Sub(vpredClipped, m.returns))))
	vfLosses, err := op.Max(vfLosses1, vfLosses2)
	if err != nil {
		return fmt.Errorf("buildObjective: %v", err)
	}
	vfLoss := G.Must(G.Mul(half, G.Must(G.Mean(vfLosses))))

	// Clipped surrogate loss
	ratio := G.Must(G.Exp(G.Must(G.Sub(m.oldNegLogProbs, negLogProbs))))
	clippedRatio, err := op.Clip(ratio, G.Must(G.Sub(one, m.clipRange)),
		G.Must(G.Add(one, m.clipRange)))
	if err != nil {
		return fmt.Errorf("buildObjective: %v", err)
	}
	negAdvs := G.Must(G.Neg(m.advs))
	pgLosses1 := G.Must(G.HadamardProd(negAdvs, ratio))
	pgLosses2 := G.Must(G.HadamardProd(negAdvs, clippedRatio))
	pgLosses, err := op.Max(pgLosses1, pgLosses2)
	if err != nil {
		return fmt.Errorf("buildObjective: %v", err)
	}
	pgLoss := G.Must(G.Mean(pgLosses))

	entropy := G.Must(G.Mean(entropies))

	// loss = pg - ent * H + vf * vfloss
	loss := G.Must(G.Sub(pgLoss,
		G.Must(G.Mul(G.NewConstant(m.entCoef), entropy))))
	loss = G.Must(G.Add(loss,
		G.Must(G.Mul(G.NewConstant(m.vfCoef), vfLoss))))

	// Diagnostics
	nlpDiff := G.Must(G.Sub(negLogProbs, m.oldNegLogProbs))
	approxKL := G.Must(G.Mul(half, G.Must(G.Mean(G.Must(G.Square(nlpDiff))))))
	clipped := G.Must(G.Gt(G.Must(G.Abs(G.Must(G.Sub(ratio, one)))),
		m.clipRange, true))
	clipFrac := G.Must(G.Mean(clipped))

	G.Read(pgLoss, &m.pgLoss)
	G.Read(vfLoss, &m.vfLoss)
	G.Read(entropy, &m.entropy)
	G.Read(approxKL, &m.approxKL)
	G.Read(clipFrac, &m.clipFrac)

	if _, err := G.Grad(loss, m.learnables...); err != nil {
		return fmt.Errorf("buildObjective: could not compute gradient: %v",
			err)
	}
	m.trainVM = G.NewTapeMachine(m.trainGraph,
		G.BindDualValues(m.learnables...))

	return nil
}

// forward runs the acting networks on a batch of observations and
// returns the outputs of the policy network and the predicted values
func (m *mlp) forward(obs *mat.Dense, state ppo2.State) (outputs,
	values []float64, err error) {
	if !state.IsNone() {
		return nil, nil, fmt.Errorf("forward: memoryless policy cannot " +
			"use recurrent state")
	}
	if r, c := obs.Dims(); r != m.nbatchAct || c != m.features {
		return nil, nil, fmt.Errorf("forward: illegal observation shape "+
			"\n\twant(%v, %v)\n\thave(%v, %v)", m.nbatchAct, m.features, r, c)
	}

	// The policy and value function share an input node
	input := mat.DenseCopyOf(obs).RawMatrix().Data
	if err := m.actPolicy.SetInput(input); err != nil {
		return nil, nil, fmt.Errorf("forward: %v", err)
	}
	if err := m.actVM.RunAll(); err != nil {
		return nil, nil, fmt.Errorf("forward: %v", err)
	}
	defer m.actVM.Reset()

	outputs = append([]float64(nil),
		m.actPolicy.Output().Data().([]float64)...)
	values = append([]float64(nil), m.actValue.Output().Data().([]float64)...)
	return outputs, values, nil
}

// Value returns the predicted values of a batch of observations
func (m *mlp) Value(obs *mat.Dense, state ppo2.State,
	_ []bool) ([]float64, error) {
	_, values, err := m.forward(obs, state)
	if err != nil {
		return nil, fmt.Errorf("value: %v", err)
	}
	return values, nil
}

// train performs a single training step on a minibatch whose actions
// have already been encoded for the training graph
func (m *mlp) train(lr, clipRange float64, mb *ppo2.Batch,
	actions []float64) (ppo2.Losses, error) {
	if mb.Len() != m.nbatchTrain {
		return ppo2.Losses{}, fmt.Errorf("train: illegal minibatch size "+
			"\n\twant(%v)\n\thave(%v)", m.nbatchTrain, mb.Len())
	}
	if !mb.States.IsNone() {
		return ppo2.Losses{}, fmt.Errorf("train: memoryless policy cannot " +
			"use recurrent state")
	}

	advs := standardize(mb.Advantages())

	input := mat.DenseCopyOf(mb.Observations).RawMatrix().Data
	if err := m.trainPolicy.SetInput(input); err != nil {
		return ppo2.Losses{}, fmt.Errorf("train: %v", err)
	}
	inputs := []struct {
		node *G.Node
		data []float64
	}{
		{m.actions, actions},
		{m.advs, advs},
		{m.returns, mb.Returns},
		{m.oldValues, mb.Values},
		{m.oldNegLogProbs, mb.NegLogProbs},
	}
	for _, in := range inputs {
		t := tensor.New(tensor.WithShape(in.node.Shape()...),
			tensor.WithBacking(append([]float64(nil), in.data...)))
		if err := G.Let(in.node, t); err != nil {
			return ppo2.Losses{}, fmt.Errorf("train: could not set %v: %v",
				in.node.Name(), err)
		}
	}
	// The clipping ops select with 0/1 masks, so the bounds must be
	// finite. An infinite clip range still clips nothing.
	clipRange = math.Min(clipRange, math.MaxFloat64)
	if err := G.Let(m.clipRange, clipRange); err != nil {
		return ppo2.Losses{}, fmt.Errorf("train: could not set clip range: "+
			"%v", err)
	}

	m.solver.SetLearningRate(lr)
	if err := m.trainVM.RunAll(); err != nil {
		return ppo2.Losses{}, fmt.Errorf("train: %v", err)
	}
	losses := ppo2.Losses{
		PolicyLoss:    scalar(m.pgLoss),
		ValueLoss:     scalar(m.vfLoss),
		PolicyEntropy: scalar(m.entropy),
		ApproxKL:      scalar(m.approxKL),
		ClipFrac:      scalar(m.clipFrac),
	}
	if err := m.solver.Step(m.model); err != nil {
		return ppo2.Losses{}, fmt.Errorf("train: %v", err)
	}
	m.trainVM.Reset()

	if err := m.sync(); err != nil {
		return ppo2.Losses{}, fmt.Errorf("train: %v", err)
	}
	return losses, nil
}

// sync sets the weights of the acting networks to those of the
// training networks
func (m *mlp) sync() error {
	if err := m.actPolicy.Set(m.trainPolicy); err != nil {
		return fmt.Errorf("sync: %v", err)
	}
	if err := m.actValue.Set(m.trainValue); err != nil {
		return fmt.Errorf("sync: %v", err)
	}
	return nil
}

// InitialState returns the absent state, since MLPs are memoryless
func (m *mlp) InitialState() ppo2.State {
	return ppo2.NoState()
}

// Save saves the policy weights, value function weights, and extra
// learnables to a file at path, in that order
func (m *mlp) Save(path string) error {
	if err := network.SaveParams(path, m.learnables); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// Load loads weights saved with Save
func (m *mlp) Load(path string) error {
	if err := network.LoadParams(path, m.learnables); err != nil {
		return fmt.Errorf("load: %v", err)
	}
	if err := m.sync(); err != nil {
		return fmt.Errorf("load: %v", err)
	}
	return nil
}

// standardize returns (x - mean(x)) / (std(x) + 1e-8)
func standardize(x []float64) []float64 {
	mean := stat.Mean(x, nil)
	std := math.Sqrt(stat.PopVariance(x, nil))

	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - mean) / (std + advEps)
	}
	return out
}

func scalar(v G.Value) float64 {
	if v == nil {
		return math.NaN()
	}
	f, ok := v.Data().(float64)
	if !ok {
		return math.NaN()
	}
	return f
}

func biases(n int) []bool {
	b := make([]bool, n)
	for i := range b {
		b[i] = true
	}
	return b
}
