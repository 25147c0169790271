// Package network implements feed forward neural networks on Gorgonia
// computational graphs.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a neural network whose forward pass has been added to
// a computational graph. The network's prediction is available through
// Output after the graph has been run by a VM.
type NeuralNet interface {
	Graph() *G.ExprGraph

	// CloneWithInputTo clones the network's architecture and current
	// weights to a graph, using input as the input node of the clone
	CloneWithInputTo(input *G.Node, g *G.ExprGraph) (NeuralNet, error)

	BatchSize() int
	Features() int
	Outputs() int
	SetInput([]float64) error
	Set(NeuralNet) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node
}
